package batch

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-cropper/pkg/types"
)

var errNotFound = errors.New("no such file")

type fakeDims map[string]types.ImageBounds

func (f fakeDims) Dimensions(path string) (types.ImageBounds, error) {
	b, ok := f[path]
	if !ok {
		return types.ImageBounds{}, fmt.Errorf("stat %s: %w", path, errNotFound)
	}
	return b, nil
}

func TestSelectReferenceSingle(t *testing.T) {
	sel, err := SelectReference([]string{"a.png"}, fakeDims{"a.png": {Width: 10, Height: 20}})
	require.NoError(t, err)
	assert.Equal(t, 0, sel.ReferenceIndex)
	assert.False(t, sel.IsMultiSize)
	assert.Equal(t, "a.png", sel.Reference())
	assert.Equal(t, []string{"a.png"}, sel.Targets())
}

func TestSelectReferenceIdenticalSizes(t *testing.T) {
	dims := fakeDims{
		"a.png": {Width: 640, Height: 480},
		"b.png": {Width: 640, Height: 480},
		"c.png": {Width: 640, Height: 480},
	}
	sel, err := SelectReference([]string{"a.png", "b.png", "c.png"}, dims)
	require.NoError(t, err)
	assert.Equal(t, 0, sel.ReferenceIndex)
	assert.False(t, sel.IsMultiSize)
	assert.Equal(t, []string{"a.png", "b.png", "c.png"}, sel.Targets())
}

func TestSelectReferenceSmallestArea(t *testing.T) {
	dims := fakeDims{
		"a.png": {Width: 100, Height: 100},
		"b.png": {Width: 50, Height: 200},
		"c.png": {Width: 300, Height: 10},
	}
	sel, err := SelectReference([]string{"a.png", "b.png", "c.png"}, dims)
	require.NoError(t, err)
	assert.Equal(t, 2, sel.ReferenceIndex)
	assert.True(t, sel.IsMultiSize)
	assert.Equal(t, types.ImageBounds{Width: 300, Height: 10}, sel.ReferenceBounds())
	assert.Equal(t, []string{"c.png"}, sel.Targets())
}

func TestSelectReferenceTieKeepsFirst(t *testing.T) {
	dims := fakeDims{
		"big.png":  {Width: 400, Height: 400},
		"wide.png": {Width: 200, Height: 100},
		"tall.png": {Width: 100, Height: 200},
	}
	sel, err := SelectReference([]string{"big.png", "wide.png", "tall.png"}, dims)
	require.NoError(t, err)
	assert.Equal(t, 1, sel.ReferenceIndex)
	assert.True(t, sel.IsMultiSize)
}

func TestSelectReferenceSkipsUnreadable(t *testing.T) {
	dims := fakeDims{
		"b.png": {Width: 800, Height: 600},
		"c.png": {Width: 400, Height: 300},
	}
	paths := []string{"missing.png", "b.png", "c.png"}
	sel, err := SelectReference(paths, dims)
	require.NoError(t, err)

	assert.Equal(t, paths, sel.Paths)
	assert.Equal(t, 2, sel.ReferenceIndex)
	assert.True(t, sel.IsMultiSize)
	assert.False(t, sel.Readable(0))
	require.Len(t, sel.Unreadable, 1)
	assert.Equal(t, "missing.png", sel.Unreadable[0].Path)
	assert.ErrorIs(t, sel.Unreadable[0], errNotFound)
}

func TestSelectReferenceUnreadableSameSize(t *testing.T) {
	dims := fakeDims{
		"b.png": {Width: 800, Height: 600},
		"c.png": {Width: 800, Height: 600},
	}
	sel, err := SelectReference([]string{"missing.png", "b.png", "c.png"}, dims)
	require.NoError(t, err)
	assert.Equal(t, 1, sel.ReferenceIndex)
	assert.False(t, sel.IsMultiSize)
	assert.Equal(t, []string{"b.png", "c.png"}, sel.Targets())
}

func TestSelectReferenceAllUnreadable(t *testing.T) {
	dims := DimensionsFunc(func(path string) (types.ImageBounds, error) {
		if path == "zero.png" {
			return types.ImageBounds{}, nil
		}
		return types.ImageBounds{}, errNotFound
	})

	_, err := SelectReference([]string{"x.png", "zero.png"}, dims)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllImagesUnreadable)
	assert.ErrorIs(t, err, errNotFound)
	assert.Contains(t, err.Error(), "x.png")
	assert.Contains(t, err.Error(), "zero.png")

	var all *AllImagesUnreadableError
	require.ErrorAs(t, err, &all)
	assert.Len(t, all.Failures, 2)
}

func TestSelectReferenceEmpty(t *testing.T) {
	_, err := SelectReference(nil, fakeDims{})
	assert.ErrorIs(t, err, ErrNoImages)
}
