package cropper

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AspectRatio represents a named width:height shape
type AspectRatio struct {
	Width  float64
	Height float64
	Name   string
}

// Common aspect ratios
var (
	Square     = AspectRatio{1, 1, "1:1"}
	Widescreen = AspectRatio{16, 9, "16:9"}
	Standard   = AspectRatio{4, 3, "4:3"}
	Classic    = AspectRatio{3, 2, "3:2"}
	Golden     = AspectRatio{math.Phi, 1, "golden"}
)

// CommonAspectRatios returns the presets in menu order
func CommonAspectRatios() []AspectRatio {
	return []AspectRatio{Square, Widescreen, Standard, Classic, Golden}
}

// Value returns width / height, 0 when the height is not positive
func (a AspectRatio) Value() float64 {
	if a.Height <= 0 {
		return 0
	}
	return a.Width / a.Height
}

func (a AspectRatio) String() string {
	if a.Name != "" {
		return a.Name
	}
	return strconv.FormatFloat(a.Value(), 'f', 3, 64)
}

// ParseAspectRatio accepts a preset name ("square", "golden"), a "w:h" or
// "w/h" pair, or a plain decimal ratio such as "1.5".
func ParseAspectRatio(s string) (AspectRatio, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "square":
		return Square, nil
	case "golden", "phi":
		return Golden, nil
	}
	for _, preset := range CommonAspectRatios() {
		if s == preset.Name {
			return preset, nil
		}
	}

	var ratio AspectRatio
	if i := strings.IndexAny(s, ":/"); i >= 0 {
		w, err := strconv.ParseFloat(s[:i], 64)
		if err != nil {
			return AspectRatio{}, fmt.Errorf("%w: aspect ratio %q", ErrInvalidArgument, s)
		}
		h, err := strconv.ParseFloat(s[i+1:], 64)
		if err != nil {
			return AspectRatio{}, fmt.Errorf("%w: aspect ratio %q", ErrInvalidArgument, s)
		}
		ratio = AspectRatio{Width: w, Height: h, Name: s}
	} else {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return AspectRatio{}, fmt.Errorf("%w: aspect ratio %q", ErrInvalidArgument, s)
		}
		ratio = AspectRatio{Width: v, Height: 1, Name: s}
	}

	if !validRatio(ratio.Value()) || ratio.Width <= 0 {
		return AspectRatio{}, fmt.Errorf("%w: aspect ratio %q must be positive", ErrInvalidArgument, s)
	}
	return ratio, nil
}

// LockKind selects how a ratio lock is obtained
type LockKind int

const (
	LockFree LockKind = iota
	LockCurrent
	LockOriginal
	LockPreset
)

func (k LockKind) String() string {
	switch k {
	case LockFree:
		return "free"
	case LockCurrent:
		return "current"
	case LockOriginal:
		return "original"
	case LockPreset:
		return "preset"
	}
	return fmt.Sprintf("LockKind(%d)", int(k))
}

// LockRequest asks the engine to change its ratio lock. Preset is only read
// for LockPreset.
type LockRequest struct {
	Kind   LockKind
	Preset AspectRatio
}

// FreeForm unlocks the ratio
func FreeForm() LockRequest { return LockRequest{Kind: LockFree} }

// Current locks to the shape of the live box
func Current() LockRequest { return LockRequest{Kind: LockCurrent} }

// Original locks to the shape of the source image
func Original() LockRequest { return LockRequest{Kind: LockOriginal} }

// Preset locks to a fixed aspect ratio
func Preset(a AspectRatio) LockRequest { return LockRequest{Kind: LockPreset, Preset: a} }

// ParseLockRequest maps user input ("free", "current", "original" or
// anything ParseAspectRatio accepts) to a request.
func ParseLockRequest(s string) (LockRequest, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "free", "none":
		return FreeForm(), nil
	case "current", "lock":
		return Current(), nil
	case "original", "source":
		return Original(), nil
	}
	a, err := ParseAspectRatio(s)
	if err != nil {
		return LockRequest{}, err
	}
	return Preset(a), nil
}

// RatioLock constrains width / height during resize gestures. When Locked is
// set, Ratio is finite and positive.
type RatioLock struct {
	Locked bool    `json:"locked"`
	Ratio  float64 `json:"ratio,omitempty"`
}

// Valid reports whether the lock satisfies its invariant
func (l RatioLock) Valid() bool {
	return !l.Locked || validRatio(l.Ratio)
}

func (l RatioLock) String() string {
	if !l.Locked {
		return "free"
	}
	for _, preset := range CommonAspectRatios() {
		if math.Abs(preset.Value()-l.Ratio) < 1e-3 {
			return preset.Name
		}
	}
	return strconv.FormatFloat(l.Ratio, 'f', 3, 64)
}

func validRatio(r float64) bool {
	return r > 0 && !math.IsInf(r, 0) && !math.IsNaN(r)
}
