package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/menta2k/image-cropper/internal/config"
)

// DefaultImageExtensions are the formats the processor can decode
var DefaultImageExtensions = []string{"jpg", "jpeg", "png", "gif", "bmp", "tif", "tiff", "webp"}

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// GetFileExtension returns the file extension without the dot
func GetFileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 0 {
		return strings.ToLower(ext[1:])
	}
	return ""
}

// IsImageFile checks if a file has one of exts. Nil exts uses
// DefaultImageExtensions.
func IsImageFile(filename string, exts []string) bool {
	if exts == nil {
		exts = DefaultImageExtensions
	}
	ext := GetFileExtension(filename)
	return ext != "" && slices.ContainsFunc(exts, func(e string) bool {
		return strings.EqualFold(strings.TrimPrefix(e, "."), ext)
	})
}

// GenerateOutputFilename generates an output filename based on input and parameters
func GenerateOutputFilename(inputFile, outputDir, prefix, suffix, format string) string {
	baseName := filepath.Base(inputFile)
	nameWithoutExt := strings.TrimSuffix(baseName, filepath.Ext(baseName))

	if format == "" {
		format = GetFileExtension(inputFile)
		if format == "" {
			format = "jpg"
		}
	}
	if outputDir == "" {
		outputDir = filepath.Dir(inputFile)
	}

	outputName := fmt.Sprintf("%s%s%s.%s", prefix, SanitizeFilename(nameWithoutExt), suffix, strings.ToLower(format))
	return filepath.Join(outputDir, outputName)
}

// OutputNamer returns the function mapping an input image to the file its
// crop is written to
func OutputNamer(out config.OutputConfig) func(string) string {
	if out.Overwrite {
		return func(path string) string { return path }
	}
	return func(path string) string {
		return GenerateOutputFilename(path, out.OutputDir, out.Prefix, out.Suffix, out.DefaultFormat)
	}
}

// ListImageFiles recursively lists all image files in a directory
func ListImageFiles(dir string, exts []string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && IsImageFile(path, exts) {
			files = append(files, path)
		}

		return nil
	})

	return files, err
}

// ExpandInputs turns command line arguments into image paths. Directories
// are walked for image files in lexical order; files are kept as given.
func ExpandInputs(args []string, exts []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, arg := range args {
		if DirExists(arg) {
			files, err := ListImageFiles(arg, exts)
			if err != nil {
				return nil, fmt.Errorf("failed to list %s: %w", arg, err)
			}
			slices.Sort(files)
			for _, f := range files {
				add(f)
			}
			continue
		}
		if !FileExists(arg) {
			return nil, fmt.Errorf("input %s does not exist", arg)
		}
		add(arg)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no image files found")
	}
	return out, nil
}

// FileExists checks if a file exists and is not a directory
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists checks if a directory exists
func DirExists(dirname string) bool {
	info, err := os.Stat(dirname)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// SanitizeFilename removes or replaces invalid characters in filenames
func SanitizeFilename(filename string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := filename

	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}

	// Remove leading/trailing spaces and dots
	return strings.Trim(result, " .")
}

// FormatFileSize formats file size in human-readable format
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
