package utils

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

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

// frameExts are the formats the frame loader can decode
var frameExts = []string{"jpg", "jpeg", "png", "gif", "webp"}

// IsImageFile checks if a file has a decodable frame extension
func IsImageFile(filename string) bool {
	ext := GetFileExtension(filename)
	for _, frameExt := range frameExts {
		if ext == frameExt {
			return true
		}
	}
	return false
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

	outputName := fmt.Sprintf("%s%s%s.%s", prefix, nameWithoutExt, suffix, format)
	return filepath.Join(outputDir, outputName)
}

// ListImageFiles recursively lists all frame files in a directory in lexical
// order, which is playback order for numbered frame dumps
func ListImageFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsImageFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// ResolveFrames expands input into a frame list: a URL or file is a single
// frame, a directory yields every frame file inside it
func ResolveFrames(input string) ([]string, error) {
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return []string{input}, nil
	}
	if DirExists(input) {
		files, err := ListImageFiles(input)
		if err != nil {
			return nil, fmt.Errorf("failed to list frames in %s: %w", input, err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no frame files found in %s", input)
		}
		return files, nil
	}
	if FileExists(input) {
		return []string{input}, nil
	}
	return nil, fmt.Errorf("input %s does not exist", input)
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
