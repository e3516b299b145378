package iosink

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// OutputPath returns the name of the output file. An empty path becomes
// "records" with the extension of the format, or ".zip" for compressed
// output.
func OutputPath(path, format string, compressed bool) string {
	if path != "" {
		return path
	}
	ext := strings.ToLower(format)
	if ext == "" {
		ext = "csv"
	}
	if compressed {
		ext = "zip"
	}
	return "records." + ext
}

// Create opens a file at path and returns a delimited sink writing to it.
// The file is closed on Finalize. The zip entry is named after the file.
func Create(path, format string, compressed bool) (*Delimited, error) {
	if !isFormat(format) {
		return nil, SinkFormatError(format)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, SinkCreateError(path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	res, err := NewDelimited(f, format, compressed, name)
	if err != nil {
		f.Close()
		return nil, err
	}
	return res, nil
}

func isFormat(format string) bool {
	format = strings.ToLower(format)
	return format == "" || slices.Contains(Formats, format)
}
