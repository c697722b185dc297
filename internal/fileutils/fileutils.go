// Package fileutils resolves the input files of batch commands.
package fileutils

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// StdinPath names standard input on the command line.
const StdinPath = "-"

// DirectoryExists checks if a directory exists
func DirectoryExists(dirPath string) bool {
	info, err := os.Stat(dirPath)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// ListFilesWithExtension returns the files below dirPath whose extension
// matches extension, ignoring case, in lexical order.
func ListFilesWithExtension(dirPath, extension string) ([]string, error) {
	if !DirectoryExists(dirPath) {
		return nil, fmt.Errorf("directory does not exist: %s", dirPath)
	}

	var files []string
	err := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), extension) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

// ExpandInputs replaces every directory in paths with the files it holds
// that have extension. Plain files and StdinPath are kept as given.
func ExpandInputs(paths []string, extension string) ([]string, error) {
	var out []string
	for _, p := range paths {
		if p != StdinPath && DirectoryExists(p) {
			files, err := ListFilesWithExtension(p, extension)
			if err != nil {
				return nil, err
			}
			out = append(out, files...)
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
