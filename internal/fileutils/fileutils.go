// Package fileutils provides common file operations used by the CLI and
// batch processing.
package fileutils

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"fjacquet/case-categorizer/internal/models"
)

// CaseFileExtensions lists the extensions of readable case files.
var CaseFileExtensions = []string{".csv", ".txt", ".xlsx"}

// FileExists checks if a file exists and is not a directory
func FileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirectoryExists checks if a directory exists
func DirectoryExists(dirPath string) bool {
	info, err := os.Stat(dirPath)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// EnsureDirectoryExists creates a directory if it doesn't exist
func EnsureDirectoryExists(dirPath string) error {
	if DirectoryExists(dirPath) {
		return nil
	}
	if err := os.MkdirAll(dirPath, models.PermissionDirectory); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// IsCaseFile reports whether path has a case file extension.
func IsCaseFile(path string) bool {
	return slices.Contains(CaseFileExtensions, strings.ToLower(filepath.Ext(path)))
}

// ListCaseFiles returns the case files directly inside dirPath, sorted by
// name. Hidden files, Excel lock files ("~$...") and subdirectories are
// ignored.
func ListCaseFiles(dirPath string) ([]string, error) {
	if !DirectoryExists(dirPath) {
		return nil, fmt.Errorf("directory does not exist: %s", dirPath)
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
			continue
		}
		if IsCaseFile(name) {
			files = append(files, filepath.Join(dirPath, name))
		}
	}
	slices.Sort(files)
	return files, nil
}

// OutputName derives the categorized file name for an input file:
// "cases.xlsx" becomes "cases_categorized.<ext>".
func OutputName(inputPath, ext string) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + "_categorized." + strings.TrimPrefix(ext, ".")
}
