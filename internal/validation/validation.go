// Package validation checks command-line paths and options before any work
// starts.
package validation

import (
	"fmt"
	"os"
	"strings"

	"fjacquet/case-categorizer/internal/caseerror"
	"fjacquet/case-categorizer/internal/fileutils"
)

// IsValidInputFile checks that path is an existing regular file with a
// supported case file extension.
func IsValidInputFile(path string) error {
	if path == "" {
		return &caseerror.ValidationError{Source: "input", Reason: "no input file given"}
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return &caseerror.ValidationError{Source: path, Reason: "file does not exist"}
	}
	if err != nil {
		return fmt.Errorf("error checking path %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return &caseerror.ValidationError{Source: path, Reason: "not a regular file"}
	}
	if !fileutils.IsCaseFile(path) {
		return &caseerror.ValidationError{
			Source: path,
			Reason: fmt.Sprintf("unsupported file type (expected one of %s)", strings.Join(fileutils.CaseFileExtensions, ", ")),
		}
	}
	return nil
}

// IsValidDirectory checks that path is an existing directory.
func IsValidDirectory(path string) error {
	if path == "" {
		return &caseerror.ValidationError{Source: "input", Reason: "no directory given"}
	}
	if !fileutils.DirectoryExists(path) {
		return &caseerror.ValidationError{Source: path, Reason: "directory does not exist"}
	}
	return nil
}

// IsValidOutputFormat checks if the given export format is supported.
func IsValidOutputFormat(format string) error {
	switch strings.ToLower(format) {
	case "csv", "xlsx":
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s. Supported formats are 'csv', 'xlsx'", format)
	}
}
