// Package taxonomy handles the category and resolution list commands
package taxonomy

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fjacquet/case-categorizer/cmd/root"
	"fjacquet/case-categorizer/internal/caseerror"
	"fjacquet/case-categorizer/internal/models"
	"fjacquet/case-categorizer/internal/store"
	"fjacquet/case-categorizer/internal/validation"
)

// Cmd represents the taxonomy command
var Cmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Manage the category and resolution lists",
	Long: `List, replace, import, export or reset the product categories and resolution
types offered to the LLM. Both lists are stored as YAML in the taxonomy
directory and start out with a built-in default.

Examples:
  case-categorizer taxonomy list categories
  case-categorizer taxonomy set resolutions "Escalated=Handed over to tier 2" "Duplicate"
  case-categorizer taxonomy import categories -i categories.csv
  case-categorizer taxonomy export resolutions -o resolutions.csv
  case-categorizer taxonomy reset categories`,
}

var listCmd = &cobra.Command{
	Use:   "list <categories|resolutions>",
	Short: "Print a list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, kind, err := prepare(args[0])
		if err != nil {
			return err
		}
		return List(s, kind, cmd.OutOrStdout())
	},
}

var setCmd = &cobra.Command{
	Use:   "set <categories|resolutions> [Name=Description]...",
	Short: "Replace a list with the given entries",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, kind, err := prepare(args[0])
		if err != nil {
			return err
		}
		return Set(s, kind, args[1:], cmd.OutOrStdout())
	},
}

var importCmd = &cobra.Command{
	Use:   "import <categories|resolutions> -i file.csv",
	Short: "Replace a list with the rows of a name,description CSV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, kind, err := prepare(args[0])
		if err != nil {
			return err
		}
		return Import(s, kind, root.SharedFlags.Input, cmd.OutOrStdout())
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <categories|resolutions> [-o file.csv]",
	Short: "Write a list as a name,description CSV file (stdout by default)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, kind, err := prepare(args[0])
		if err != nil {
			return err
		}
		return Export(s, kind, root.SharedFlags.Output, cmd.OutOrStdout())
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset <categories|resolutions>",
	Short: "Restore the built-in default list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, kind, err := prepare(args[0])
		if err != nil {
			return err
		}
		if err := s.Reset(kind); err != nil {
			return err
		}
		return List(s, kind, cmd.OutOrStdout())
	},
}

func init() {
	Cmd.AddCommand(listCmd, setCmd, importCmd, exportCmd, resetCmd)
}

func prepare(arg string) (*store.TaxonomyStore, models.TaxonomyKind, error) {
	c := root.GetContainer()
	if c == nil {
		return nil, "", errors.New("container not initialized")
	}
	kind, err := store.ParseKind(arg)
	if err != nil {
		return nil, "", err
	}
	return c.GetStore(), kind, nil
}

// List prints the entries of a list as an aligned table.
func List(s store.Taxonomies, kind models.TaxonomyKind, w io.Writer) error {
	entries, err := s.List(kind)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintf(w, "No %s defined\n", kind)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tDESCRIPTION")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", e.Name, e.Description)
	}
	return tw.Flush()
}

// ParseEntries converts "Name=Description" arguments. A bare "Name" has an
// empty description.
func ParseEntries(args []string) ([]models.TaxonomyEntry, error) {
	entries := make([]models.TaxonomyEntry, 0, len(args))
	for _, arg := range args {
		name, description, _ := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, &caseerror.ValidationError{Source: "taxonomy", Reason: fmt.Sprintf("entry %q has no name", arg)}
		}
		entries = append(entries, models.TaxonomyEntry{Name: name, Description: strings.TrimSpace(description)})
	}
	return entries, nil
}

// Set replaces a list and prints the stored result.
func Set(s store.Taxonomies, kind models.TaxonomyKind, args []string, w io.Writer) error {
	entries, err := ParseEntries(args)
	if err != nil {
		return err
	}
	if err := s.Replace(kind, entries); err != nil {
		return err
	}
	return List(s, kind, w)
}

// Import replaces a list with the content of a CSV file.
func Import(s *store.TaxonomyStore, kind models.TaxonomyKind, path string, w io.Writer) error {
	if err := validation.IsValidInputFile(path); err != nil {
		return err
	}
	f, err := os.Open(path) // #nosec G304 -- CLI tool requires user-provided file paths
	if err != nil {
		return fmt.Errorf("failed to open taxonomy file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := s.ImportCSV(kind, f); err != nil {
		return err
	}
	return List(s, kind, w)
}

// Export writes a list as CSV to path, or to w when path is empty.
func Export(s *store.TaxonomyStore, kind models.TaxonomyKind, path string, w io.Writer) error {
	if path == "" {
		return s.ExportCSV(kind, w)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, models.PermissionOutputFile) // #nosec G304 -- CLI tool requires user-provided file paths
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := s.ExportCSV(kind, f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %s to %s\n", kind, path)
	return nil
}
