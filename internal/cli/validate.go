package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/shapeforge/internal/catalog"
	"github.com/roach88/shapeforge/internal/world"
)

// Validation issue codes beyond catalog.LoadError codes.
const (
	ErrCodeLevel   = "E_LEVEL"
	ErrCodeGeneric = "E_GENERIC"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Level string
}

// ValidationIssue is one validation error.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Source   string            `json:"source,omitempty"`
	Digest   string            `json:"digest,omitempty"`
	Shapes   int               `json:"shapes"`
	Recipes  int               `json:"recipes"`
	Machines int               `json:"machines,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
	Errors   []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <catalog>",
		Short: "Validate a shape catalog and optionally a level",
		Long: `Validate a shape and recipe catalog (.yaml, .json or .cue).

Performs the same checks as loading the catalog at startup: non-empty
tables, unique names, recipes with inputs and an output, and a spawnable
class for every shape. Recipes naming shapes missing from the shape table
are reported as warnings.

With --level, the level's machines are also built against the catalog.

Examples:
  shapeforge validate ./shapes.yaml
  shapeforge validate ./shapes.cue --level ./level.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Level, "level", "", "level file to build against the catalog")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cat, err := catalog.Load(path)
	if err != nil {
		var le *catalog.LoadError
		if !errors.As(err, &le) {
			return outputValidateError(formatter, ErrCodeGeneric, err.Error())
		}
		// A missing or unreadable file is a command error, not a bad catalog.
		if le.Code == catalog.ErrCodeNotFound || le.Code == catalog.ErrCodeUnsupported {
			return outputValidateError(formatter, le.Code, le.Message)
		}
		return outputValidationErrors(formatter, ValidationResult{
			Source: path,
			Errors: []ValidationIssue{{Code: le.Code, Message: le.Message}},
		})
	}

	result := ValidationResult{
		Valid:    true,
		Source:   cat.Source(),
		Digest:   cat.Digest(),
		Shapes:   len(cat.AllShapeKinds()),
		Recipes:  len(cat.Recipes()),
		Warnings: cat.Lint(),
	}
	formatter.VerboseLog("Loaded %d shape(s) and %d recipe(s) from %s", result.Shapes, result.Recipes, path)

	if opts.Level != "" {
		n, err := validateLevel(cat, opts.Level)
		if err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationIssue{Code: ErrCodeLevel, Message: err.Error()})
			return outputValidationErrors(formatter, result)
		}
		result.Machines = n
		formatter.VerboseLog("Built %d machine(s) from %s", n, opts.Level)
	}

	return outputValidateSuccess(formatter, result)
}

// validateLevel builds the level against cat on a throwaway sim.
func validateLevel(cat *catalog.Catalog, path string) (int, error) {
	lvl, err := world.LoadLevel(path)
	if err != nil {
		return 0, err
	}
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	w, err := world.Build(cat, lvl, world.NewSim(cat), world.WithLogger(quiet))
	if err != nil {
		return 0, err
	}
	return len(w.Names()), nil
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	fmt.Fprintf(w, "✓ Catalog valid (%d shapes, %d recipes)\n", result.Shapes, result.Recipes)
	if result.Machines > 0 {
		fmt.Fprintf(w, "✓ Level valid (%d machines)\n", result.Machines)
	}
	return nil
}

// outputValidateError reports a command-level failure (exit code 2).
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors reports an invalid catalog or level (exit code 1).
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	result.Valid = false
	errs := result.Errors

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range errs {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", e.Code, e.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
