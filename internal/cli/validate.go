package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pioneers/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                `json:"valid"`
	File   string              `json:"file"`
	Errors []ValidationProblem `json:"errors,omitempty"`
}

// ValidationProblem is one schema violation in JSON output.
type ValidationProblem struct {
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.cue>",
		Short: "Validate a configuration file",
		Long: `Check a CUE configuration file against the pioneers schema.

Environment overrides are not applied; only the file itself is checked.

Exit codes:
  0 - Configuration is valid
  1 - Configuration violates the schema
  2 - Command error (file not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(path); err != nil {
		return outputValidateError(formatter, ErrCodeNotFound, fmt.Sprintf("config file not found: %s", path))
	}

	formatter.VerboseLog("Checking %s", path)

	err := config.Check(path)
	if err == nil {
		return outputValidateSuccess(formatter, path)
	}

	var ve *config.ValidationError
	if !errors.As(err, &ve) {
		return outputValidateError(formatter, ErrCodeGeneric, err.Error())
	}
	return outputValidationErrors(formatter, path, ve.Problems)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, path string) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, File: path})
	}

	fmt.Fprintln(formatter.Writer, "✓ config valid")
	return nil
}

// outputValidateError outputs a command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs every schema violation.
func outputValidationErrors(formatter *OutputFormatter, path string, problems []config.Problem) error {
	failed := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(problems)))

	if formatter.Format == "json" {
		result := ValidationResult{File: path}
		for _, p := range problems {
			vp := ValidationProblem{Message: p.Message}
			if p.Pos.IsValid() {
				vp.Line = p.Pos.Line()
				vp.Column = p.Pos.Column()
			}
			result.Errors = append(result.Errors, vp)
		}
		resp := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    ErrCodeInvalidConfig,
				Message: problems[0].Message,
			},
		}
		if err := formatter.encode(resp); err != nil {
			return err
		}
		return failed
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, p := range problems {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", ErrCodeInvalidConfig, p.String())
	}

	return failed
}
