package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/automodel/internal/models"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Tables []string          `json:"tables,omitempty"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// ValidationIssue is one problem found in a model file.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate model files",
		Long: `Load every CUE and YAML model file under --models-dir and report
problems without touching a database.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	result, loadErrors := loadModels(opts, formatter)
	if result == nil {
		return reportLoadFailure(formatter, loadErrors)
	}

	if len(loadErrors) > 0 {
		return outputValidationErrors(formatter, toIssues(loadErrors))
	}

	if opts.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Tables: result.Tables()})
	}
	fmt.Fprintln(formatter.Writer, "✓ All models valid")
	return nil
}

// loadModels loads opts.ModelsDir and logs what was found.
func loadModels(opts *RootOptions, formatter *OutputFormatter) (*models.LoadResult, []error) {
	result, errs := models.Load(opts.ModelsDir)
	if result != nil {
		formatter.VerboseLog("Found %d model file(s) in %s", result.FileCount, opts.ModelsDir)
		for _, m := range result.Models {
			formatter.VerboseLog("Loaded model %s -> %s (%s)", m.Shape.Name, m.Table, m.File)
		}
	}
	return result, errs
}

// reportLoadFailure reports an unusable models directory. Exit code 2.
func reportLoadFailure(formatter *OutputFormatter, errs []error) error {
	if len(errs) == 0 {
		return formatter.fail(ExitCommandError, models.ErrCodeGeneric, "no models loaded")
	}
	var loadErr *models.LoadError
	if errors.As(errs[0], &loadErr) {
		return formatter.fail(ExitCommandError, loadErr.Code, loadErr.Message)
	}
	return formatter.fail(ExitCommandError, models.ErrCodeGeneric, errs[0].Error())
}

func toIssues(errs []error) []ValidationIssue {
	issues := make([]ValidationIssue, 0, len(errs))
	for _, err := range errs {
		var loadErr *models.LoadError
		if !errors.As(err, &loadErr) {
			issues = append(issues, ValidationIssue{Code: models.ErrCodeGeneric, Message: err.Error()})
			continue
		}
		issue := ValidationIssue{Code: loadErr.Code, Message: loadErr.Message, File: loadErr.File}
		if loadErr.Pos.IsValid() {
			issue.Line = loadErr.Pos.Line()
		}
		issues = append(issues, issue)
	}
	return issues
}

// outputValidationErrors outputs every validation issue. Exit code 1.
func outputValidationErrors(formatter *OutputFormatter, issues []ValidationIssue) error {
	exit := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
	exit.Reported = true

	if formatter.Format == "json" {
		resp := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: issues},
			Error: &CLIError{
				Code:    issues[0].Code,
				Message: issues[0].Message,
			},
		}
		if err := formatter.encode(resp); err != nil {
			return err
		}
		return exit
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, issue := range issues {
		switch {
		case issue.File != "" && issue.Line > 0:
			fmt.Fprintf(formatter.Writer, "%s:%d\n", issue.File, issue.Line)
		case issue.File != "":
			fmt.Fprintln(formatter.Writer, issue.File)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
	}
	return exit
}
