package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/idilsaglam/carrot/internal/apperr"
	"github.com/idilsaglam/carrot/internal/ui"
)

// Exit codes for CLI commands.
const (
	ExitSuccess = 0 // Successful execution
	ExitFailure = 1 // Request failed, rolled back, or session expired
	ExitUsage   = 2 // Bad arguments or input rejected before any request
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitUsage)
	Message string // Error message
	Hint    string // Optional next step, printed muted under the error
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil && e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// usageError is an ExitUsage error with a hint.
func usageError(message, hint string) *ExitError {
	return &ExitError{Code: ExitUsage, Message: message, Hint: hint}
}

// GetExitCode extracts the exit code from an error. Validation caught
// before any request maps to ExitUsage; anything the server answered,
// 400 and 422 included, maps to ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Kind == apperr.Validation && appErr.Status == 0 {
		return ExitUsage
	}
	return ExitFailure
}

func hintFor(err error) string {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Hint != "" {
		return exitErr.Hint
	}
	if apperr.IsUnauthorized(err) {
		return "Run: carrot auth login"
	}
	if apperr.IsNetwork(err) {
		return "Is the server reachable? Check api_url or CARROT_API_URL"
	}
	return ""
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// OutputFormatter writes command results as text, JSON or YAML.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
}

// Print writes data in the configured format; text output is produced by
// the text func.
func (f *OutputFormatter) Print(data any, text func(w io.Writer)) error {
	switch f.Format {
	case "json":
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case "yaml":
		enc := yaml.NewEncoder(f.Writer)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	}
	text(f.Writer)
	return nil
}

// Done reports a completed mutation: a ✔ line in text mode, the
// resulting value otherwise.
func (f *OutputFormatter) Done(msg string, data any) error {
	return f.Print(data, func(w io.Writer) { ui.OK(w, msg) })
}

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
