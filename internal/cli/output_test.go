package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/carrot/internal/apperr"
)

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"exit error", NewExitError(ExitUsage, "bad"), ExitUsage},
		{"local validation", apperr.NewValidationError("create todo", "title cannot be empty"), ExitUsage},
		{"insufficient funds", apperr.InsufficientFunds("purchase", 70, 100), ExitUsage},
		{"server 422", &apperr.Error{Kind: apperr.Validation, Op: "create todo", Status: 422, Msg: "title is required"}, ExitFailure},
		{"server 400 wrapped", fmt.Errorf("wrapped: %w", &apperr.Error{Kind: apperr.Validation, Status: 400}), ExitFailure},
		{"network", apperr.New(apperr.Network, "list todos", "connection refused"), ExitFailure},
		{"plain", errors.New("boom"), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestOutputFormatter(t *testing.T) {
	data := map[string]int{"carrots": 3}
	text := func(w io.Writer) { io.WriteString(w, "three carrots\n") }

	tests := []struct {
		format string
		want   string
	}{
		{"text", "three carrots\n"},
		{"json", "{\n  \"carrots\": 3\n}\n"},
		{"yaml", "carrots: 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			f := &OutputFormatter{Format: tt.format, Writer: &buf}
			require.NoError(t, f.Print(data, text))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
