package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	p, err := Store{Dir: t.TempDir()}.Load()
	require.NoError(t, err)
	assert.Equal(t, Week, p.ViewMode)
}

func TestSetViewModePersists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s := Store{Dir: dir}

	_, err := s.SetViewMode(Month)
	require.NoError(t, err)

	p, err := Store{Dir: dir}.Load()
	require.NoError(t, err)
	assert.Equal(t, Month, p.ViewMode)
}

func TestLoadUnknownModeFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), []byte(`{"view_mode":"year"}`), 0o644))
	p, err := Store{Dir: dir}.Load()
	require.NoError(t, err)
	assert.Equal(t, Week, p.ViewMode)
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), []byte(`{`), 0o644))
	p, err := Store{Dir: dir}.Load()
	assert.Error(t, err)
	assert.Equal(t, Defaults(), p)
}

func TestParseViewMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ViewMode
		wantErr bool
	}{
		{"week", Week, false},
		{" MONTH ", Month, false},
		{"day", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseViewMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, Month, Week.Toggle())
	assert.Equal(t, Week, Month.Toggle())
}
