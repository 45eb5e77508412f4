package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, subject string, expires time.Time) string {
	t.Helper()
	claims := &jwt.StandardClaims{
		Subject:   subject,
		IssuedAt:  expires.Add(-time.Hour).Unix(),
		ExpiresAt: expires.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestStripBearer(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"abc", "abc"},
		{"Bearer abc", "abc"},
		{"bearer   abc", "abc"},
		{"BEARER abc ", "abc"},
		{"Bearerabc", "Bearerabc"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripBearer(tt.in), tt.in)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "carrot")
	s := NewFileStore(dir, "")

	ti, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, ti, "no file means logged out")

	require.NoError(t, s.Save("Bearer tok-1", nil))
	info, err := os.Stat(filepath.Join(dir, credFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	ti, err = s.Load()
	require.NoError(t, err)
	require.NotNil(t, ti)
	assert.Equal(t, "tok-1", ti.Token)
	assert.Equal(t, SourceFile, ti.Source)

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear(), "clearing twice is fine")
	ti, err = s.Load()
	require.NoError(t, err)
	assert.Nil(t, ti)
}

func TestFileStoreEnvOverride(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir, "Bearer env-tok")
	require.NoError(t, s.Save("file-tok", nil))

	ti, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "env-tok", ti.Token)
	assert.Equal(t, SourceEnv, ti.Source)
}

func TestFileStoreRejectsEmptyToken(t *testing.T) {
	s := NewFileStore(t.TempDir(), "")
	assert.ErrorIs(t, s.Save("  ", nil), ErrEmptyToken)
	assert.ErrorIs(t, s.Save("Bearer ", nil), ErrEmptyToken)
	assert.ErrorIs(t, (&MemoryStore{}).Save("", nil), ErrEmptyToken)
}

func TestFileStoreSaveReplacesWholeFile(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir, "")
	require.NoError(t, s.Save("first", nil))
	require.NoError(t, s.Save("second", nil))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temporary files left behind")
	assert.Equal(t, credFileName, entries[0].Name())

	ti, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "second", ti.Token)
}

func TestFileStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, credFileName), []byte("{"), 0o600))

	_, err := NewFileStore(dir, "").Load()
	assert.Error(t, err)

	g := NewGate(NewFileStore(dir, ""), nil)
	assert.Empty(t, g.Headers(), "gate never fails on a broken file")
}

func TestReadClaims(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	c, err := ReadClaims("Bearer " + signedToken(t, "user-7", exp))
	require.NoError(t, err)
	assert.Equal(t, "user-7", c.Subject)
	require.NotNil(t, c.ExpiresAt)
	assert.True(t, exp.Equal(*c.ExpiresAt))

	_, err = ReadClaims("opaque-token")
	assert.Error(t, err)
	assert.Nil(t, Expiry("opaque-token"))
}

func TestGateHeaders(t *testing.T) {
	store := &MemoryStore{}
	g := NewGate(store, nil)

	assert.Equal(t, map[string]string{}, g.Headers())
	assert.False(t, g.Authenticated())

	require.NoError(t, g.Login("opaque"))
	assert.Equal(t, map[string]string{"Authorization": "Bearer opaque"}, g.Headers())
	assert.True(t, g.Authenticated())
}

func TestGateIgnoresExpiredJWT(t *testing.T) {
	g := NewGate(&MemoryStore{}, nil)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	require.NoError(t, g.Login(signedToken(t, "u", now.Add(-time.Minute))))
	assert.Empty(t, g.Headers())

	require.NoError(t, g.Login(signedToken(t, "u", now.Add(time.Hour))))
	assert.NotEmpty(t, g.Headers())
}

func TestGateExpireClearsAndNotifies(t *testing.T) {
	store := &MemoryStore{}
	g := NewGate(store, nil)
	require.NoError(t, g.Login("tok"))

	calls := 0
	g.OnLogout(func() { calls++ })
	g.Expire()

	assert.Equal(t, 1, calls)
	assert.Empty(t, g.Headers())
	ti, _ := store.Load()
	assert.Nil(t, ti)
}

func TestGateExpireRevokesEnvToken(t *testing.T) {
	g := NewGate(NewFileStore(t.TempDir(), "env-tok"), nil)
	assert.True(t, g.Authenticated())

	g.Expire()
	assert.False(t, g.Authenticated(), "env token cannot be deleted, only ignored")
}

func TestGateLogout(t *testing.T) {
	g := NewGate(&MemoryStore{}, nil)
	require.NoError(t, g.Login("tok"))
	notified := false
	g.OnLogout(func() { notified = true })

	require.NoError(t, g.Logout())
	assert.True(t, notified)
	assert.False(t, g.Authenticated())
}
