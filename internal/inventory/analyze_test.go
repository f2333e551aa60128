package inventory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/file2text/internal/hash/sha256"
)

// TestAnalyzeText counts lines, words and runes, ignoring CR line endings.
func TestAnalyzeText(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("héllo wörld\r\nbye\r\n"), 0o600))

	f, err := analyze(sha256.New(), path, KindText)
	require.NoError(t, err)
	require.Equal(t, &TextStats{Lines: 2, Words: 3, Runes: 14}, f.Text)
	require.Equal(t, int64(len("héllo wörld\r\nbye\r\n")), f.Size)
	require.Len(t, f.SHA256, 64)
}

// TestAnalyzeBinaryHashesContent fingerprints kinds without statistics.
func TestAnalyzeBinaryHashesContent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o600))

	f, err := analyze(sha256.New(), path, KindAudio)
	require.NoError(t, err)
	require.Nil(t, f.Text)
	require.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", f.SHA256)
}

// TestAnalyzeMissingFile wraps the open error.
func TestAnalyzeMissingFile(t *testing.T) {
	t.Parallel()

	_, err := analyze(sha256.New(), filepath.Join(t.TempDir(), "gone.pdf"), KindPDF)
	require.ErrorIs(t, err, os.ErrNotExist)
}
