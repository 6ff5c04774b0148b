package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestExtractTextFromPlainFiles(t *testing.T) {
	dir := t.TempDir()

	txt := writeFile(t, dir, "notes.txt", "plain text body")
	got, err := ExtractTextFromFile(txt)
	require.NoError(t, err)
	assert.Equal(t, "plain text body", got)

	md := writeFile(t, dir, "notes.md", "# heading\n\nbody")
	got, err = ExtractTextFromFile(md)
	require.NoError(t, err)
	assert.Contains(t, got, "heading")
}

func TestExtractTextFromCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "table.csv", "symptom,stage\nlump,early\npain,late\n")

	got, err := ExtractTextFromFile(path)
	require.NoError(t, err)
	assert.Contains(t, got, "symptom, stage")
	assert.Contains(t, got, "lump, early")
	assert.Contains(t, got, "pain, late")
}

func TestExtractTextUnsupportedType(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "binary.bin", "data")

	_, err := ExtractTextFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestExtractTextMissingFile(t *testing.T) {
	_, err := ExtractTextFromFile(filepath.Join(t.TempDir(), "gone.txt"))
	assert.Error(t, err)
}
