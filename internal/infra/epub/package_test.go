package epub

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
}

func sampleTree(t *testing.T) string {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"mimetype":               "application/epub+zip",
		"META-INF/container.xml": "<container/>",
		"OEBPS/content.opf":      "<package/>",
		"OEBPS/Text/ch1.xhtml":   "<html/>",
		"OEBPS/.DS_Store":        "junk",
	})
	return dir
}

func TestMembers_Directory(t *testing.T) {
	got, err := NewReader().Members(sampleTree(t))
	require.NoError(t, err)
	assert.Contains(t, got, "OEBPS/Text/ch1.xhtml")
	assert.Contains(t, got, "mimetype")
}

func TestPack_MimetypeFirstAndStored(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out", "book.epub")
	require.NoError(t, Pack(sampleTree(t), dst))

	zr, err := zip.OpenReader(dst)
	require.NoError(t, err)
	defer zr.Close()

	require.NotEmpty(t, zr.File)
	assert.Equal(t, "mimetype", zr.File[0].Name)
	assert.Equal(t, zip.Store, zr.File[0].Method)

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "OEBPS/content.opf")
	assert.NotContains(t, names, "OEBPS/.DS_Store")

	members, err := NewReader().Members(dst)
	require.NoError(t, err)
	assert.Equal(t, names, members)
}

func TestPrepare(t *testing.T) {
	r := NewReader()
	work := t.TempDir()

	packed, err := r.Prepare(sampleTree(t), work)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(work, "temp.epub"), packed)

	same, err := r.Prepare(packed, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, packed, same)
}

func TestMembers_NotAnArchive(t *testing.T) {
	p := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(p, []byte("hello"), 0o644))
	_, err := NewReader().Members(p)
	assert.ErrorIs(t, err, ErrNotEPUB)
}
