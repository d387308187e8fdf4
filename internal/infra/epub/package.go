package epub

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotEPUB is returned for inputs that are neither an .epub file nor a directory.
var ErrNotEPUB = errors.New("not an epub file or directory")

// Reader implements checks.PackageReader for packed and unpacked EPUBs.
type Reader struct{}

func NewReader() *Reader { return &Reader{} }

// Members lists archive members (for a file) or relative file paths (for a
// directory), slash separated.
func (Reader) Members(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return dirMembers(path)
	}
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotEPUB, err)
	}
	defer zr.Close()
	out := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		out = append(out, f.Name)
	}
	return out, nil
}

// Prepare returns a path EPUBCheck can validate. Directories are packed into
// workDir/temp.epub, files are used as they are.
func (Reader) Prepare(path, workDir string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return path, nil
	}
	dst := filepath.Join(workDir, "temp.epub")
	if err := Pack(path, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func dirMembers(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	sort.Strings(out)
	return out, err
}

// Pack zips an unpacked EPUB directory. The mimetype entry goes first and
// is stored uncompressed, as the OCF container requires.
func Pack(dir, dst string) error {
	members, err := dirMembers(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	if contains(members, "mimetype") {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
		if err != nil {
			return err
		}
		if err := copyFile(w, filepath.Join(dir, "mimetype")); err != nil {
			return err
		}
	}
	for _, m := range members {
		if m == "mimetype" || strings.HasPrefix(filepath.Base(m), ".") {
			continue
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: m, Method: zip.Deflate})
		if err != nil {
			return err
		}
		if err := copyFile(w, filepath.Join(dir, filepath.FromSlash(m))); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return out.Close()
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
