package release

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrBadArchive means the download did not contain epubcheck.jar and lib/.
var ErrBadArchive = errors.New("epubcheck zip could not be unpacked")

// Installer downloads a release zip and replaces the local install.
type Installer struct {
	Client *http.Client
}

func NewInstaller() *Installer { return &Installer{Client: http.DefaultClient} }

// Install fetches url and installs <root>/epubcheck.jar and <root>/lib into dir.
func (i *Installer) Install(ctx context.Context, url, dir string) error {
	tmp, err := os.MkdirTemp("", "epubcheck-dl-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	zipPath := filepath.Join(tmp, path.Base(url))
	if err := i.download(ctx, url, zipPath); err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}

	root := strings.TrimSuffix(path.Base(url), path.Ext(url))
	if err := extract(zipPath, root, tmp); err != nil {
		return err
	}

	newJar := filepath.Join(tmp, root, "epubcheck.jar")
	newLib := filepath.Join(tmp, root, "lib")
	if !isFile(newJar) || !isDir(newLib) {
		return ErrBadArchive
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	jar := filepath.Join(dir, "epubcheck.jar")
	lib := filepath.Join(dir, "lib")
	if err := os.RemoveAll(lib); err != nil {
		return err
	}
	if err := os.Remove(jar); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := move(newLib, lib); err != nil {
		return err
	}
	if err := move(newJar, jar); err != nil {
		return err
	}
	if runtime.GOOS != "windows" {
		return os.Chmod(jar, 0o744)
	}
	return nil
}

func (i *Installer) download(ctx context.Context, url, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := i.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// extract unpacks root/epubcheck.jar and root/lib/** only.
func extract(zipPath, root, dst string) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadArchive, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != root+"/epubcheck.jar" && !strings.HasPrefix(f.Name, root+"/lib") {
			continue
		}
		target := filepath.Join(dst, filepath.FromSlash(f.Name))
		if !strings.HasPrefix(target, filepath.Clean(dst)+string(os.PathSeparator)) {
			return fmt.Errorf("%w: illegal path %s", ErrBadArchive, f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := writeMember(f, target); err != nil {
			return err
		}
	}
	return nil
}

func writeMember(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// move renames, falling back to copy when src and dst are on different volumes.
func move(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	err := filepath.Walk(src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(src, p)
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		in, err := os.Open(p)
		if err != nil {
			return err
		}
		defer in.Close()
		out, err := os.Create(target)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, in); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	})
	if err != nil {
		return err
	}
	return os.RemoveAll(src)
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
