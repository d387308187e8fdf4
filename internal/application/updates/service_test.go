package updates

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/automaton-epub/internal/application"
	"github.com/bryanwahyu/automaton-epub/internal/config"
	"github.com/bryanwahyu/automaton-epub/internal/infra/release"
)

type fakeReleases struct {
	latest release.Latest
	err    error
	calls  int
}

func (f *fakeReleases) Latest(context.Context) (release.Latest, error) {
	f.calls++
	return f.latest, f.err
}

type fakeInstaller struct {
	url string
	err error
}

func (f *fakeInstaller) Install(_ context.Context, url, dir string) error {
	f.url = url
	if f.err != nil {
		return f.err
	}
	if err := os.MkdirAll(filepath.Join(dir, "lib"), 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "epubcheck.jar"), []byte("jar"), 0o644)
}

var now = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T, installed bool, rel *fakeReleases, inst *fakeInstaller) *Service {
	t.Helper()
	prefs := config.Default().EPUBCheck
	prefs.Dir = t.TempDir()
	if installed {
		require.NoError(t, os.MkdirAll(prefs.LibDir(), 0o755))
		require.NoError(t, os.WriteFile(prefs.JarPath(), []byte("jar"), 0o644))
	}
	return &Service{
		Prefs:     prefs,
		Releases:  rel,
		Installer: inst,
		Clock:     application.FixedClock(now),
		Log:       zerolog.Nop(),
		Online:    func(context.Context) bool { return true },
		Version:   func(string) (string, error) { return "v5.1.0", nil },
	}
}

func TestExcluded(t *testing.T) {
	assert.True(t, Excluded("https://x/epubcheck-5.2.0-alpha.zip", false))
	assert.True(t, Excluded("https://x/epubcheck-5.2.0-beta.1.zip", false))
	assert.False(t, Excluded("https://x/epubcheck-5.2.0-beta.1.zip", true))
	assert.False(t, Excluded("https://x/epubcheck-5.2.0-alpha.zip", true))
	assert.False(t, Excluded("https://x/epubcheck-5.2.0.zip", false))
}

func TestRun_InstallsNewRelease(t *testing.T) {
	rel := &fakeReleases{latest: release.Latest{Tag: "v5.2.0", DownloadURL: "https://x/epubcheck-5.2.0.zip"}}
	inst := &fakeInstaller{}
	s := newService(t, true, rel, inst)

	res, err := s.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, StatusUpdated, res.Status)
	assert.Equal(t, "EPUBCheck updated to EPUBCheck v5.2.0", res.Message)
	assert.Equal(t, "https://x/epubcheck-5.2.0.zip", inst.url)

	st, err := config.LoadState(s.Prefs.StatePath())
	require.NoError(t, err)
	assert.True(t, now.Equal(st.LastTimeChecked))
}

func TestRun_NotDue(t *testing.T) {
	rel := &fakeReleases{latest: release.Latest{Tag: "v5.2.0", DownloadURL: "https://x/e.zip"}}
	s := newService(t, true, rel, &fakeInstaller{})
	require.NoError(t, config.SaveState(s.Prefs.StatePath(), config.State{LastTimeChecked: now.Add(-48 * time.Hour)}))

	res, err := s.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, res.Status)
	assert.Zero(t, rel.calls)

	res, err = s.Run(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, StatusUpdated, res.Status)
}

func TestRun_PrereleaseIgnoredWhenInstalled(t *testing.T) {
	rel := &fakeReleases{latest: release.Latest{Tag: "v6.0.0-beta", DownloadURL: "https://x/epubcheck-6.0.0-beta.zip"}}
	inst := &fakeInstaller{}
	s := newService(t, true, rel, inst)

	res, err := s.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, StatusUpToDate, res.Status)
	assert.Empty(t, inst.url)
}

func TestRun_MissingInstallAcceptsPrerelease(t *testing.T) {
	rel := &fakeReleases{latest: release.Latest{Tag: "v6.0.0-alpha", DownloadURL: "https://x/epubcheck-6.0.0-alpha.zip"}}
	inst := &fakeInstaller{}
	s := newService(t, false, rel, inst)
	s.Prefs.GitHub = false
	s.Version = func(string) (string, error) { return "", nil }

	res, err := s.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, StatusUpdated, res.Status)
	assert.False(t, s.Missing())
}

func TestRun_NoInternetWithoutInstall(t *testing.T) {
	s := newService(t, false, &fakeReleases{}, &fakeInstaller{})
	s.Online = func(context.Context) bool { return false }

	res, err := s.Run(context.Background(), false)
	assert.ErrorIs(t, err, ErrJarMissing)
	assert.Equal(t, StatusNoInternet, res.Status)
}

func TestRun_DisabledAndDeclined(t *testing.T) {
	rel := &fakeReleases{latest: release.Latest{Tag: "v5.2.0", DownloadURL: "https://x/e.zip"}}
	s := newService(t, true, rel, &fakeInstaller{})
	s.Prefs.GitHub = false

	res, err := s.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, res.Status)

	s.Prefs.GitHub = true
	s.Confirm = func(string) bool { return false }
	res, err = s.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, StatusDeclined, res.Status)
}

func TestRun_Failures(t *testing.T) {
	s := newService(t, true, &fakeReleases{err: errors.New("boom")}, &fakeInstaller{})
	res, err := s.Run(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)

	s = newService(t, true, &fakeReleases{latest: release.Latest{Tag: "v5.2.0", DownloadURL: "https://x/e.zip"}},
		&fakeInstaller{err: release.ErrBadArchive})
	res, err = s.Run(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Contains(t, res.Message, "could not be unpacked")

	s = newService(t, true, &fakeReleases{}, &fakeInstaller{})
	s.Version = func(string) (string, error) { return "", nil }
	res, err = s.Run(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, "Current EPUBCheck version not found.", res.Message)
}
