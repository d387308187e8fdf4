package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "java", cfg.EPUBCheck.JavaPath)
	assert.Equal(t, 7, cfg.EPUBCheck.CheckIntervalDays)
	assert.True(t, cfg.EPUBCheck.GitHub)
	assert.False(t, cfg.EPUBCheck.Usage)
	assert.Nil(t, cfg.EPUBCheck.Is32Bit)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
database:
  driver: postgres
  host: db
  port: 5432
  user: u
  password: p
  name: epub
epubcheck:
  javaPath: 'C:\\Program Files\\Java\\bin\\java.exe'
  locale: de
  usage: true
  is32bit: true
  checkIntervalDays: 3
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "C:/Program Files/Java/bin/java.exe", cfg.EPUBCheck.JavaPath)
	assert.Equal(t, "de", cfg.EPUBCheck.Locale)
	assert.True(t, cfg.EPUBCheck.Usage)
	require.NotNil(t, cfg.EPUBCheck.Is32Bit)
	assert.True(t, *cfg.EPUBCheck.Is32Bit)
	assert.Equal(t, 3, cfg.EPUBCheck.CheckIntervalDays)
	// untouched keys keep their defaults
	assert.True(t, cfg.EPUBCheck.GitHub)
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=epub sslmode=disable", cfg.PostgresDSN())
}

func TestLoad_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "epubcheck.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[epubcheck]
dir = "/opt/epubcheck"
github = false
editor = "vim +{line} {file}"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.EPUBCheck.GitHub)
	assert.Equal(t, "/opt/epubcheck/epubcheck.jar", filepath.ToSlash(cfg.EPUBCheck.JarPath()))
	assert.Equal(t, "/opt/epubcheck/lib", filepath.ToSlash(cfg.EPUBCheck.LibDir()))
	assert.Equal(t, "vim +{line} {file}", cfg.EPUBCheck.Editor)
}

func TestLoad_UnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(path, []byte("x=1"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestMySQLDSN(t *testing.T) {
	cfg := Default()
	cfg.Database.User = "root"
	cfg.Database.Password = "secret"
	cfg.Database.Host = "localhost"
	cfg.Database.Name = "epub"
	assert.Equal(t, "root:secret@tcp(localhost:3306)/epub?parseTime=true&charset=utf8mb4&loc=UTC", cfg.MySQLDSN())
}

func TestState_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "state.toml")

	st, err := LoadState(path)
	require.NoError(t, err)
	assert.True(t, st.LastTimeChecked.IsZero())

	when := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, SaveState(path, State{LastTimeChecked: when}))

	st, err = LoadState(path)
	require.NoError(t, err)
	assert.True(t, when.Equal(st.LastTimeChecked))
}
