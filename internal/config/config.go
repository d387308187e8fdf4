package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port        int      `yaml:"port" toml:"port"`
		CORSOrigins []string `yaml:"corsOrigins" toml:"corsOrigins"`
		UploadDir   string   `yaml:"uploadDir" toml:"uploadDir"` // empty = os.TempDir()
	} `yaml:"server" toml:"server"`

	Log struct {
		Level string `yaml:"level" toml:"level"`
	} `yaml:"log" toml:"log"`

	Database struct {
		Driver   string `yaml:"driver" toml:"driver"` // mysql | postgres | sqlite
		Host     string `yaml:"host" toml:"host"`
		Port     int    `yaml:"port" toml:"port"`
		User     string `yaml:"user" toml:"user"`
		Password string `yaml:"password" toml:"password"`
		Name     string `yaml:"name" toml:"name"`
		Path     string `yaml:"path" toml:"path"` // sqlite file
	} `yaml:"database" toml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint" toml:"endpoint"`
		AccessKey  string `yaml:"accessKey" toml:"accessKey"`
		SecretKey  string `yaml:"secretKey" toml:"secretKey"`
		BucketName string `yaml:"bucketName" toml:"bucketName"`
		Region     string `yaml:"region" toml:"region"`
		UseSSL     bool   `yaml:"useSSL" toml:"useSSL"`
		// presigned report links; 0 = public bucket URLs
		PresignMinutes int `yaml:"presignMinutes" toml:"presignMinutes"`
	} `yaml:"minio" toml:"minio"`

	OpenAI struct {
		APIKey  string `yaml:"apiKey" toml:"apiKey"`
		Model   string `yaml:"model" toml:"model"`
		BaseURL string `yaml:"baseURL" toml:"baseURL"`
	} `yaml:"openai" toml:"openai"`

	Auth struct {
		// tenant -> api key
		APIKeys map[string]string `yaml:"apiKeys" toml:"apiKeys"`
	} `yaml:"auth" toml:"auth"`

	Limits struct {
		MaxConcurrent int `yaml:"maxConcurrent" toml:"maxConcurrent"`
		MaxUploadMB   int `yaml:"maxUploadMB" toml:"maxUploadMB"`
	} `yaml:"limits" toml:"limits"`

	EPUBCheck EPUBCheck `yaml:"epubcheck" toml:"epubcheck"`
}

// EPUBCheck holds the validator preferences.
type EPUBCheck struct {
	Dir               string `yaml:"dir" toml:"dir"`
	JavaPath          string `yaml:"javaPath" toml:"javaPath"`
	Is32Bit           *bool  `yaml:"is32bit" toml:"is32bit"` // nil = detect from the JVM
	Locale            string `yaml:"locale" toml:"locale"`
	Usage             bool   `yaml:"usage" toml:"usage"`
	GitHub            bool   `yaml:"github" toml:"github"`
	CheckIntervalDays int    `yaml:"checkIntervalDays" toml:"checkIntervalDays"`
	ClipboardCopy     bool   `yaml:"clipboardCopy" toml:"clipboardCopy"`
	Editor            string `yaml:"editor" toml:"editor"`
}

// JarPath is the installed epubcheck.jar.
func (e EPUBCheck) JarPath() string { return filepath.Join(e.Dir, "epubcheck.jar") }

// LibDir is the jar's dependency folder.
func (e EPUBCheck) LibDir() string { return filepath.Join(e.Dir, "lib") }

// StatePath is where update bookkeeping is kept.
func (e EPUBCheck) StatePath() string { return filepath.Join(e.Dir, "state.toml") }

// HistoryPath is the local SQLite database of past checks.
func (e EPUBCheck) HistoryPath() string { return filepath.Join(e.Dir, "history.db") }

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Server.Port = 8080
	cfg.Log.Level = "info"
	cfg.Database.Driver = "mysql"
	cfg.Database.Port = 3306
	cfg.Limits.MaxConcurrent = 2
	cfg.Limits.MaxUploadMB = 100
	cfg.OpenAI.Model = "gpt-4o-mini"
	cfg.EPUBCheck = EPUBCheck{
		Dir:               defaultDir(),
		JavaPath:          "java",
		GitHub:            true,
		CheckIntervalDays: 7,
	}
	return &cfg
}

func defaultDir() string {
	if d, err := os.UserConfigDir(); err == nil {
		return filepath.Join(d, "epubcheck")
	}
	return filepath.Join(".", "epubcheck")
}

// Load baca file config (.yaml/.yml atau .toml). File yang tidak ada
// menghasilkan Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", path)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	j := c.EPUBCheck.JavaPath
	if strings.TrimSpace(j) == "" {
		j = "java"
	}
	c.EPUBCheck.JavaPath = strings.ReplaceAll(strings.ReplaceAll(j, `\\`, "/"), `\`, "/")
	if c.EPUBCheck.Dir == "" {
		c.EPUBCheck.Dir = defaultDir()
	}
	if c.EPUBCheck.CheckIntervalDays < 0 {
		c.EPUBCheck.CheckIntervalDays = 0
	}
	if c.Limits.MaxConcurrent <= 0 {
		c.Limits.MaxConcurrent = 1
	}
	if c.Limits.MaxUploadMB <= 0 {
		c.Limits.MaxUploadMB = 100
	}
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

// State is update bookkeeping written back after each update check.
type State struct {
	LastTimeChecked time.Time `toml:"last_time_checked"`
}

// LoadState reads the state file. A missing file means no check happened yet.
func LoadState(path string) (State, error) {
	var st State
	if _, err := toml.DecodeFile(path, &st); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return State{}, nil
		}
		return State{}, err
	}
	return st, nil
}

// SaveState writes the state file, creating its directory when needed.
func SaveState(path string, st State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(st)
}
