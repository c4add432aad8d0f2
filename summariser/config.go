package summariser

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML accepts either:
//  1. the word "unlimited" (or an empty value)
//  2. a non-negative integer; 0 also means unlimited
func (r *Retention) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return nil
	}
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("max_records: expected a scalar, got line %d", value.Line)
	}
	parsed, err := ParseRetention(value.Value)
	if err != nil {
		return fmt.Errorf("max_records (line %d): %w", value.Line, err)
	}
	*r = parsed
	return nil
}

func (r Retention) MarshalYAML() (any, error) {
	if r.Unlimited() {
		return "unlimited", nil
	}
	return r.MaxRecords, nil
}

// ParseRetention reads the textual retention form used by config and flags.
func ParseRetention(s string) (Retention, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "unlimited", "none", "~":
		return Unlimited, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Retention{}, fmt.Errorf("unsupported retention %q (want unlimited or a record count)", s)
	}
	if n < 0 {
		return Retention{}, fmt.Errorf("retention must not be negative: %d", n)
	}
	return Retention{MaxRecords: n}, nil
}

type StorageConfig struct {
	// Kind selects the slot medium: sqlite, file or memory.
	Kind       string `yaml:"kind"`
	DB         string `yaml:"db"`
	Dir        string `yaml:"dir"`
	QuotaBytes int    `yaml:"quota_bytes"`
}

type HistoryConfig struct {
	// Backend is slot (full rewrite of one slot) or log (one row per append).
	Backend    string    `yaml:"backend"`
	Slot       string    `yaml:"slot"`
	MaxRecords Retention `yaml:"max_records"`
}

type ServerConfig struct {
	Listen string `yaml:"listen"`
}

type FileConfig struct {
	Endpoint string `yaml:"endpoint"`
	Debug    bool   `yaml:"debug"`

	// Go duration text, e.g. "90s". "0" disables the client timeout.
	RequestTimeout string `yaml:"request_timeout"`
	MaxFileMB      int    `yaml:"max_file_mb"`

	Storage StorageConfig `yaml:"storage"`
	History HistoryConfig `yaml:"history"`
	Server  ServerConfig  `yaml:"server"`
}

func LoadConfig(path string) (*FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Timeout resolves RequestTimeout, defaulting when it is unset.
func (c *FileConfig) Timeout() (time.Duration, error) {
	s := strings.TrimSpace(c.RequestTimeout)
	if s == "" {
		return DefaultRequestTimeout, nil
	}
	if s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("request_timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("request_timeout must not be negative: %s", s)
	}
	return d, nil
}

const (
	StorageSQLite = "sqlite"
	StorageFile   = "file"
	StorageMemory = "memory"

	BackendSlot = "slot"
	BackendLog  = "log"

	DefaultDBPath = "history.db"
	DefaultDir    = "history"
	DefaultListen = "127.0.0.1:5500"
)
