// Package config loads the configuration file of sandcalc.
//
// The file is YAML. Every key is optional and falls back to its default when
// absent; command-line flags take precedence over the file.
//
//	decimal: true
//	timeout: 5s
//	memory_limit: 512MiB
//	precision: 0
//	history_db: ~/.local/state/sandcalc/history.db
//	history_backend: bolt
//	log: /tmp/sandcalc.log
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sandcalc/sandcalc/pkg/env"
)

// Backends for the history store.
const (
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
)

// Config is the configuration of sandcalc.
type Config struct {
	// Whether number literals evaluate to decimals.
	Decimal bool `yaml:"decimal"`
	// Deadline of every calculation.
	Timeout time.Duration `yaml:"timeout"`
	// Address space limit of the sandbox worker.
	MemoryLimit ByteSize `yaml:"memory_limit"`
	// Significant digits when printing float results; 0 prints the repr.
	Precision int `yaml:"precision"`
	// Path of the history database. An empty path disables history.
	HistoryDB      string `yaml:"history_db"`
	HistoryBackend string `yaml:"history_backend"`
	// Path of the debug log.
	Log string `yaml:"log"`
}

// Default returns the configuration used when there is no configuration file.
func Default() Config {
	return Config{
		Decimal:        true,
		Timeout:        5 * time.Second,
		MemoryLimit:    512 << 20,
		HistoryDB:      defaultHistoryDB(),
		HistoryBackend: BackendBolt,
	}
}

// Load loads the configuration file at path on top of the defaults. When path
// is empty, the file at DefaultPath is used if it exists.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath()
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
	}
	return FromFile(path)
}

// FromFile loads the configuration file at path on top of the defaults.
func FromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return FromYAML(data)
}

// FromYAML parses YAML data on top of the defaults.
func FromYAML(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	cfg.HistoryDB = expandHome(cfg.HistoryDB)
	cfg.Log = expandHome(cfg.Log)
	return cfg, cfg.Validate()
}

// Validate checks the values of the configuration.
func (cfg Config) Validate() error {
	var errs []error
	if cfg.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %v", cfg.Timeout))
	}
	if cfg.MemoryLimit < 0 {
		errs = append(errs, fmt.Errorf("memory_limit must not be negative, got %d", cfg.MemoryLimit))
	}
	if cfg.Precision < 0 {
		errs = append(errs, fmt.Errorf("precision must not be negative, got %d", cfg.Precision))
	}
	switch cfg.HistoryBackend {
	case BackendBolt, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("history_backend must be %s or %s, got %q",
			BackendBolt, BackendSQLite, cfg.HistoryBackend))
	}
	return errors.Join(errs...)
}

// DefaultPath returns the path of the configuration file used when none is
// given. $SANDCALC_CONFIG takes precedence over the XDG base directory
// specification.
func DefaultPath() string {
	if path := os.Getenv(env.SANDCALC_CONFIG); path != "" {
		return path
	}
	if dir := os.Getenv(env.XDG_CONFIG_HOME); dir != "" {
		return filepath.Join(dir, "sandcalc", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "sandcalc", "config.yaml")
}

func defaultHistoryDB() string {
	if dir := os.Getenv(env.XDG_STATE_HOME); dir != "" {
		return filepath.Join(dir, "sandcalc", "history.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "sandcalc", "history.db")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// ByteSize is a number of bytes. In YAML it is either an integer or an integer
// followed by one of the units KiB, MiB, GiB, KB, MB and GB.
type ByteSize int64

var byteUnits = []struct {
	suffix string
	scale  int64
}{
	{"KiB", 1 << 10}, {"MiB", 1 << 20}, {"GiB", 1 << 30},
	{"KB", 1e3}, {"MB", 1e6}, {"GB", 1e9},
}

// ParseByteSize parses a size in the format accepted in YAML.
func ParseByteSize(s string) (ByteSize, error) {
	s = strings.TrimSpace(s)
	scale := int64(1)
	for _, u := range byteUnits {
		if strings.HasSuffix(s, u.suffix) {
			s, scale = strings.TrimSpace(strings.TrimSuffix(s, u.suffix)), u.scale
			break
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad size %q", s)
	}
	return ByteSize(n * scale), nil
}

func (b *ByteSize) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	size, err := ParseByteSize(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*b = size
	return nil
}

// Set implements flag.Value.
func (b *ByteSize) Set(s string) error {
	size, err := ParseByteSize(s)
	if err != nil {
		return err
	}
	*b = size
	return nil
}

func (b *ByteSize) String() string {
	return strconv.FormatInt(int64(*b), 10)
}
