package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kolluru/chilaka/internal/lang"
)

// Default limits and session values applied by [Validate] for zero fields.
const (
	defaultListenAddr     = ":8080"
	defaultMaxUploadBytes = 10 << 20
	defaultRequestTimeout = 30 * time.Second
	defaultTTSTimeout     = 10 * time.Second
	defaultThreshold      = 65.0
	defaultMaxAttempts    = 3
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	// Decoding over pre-seeded defaults means absent YAML fields keep their
	// baseline values, including booleans that default to true.
	cfg := &Config{Defaults: DefaultSettings()}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate applies defaults to zero fields and checks that cfg contains a
// coherent set of values. It returns a joined error listing all validation
// failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = defaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if tls := cfg.Server.TLS; tls != nil {
		if tls.CertFile == "" || tls.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// STT
	if cfg.STT.ModelPath == "" {
		errs = append(errs, errors.New("stt.model_path is required"))
	}
	if cfg.STT.Threads < 0 {
		errs = append(errs, fmt.Errorf("stt.threads %d must not be negative", cfg.STT.Threads))
	}

	// TTS
	if cfg.TTS.Timeout <= 0 {
		cfg.TTS.Timeout = defaultTTSTimeout
	}

	// Limits
	if cfg.Limits.MaxUploadBytes <= 0 {
		cfg.Limits.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.Limits.RequestTimeout <= 0 {
		cfg.Limits.RequestTimeout = defaultRequestTimeout
	}

	// Client defaults
	if err := ValidateSettings(&cfg.Defaults); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ValidateSettings applies defaults to zero fields of s and checks the
// result. It is used both for the defaults block at load time and for client
// override payloads at the settings API boundary.
func ValidateSettings(s *ClientSettings) error {
	var errs []error

	if len(s.Languages) == 0 {
		s.Languages = []lang.Tag{lang.Telugu, lang.Assamese}
	}
	seen := make(map[lang.Tag]bool, len(s.Languages))
	for i, l := range s.Languages {
		if !l.IsValid() {
			errs = append(errs, fmt.Errorf("languages[%d] %q is unknown; valid values: %v", i, l, lang.All()))
		}
		if seen[l] {
			errs = append(errs, fmt.Errorf("languages[%d] %q is a duplicate", i, l))
		}
		seen[l] = true
	}

	if s.SimilarityThreshold == 0 {
		s.SimilarityThreshold = defaultThreshold
	}
	if s.SimilarityThreshold < 0 || s.SimilarityThreshold > 100 {
		errs = append(errs, fmt.Errorf("similarity_threshold %.1f is out of range [0, 100]", s.SimilarityThreshold))
	}

	if s.MaxAttempts == 0 {
		s.MaxAttempts = defaultMaxAttempts
	}
	if s.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max_attempts %d must be at least 1", s.MaxAttempts))
	}

	return errors.Join(errs...)
}
