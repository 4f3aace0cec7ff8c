// Package config provides the configuration schema, loader, and file watcher
// for the chilaka speech-verification server.
package config

import (
	"time"

	"github.com/kolluru/chilaka/internal/lang"
)

// LogLevel controls log verbosity for the server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure. It is typically loaded from a
// YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	STT      STTConfig      `yaml:"stt"`
	TTS      TTSConfig      `yaml:"tts"`
	Limits   LimitsConfig   `yaml:"limits"`
	Defaults ClientSettings `yaml:"defaults"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// STTConfig holds the transcription engine settings. All recognition feature
// toggles are named fields here rather than ambient environment variables.
type STTConfig struct {
	// ModelPath is the path to the whisper.cpp ggml model file.
	ModelPath string `yaml:"model_path"`

	// Threads caps the decode thread count. 0 lets the binding pick.
	Threads int `yaml:"threads"`

	// DisableForcedPass skips the language-forced pass and relies on the
	// language-agnostic pass alone. Intended for single-vCPU deployments
	// where the native-script pass is too slow.
	DisableForcedPass bool `yaml:"disable_forced_pass"`

	// DisableInitialPrompt turns off biasing each decode with the expected
	// word.
	DisableInitialPrompt bool `yaml:"disable_initial_prompt"`

	// NoiseReduction enables the high-pass + noise-gate pre-processing pass
	// on decoded audio.
	NoiseReduction bool `yaml:"noise_reduction"`
}

// TTSConfig holds text-to-speech settings for word playback.
type TTSConfig struct {
	// Disabled turns the /api/tts endpoint off entirely.
	Disabled bool `yaml:"disabled"`

	// Endpoint overrides the synthesis endpoint. Leave empty for the default
	// public endpoint.
	Endpoint string `yaml:"endpoint"`

	// Timeout bounds one synthesis request. Defaults to 10s.
	Timeout time.Duration `yaml:"timeout"`
}

// LimitsConfig bounds per-request resource usage.
type LimitsConfig struct {
	// MaxUploadBytes caps the size of one audio upload. Defaults to 10 MiB.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// RequestTimeout bounds one verification end to end. Defaults to 30s.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// ClientSettings are the practice-session defaults handed to clients via the
// settings API. The server holds no per-client state; clients persist their
// own overrides and the server only validates and merges them.
type ClientSettings struct {
	// ChildName personalises the UI greeting. May be empty.
	ChildName string `yaml:"child_name" json:"child_name"`

	// Languages is the ordered list of practice languages.
	Languages []lang.Tag `yaml:"languages" json:"languages"`

	// Categories filters the word store. Empty means all categories.
	Categories []string `yaml:"categories" json:"categories"`

	// ShowRomanized toggles display of the Latin-alphabet form.
	ShowRomanized bool `yaml:"show_romanized" json:"show_romanized"`

	// SimilarityThreshold is the score in [0,100] at or above which an
	// attempt counts as correct.
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold"`

	// MaxAttempts is how many tries the child gets per word.
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`
}

// DefaultSettings returns the baseline practice-session settings used when
// the defaults block is absent from the config file.
func DefaultSettings() ClientSettings {
	return ClientSettings{
		Languages:           []lang.Tag{lang.Telugu, lang.Assamese},
		ShowRomanized:       true,
		SimilarityThreshold: 65,
		MaxAttempts:         3,
	}
}

// SettingsOverride is a partial [ClientSettings]: nil fields keep the base
// value. Using pointers makes "absent" distinguishable from zero values, so a
// client can explicitly turn ShowRomanized off.
type SettingsOverride struct {
	ChildName           *string    `json:"child_name"`
	Languages           []lang.Tag `json:"languages"`
	Categories          []string   `json:"categories"`
	ShowRomanized       *bool      `json:"show_romanized"`
	SimilarityThreshold *float64   `json:"similarity_threshold"`
	MaxAttempts         *int       `json:"max_attempts"`
}

// Merge returns base with every present override field applied. Neither input
// is mutated.
func (o SettingsOverride) Merge(base ClientSettings) ClientSettings {
	out := base
	out.Languages = append([]lang.Tag(nil), base.Languages...)
	out.Categories = append([]string(nil), base.Categories...)

	if o.ChildName != nil {
		out.ChildName = *o.ChildName
	}
	if o.Languages != nil {
		out.Languages = append([]lang.Tag(nil), o.Languages...)
	}
	if o.Categories != nil {
		out.Categories = append([]string(nil), o.Categories...)
	}
	if o.ShowRomanized != nil {
		out.ShowRomanized = *o.ShowRomanized
	}
	if o.SimilarityThreshold != nil {
		out.SimilarityThreshold = *o.SimilarityThreshold
	}
	if o.MaxAttempts != nil {
		out.MaxAttempts = *o.MaxAttempts
	}
	return out
}
