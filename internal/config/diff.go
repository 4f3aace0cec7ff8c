package config

import "slices"

// ConfigDiff describes what changed between two configs. Log level and client
// defaults can be applied live; everything else needs a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// DefaultsChanged is true when the client settings defaults block changed
	// (threshold, languages, categories, display options).
	DefaultsChanged bool

	// RestartRequired is true when a field that cannot be hot-reloaded
	// changed: listen address, TLS, STT engine settings, or request limits.
	RestartRequired bool
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if !settingsEqual(old.Defaults, new.Defaults) {
		d.DefaultsChanged = true
	}

	if old.Server.ListenAddr != new.Server.ListenAddr ||
		!tlsEqual(old.Server.TLS, new.Server.TLS) ||
		old.STT != new.STT ||
		old.TTS != new.TTS ||
		old.Limits != new.Limits {
		d.RestartRequired = true
	}

	return d
}

func settingsEqual(a, b ClientSettings) bool {
	return a.ChildName == b.ChildName &&
		slices.Equal(a.Languages, b.Languages) &&
		slices.Equal(a.Categories, b.Categories) &&
		a.ShowRomanized == b.ShowRomanized &&
		a.SimilarityThreshold == b.SimilarityThreshold &&
		a.MaxAttempts == b.MaxAttempts
}

func tlsEqual(a, b *TLSConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
