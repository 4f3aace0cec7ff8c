// Package lang defines the fixed allowlist of languages the application
// teaches and their whisper decode codes.
package lang

// Tag identifies a supported language. The zero value is invalid.
type Tag string

const (
	Telugu   Tag = "telugu"
	Assamese Tag = "assamese"
	English  Tag = "english"
)

// codes maps language tags to the two-letter codes whisper and the TTS
// endpoint understand.
var codes = map[Tag]string{
	Telugu:   "te",
	Assamese: "as",
	English:  "en",
}

// All returns the supported language tags in a stable order.
func All() []Tag {
	return []Tag{Telugu, Assamese, English}
}

// IsValid reports whether t is a recognised language tag.
func (t Tag) IsValid() bool {
	_, ok := codes[t]
	return ok
}

// Code returns the two-letter code for t. Unknown tags fall back to "te",
// the primary teaching language.
func (t Tag) Code() string {
	if c, ok := codes[t]; ok {
		return c
	}
	return "te"
}

// String returns the tag as a plain string.
func (t Tag) String() string { return string(t) }
