package audio

import "strings"

// mimeToExt maps browser MIME type strings to the file extensions ffmpeg
// understands. Browsers append codec parameters ("; codecs=opus") which we
// try to match exactly first, then fall back to the base type.
var mimeToExt = map[string]string{
	"audio/webm":                 "webm",
	"audio/webm;codecs=opus":     "webm",
	"audio/webm;codecs=vp8":      "webm",
	"audio/ogg":                  "ogg",
	"audio/ogg;codecs=opus":      "ogg",
	"audio/mp4":                  "mp4",
	"audio/mp4;codecs=mp4a.40.2": "mp4",
	"audio/mpeg":                 "mp3",
	"audio/wav":                  "wav",
	"audio/x-wav":                "wav",
}

// defaultExt is used when the MIME type is missing or unrecognised. Chrome's
// MediaRecorder produces webm by default, so it is the most likely guess, and
// ffmpeg sniffs the real container from the bytes anyway.
const defaultExt = "webm"

// MimeToExt converts a browser MIME type string to a file extension.
// Whitespace and case are normalised; codec parameters are honoured when a
// specific mapping exists, otherwise the base type before ';' is used.
func MimeToExt(mimeType string) string {
	clean := strings.ToLower(strings.TrimSpace(mimeType))
	clean = strings.ReplaceAll(clean, " ", "")
	if ext, ok := mimeToExt[clean]; ok {
		return ext
	}
	base, _, _ := strings.Cut(clean, ";")
	if ext, ok := mimeToExt[base]; ok {
		return ext
	}
	return defaultExt
}
