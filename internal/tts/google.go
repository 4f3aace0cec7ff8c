package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/kolluru/chilaka/internal/lang"
	"github.com/kolluru/chilaka/internal/observe"
)

// defaultEndpoint is the public Google Translate speech endpoint. It returns
// MP3 and needs no API key for short texts, which is all a single practice
// word ever is.
const defaultEndpoint = "https://translate.google.com/translate_tts"

// maxTextLen caps the synthesized text. The endpoint rejects long inputs and
// practice words are a handful of characters anyway.
const maxTextLen = 200

// Compile-time assertion that Google satisfies Synthesizer.
var _ Synthesizer = (*Google)(nil)

// GoogleOption configures a Google synthesizer.
type GoogleOption func(*Google)

// WithHTTPClient overrides the HTTP client, e.g. to set a timeout or point at
// a test server.
func WithHTTPClient(c *http.Client) GoogleOption {
	return func(g *Google) { g.client = c }
}

// WithEndpoint overrides the synthesis endpoint URL.
func WithEndpoint(endpoint string) GoogleOption {
	return func(g *Google) { g.endpoint = endpoint }
}

// WithSlowSpeech toggles the slowed-down speaking rate. Slow is the default:
// the listener is a toddler learning the word.
func WithSlowSpeech(slow bool) GoogleOption {
	return func(g *Google) { g.slow = slow }
}

// Google synthesizes speech via the Google Translate TTS endpoint. When the
// target language fails it retries once in English so the child still hears
// something. Safe for concurrent use.
type Google struct {
	client   *http.Client
	endpoint string
	slow     bool
}

// NewGoogle returns a Google synthesizer with defaults applied.
func NewGoogle(opts ...GoogleOption) *Google {
	g := &Google{
		client:   http.DefaultClient,
		endpoint: defaultEndpoint,
		slow:     true,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Synthesize fetches MP3 audio for text in language, falling back to English
// when the target language fails.
func (g *Google) Synthesize(ctx context.Context, text string, language lang.Tag) ([]byte, string, error) {
	if text == "" {
		return nil, "", fmt.Errorf("%w: empty text", ErrSynthesisFailed)
	}
	if len(text) > maxTextLen {
		return nil, "", fmt.Errorf("%w: text longer than %d bytes", ErrSynthesisFailed, maxTextLen)
	}

	audio, err := g.fetch(ctx, text, language.Code())
	if err == nil {
		return audio, "audio/mpeg", nil
	}
	if language.Code() == "en" {
		return nil, "", err
	}

	observe.Logger(ctx).Warn("tts: target language failed, falling back to english",
		"language", language, "error", err)
	audio, fbErr := g.fetch(ctx, text, "en")
	if fbErr != nil {
		return nil, "", errors.Join(err, fbErr)
	}
	return audio, "audio/mpeg", nil
}

func (g *Google) fetch(ctx context.Context, text, code string) ([]byte, error) {
	q := url.Values{
		"ie":     {"UTF-8"},
		"client": {"tw-ob"},
		"q":      {text},
		"tl":     {code},
	}
	if g.slow {
		q.Set("ttsspeed", "0.3")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrSynthesisFailed, err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("%w: lang %q: status %d: %s", ErrSynthesisFailed, code, resp.StatusCode, body)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrSynthesisFailed, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: lang %q: empty response", ErrSynthesisFailed, code)
	}
	return audio, nil
}
