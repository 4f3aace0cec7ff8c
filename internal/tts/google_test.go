package tts_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kolluru/chilaka/internal/lang"
	"github.com/kolluru/chilaka/internal/tts"
)

func TestSynthesize_Success(t *testing.T) {
	t.Parallel()

	var gotLang atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLang.Store(r.URL.Query().Get("tl"))
		if r.URL.Query().Get("q") != "పిల్లి" {
			t.Errorf("q = %q", r.URL.Query().Get("q"))
		}
		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	g := tts.NewGoogle(tts.WithEndpoint(srv.URL), tts.WithHTTPClient(srv.Client()))

	audio, mime, err := g.Synthesize(context.Background(), "పిల్లి", lang.Telugu)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "mp3-bytes" {
		t.Errorf("audio = %q", audio)
	}
	if mime != "audio/mpeg" {
		t.Errorf("mime = %q", mime)
	}
	if gotLang.Load() != "te" {
		t.Errorf("tl = %v, want te", gotLang.Load())
	}
}

func TestSynthesize_EnglishFallback(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("tl") == "as" {
			http.Error(w, "unsupported", http.StatusBadRequest)
			return
		}
		w.Write([]byte("english-mp3"))
	}))
	defer srv.Close()

	g := tts.NewGoogle(tts.WithEndpoint(srv.URL), tts.WithHTTPClient(srv.Client()))

	audio, _, err := g.Synthesize(context.Background(), "mekuri", lang.Assamese)
	if err != nil {
		t.Fatalf("Synthesize with fallback: %v", err)
	}
	if string(audio) != "english-mp3" {
		t.Errorf("audio = %q", audio)
	}
	if calls.Load() != 2 {
		t.Errorf("requests = %d, want 2 (target then fallback)", calls.Load())
	}
}

func TestSynthesize_BothFail(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := tts.NewGoogle(tts.WithEndpoint(srv.URL), tts.WithHTTPClient(srv.Client()))

	if _, _, err := g.Synthesize(context.Background(), "pilli", lang.Telugu); err == nil {
		t.Fatal("want error when target and fallback both fail")
	}
}

func TestSynthesize_NoDoubleRequestForEnglish(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := tts.NewGoogle(tts.WithEndpoint(srv.URL), tts.WithHTTPClient(srv.Client()))

	if _, _, err := g.Synthesize(context.Background(), "cat", lang.English); err == nil {
		t.Fatal("want error")
	}
	if calls.Load() != 1 {
		t.Errorf("requests = %d, want 1 (no english fallback for english)", calls.Load())
	}
}

func TestSynthesize_InputValidation(t *testing.T) {
	t.Parallel()

	g := tts.NewGoogle(tts.WithEndpoint("http://unused.invalid"))

	if _, _, err := g.Synthesize(context.Background(), "", lang.Telugu); err == nil {
		t.Error("want error for empty text")
	}
	if _, _, err := g.Synthesize(context.Background(), strings.Repeat("a", 300), lang.Telugu); err == nil {
		t.Error("want error for oversized text")
	}
}
