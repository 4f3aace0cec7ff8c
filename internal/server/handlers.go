package server

import (
	"encoding/json"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kolluru/chilaka/internal/config"
	"github.com/kolluru/chilaka/internal/lang"
	"github.com/kolluru/chilaka/internal/observe"
	"github.com/kolluru/chilaka/internal/verify"
	"github.com/kolluru/chilaka/internal/words"
)

// errorBody is the JSON shape for 4xx/5xx responses.
type errorBody struct {
	Detail string `json:"detail"`
}

// verdictBody is the wire shape of a verification verdict. Error is null on
// the normal path and one of the taxonomy strings on failure.
type verdictBody struct {
	Transcribed      string  `json:"transcribed"`
	Expected         string  `json:"expected"`
	Similarity       float64 `json:"similarity"`
	ScriptSimilarity float64 `json:"script_similarity"`
	RomanSimilarity  float64 `json:"roman_similarity"`
	IsCorrect        bool    `json:"is_correct"`
	Language         string  `json:"language"`
	Error            *string `json:"error"`
}

func toVerdictBody(v verify.Verdict) verdictBody {
	b := verdictBody{
		Transcribed:      v.Transcribed,
		Expected:         v.Expected,
		Similarity:       v.Similarity,
		ScriptSimilarity: v.ScriptSimilarity,
		RomanSimilarity:  v.RomanSimilarity,
		IsCorrect:        v.IsCorrect,
		Language:         v.Language.String(),
	}
	if v.ErrorKind != verify.ErrorNone {
		kind := string(v.ErrorKind)
		b.Error = &kind
	}
	return b
}

// handleRecognize accepts a multipart form with the recorded audio and the
// target word, runs the verification pipeline, and returns the verdict.
//
// Malformed requests (missing audio, unknown language, oversized upload) are
// the client's fault and get a 400/413; everything downstream of a
// well-formed request comes back as a 200 verdict with its error field set.
func (s *Server) handleRecognize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.limits.MaxUploadBytes)

	if err := r.ParseMultipartForm(s.limits.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "audio upload exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "'audio' file field is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read audio upload")
		return
	}
	if len(audio) == 0 {
		writeError(w, http.StatusBadRequest, "empty audio file received")
		return
	}

	language := lang.Tag(r.FormValue("language"))
	if !language.IsValid() {
		writeError(w, http.StatusBadRequest, "unknown language "+strconv.Quote(string(language)))
		return
	}
	expected := strings.TrimSpace(r.FormValue("expected_word"))
	if expected == "" {
		writeError(w, http.StatusBadRequest, "'expected_word' is required")
		return
	}

	threshold := s.settings().SimilarityThreshold
	if raw := r.FormValue("similarity_threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "'similarity_threshold' must be a number")
			return
		}
		threshold = parsed
	}

	observe.Logger(r.Context()).Info("recognize request",
		"language", language,
		"expected", expected,
		"mime", r.FormValue("audio_format"),
		"audio_bytes", len(audio),
	)

	verdict := s.verifier.Verify(r.Context(), verify.Request{
		Audio:    audio,
		MimeType: r.FormValue("audio_format"),
		Target: verify.Target{
			Native:    expected,
			Romanized: strings.TrimSpace(r.FormValue("romanized")),
			Language:  language,
		},
		Threshold: threshold,
	})

	writeJSON(w, http.StatusOK, toVerdictBody(verdict))
}

// handleWord returns one random practice word. Language and category pools
// come from query parameters, falling back to the configured defaults.
func (s *Server) handleWord(w http.ResponseWriter, r *http.Request) {
	langs, cats, ok := s.poolsFromQuery(w, r)
	if !ok {
		return
	}

	language := langs[rand.IntN(len(langs))]
	category := cats[rand.IntN(len(cats))]
	writeJSON(w, http.StatusOK, s.store.Random(language, category))
}

// handleAllWords returns the full word list per language for progress
// tracking, keyed by language tag.
func (s *Server) handleAllWords(w http.ResponseWriter, r *http.Request) {
	langs, cats, ok := s.poolsFromQuery(w, r)
	if !ok {
		return
	}

	out := make(map[string][]words.Word, len(langs))
	for _, l := range langs {
		out[l.String()] = s.store.All(l, cats)
	}
	writeJSON(w, http.StatusOK, out)
}

// poolsFromQuery resolves the languages/categories query parameters against
// the configured defaults. On a validation failure it writes the error
// response and returns ok=false.
func (s *Server) poolsFromQuery(w http.ResponseWriter, r *http.Request) ([]lang.Tag, []string, bool) {
	defaults := s.settings()

	langs := defaults.Languages
	if raw := splitList(r.URL.Query().Get("languages")); len(raw) > 0 {
		langs = nil
		for _, v := range raw {
			tag := lang.Tag(v)
			if !tag.IsValid() {
				writeError(w, http.StatusBadRequest, "unknown language "+strconv.Quote(v))
				return nil, nil, false
			}
			langs = append(langs, tag)
		}
	}
	if len(langs) == 0 {
		writeError(w, http.StatusBadRequest, "no languages configured")
		return nil, nil, false
	}

	cats := defaults.Categories
	if raw := splitList(r.URL.Query().Get("categories")); len(raw) > 0 {
		cats = raw
	}
	if len(cats) == 0 {
		cats = s.store.Categories()
	}

	return langs, cats, true
}

// handleTTS synthesizes the given text and streams the audio back.
func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	text := strings.TrimSpace(r.URL.Query().Get("text"))
	if text == "" {
		writeError(w, http.StatusBadRequest, "'text' is required")
		return
	}
	language := lang.Tag(r.URL.Query().Get("language"))
	if language == "" {
		language = lang.Telugu
	}
	if !language.IsValid() {
		writeError(w, http.StatusBadRequest, "unknown language "+strconv.Quote(string(language)))
		return
	}

	start := time.Now()
	audio, mimeType, err := s.synth.Synthesize(r.Context(), text, language)
	s.metrics.TTSDuration.Record(r.Context(), time.Since(start).Seconds())
	if err != nil {
		observe.Logger(r.Context()).Error("tts failed", "language", language, "error", err)
		writeError(w, http.StatusBadGateway, "speech synthesis failed")
		return
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(audio)
}

// handleGetConfig returns the current client defaults. Clients persist their
// own overrides; the server holds no per-client state.
func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.settings())
}

// saveConfigBody is the POST /api/config response.
type saveConfigBody struct {
	Status string                `json:"status"`
	Config config.ClientSettings `json:"config"`
}

// handleSaveConfig validates a partial settings payload and returns the
// merged result for the client to persist.
func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var override config.SettingsOverride
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&override); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings payload: "+err.Error())
		return
	}

	merged := override.Merge(s.settings())
	if err := config.ValidateSettings(&merged); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, saveConfigBody{Status: "ok", Config: merged})
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"detail":"encoding failure"}`, http.StatusInternalServerError)
	}
}

// splitList parses a comma-separated query value into trimmed non-empty
// items.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
