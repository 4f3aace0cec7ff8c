// Package words holds the practice vocabulary: a small embedded dataset of
// everyday words with Telugu and Assamese translations, romanized
// pronunciation guides, and an emoji per word. The dataset ships inside the
// binary; there is no database.
package words

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/kolluru/chilaka/internal/lang"
)

//go:embed words.yaml
var datasetYAML []byte

// Entry is one raw vocabulary record as stored in the dataset.
type Entry struct {
	English       string `yaml:"english"`
	Telugu        string `yaml:"telugu"`
	Assamese      string `yaml:"assamese"`
	Emoji         string `yaml:"emoji"`
	TeluguRoman   string `yaml:"telugu_roman"`
	AssameseRoman string `yaml:"assamese_roman"`
}

// Word is an entry resolved for one language, the shape handed to clients and
// to the verification pipeline.
type Word struct {
	English     string   `json:"english"`
	Translation string   `json:"translation"`
	Romanized   string   `json:"romanized"`
	Emoji       string   `json:"emoji"`
	Language    lang.Tag `json:"language"`
	Category    string   `json:"category"`
}

// Store is the loaded vocabulary. It is immutable after construction and safe
// for concurrent use.
type Store struct {
	byCategory map[string][]Entry
	categories []string
}

// New parses the embedded dataset. An invalid embedded dataset is a build
// defect, so callers typically treat an error here as fatal.
func New() (*Store, error) {
	return NewFromBytes(datasetYAML)
}

// NewFromBytes builds a Store from a YAML dataset. Exposed for tests that
// need a controlled vocabulary.
func NewFromBytes(data []byte) (*Store, error) {
	byCategory := map[string][]Entry{}
	if err := yaml.Unmarshal(data, &byCategory); err != nil {
		return nil, fmt.Errorf("words: parse dataset: %w", err)
	}
	if len(byCategory) == 0 {
		return nil, fmt.Errorf("words: dataset has no categories")
	}
	categories := make([]string, 0, len(byCategory))
	for cat, entries := range byCategory {
		if len(entries) == 0 {
			return nil, fmt.Errorf("words: category %q is empty", cat)
		}
		for i, e := range entries {
			if e.English == "" {
				return nil, fmt.Errorf("words: %s[%d] has no english form", cat, i)
			}
		}
		categories = append(categories, cat)
	}
	slices.Sort(categories)
	return &Store{byCategory: byCategory, categories: categories}, nil
}

// Categories returns all category names in sorted order.
func (s *Store) Categories() []string {
	return slices.Clone(s.categories)
}

// Random picks a random word from category, resolved for language. An unknown
// or empty category falls back to a random known one rather than failing —
// the UI always gets a word to show.
func (s *Store) Random(language lang.Tag, category string) Word {
	entries, ok := s.byCategory[category]
	if !ok {
		category = s.categories[rand.IntN(len(s.categories))]
		entries = s.byCategory[category]
	}
	return resolve(entries[rand.IntN(len(entries))], language, category)
}

// All returns every word for language across the given categories, in
// category-sorted then dataset order. Empty categories means all of them;
// unknown category names are skipped.
func (s *Store) All(language lang.Tag, categories []string) []Word {
	if len(categories) == 0 {
		categories = s.categories
	} else {
		categories = slices.Clone(categories)
		slices.Sort(categories)
	}

	var out []Word
	for _, cat := range categories {
		for _, e := range s.byCategory[cat] {
			out = append(out, resolve(e, language, cat))
		}
	}
	return out
}

// resolve projects an entry onto one language. For English the native and
// romanized forms coincide.
func resolve(e Entry, language lang.Tag, category string) Word {
	w := Word{
		English:  e.English,
		Emoji:    e.Emoji,
		Language: language,
		Category: category,
	}
	switch language {
	case lang.Telugu:
		w.Translation = e.Telugu
		w.Romanized = e.TeluguRoman
	case lang.Assamese:
		w.Translation = e.Assamese
		w.Romanized = e.AssameseRoman
	default:
		w.Translation = e.English
		w.Romanized = e.English
	}
	return w
}
