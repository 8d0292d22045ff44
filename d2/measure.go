package d2

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/wippyai/wasm-gl/errors"
)

// DefaultMeasureCacheSize is the entry count NewMeasurer uses for a
// non-positive size.
const DefaultMeasureCacheSize = 512

type measureKey struct {
	font   *Font
	scribe Scribe
	text   string
}

// Measurer caches TextWidth results. Immediate-mode callers measure the
// same labels every frame; the cache keeps the most recently used ones.
// Fonts must not be modified while cached widths for them are in use.
type Measurer struct {
	cache *lru.Cache[measureKey, float32]
}

// NewMeasurer returns a measurer holding up to size widths.
func NewMeasurer(size int) (*Measurer, error) {
	if size <= 0 {
		size = DefaultMeasureCacheSize
	}
	cache, err := lru.New[measureKey, float32](size)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseFont, errors.KindInvalidInput, err, "create measure cache")
	}
	return &Measurer{cache: cache}, nil
}

// TextWidth returns s.TextWidth(font, text), computing it at most once per
// scribe state, font and text while the entry stays cached.
func (m *Measurer) TextWidth(s Scribe, font *Font, text string) float32 {
	key := measureKey{font: font, scribe: s, text: text}
	if w, ok := m.cache.Get(key); ok {
		return w
	}
	w := s.TextWidth(font, text)
	m.cache.Add(key, w)
	return w
}

// Len returns the number of cached widths.
func (m *Measurer) Len() int {
	return m.cache.Len()
}

// Purge drops every cached width.
func (m *Measurer) Purge() {
	m.cache.Purge()
}
