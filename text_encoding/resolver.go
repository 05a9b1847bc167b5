package text_encoding

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// DefaultFallback is the legacy encoding assumed when detection is off or
// its confidence is too low. VBA exports on western Windows systems use the
// ANSI codepage, which is almost always cp1252.
const DefaultFallback = "cp1252"

// minConfidence is the chardet confidence (0-100) below which a detection
// result is discarded in favour of the fallback encoding.
const minConfidence = 40

// Resolver determines the byte encoding used to read and write a
// component's file, either fixed or auto-detected, and keeps the resolved
// encoding per component so re-resolving never flips an already-recorded
// one.
type Resolver struct {
	mu       sync.RWMutex
	fallback string
	detect   bool
	recorded map[string]string
}

// NewResolver creates a resolver. fixed is the encoding used when detection
// is disabled or inconclusive; empty means DefaultFallback. When detect is
// true, unrecorded components get their encoding from a chardet scan of the
// file bytes.
func NewResolver(fixed string, detect bool) *Resolver {
	if fixed == "" {
		fixed = DefaultFallback
	}
	return &Resolver{
		fallback: fixed,
		detect:   detect,
		recorded: make(map[string]string),
	}
}

// ReadFile reads and decodes the file at path, resolving the encoding for
// the named component. The resolved encoding is recorded so later reads and
// writes of the same component stay encoding-stable.
func (r *Resolver) ReadFile(path string, component string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	name := r.resolve(component, data)
	text, err := Decode(data, name)
	if err != nil {
		return "", "", fmt.Errorf("failed to decode %s as %s: %w", path, name, err)
	}

	r.record(component, name)
	return text, name, nil
}

// WriteFile encodes text with the component's resolved encoding and writes
// it to path.
func (r *Resolver) WriteFile(path string, component string, text string) (string, error) {
	name := r.resolve(component, nil)
	data, err := Encode(text, name)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s as %s: %w", component, name, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	r.record(component, name)
	return name, nil
}

// resolve picks the encoding for a component: the recorded one if present,
// otherwise detection over data (when enabled and data is available),
// otherwise the fixed fallback.
func (r *Resolver) resolve(component string, data []byte) string {
	r.mu.RLock()
	name, ok := r.recorded[component]
	r.mu.RUnlock()
	if ok {
		return name
	}

	if r.detect && len(data) > 0 {
		if detected, ok := detectEncoding(data); ok {
			return detected
		}
	}
	return r.fallback
}

func (r *Resolver) record(component string, name string) {
	r.mu.Lock()
	r.recorded[component] = name
	r.mu.Unlock()
}

// Invalidate forgets the recorded encoding for a component, so the next
// resolve runs detection again. Used when a component is removed or its
// metadata is explicitly discarded.
func (r *Resolver) Invalidate(component string) {
	r.mu.Lock()
	delete(r.recorded, component)
	r.mu.Unlock()
}

// Recorded returns a copy of the per-component encoding table, for
// persistence into the metadata file.
func (r *Resolver) Recorded() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.recorded))
	for k, v := range r.recorded {
		out[k] = v
	}
	return out
}

// Restore seeds the recorded encoding table, typically from a previously
// saved metadata file. Existing entries are not overwritten.
func (r *Resolver) Restore(encodings map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range encodings {
		if _, ok := r.recorded[k]; !ok && v != "" {
			r.recorded[k] = v
		}
	}
}

// detectEncoding samples the byte stream with chardet and returns the best
// candidate, discarding low-confidence results.
func detectEncoding(data []byte) (string, bool) {
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil || result.Confidence < minConfidence {
		return "", false
	}
	return result.Charset, true
}

// Decode converts raw bytes to a string using the named encoding.
func Decode(data []byte, name string) (string, error) {
	enc, err := lookup(name)
	if err != nil {
		return "", err
	}
	if enc == nil {
		// UTF-8: no transform, but undecodable sequences are fatal for the
		// component rather than silently replaced.
		if !utf8.Valid(data) {
			return "", fmt.Errorf("invalid UTF-8 byte sequence")
		}
		return string(data), nil
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Encode converts a string to raw bytes using the named encoding.
func Encode(text string, name string) ([]byte, error) {
	enc, err := lookup(name)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return []byte(text), nil
	}
	return enc.NewEncoder().Bytes([]byte(text))
}

// lookup maps an encoding name to an x/text encoding. A nil return with nil
// error means plain UTF-8. Windows codepage aliases like "cp1252" are
// normalised to their IANA names.
func lookup(name string) (encoding.Encoding, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "", "utf-8", "utf8", "ascii", "us-ascii":
		return nil, nil
	case "utf-16", "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	}
	if strings.HasPrefix(n, "cp") {
		n = "windows-" + strings.TrimPrefix(n, "cp")
	}
	enc, err := ianaindex.IANA.Encoding(n)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
	return enc, nil
}
