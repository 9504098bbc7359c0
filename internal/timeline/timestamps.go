package timeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Entry records where one scene began in the continuous recording,
// relative to the recording's own origin, and how long it occupies in
// the final mix.
type Entry struct {
	SceneID       string
	Start         float64
	AudioDuration float64
}

// Map is the ordered per-scene timestamp record. Entries are appended in
// scene order; Start values are non-decreasing.
type Map struct {
	entries []Entry
}

// Append adds an entry. Order of calls defines scene order.
func (m *Map) Append(e Entry) {
	m.entries = append(m.entries, e)
}

// Entries returns the entries in scene order. Callers must not mutate.
func (m *Map) Entries() []Entry {
	return m.entries
}

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.entries) }

// Shifted returns a copy of the entries with offset added to every
// Start. Used to re-express capture-origin timestamps relative to the
// trimmed output (offset = -leadIn).
func (m *Map) Shifted(offset float64) []Entry {
	out := make([]Entry, len(m.entries))
	for i, e := range m.entries {
		e.Start += offset
		out[i] = e
	}
	return out
}

type persistedEntry struct {
	Start         float64 `json:"start"`
	AudioDuration float64 `json:"audio_duration"`
}

// MarshalJSON writes the persisted form: a JSON object mapping scene id
// to {start, audio_duration} with insertion order preserved.
func (m Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.SceneID)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(persistedEntry{Start: e.Start, AudioDuration: e.AudioDuration})
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the persisted form, preserving key order.
func (m *Map) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("timestamp map: expected object, got %v", tok)
	}

	m.entries = nil
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("timestamp map: non-string key %v", keyTok)
		}

		var pe persistedEntry
		if err := dec.Decode(&pe); err != nil {
			return fmt.Errorf("timestamp map entry %q: %w", key, err)
		}
		m.entries = append(m.entries, Entry{SceneID: key, Start: pe.Start, AudioDuration: pe.AudioDuration})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// WriteFile persists the map as indented JSON.
func (m Map) WriteFile(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadFile loads a persisted timestamp map.
func ReadFile(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse timestamp map: %w", err)
	}
	return &m, nil
}
