// Package licensetext holds curated license texts that take precedence over
// the SPDX reference catalog.
package licensetext

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/unicode/norm"
)

//go:embed texts/*.txt
var embeddedTexts embed.FS

// Entry pairs a lowercase license identifier with its text.
type Entry struct {
	ID   string
	Text string
}

// Store is an immutable table of entries sorted by ID. Lookup is a binary
// search and relies on that order.
type Store struct {
	entries []Entry
}

// New builds a store from entries in any order. Keys are lowercased and
// must be unique after lowercasing.
func New(entries []Entry) (*Store, error) {
	sorted := make([]Entry, 0, len(entries))
	for _, e := range entries {
		id := strings.ToLower(strings.TrimSpace(e.ID))
		if id == "" {
			return nil, fmt.Errorf("license text entry has an empty identifier")
		}
		sorted = append(sorted, Entry{ID: id, Text: norm.NFC.String(e.Text)})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].ID == sorted[i-1].ID {
			return nil, fmt.Errorf("duplicate license text for %q", sorted[i].ID)
		}
	}
	return &Store{entries: sorted}, nil
}

// Empty returns a store that never matches.
func Empty() *Store {
	return &Store{}
}

// Default returns the texts compiled into the binary.
func Default() (*Store, error) {
	return Load(embeddedTexts)
}

// Load reads every *.txt file under fsys. The file name without extension
// is the license identifier.
func Load(fsys fs.FS) (*Store, error) {
	files, err := doublestar.Glob(fsys, "**/*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to list license texts: %w", err)
	}
	entries := make([]Entry, 0, len(files))
	for _, name := range files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read license text %s: %w", name, err)
		}
		entries = append(entries, Entry{
			ID:   strings.TrimSuffix(path.Base(name), ".txt"),
			Text: string(data),
		})
	}
	return New(entries)
}

// Lookup returns the text stored for id, compared case-insensitively.
func (s *Store) Lookup(id string) (string, bool) {
	key := strings.ToLower(id)
	i := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].ID >= key })
	if i < len(s.entries) && s.entries[i].ID == key {
		return s.entries[i].Text, true
	}
	return "", false
}

// IsSorted reports whether the backing table is strictly ordered by key.
func (s *Store) IsSorted() bool {
	for i := 1; i < len(s.entries); i++ {
		if s.entries[i-1].ID >= s.entries[i].ID {
			return false
		}
	}
	return true
}

// Len returns the number of entries.
func (s *Store) Len() int { return len(s.entries) }

// Keys returns the identifiers in table order.
func (s *Store) Keys() []string {
	keys := make([]string, len(s.entries))
	for i, e := range s.entries {
		keys[i] = e.ID
	}
	return keys
}

// Entries returns a copy of the table.
func (s *Store) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
