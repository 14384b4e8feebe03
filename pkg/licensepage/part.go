package licensepage

import (
	"sort"
	"strings"
)

// Kind distinguishes licenses from exceptions.
type Kind int

const (
	KindLicense Kind = iota
	KindException
)

func (k Kind) String() string {
	if k == KindException {
		return "exception"
	}
	return "license"
}

// Part is one license or exception referenced by some expression. ID is the
// canonical catalog identifier, so two parts are equal exactly when they name
// the same catalog entry.
type Part struct {
	Kind Kind
	ID   string
}

// LicensePart returns the part for a canonical license identifier.
func LicensePart(id string) Part { return Part{Kind: KindLicense, ID: id} }

// ExceptionPart returns the part for a canonical exception identifier.
func ExceptionPart(id string) Part { return Part{Kind: KindException, ID: id} }

func (p Part) String() string { return p.Kind.String() + ":" + p.ID }

// Compare orders licenses before exceptions, then by identifier ignoring
// case, then by exact identifier. It returns -1, 0 or 1.
func (p Part) Compare(o Part) int {
	switch {
	case p.Kind < o.Kind:
		return -1
	case p.Kind > o.Kind:
		return 1
	}
	if c := strings.Compare(strings.ToLower(p.ID), strings.ToLower(o.ID)); c != 0 {
		return c
	}
	return strings.Compare(p.ID, o.ID)
}

// PartSet is an ordered set of parts. The zero value is ready to use.
type PartSet struct {
	parts []Part
}

// Insert adds p unless an equal part is present and reports whether it was
// added.
func (s *PartSet) Insert(p Part) bool {
	i := sort.Search(len(s.parts), func(i int) bool { return s.parts[i].Compare(p) >= 0 })
	if i < len(s.parts) && s.parts[i].Compare(p) == 0 {
		return false
	}
	s.parts = append(s.parts, Part{})
	copy(s.parts[i+1:], s.parts[i:])
	s.parts[i] = p
	return true
}

// Contains reports whether p is in the set.
func (s *PartSet) Contains(p Part) bool {
	i := sort.Search(len(s.parts), func(i int) bool { return s.parts[i].Compare(p) >= 0 })
	return i < len(s.parts) && s.parts[i].Compare(p) == 0
}

func (s *PartSet) Len() int { return len(s.parts) }

// Parts returns the members in order.
func (s *PartSet) Parts() []Part {
	out := make([]Part, len(s.parts))
	copy(out, s.parts)
	return out
}
