/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package crates

import (
	"context"
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fulmenhq/licensepage/pkg/logger"
	"github.com/fulmenhq/licensepage/pkg/spdx"
)

// Crate is one third-party dependency and the expression it is licensed
// under.
type Crate struct {
	ID         string
	Name       string
	Version    string
	Authors    []string
	Repository string
	License    *spdx.Expression
}

// LicenseGroup is the set of crates sharing one license expression.
type LicenseGroup struct {
	Expression *spdx.Expression
	Count      int
	Crates     []*Crate
}

// CrateList is an ordered collection of crates.
type CrateList struct {
	crates []Crate
}

// NewCrateList keeps crates in the order given. Every crate must carry a
// license expression.
func NewCrateList(crates []Crate) (*CrateList, error) {
	for _, c := range crates {
		if c.License == nil {
			return nil, fmt.Errorf("%w: %s %s", ErrMissingLicense, c.Name, c.Version)
		}
	}
	list := &CrateList{crates: make([]Crate, len(crates))}
	copy(list.crates, crates)
	return list, nil
}

// Len returns the number of crates.
func (l *CrateList) Len() int { return len(l.crates) }

// Crates returns the crates in list order.
func (l *CrateList) Crates() []Crate {
	out := make([]Crate, len(l.crates))
	copy(out, l.crates)
	return out
}

// ByLicense partitions the list by the exact string form of each crate's
// expression. Groups are ordered by that string, byte-wise ascending; crates
// inside a group keep list order.
func (l *CrateList) ByLicense() []LicenseGroup {
	index := make(map[string]int)
	var groups []LicenseGroup
	for i := range l.crates {
		c := &l.crates[i]
		key := c.License.String()
		gi, ok := index[key]
		if !ok {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, LicenseGroup{Expression: c.License})
		}
		groups[gi].Crates = append(groups[gi].Crates, c)
		groups[gi].Count++
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Expression.String() < groups[j].Expression.String()
	})
	return groups
}

// Exclude returns a list without crates whose name matches any of the
// doublestar patterns.
func (l *CrateList) Exclude(patterns []string) (*CrateList, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	kept := make([]Crate, 0, len(l.crates))
	for _, c := range l.crates {
		if matchAny(patterns, c.Name) {
			logger.Debug("Excluding crate", logger.String("crate", c.Name), logger.String("version", c.Version))
			continue
		}
		kept = append(kept, c)
	}
	return &CrateList{crates: kept}, nil
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

// RepositoryLookup finds the repository of a published crate.
type RepositoryLookup interface {
	Repository(ctx context.Context, name, version string) (string, error)
}

// Enrich fills empty repository fields from lookup. Lookup failures are
// logged and leave the field empty.
func (l *CrateList) Enrich(ctx context.Context, lookup RepositoryLookup) {
	for i := range l.crates {
		c := &l.crates[i]
		if c.Repository != "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			logger.Warn("Repository enrichment interrupted", logger.Err(err))
			return
		}
		repo, err := lookup.Repository(ctx, c.Name, c.Version)
		if err != nil {
			logger.Warn("Could not look up repository", logger.String("crate", c.Name), logger.Err(err))
			continue
		}
		c.Repository = repo
	}
}
