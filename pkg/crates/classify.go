package crates

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	classifier "github.com/google/licenseclassifier/v2"
	"github.com/google/licenseclassifier/v2/assets"

	"github.com/fulmenhq/licensepage/pkg/logger"
	"github.com/fulmenhq/licensepage/pkg/spdx"
)

// DefaultMatchThreshold is the lowest confidence accepted for a license
// file match.
const DefaultMatchThreshold = 0.9

// LicenseClassifier names the licenses whose full text appears in a
// license file.
type LicenseClassifier interface {
	Classify(text []byte) ([]string, error)
}

// CorpusClassifier matches license files against the license corpus
// shipped with licenseclassifier. The corpus is loaded on first use.
type CorpusClassifier struct {
	Threshold float64

	once sync.Once
	c    *classifier.Classifier
	err  error
}

// NewCorpusClassifier returns a classifier using DefaultMatchThreshold.
func NewCorpusClassifier() *CorpusClassifier {
	return &CorpusClassifier{Threshold: DefaultMatchThreshold}
}

// Classify returns the sorted, distinct license names found in text.
// Header matches are ignored.
func (cc *CorpusClassifier) Classify(text []byte) ([]string, error) {
	cc.once.Do(func() {
		cc.c, cc.err = assets.DefaultClassifier()
	})
	if cc.err != nil {
		return nil, fmt.Errorf("failed to load license corpus: %w", cc.err)
	}
	return licenseNames(cc.c.Match(text), cc.Threshold), nil
}

func licenseNames(results classifier.Results, threshold float64) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range results.Matches {
		if m.MatchType != "License" || m.Confidence < threshold || seen[m.Name] {
			continue
		}
		seen[m.Name] = true
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}

// licenseFromFile classifies the license-file of a crate that declares no
// expression. Every license found in the file applies, so the names are
// joined with AND.
func licenseFromFile(p cargoPackage, cls LicenseClassifier) (*spdx.Expression, error) {
	path := *p.LicenseFile
	if !filepath.IsAbs(path) && p.ManifestPath != "" {
		path = filepath.Join(filepath.Dir(p.ManifestPath), path)
	}
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: failed to read license-file: %w", ErrMissingLicense, p.Name, p.Version, err)
	}
	names, err := cls.Classify(text)
	if err != nil {
		return nil, fmt.Errorf("crate %s %s: %w", p.Name, p.Version, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s %s only declares license-file %s, which matches no known license",
			ErrMissingLicense, p.Name, p.Version, *p.LicenseFile)
	}
	expr, err := spdx.Parse(strings.Join(names, " AND "))
	if err != nil {
		return nil, fmt.Errorf("crate %s %s: license-file %s: %w", p.Name, p.Version, *p.LicenseFile, err)
	}
	logger.Info("Classified license file",
		logger.String("crate", p.Name),
		logger.String("version", p.Version),
		logger.String("license", expr.String()))
	return expr, nil
}
