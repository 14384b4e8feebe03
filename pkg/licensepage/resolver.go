/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package licensepage

import (
	"errors"
	"fmt"

	"github.com/fulmenhq/licensepage/pkg/licensetext"
	"github.com/fulmenhq/licensepage/pkg/logger"
	"github.com/fulmenhq/licensepage/pkg/spdx"
)

var (
	// ErrUnknownIdentifier is returned for identifiers absent from the catalog.
	ErrUnknownIdentifier = errors.New("unknown SPDX identifier")
	// ErrMissingText is returned when neither tier has text for a part
	// that is not on the SPDX list.
	ErrMissingText = errors.New("no license text available")
)

// referenceBody stands in for texts of listed identifiers that are not
// bundled.
func referenceBody(id, url string) string {
	return fmt.Sprintf("The text of %s is not bundled with this page. The official text is published at %s\n", id, url)
}

// UnsupportedLicenseError reports a license item that is not an SPDX
// identifier. Text for such items is never guessed.
type UnsupportedLicenseError struct {
	Expression string
	Item       string
}

func (e *UnsupportedLicenseError) Error() string {
	return fmt.Sprintf("received non-SPDX item %q in license `%s`", e.Item, e.Expression)
}

// ResolvedText is the heading and body printed for one part.
type ResolvedText struct {
	Title string
	Body  string
}

// Resolver turns identifiers into display titles and texts. Licenses are
// looked up in the text store first and the catalog second; exceptions only
// in the catalog.
type Resolver struct {
	catalog *spdx.Catalog
	store   *licensetext.Store
}

// NewResolver builds a resolver. A nil store disables the first tier.
func NewResolver(catalog *spdx.Catalog, store *licensetext.Store) *Resolver {
	if store == nil {
		store = licensetext.Empty()
	}
	return &Resolver{catalog: catalog, store: store}
}

// Parts decomposes expr into the canonical parts it references, in
// requirement order. Duplicates are not removed.
func (r *Resolver) Parts(expr *spdx.Expression) ([]Part, error) {
	var parts []Part
	for _, req := range expr.Requirements() {
		if req.License.Other {
			return nil, &UnsupportedLicenseError{Expression: expr.String(), Item: req.License.String()}
		}
		lic, ok := r.catalog.License(req.License.ID)
		if !ok {
			return nil, fmt.Errorf("%w %q in license `%s`", ErrUnknownIdentifier, req.License.ID, expr.String())
		}
		parts = append(parts, LicensePart(lic.ID))

		if req.Exception == "" {
			continue
		}
		exc, ok := r.catalog.Exception(req.Exception)
		if !ok {
			return nil, fmt.Errorf("%w %q in license `%s`", ErrUnknownIdentifier, req.Exception, expr.String())
		}
		parts = append(parts, ExceptionPart(exc.ID))
	}
	return parts, nil
}

// Resolve returns the title and body for p.
func (r *Resolver) Resolve(p Part) (ResolvedText, error) {
	switch p.Kind {
	case KindLicense:
		lic, ok := r.catalog.License(p.ID)
		if !ok {
			return ResolvedText{}, fmt.Errorf("%w %q", ErrUnknownIdentifier, p.ID)
		}
		if text, ok := r.store.Lookup(lic.ID); ok {
			logger.Trace("License text from store", logger.String("id", lic.ID))
			return ResolvedText{Title: lic.Name, Body: text}, nil
		}
		if lic.Text == "" {
			if !lic.Listed {
				return ResolvedText{}, fmt.Errorf("%w for license %s", ErrMissingText, lic.ID)
			}
			logger.Warn("License text not bundled, linking the SPDX reference",
				logger.String("id", lic.ID), logger.String("url", lic.ReferenceURL()))
			return ResolvedText{Title: lic.Name, Body: referenceBody(lic.ID, lic.ReferenceURL())}, nil
		}
		logger.Trace("License text from catalog", logger.String("id", lic.ID))
		return ResolvedText{Title: lic.Name, Body: lic.Text}, nil

	case KindException:
		exc, ok := r.catalog.Exception(p.ID)
		if !ok {
			return ResolvedText{}, fmt.Errorf("%w %q", ErrUnknownIdentifier, p.ID)
		}
		if exc.Text == "" {
			if !exc.Listed {
				return ResolvedText{}, fmt.Errorf("%w for exception %s", ErrMissingText, exc.ID)
			}
			logger.Warn("Exception text not bundled, linking the SPDX reference",
				logger.String("id", exc.ID), logger.String("url", exc.ReferenceURL()))
			return ResolvedText{Title: "`" + exc.Name + "`", Body: referenceBody(exc.ID, exc.ReferenceURL())}, nil
		}
		return ResolvedText{Title: "`" + exc.Name + "`", Body: exc.Text}, nil
	}
	return ResolvedText{}, fmt.Errorf("unknown part kind %d", p.Kind)
}
