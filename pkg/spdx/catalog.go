package spdx

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

var (
	//go:embed data/catalog.yaml
	embeddedCatalog []byte
	//go:embed data/identifiers.yaml
	embeddedIdentifiers []byte
)

// ReferenceBaseURL is where the SPDX project publishes license texts.
const ReferenceBaseURL = "https://spdx.org/licenses/"

// License is a registered SPDX license.
type License struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	OSIApproved bool   `yaml:"osi_approved"`
	Deprecated  bool   `yaml:"deprecated"`
	Text        string `yaml:"text"`
	TextOf      string `yaml:"text_of,omitempty"`
	Listed      bool   `yaml:"-"` // on the official SPDX list
}

// ReferenceURL is the published location of the license text.
func (l License) ReferenceURL() string {
	return ReferenceBaseURL + l.ID + ".html"
}

// Exception is a registered SPDX license exception.
type Exception struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Text   string `yaml:"text"`
	Listed bool   `yaml:"-"`
}

// ReferenceURL is the published location of the exception text.
func (e Exception) ReferenceURL() string {
	return ReferenceBaseURL + e.ID + ".html"
}

type catalogFile struct {
	Licenses   []License   `yaml:"licenses"`
	Exceptions []Exception `yaml:"exceptions"`
}

type identifierFile struct {
	Licenses             []string `yaml:"licenses"`
	DeprecatedLicenses   []string `yaml:"deprecated_licenses"`
	Exceptions           []string `yaml:"exceptions"`
	DeprecatedExceptions []string `yaml:"deprecated_exceptions"`
}

// Catalog is the reference database of license and exception texts.
// Lookups are case-insensitive and return the canonical entry.
type Catalog struct {
	licenses   map[string]License
	exceptions map[string]Exception
}

// NewCatalog builds a catalog. Later entries replace earlier ones with the
// same identifier.
func NewCatalog(licenses []License, exceptions []Exception) *Catalog {
	c := &Catalog{
		licenses:   make(map[string]License, len(licenses)),
		exceptions: make(map[string]Exception, len(exceptions)),
	}
	for _, l := range licenses {
		l.Name = norm.NFC.String(l.Name)
		l.Text = norm.NFC.String(l.Text)
		c.licenses[strings.ToLower(l.ID)] = l
	}
	for _, e := range exceptions {
		e.Name = norm.NFC.String(e.Name)
		e.Text = norm.NFC.String(e.Text)
		c.exceptions[strings.ToLower(e.ID)] = e
	}
	return c
}

// Default returns the catalog compiled into the binary. It knows every
// identifier on the SPDX list; those without a bundled text carry only
// their reference URL.
func Default() (*Catalog, error) {
	texts, err := LoadYAML(embeddedCatalog)
	if err != nil {
		return nil, err
	}
	listed, err := loadIdentifiers(embeddedIdentifiers)
	if err != nil {
		return nil, err
	}
	return listed.Merge(texts), nil
}

func loadIdentifiers(data []byte) (*Catalog, error) {
	var f identifierFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse SPDX identifier list: %w", err)
	}
	licenses := make([]License, 0, len(f.Licenses)+len(f.DeprecatedLicenses))
	for _, id := range f.Licenses {
		licenses = append(licenses, License{ID: id, Name: id, Listed: true})
	}
	for _, id := range f.DeprecatedLicenses {
		licenses = append(licenses, License{ID: id, Name: id, Deprecated: true, Listed: true})
	}
	exceptions := make([]Exception, 0, len(f.Exceptions)+len(f.DeprecatedExceptions))
	for _, id := range append(f.Exceptions, f.DeprecatedExceptions...) {
		exceptions = append(exceptions, Exception{ID: id, Name: id, Listed: true})
	}
	return NewCatalog(licenses, exceptions), nil
}

// LoadYAML reads a catalog in the embedded YAML layout.
func LoadYAML(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse license catalog: %w", err)
	}
	byID := make(map[string]string, len(f.Licenses))
	for _, l := range f.Licenses {
		if l.ID == "" || l.Name == "" {
			return nil, fmt.Errorf("license catalog entry is missing id or name: %+v", l.ID)
		}
		byID[strings.ToLower(l.ID)] = l.Text
	}
	for i, l := range f.Licenses {
		if l.TextOf == "" {
			continue
		}
		text, ok := byID[strings.ToLower(l.TextOf)]
		if !ok || text == "" {
			return nil, fmt.Errorf("license %s takes its text from %s, which has none", l.ID, l.TextOf)
		}
		f.Licenses[i].Text = text
	}
	for _, e := range f.Exceptions {
		if e.ID == "" || e.Name == "" {
			return nil, fmt.Errorf("exception catalog entry is missing id or name: %+v", e.ID)
		}
	}
	return NewCatalog(f.Licenses, f.Exceptions), nil
}

type licenseDetails struct {
	LicenseID    string `json:"licenseId"`
	Name         string `json:"name"`
	LicenseText  string `json:"licenseText"`
	OSIApproved  bool   `json:"isOsiApproved"`
	DeprecatedID bool   `json:"isDeprecatedLicenseId"`
}

type exceptionDetails struct {
	LicenseExceptionID   string `json:"licenseExceptionId"`
	Name                 string `json:"name"`
	LicenseExceptionText string `json:"licenseExceptionText"`
}

// LoadLicenseListData reads the json/ directory of an SPDX license-list-data
// checkout: details/<id>.json for licenses and exceptions/<id>.json for
// exceptions.
func LoadLicenseListData(fsys fs.FS) (*Catalog, error) {
	licenseFiles, err := doublestar.Glob(fsys, "details/*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list license details: %w", err)
	}
	exceptionFiles, err := doublestar.Glob(fsys, "exceptions/*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list exception details: %w", err)
	}
	if len(licenseFiles) == 0 && len(exceptionFiles) == 0 {
		return nil, fmt.Errorf("no license-list-data details found (expected details/*.json)")
	}

	licenses := make([]License, 0, len(licenseFiles))
	for _, name := range licenseFiles {
		var d licenseDetails
		if err := readJSON(fsys, name, &d); err != nil {
			return nil, err
		}
		if d.LicenseID == "" {
			d.LicenseID = strings.TrimSuffix(path.Base(name), ".json")
		}
		licenses = append(licenses, License{
			ID:          d.LicenseID,
			Name:        d.Name,
			OSIApproved: d.OSIApproved,
			Deprecated:  d.DeprecatedID,
			Text:        d.LicenseText,
		})
	}

	exceptions := make([]Exception, 0, len(exceptionFiles))
	for _, name := range exceptionFiles {
		var d exceptionDetails
		if err := readJSON(fsys, name, &d); err != nil {
			return nil, err
		}
		if d.LicenseExceptionID == "" {
			d.LicenseExceptionID = strings.TrimSuffix(path.Base(name), ".json")
		}
		exceptions = append(exceptions, Exception{
			ID:   d.LicenseExceptionID,
			Name: d.Name,
			Text: d.LicenseExceptionText,
		})
	}

	return NewCatalog(licenses, exceptions), nil
}

func readJSON(fsys fs.FS, name string, v interface{}) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

// Merge returns a catalog holding c's entries overlaid with other's. An
// overlay entry without text keeps the text it replaces, and an identifier
// stays listed if either side lists it.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	merged := &Catalog{
		licenses:   make(map[string]License, len(c.licenses)+len(other.licenses)),
		exceptions: make(map[string]Exception, len(c.exceptions)+len(other.exceptions)),
	}
	for k, v := range c.licenses {
		merged.licenses[k] = v
	}
	for k, v := range other.licenses {
		if base, ok := merged.licenses[k]; ok {
			if v.Text == "" {
				v.Text = base.Text
			}
			v.Listed = v.Listed || base.Listed
		}
		merged.licenses[k] = v
	}
	for k, v := range c.exceptions {
		merged.exceptions[k] = v
	}
	for k, v := range other.exceptions {
		if base, ok := merged.exceptions[k]; ok {
			if v.Text == "" {
				v.Text = base.Text
			}
			v.Listed = v.Listed || base.Listed
		}
		merged.exceptions[k] = v
	}
	return merged
}

// License looks up a license by identifier, ignoring case.
func (c *Catalog) License(id string) (License, bool) {
	l, ok := c.licenses[strings.ToLower(id)]
	return l, ok
}

// Exception looks up an exception by identifier, ignoring case.
func (c *Catalog) Exception(id string) (Exception, bool) {
	e, ok := c.exceptions[strings.ToLower(id)]
	return e, ok
}

// Licenses returns every license sorted by identifier.
func (c *Catalog) Licenses() []License {
	out := make([]License, 0, len(c.licenses))
	for _, l := range c.licenses {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].ID) < strings.ToLower(out[j].ID) })
	return out
}

// Exceptions returns every exception sorted by identifier.
func (c *Catalog) Exceptions() []Exception {
	out := make([]Exception, 0, len(c.exceptions))
	for _, e := range c.exceptions {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].ID) < strings.ToLower(out[j].ID) })
	return out
}
