/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package licensepage

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fulmenhq/licensepage/pkg/crates"
	"github.com/fulmenhq/licensepage/pkg/logger"
)

// Style selects how license bodies are rendered.
type Style string

const (
	// StyleQuote prefixes every body line with "> ".
	StyleQuote Style = "quote"
	// StyleFenced wraps the body in a fenced code block.
	StyleFenced Style = "fenced"
)

// ParseStyle accepts "quote" or "fenced", case-insensitively.
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case StyleQuote, "":
		return StyleQuote, nil
	case StyleFenced:
		return StyleFenced, nil
	}
	return "", fmt.Errorf("unknown render style %q (want %q or %q)", s, StyleQuote, StyleFenced)
}

const (
	DefaultTitle      = "Crate Licenses"
	DefaultTextsTitle = "License and Exception Full Texts"
	unknownRepository = "Unknown"
)

// Options configure the document.
type Options struct {
	Style      Style
	Title      string
	TextsTitle string
	// PreambleSection is printed before the listing heading.
	PreambleSection string
	// CrateLicensesPreamble is printed between the listing heading and the
	// first group.
	CrateLicensesPreamble string
}

// DefaultOptions returns block-quote rendering with the standard headings.
func DefaultOptions() Options {
	return Options{Style: StyleQuote, Title: DefaultTitle, TextsTitle: DefaultTextsTitle}
}

// OutputError wraps a failure of the output sink.
type OutputError struct {
	Err error
}

func (e *OutputError) Error() string { return fmt.Sprintf("failed to write output: %v", e.Err) }

func (e *OutputError) Unwrap() error { return e.Err }

// Assembler renders grouped crates into the Markdown license page.
type Assembler struct {
	resolver *Resolver
	opts     Options
}

// NewAssembler returns an assembler. Empty option fields take defaults.
func NewAssembler(resolver *Resolver, opts Options) *Assembler {
	def := DefaultOptions()
	if opts.Style == "" {
		opts.Style = def.Style
	}
	if opts.Title == "" {
		opts.Title = def.Title
	}
	if opts.TextsTitle == "" {
		opts.TextsTitle = def.TextsTitle
	}
	return &Assembler{resolver: resolver, opts: opts}
}

type section struct {
	part Part
	text ResolvedText
}

// Collect returns the deduplicated, ordered parts referenced by groups and
// resolves each of them. Nothing is written; every fatal condition the
// document can hit surfaces here.
func (a *Assembler) Collect(groups []crates.LicenseGroup) ([]Part, []ResolvedText, error) {
	var set PartSet
	for _, g := range groups {
		parts, err := a.resolver.Parts(g.Expression)
		if err != nil {
			return nil, nil, err
		}
		for _, p := range parts {
			set.Insert(p)
		}
	}

	parts := set.Parts()
	texts := make([]ResolvedText, len(parts))
	for i, p := range parts {
		t, err := a.resolver.Resolve(p)
		if err != nil {
			return nil, nil, err
		}
		texts[i] = t
	}
	return parts, texts, nil
}

// Assemble writes the document for groups to w. All expressions are checked
// and all texts resolved before the first write, so an unsupported license
// leaves w untouched. Write failures are returned as *OutputError.
func (a *Assembler) Assemble(w io.Writer, groups []crates.LicenseGroup) error {
	parts, texts, err := a.Collect(groups)
	if err != nil {
		return err
	}
	sections := make([]section, len(parts))
	for i := range parts {
		sections[i] = section{part: parts[i], text: texts[i]}
	}

	logger.Debug("Assembling license page",
		logger.Int("groups", len(groups)),
		logger.Int("texts", len(sections)),
		logger.String("style", string(a.opts.Style)))

	bw := bufio.NewWriter(w)
	pw := &pageWriter{w: bw}
	a.writeListing(pw, groups)
	a.writeTexts(pw, sections)
	if pw.err != nil {
		return &OutputError{Err: pw.err}
	}
	if err := bw.Flush(); err != nil {
		return &OutputError{Err: err}
	}
	return nil
}

// Render returns the document as bytes.
func (a *Assembler) Render(groups []crates.LicenseGroup) ([]byte, error) {
	var buf bytes.Buffer
	if err := a.Assemble(&buf, groups); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a *Assembler) writeListing(pw *pageWriter, groups []crates.LicenseGroup) {
	if a.opts.PreambleSection != "" {
		pw.line(a.opts.PreambleSection)
		pw.line("")
	}
	pw.line("# " + a.opts.Title)
	if a.opts.CrateLicensesPreamble != "" {
		pw.line("")
		pw.line(a.opts.CrateLicensesPreamble)
	}

	for _, g := range groups {
		noun := "crates"
		if g.Count == 1 {
			noun = "crate"
		}
		pw.line("")
		pw.line("## `" + g.Expression.String() + "`")
		pw.line("")
		pw.line(fmt.Sprintf("Used by %d %s:", g.Count, noun))
		pw.line("")

		for _, c := range g.Crates {
			pw.line("- " + EscapeMarkdown(c.Name) + " " + EscapeMarkdown(c.Version))
			pw.line("  - Repository: " + repositoryLink(c.Repository))
			switch len(c.Authors) {
			case 0:
			case 1:
				pw.line("  - Primary author: " + EscapeMarkdown(c.Authors[0]))
			default:
				pw.line("  - Primary authors:")
				for _, author := range c.Authors {
					pw.line("    - " + EscapeMarkdown(author))
				}
			}
		}
	}
}

func (a *Assembler) writeTexts(pw *pageWriter, sections []section) {
	pw.line("")
	pw.line("# " + a.opts.TextsTitle)

	for _, s := range sections {
		pw.line("")
		pw.line("## " + EscapeMarkdown(s.text.Title))
		pw.line("")

		lines := splitLines(s.text.Body)
		switch a.opts.Style {
		case StyleFenced:
			f := fence(s.text.Body)
			pw.line(f)
			for _, l := range lines {
				pw.line(l)
			}
			pw.line(f)
		default:
			for _, l := range lines {
				pw.line(quoteLine(l))
			}
		}
		pw.line("")
	}
}

func repositoryLink(repo string) string {
	repo = strings.TrimSpace(repo)
	if repo == "" {
		return unknownRepository
	}
	return "<" + repo + ">"
}

// pageWriter remembers the first write error and drops later writes.
type pageWriter struct {
	w   io.Writer
	err error
}

func (p *pageWriter) line(s string) {
	if p.err != nil {
		return
	}
	if _, err := io.WriteString(p.w, s); err != nil {
		p.err = err
		return
	}
	_, p.err = io.WriteString(p.w, "\n")
}
