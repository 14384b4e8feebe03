/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package spdx

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSyntax is wrapped by every ParseError.
var ErrSyntax = errors.New("invalid license expression")

// ParseError describes where an expression failed to parse.
type ParseError struct {
	Source string
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v %q at offset %d: %s", ErrSyntax, e.Source, e.Offset, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrSyntax }

// LicenseItem is the license half of a requirement. Other items are
// LicenseRef-/DocumentRef- references to text that is not part of SPDX.
type LicenseItem struct {
	ID          string
	OrLater     bool
	Other       bool
	DocumentRef string
}

func (i LicenseItem) String() string {
	var b strings.Builder
	if i.DocumentRef != "" {
		b.WriteString(i.DocumentRef)
		b.WriteByte(':')
	}
	b.WriteString(i.ID)
	if i.OrLater {
		b.WriteByte('+')
	}
	return b.String()
}

// Requirement is a single term of an expression: a license with an
// optional exception.
type Requirement struct {
	License   LicenseItem
	Exception string
}

func (r Requirement) String() string {
	if r.Exception == "" {
		return r.License.String()
	}
	return r.License.String() + " WITH " + r.Exception
}

// Expression is a parsed SPDX license expression. Its string form is the
// trimmed source text, which callers use as a grouping key.
type Expression struct {
	source       string
	requirements []Requirement
}

// Parse parses s in lax mode: operators are case-insensitive, "/" is read
// as OR and a trailing "+" marks an or-later license.
func Parse(s string) (*Expression, error) {
	src := strings.TrimSpace(s)
	p := &parser{src: src, tokens: tokenize(src)}
	if len(p.tokens) == 0 {
		return nil, &ParseError{Source: src, Reason: "empty expression"}
	}
	if err := p.parseOr(); err != nil {
		return nil, err
	}
	if tok, ok := p.peek(); ok {
		return nil, p.errorf(tok, "unexpected %q", tok.text)
	}
	return &Expression{source: src, requirements: p.reqs}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) *Expression {
	e, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Expression) String() string { return e.source }

// Requirements returns the terms of the expression in source order.
func (e *Expression) Requirements() []Requirement {
	out := make([]Requirement, len(e.requirements))
	copy(out, e.requirements)
	return out
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokAnd
	tokOr
	tokWith
	tokOpen
	tokClose
)

type token struct {
	kind   tokenKind
	text   string
	offset int
}

func tokenize(src string) []token {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{kind: tokOpen, text: "(", offset: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokClose, text: ")", offset: i})
			i++
		case c == '/':
			toks = append(toks, token{kind: tokOr, text: "/", offset: i})
			i++
		default:
			start := i
			for i < len(src) && !strings.ContainsRune(" \t\n\r()/", rune(src[i])) {
				i++
			}
			word := src[start:i]
			kind := tokIdent
			switch strings.ToUpper(word) {
			case "AND":
				kind = tokAnd
			case "OR":
				kind = tokOr
			case "WITH":
				kind = tokWith
			}
			toks = append(toks, token{kind: kind, text: word, offset: start})
		}
	}
	return toks
}

type parser struct {
	src    string
	tokens []token
	pos    int
	reqs   []Requirement
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) errorf(tok token, format string, args ...interface{}) error {
	return &ParseError{Source: p.src, Offset: tok.offset, Reason: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() error {
	return &ParseError{Source: p.src, Offset: len(p.src), Reason: "unexpected end of expression"}
}

func (p *parser) parseOr() error {
	if err := p.parseAnd(); err != nil {
		return err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.kind != tokOr {
			return nil
		}
		p.pos++
		if err := p.parseAnd(); err != nil {
			return err
		}
	}
}

func (p *parser) parseAnd() error {
	if err := p.parseTerm(); err != nil {
		return err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.kind != tokAnd {
			return nil
		}
		p.pos++
		if err := p.parseTerm(); err != nil {
			return err
		}
	}
}

func (p *parser) parseTerm() error {
	tok, ok := p.peek()
	if !ok {
		return p.eof()
	}
	switch tok.kind {
	case tokOpen:
		p.pos++
		if err := p.parseOr(); err != nil {
			return err
		}
		closing, ok := p.peek()
		if !ok {
			return p.eof()
		}
		if closing.kind != tokClose {
			return p.errorf(closing, "expected ')' but found %q", closing.text)
		}
		p.pos++
		return nil
	case tokIdent:
		p.pos++
		item, err := p.licenseItem(tok)
		if err != nil {
			return err
		}
		req := Requirement{License: item}
		if next, ok := p.peek(); ok && next.kind == tokWith {
			p.pos++
			exc, ok := p.peek()
			if !ok {
				return p.eof()
			}
			if exc.kind != tokIdent || !validIdent(exc.text) {
				return p.errorf(exc, "expected exception identifier after WITH")
			}
			p.pos++
			req.Exception = exc.text
		}
		p.reqs = append(p.reqs, req)
		return nil
	default:
		return p.errorf(tok, "unexpected %q", tok.text)
	}
}

func (p *parser) licenseItem(tok token) (LicenseItem, error) {
	word := tok.text
	var item LicenseItem
	if strings.HasPrefix(word, "DocumentRef-") {
		ref, rest, found := strings.Cut(word, ":")
		if !found {
			return item, p.errorf(tok, "document reference %q has no license reference", word)
		}
		item.DocumentRef = ref
		word = rest
	}
	if strings.HasSuffix(word, "+") {
		item.OrLater = true
		word = strings.TrimSuffix(word, "+")
	}
	if !validIdent(word) {
		return item, p.errorf(tok, "invalid license identifier %q", tok.text)
	}
	item.ID = word
	item.Other = item.DocumentRef != "" || strings.HasPrefix(word, "LicenseRef-")
	return item, nil
}

func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
		default:
			return false
		}
	}
	return true
}
