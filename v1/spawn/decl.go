package spawn

import (
	"fmt"
	"strings"

	"github.com/mirkobrombin/go-tspawn/v1/errors"
)

// Decl is one entry of a textual launch declaration.
type Decl struct {
	Mode Mode
	Name string
}

// String renders d as it is written in a declaration.
func (d Decl) String() string {
	return d.Mode.prefix() + d.Name
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokComma
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// parser states
const (
	expectItem = iota // start of input or after a comma
	expectName        // after a modifier
	expectSep         // after a name
)

// ParseDecl parses a declaration such as "a, ref b, mut c". Entries are
// separated by commas; each is an identifier optionally preceded by the
// modifier ref or mut. The empty string declares no variables.
func ParseDecl(src string) ([]Decl, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	var (
		decls []Decl
		mode  = Owned
		state = expectItem
	)
	for _, tok := range toks {
		switch state {
		case expectItem:
			if tok.kind == tokComma {
				return nil, syntaxErr(tok.pos, "empty entry")
			}
			switch tok.text {
			case "ref":
				mode, state = Shared, expectName
			case "mut":
				mode, state = Exclusive, expectName
			default:
				decls = append(decls, Decl{Mode: Owned, Name: tok.text})
				state = expectSep
			}
		case expectName:
			if tok.kind == tokComma {
				return nil, syntaxErr(tok.pos, "missing name after %q", mode.String())
			}
			if isKeyword(tok.text) {
				return nil, syntaxErr(tok.pos, "unexpected modifier %q after %q", tok.text, mode.String())
			}
			decls = append(decls, Decl{Mode: mode, Name: tok.text})
			mode, state = Owned, expectSep
		case expectSep:
			if tok.kind == tokComma {
				state = expectItem
				continue
			}
			last := decls[len(decls)-1]
			if last.Mode == Owned {
				return nil, syntaxErr(tok.pos, "unknown modifier %q", last.Name)
			}
			return nil, syntaxErr(tok.pos, "expected ',' before %q", tok.text)
		}
	}
	switch {
	case state == expectName:
		return nil, syntaxErr(len(src), "missing name after %q", mode.String())
	case state == expectItem && len(toks) > 0:
		return nil, syntaxErr(len(src), "trailing comma")
	}
	return decls, nil
}

func tokenize(src string) ([]token, error) {
	var toks []token
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == ',':
			toks = append(toks, token{kind: tokComma, text: ",", pos: i})
			i++
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})
		default:
			return nil, syntaxErr(i, "unexpected character %q", rune(c))
		}
	}
	return toks, nil
}

func syntaxErr(pos int, format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", errors.ErrSyntax, pos, fmt.Sprintf(format, args...))
}

func isKeyword(s string) bool {
	return s == "ref" || s == "mut"
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// validName reports whether name can be used in a declaration.
func validName(name string) bool {
	if name == "" || isKeyword(name) || strings.TrimSpace(name) != name {
		return false
	}
	if !isIdentStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isIdentPart(name[i]) {
			return false
		}
	}
	return true
}
