package hdl

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"fortio.org/safecast"

	hdlerrors "github.com/matzehuels/hdlviz/pkg/errors"
)

// ParseFile reads and parses the HDL file at path.
func ParseFile(path string) (*Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, hdlerrors.Wrap(hdlerrors.ErrCodeFileNotFound, err, "read %s", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(filepath.Base(path), src)
}

// Parse parses HDL source text. The name is used only in error positions.
// Any syntax error is returned as a PARSE_ERROR wrapping a
// *errors.SyntaxError; no partial module is returned.
func Parse(name string, src []byte) (*Module, error) {
	p := &parser{lex: newLexer(name, src)}
	if err := p.advance(); err != nil {
		return nil, parseError(err)
	}
	m, err := p.parseChip()
	if err != nil {
		return nil, parseError(err)
	}
	return m, nil
}

func parseError(err error) error {
	return hdlerrors.Wrap(hdlerrors.ErrCodeParse, err, "invalid HDL")
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &hdlerrors.SyntaxError{Pos: p.tok.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(kind tokenKind) (token, error) {
	tok := p.tok
	if tok.kind != kind {
		return tok, p.errorf("expected %s, found %s", kind, tok)
	}
	return tok, p.advance()
}

func (p *parser) expectKeyword(kw string) error {
	if p.tok.kind != tokIdent || p.tok.text != kw {
		return p.errorf("expected %q, found %s", kw, p.tok)
	}
	return p.advance()
}

func (p *parser) isKeyword(kw string) bool {
	return p.tok.kind == tokIdent && p.tok.text == kw
}

func (p *parser) ident() (string, error) {
	tok, err := p.expect(tokIdent)
	return tok.text, err
}

func (p *parser) integer() (int, error) {
	tok, err := p.expect(tokInt)
	if err != nil {
		return 0, err
	}
	u, perr := strconv.ParseUint(tok.text, 10, 64)
	if perr != nil {
		return 0, &hdlerrors.SyntaxError{Pos: tok.pos, Msg: fmt.Sprintf("invalid integer %q", tok.text)}
	}
	n, cerr := safecast.Conv[int](u)
	if cerr != nil {
		return 0, &hdlerrors.SyntaxError{Pos: tok.pos, Msg: fmt.Sprintf("integer %q out of range", tok.text)}
	}
	return n, nil
}

// parseChip parses: "CHIP" ident "{" { Decl } "PARTS" ":" { Part } "}".
func (p *parser) parseChip() (*Module, error) {
	if err := p.expectKeyword("CHIP"); err != nil {
		return nil, err
	}
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLBrace); err != nil {
		return nil, err
	}

	m := &Module{Name: name}
	for !p.isKeyword("PARTS") && p.tok.kind != tokRBrace {
		def, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		m.Definitions = append(m.Definitions, def)
	}

	if p.isKeyword("PARTS") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(tokColon); err != nil {
			return nil, err
		}
		for p.tok.kind == tokIdent {
			if p.isKeyword("BUILTIN") || p.isKeyword("CLOCKED") {
				def, err := p.parseDecl()
				if err != nil {
					return nil, err
				}
				m.Definitions = append(m.Definitions, def)
				continue
			}
			part, err := p.parsePart()
			if err != nil {
				return nil, err
			}
			m.Parts = append(m.Parts, part)
		}
	}

	if _, err := p.expect(tokRBrace); err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("unexpected %s after chip body", p.tok)
	}
	return m, nil
}

// parseDecl parses IN/OUT pin lists and the BUILTIN/CLOCKED statements.
func (p *parser) parseDecl() (Definition, error) {
	if p.tok.kind != tokIdent {
		return Definition{}, p.errorf("expected declaration, found %s", p.tok)
	}
	kind := DefKind(p.tok.text)
	switch kind {
	case KindIn, KindOut, KindBuiltin, KindClocked:
	default:
		return Definition{}, p.errorf("unknown declaration %q", p.tok.text)
	}
	if err := p.advance(); err != nil {
		return Definition{}, err
	}

	def := Definition{Kind: kind}
	if p.tok.kind == tokSemi {
		if kind == KindIn || kind == KindOut {
			return Definition{}, p.errorf("%s declares no pins", kind)
		}
		return def, p.advance()
	}
	for {
		decl, err := p.parsePinDecl(kind)
		if err != nil {
			return Definition{}, err
		}
		def.Pins = append(def.Pins, decl)
		if p.tok.kind != tokComma {
			break
		}
		if err := p.advance(); err != nil {
			return Definition{}, err
		}
	}
	if _, err := p.expect(tokSemi); err != nil {
		return Definition{}, err
	}
	return def, nil
}

func (p *parser) parsePinDecl(kind DefKind) (PinDecl, error) {
	name, err := p.ident()
	if err != nil {
		return PinDecl{}, err
	}
	decl := PinDecl{Name: name, Bits: 1}
	if p.tok.kind != tokLBrack || kind == KindBuiltin {
		return decl, nil
	}
	if err := p.advance(); err != nil {
		return PinDecl{}, err
	}
	widthPos := p.tok.pos
	width, err := p.integer()
	if err != nil {
		return PinDecl{}, err
	}
	if width < 1 {
		return PinDecl{}, &hdlerrors.SyntaxError{Pos: widthPos, Msg: fmt.Sprintf("pin %s has zero width", name)}
	}
	decl.Bits = width
	if _, err := p.expect(tokRBrack); err != nil {
		return PinDecl{}, err
	}
	return decl, nil
}

// parsePart parses: ident "(" Conn { "," Conn } ")" ";".
func (p *parser) parsePart() (Part, error) {
	name, err := p.ident()
	if err != nil {
		return Part{}, err
	}
	if _, err := p.expect(tokLParen); err != nil {
		return Part{}, err
	}
	part := Part{Name: name}
	for {
		conn, err := p.parseConnection()
		if err != nil {
			return Part{}, err
		}
		part.Connections = append(part.Connections, conn)
		if p.tok.kind != tokComma {
			break
		}
		if err := p.advance(); err != nil {
			return Part{}, err
		}
	}
	if _, err := p.expect(tokRParen); err != nil {
		return Part{}, err
	}
	if _, err := p.expect(tokSemi); err != nil {
		return Part{}, err
	}
	return part, nil
}

func (p *parser) parseConnection() (Connection, error) {
	from, err := p.parsePinRef()
	if err != nil {
		return Connection{}, err
	}
	if _, err := p.expect(tokEq); err != nil {
		return Connection{}, err
	}
	if p.isKeyword("true") || p.isKeyword("false") {
		v := p.tok.text == "true"
		if err := p.advance(); err != nil {
			return Connection{}, err
		}
		return Connection{From: from, To: ConstTarget(v)}, nil
	}
	to, err := p.parsePinRef()
	if err != nil {
		return Connection{}, err
	}
	return Connection{From: from, To: Target{PinRef: to}}, nil
}

// parsePinRef parses: ident [ "[" int [ ".." int ] "]" ].
func (p *parser) parsePinRef() (PinRef, error) {
	name, err := p.ident()
	if err != nil {
		return PinRef{}, err
	}
	ref := PinRef{Pin: name}
	if p.tok.kind != tokLBrack {
		return ref, nil
	}
	if err := p.advance(); err != nil {
		return PinRef{}, err
	}
	lo, err := p.integer()
	if err != nil {
		return PinRef{}, err
	}
	ref.Bits = Index(lo)
	if p.tok.kind == tokDotDot {
		if err := p.advance(); err != nil {
			return PinRef{}, err
		}
		hi, err := p.integer()
		if err != nil {
			return PinRef{}, err
		}
		switch {
		case hi > lo:
			ref.Bits = Range(hi, lo)
		case hi < lo:
			ref.Bits = Range(lo, hi)
		}
	}
	if _, err := p.expect(tokRBrack); err != nil {
		return PinRef{}, err
	}
	return ref, nil
}
