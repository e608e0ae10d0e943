// Package prettyprint renders core types/permissions and surface syntax
// back into unambiguous, re-parseable Mezzo source — unlike
// ctype.Type.String(), which is a quick %s for debug dumps and never
// parenthesizes an Arrow nested under a Star the way "a -> b * c" would
// require to round-trip.
package prettyprint

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mezzolang/mezzo/internal/ctype"
)

// Printer accumulates rendered source, tracking indentation the way a
// multi-line permission or branch list needs to.
type Printer struct {
	buf       bytes.Buffer
	indent    int
	lineWidth int
	column    int
}

// NewPrinter returns a Printer with the default line width.
func NewPrinter() *Printer {
	return &Printer{lineWidth: 100}
}

// NewPrinterWithWidth returns a Printer whose line width is width. No
// printing routine reads the line width: output is never broken across
// lines.
func NewPrinterWithWidth(width int) *Printer {
	return &Printer{lineWidth: width}
}

func (p *Printer) write(s string) {
	p.buf.WriteString(s)
	if idx := strings.LastIndex(s, "\n"); idx != -1 {
		p.column = len(s) - idx - 1
	} else {
		p.column += len(s)
	}
}

func (p *Printer) writeln() {
	p.buf.WriteString("\n")
	p.column = 0
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("  ")
	}
	p.column = p.indent * 2
}

func (p *Printer) String() string { return p.buf.String() }

// Type renders t as re-parseable Mezzo source.
func Type(t ctype.Type) string {
	p := NewPrinter()
	p.printType(t, 0)
	return p.String()
}

// precedence mirrors the nesting a Mezzo type-expression parser would
// require: lower binds looser, so an Arrow (the loosest form) printed
// as the left side of a Star needs parens, but the reverse does not.
const (
	precAnd    = 0 // (c) => T, (c) and T — outermost only
	precArrow  = 1 // T -> T, right-associative
	precBar    = 2 // T | p
	precStar   = 3 // p * p
	precAtom   = 4 // Tuple, App, Concrete, Singleton, leaves
)

func (p *Printer) printType(t ctype.Type, parentPrec int) {
	switch x := t.(type) {
	case ctype.Unknown:
		p.write("unknown")
	case ctype.Dynamic:
		p.write("dynamic")
	case ctype.Empty:
		p.write("empty")
	case ctype.Bound:
		fmt.Fprintf(&p.buf, "#%d", x.Index)
	case ctype.Open:
		p.write(string(x.Var))
	case ctype.Singleton:
		p.write("=")
		p.printType(x.Value, precAtom)
	case ctype.Forall:
		p.write("forall " + x.Binding.Hint + ". ")
		p.printType(x.Body, precAnd)
	case ctype.Exists:
		p.write("exists " + x.Binding.Hint + ". ")
		p.printType(x.Body, precAnd)
	case ctype.App:
		p.write(string(x.Head))
		if len(x.Args) > 0 {
			p.write("(")
			for i, a := range x.Args {
				if i > 0 {
					p.write(", ")
				}
				p.printType(a, precAnd)
			}
			p.write(")")
		}
	case ctype.Tuple:
		p.write("(")
		for i, e := range x.Elems {
			if i > 0 {
				p.write(", ")
			}
			p.printType(e, precAnd)
		}
		p.write(")")
	case ctype.Concrete:
		p.printConcrete(x)
	case ctype.Arrow:
		needParens := precArrow < parentPrec
		if needParens {
			p.write("(")
		}
		p.printType(x.Domain, precArrow+1)
		p.write(" -> ")
		p.printType(x.Codomain, precArrow)
		if needParens {
			p.write(")")
		}
	case ctype.Anchored:
		needParens := precAtom < parentPrec
		if needParens {
			p.write("(")
		}
		p.printType(x.Var, precAtom)
		p.write(" @ ")
		p.printType(x.Type, precAtom)
		if needParens {
			p.write(")")
		}
	case ctype.Star:
		needParens := precStar < parentPrec
		if needParens {
			p.write("(")
		}
		p.printType(x.Left, precStar)
		p.write(" * ")
		p.printType(x.Right, precStar+1)
		if needParens {
			p.write(")")
		}
	case ctype.Bar:
		needParens := precBar < parentPrec
		if needParens {
			p.write("(")
		}
		p.printType(x.Value, precBar+1)
		p.write(" | ")
		p.printType(x.Perm, precBar)
		if needParens {
			p.write(")")
		}
	case ctype.And:
		p.printConstraints(x.Constraints)
		p.write(" and ")
		p.printType(x.Type, precAnd)
	case ctype.Imply:
		p.printConstraints(x.Constraints)
		p.write(" => ")
		p.printType(x.Type, precAnd)
	default:
		p.write(t.String())
	}
}

func (p *Printer) printConcrete(c ctype.Concrete) {
	p.write(c.Datacon)
	p.write("{")
	for i, f := range c.Fields {
		if i > 0 {
			p.write("; ")
		}
		if f.Anonymous {
			p.printType(f.Type, precAnd)
			continue
		}
		p.write(f.Name)
		p.write(": ")
		p.printType(f.Type, precAnd)
	}
	p.write("}")
	if c.Adopts != nil {
		if _, ok := c.Adopts.(ctype.Unknown); !ok {
			p.write(" adopts ")
			p.printType(c.Adopts, precAtom)
		}
	}
}

func (p *Printer) printConstraints(cs []ctype.Constraint) {
	p.write("(")
	for i, c := range cs {
		if i > 0 {
			p.write(", ")
		}
		p.write(c.Kind.String())
		p.write(" ")
		p.printType(c.Type, precAnd)
	}
	p.write(")")
}

// Permission renders a Perm-kinded type; an alias of Type kept distinct
// so callers documenting intent (e.g. a diagnostic's "held:" line) read
// clearly at the call site.
func Permission(t ctype.Type) string { return Type(t) }
