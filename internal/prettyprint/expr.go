package prettyprint

import (
	"strconv"

	"github.com/mezzolang/mezzo/internal/surface"
)

// Expr renders e back into Mezzo source, for diagnostics that want to
// quote the offending expression and for a future `mezzo fmt` command.
func Expr(e surface.Expr) string {
	p := NewPrinter()
	p.printExpr(e)
	return p.String()
}

func (p *Printer) printExpr(e surface.Expr) {
	if e == nil {
		p.write("<?>")
		return
	}
	switch x := e.(type) {
	case surface.Var:
		p.write(x.Name)
	case surface.IntLit:
		p.write(strconv.Itoa(x.Value))
	case surface.Let:
		p.write("let ")
		if x.Rec {
			p.write("rec ")
		}
		for i, b := range x.Bindings {
			if i > 0 {
				p.write(" and ")
			}
			p.printPattern(b.Pattern)
			if b.Ann != nil {
				p.write(": ")
				p.printTypeExpr(b.Ann)
			}
			p.write(" = ")
			p.printExpr(b.Value)
		}
		p.write(" in ")
		p.printExpr(x.Body)
	case surface.Lambda:
		p.write("fun(" + x.Param)
		if x.ParamAnn != nil {
			p.write(": ")
			p.printTypeExpr(x.ParamAnn)
		}
		p.write(")")
		if x.Ret != nil {
			p.write(": ")
			p.printTypeExpr(x.Ret)
		}
		p.write(" -> ")
		p.printExpr(x.Body)
	case surface.App:
		p.printAppOperand(x.Fun)
		p.write(" ")
		p.printAppOperand(x.Arg)
	case surface.TupleExpr:
		p.write("(")
		for i, el := range x.Elems {
			if i > 0 {
				p.write(", ")
			}
			p.printExpr(el)
		}
		p.write(")")
	case surface.ConExpr:
		p.write(x.Datacon + "{")
		for i, f := range x.Fields {
			if i > 0 {
				p.write(", ")
			}
			p.write(f.Name + ": ")
			p.printExpr(f.Value)
		}
		p.write("}")
	case surface.Match:
		p.write("match ")
		p.printExpr(x.Scrutinee)
		p.write(" with")
		for _, arm := range x.Arms {
			p.write(" | ")
			p.printPattern(arm.Pattern)
			if arm.Guard != nil {
				p.write(" if ")
				p.printExpr(arm.Guard)
			}
			p.write(" -> ")
			p.printExpr(arm.Body)
		}
	case surface.If:
		p.write("if ")
		p.printExpr(x.Cond)
		p.write(" then ")
		p.printExpr(x.Then)
		p.write(" else ")
		p.printExpr(x.Else)
	case surface.Assign:
		p.printAppOperand(x.Target)
		p.write("." + x.Field + " <- ")
		p.printExpr(x.Value)
	case surface.Access:
		p.printAppOperand(x.Target)
		p.write("." + x.Field)
	case surface.AssignTag:
		p.printAppOperand(x.Target)
		p.write(".tag <- " + x.Datacon)
	case surface.Give:
		p.write("give ")
		p.printExpr(x.X)
		p.write(" to ")
		p.printExpr(x.Y)
	case surface.Take:
		p.write("take ")
		p.printExpr(x.X)
		p.write(" from ")
		p.printExpr(x.Y)
	case surface.Owns:
		p.printExpr(x.Y)
		p.write(" owns ")
		p.printExpr(x.X)
	case surface.Fail:
		p.write("fail")
	case surface.Constraint:
		p.write("(")
		p.printExpr(x.Expr)
		p.write(" : ")
		p.printTypeExpr(x.Type)
		p.write(")")
	default:
		p.write("<?>")
	}
}

// printAppOperand parenthesizes any form that could not otherwise be
// read back as a single application argument (an App itself, a Let, a
// Lambda, a Match, an If — every multi-token form).
func (p *Printer) printAppOperand(e surface.Expr) {
	switch e.(type) {
	case surface.Var, surface.IntLit, surface.TupleExpr, surface.ConExpr, surface.Access:
		p.printExpr(e)
	default:
		p.write("(")
		p.printExpr(e)
		p.write(")")
	}
}

func (p *Printer) printPattern(pat surface.Pattern) {
	switch x := pat.(type) {
	case surface.PWild:
		p.write("_")
	case surface.PVar:
		p.write(x.Name)
	case surface.PTuple:
		p.write("(")
		for i, el := range x.Elems {
			if i > 0 {
				p.write(", ")
			}
			p.printPattern(el)
		}
		p.write(")")
	case surface.PCon:
		p.write(x.Datacon)
		if len(x.Fields) > 0 {
			p.write("{")
			for i, f := range x.Fields {
				if i > 0 {
					p.write(", ")
				}
				p.write(f.Name)
				if f.Pattern != nil {
					p.write(": ")
					p.printPattern(f.Pattern)
				}
			}
			p.write("}")
		}
	case surface.PAs:
		p.printPattern(x.Pattern)
		p.write(" as " + x.Name)
	default:
		p.write("_")
	}
}

// TypeExpr renders a surface (named, not yet lowered) type expression.
func TypeExpr(t surface.TypeExpr) string {
	p := NewPrinter()
	p.printTypeExpr(t)
	return p.String()
}

func (p *Printer) printTypeExpr(t surface.TypeExpr) {
	if t == nil {
		p.write("<?>")
		return
	}
	switch x := t.(type) {
	case surface.TName:
		p.write(x.Name)
	case surface.TUnknown:
		p.write("unknown")
	case surface.TDynamic:
		p.write("dynamic")
	case surface.TEmpty:
		p.write("empty")
	case surface.TApp:
		p.write(x.Head + "(")
		for i, a := range x.Args {
			if i > 0 {
				p.write(", ")
			}
			p.printTypeExpr(a)
		}
		p.write(")")
	case surface.TTuple:
		p.write("(")
		for i, e := range x.Elems {
			if i > 0 {
				p.write(", ")
			}
			p.printTypeExpr(e)
		}
		p.write(")")
	case surface.TArrow:
		p.printTypeExpr(x.Domain)
		p.write(" -> ")
		p.printTypeExpr(x.Codomain)
	case surface.TForall:
		p.write("forall ")
		for i, n := range x.Names {
			if i > 0 {
				p.write(" ")
			}
			p.write(n)
		}
		p.write(". ")
		p.printTypeExpr(x.Body)
	case surface.TExists:
		p.write("exists ")
		for i, n := range x.Names {
			if i > 0 {
				p.write(" ")
			}
			p.write(n)
		}
		p.write(". ")
		p.printTypeExpr(x.Body)
	case surface.TSingleton:
		p.write("=" + x.Name)
	case surface.TAnchored:
		p.write(x.Var + " @ ")
		p.printTypeExpr(x.Type)
	case surface.TStar:
		p.printTypeExpr(x.Left)
		p.write(" * ")
		p.printTypeExpr(x.Right)
	case surface.TBar:
		p.printTypeExpr(x.Value)
		p.write(" | ")
		p.printTypeExpr(x.Perm)
	case surface.TAnd:
		p.printTConstraints(x.Constraints)
		p.write(" and ")
		p.printTypeExpr(x.Type)
	case surface.TImply:
		p.printTConstraints(x.Constraints)
		p.write(" => ")
		p.printTypeExpr(x.Type)
	default:
		p.write("<?>")
	}
}

func (p *Printer) printTConstraints(cs []surface.TConstraint) {
	p.write("(")
	for i, c := range cs {
		if i > 0 {
			p.write(", ")
		}
		if c.Exclusive {
			p.write("exclusive ")
		} else {
			p.write("duplicable ")
		}
		p.printTypeExpr(c.Type)
	}
	p.write(")")
}
