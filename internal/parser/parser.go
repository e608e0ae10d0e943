// Package parser turns a token stream into a surface.Module. It is a
// hand-written recursive-descent parser (no parser-generator dependency,
// per the Non-goals: parser generation is out of scope) with one
// parseXxx method per grammar production, in the teacher's curToken/
// peekToken/nextToken style.
package parser

import (
	"strconv"

	"github.com/mezzolang/mezzo/internal/diagnostics"
	"github.com/mezzolang/mezzo/internal/surface"
	"github.com/mezzolang/mezzo/internal/token"
)

// MaxRecursionDepth guards against stack overflow on pathological or
// malformed input recursing through parseExpr/parseType.
const MaxRecursionDepth = 2000

type Parser struct {
	tokens []token.Token
	pos    int

	cur  token.Token
	peek token.Token

	depth  int
	errors []*diagnostics.DiagnosticError
}

// New builds a Parser over a token stream already produced by the lexer.
// Newline tokens are filtered out up front: this grammar has no
// significant-whitespace rules (unlike the teacher's, whose newlines can
// terminate a statement), so every production only ever needs to look at
// meaningful tokens.
func New(tokens []token.Token) *Parser {
	filtered := make([]token.Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Type != token.NEWLINE {
			filtered = append(filtered, t)
		}
	}
	p := &Parser{tokens: filtered}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.cur = p.peek
	if p.pos < len(p.tokens) {
		p.peek = p.tokens[p.pos]
		p.pos++
	} else {
		p.peek = token.Token{Type: token.EOF}
	}
}

func (p *Parser) curIs(t token.Type) bool  { return p.cur.Type == t }
func (p *Parser) peekIs(t token.Type) bool { return p.peek.Type == t }

func (p *Parser) expect(t token.Type) (token.Token, bool) {
	if p.cur.Type != t {
		p.errorf(diagnostics.ErrParseUnexpectedToken, "expected %s, got %s %q", t, p.cur.Type, p.cur.Lexeme)
		return p.cur, false
	}
	tok := p.cur
	p.nextToken()
	return tok, true
}

func (p *Parser) errorf(code diagnostics.ErrorCode, format string, args ...any) {
	p.errors = append(p.errors, diagnostics.New(code, p.cur.Pos, format, args...))
}

// Errors returns every diagnostic collected during parsing.
func (p *Parser) Errors() []*diagnostics.DiagnosticError { return p.errors }

// ParseModule parses an entire source file. An `export` modifier applies
// to the single declaration that follows it.
func (p *Parser) ParseModule(name string) *surface.Module {
	m := &surface.Module{Name: name}
	exported := false
	for !p.curIs(token.EOF) {
		switch p.cur.Type {
		case token.OPEN:
			m.Imports = append(m.Imports, p.parseImport())
		case token.DATA, token.DUPLICABLE, token.EXCLUSIVE, token.MUTABLE:
			d := p.parseDataDecl().(*surface.DataDecl)
			d.Exported = exported
			exported = false
			m.Decls = append(m.Decls, d)
		case token.VAL:
			d := p.parseValDecl().(*surface.ValDecl)
			d.Exported = exported
			exported = false
			m.Decls = append(m.Decls, d)
		case token.FUN:
			d := p.parseFunDecl().(*surface.ValDecl)
			d.Exported = exported
			exported = false
			m.Decls = append(m.Decls, d)
		case token.EXPORT:
			p.nextToken()
			exported = true
		default:
			p.errorf(diagnostics.ErrParseUnexpectedToken, "unexpected token at top level: %s %q", p.cur.Type, p.cur.Lexeme)
			p.nextToken()
			exported = false
		}
	}
	return m
}

// ParseInterface parses a `.mzi` interface file: declaration signatures
// only, every one of them implicitly exported. `val` entries carry no
// body (`val name : T`, full stop); `data` entries reuse the ordinary
// data grammar, abstract ones included (`data Name(params) = abstract`).
func (p *Parser) ParseInterface(name string) *surface.Module {
	m := &surface.Module{Name: name}
	for !p.curIs(token.EOF) {
		switch p.cur.Type {
		case token.OPEN:
			m.Imports = append(m.Imports, p.parseImport())
		case token.DATA, token.DUPLICABLE, token.EXCLUSIVE, token.MUTABLE:
			d := p.parseDataDecl().(*surface.DataDecl)
			d.Exported = true
			m.Decls = append(m.Decls, d)
		case token.VAL:
			m.Decls = append(m.Decls, p.parseIfaceValDecl())
		default:
			p.errorf(diagnostics.ErrParseUnexpectedToken, "unexpected token in interface: %s %q", p.cur.Type, p.cur.Lexeme)
			p.nextToken()
		}
	}
	return m
}

func (p *Parser) parseIfaceValDecl() surface.Decl {
	pos := p.cur.Pos
	p.nextToken() // 'val'
	name := p.cur.Lexeme
	p.expect(token.IDENT)
	p.expect(token.COLON)
	ann := p.parseType()
	return &surface.ValDecl{Name: name, Ann: ann, Exported: true, Pos: pos}
}

func (p *Parser) parseImport() surface.Import {
	pos := p.cur.Pos
	p.nextToken() // consume 'open'
	path := p.cur.Literal
	p.expect(token.STRING)
	imp := surface.Import{Path: path, Pos: pos}
	if p.curIs(token.LPAREN) {
		p.nextToken()
		for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
			imp.Names = append(imp.Names, p.cur.Lexeme)
			p.nextToken()
			if p.curIs(token.COMMA) {
				p.nextToken()
			}
		}
		p.expect(token.RPAREN)
	}
	return imp
}

// ---- Declarations --------------------------------------------------------

func (p *Parser) parseDataDecl() surface.Decl {
	pos := p.cur.Pos
	flavor := ""
	switch p.cur.Type {
	case token.DUPLICABLE:
		flavor = "duplicable"
		p.nextToken()
	case token.EXCLUSIVE:
		flavor = "exclusive"
		p.nextToken()
	case token.MUTABLE:
		flavor = "mutable"
		p.nextToken()
	}
	p.expect(token.DATA)
	name := p.cur.Lexeme
	p.expect(token.IDENT)

	var params []string
	if p.curIs(token.LPAREN) {
		p.nextToken()
		for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
			params = append(params, p.cur.Lexeme)
			p.expect(token.IDENT)
			if p.curIs(token.COMMA) {
				p.nextToken()
			}
		}
		p.expect(token.RPAREN)
	}
	p.expect(token.ASSIGN)

	decl := &surface.DataDecl{Name: name, Params: params, Flavor: flavor, Pos: pos}
	if p.curIs(token.ABSTRACT) {
		p.nextToken()
		decl.Flavor = "abstract"
		return decl
	}
	decl.Branches = append(decl.Branches, p.parseDataBranch())
	for p.curIs(token.BAR) {
		p.nextToken()
		decl.Branches = append(decl.Branches, p.parseDataBranch())
	}
	return decl
}

func (p *Parser) parseDataBranch() surface.DataBranch {
	datacon := p.cur.Lexeme
	p.expect(token.CONIDENT)
	branch := surface.DataBranch{Datacon: datacon}
	if p.curIs(token.LBRACE) {
		p.nextToken()
		for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
			branch.Fields = append(branch.Fields, p.parseFieldDecl())
			if p.curIs(token.COMMA) || p.curIs(token.SEMI) {
				p.nextToken()
			}
		}
		p.expect(token.RBRACE)
	}
	if p.curIs(token.DOLLAR) {
		p.nextToken()
		branch.Adopts = p.parseType()
	}
	return branch
}

func (p *Parser) parseFieldDecl() surface.FieldDecl {
	if p.curIs(token.IDENT) && p.peekIs(token.COLON) {
		name := p.cur.Lexeme
		p.nextToken()
		p.nextToken() // ':'
		return surface.FieldDecl{Name: name, Type: p.parseType()}
	}
	return surface.FieldDecl{Type: p.parseType(), Anonymous: true}
}

func (p *Parser) parseValDecl() surface.Decl {
	pos := p.cur.Pos
	p.nextToken() // 'val'
	rec := false
	if p.curIs(token.REC) {
		rec = true
		p.nextToken()
	}
	name := p.cur.Lexeme
	p.expect(token.IDENT)
	var ann surface.TypeExpr
	if p.curIs(token.COLON) {
		p.nextToken()
		ann = p.parseType()
	}
	p.expect(token.ASSIGN)
	body := p.parseExpr()
	return &surface.ValDecl{Name: name, Rec: rec, Ann: ann, Body: body, Pos: pos}
}

// parseFunDecl desugars `fun f(x: T, ...): R { body }` into
// `val rec f = fun(x: T) -> ... -> body`, i.e. a ValDecl whose body is a
// chain of Lambdas, one per declared parameter.
func (p *Parser) parseFunDecl() surface.Decl {
	pos := p.cur.Pos
	p.nextToken() // 'fun'
	name := p.cur.Lexeme
	p.expect(token.IDENT)
	params, rets := p.parseParamList()
	var retAnn surface.TypeExpr
	if p.curIs(token.COLON) {
		p.nextToken()
		retAnn = p.parseType()
	}
	p.expect(token.LBRACE)
	body := p.parseExpr()
	p.expect(token.RBRACE)

	for i := len(params) - 1; i >= 0; i-- {
		var ret surface.TypeExpr
		if i == len(params)-1 {
			ret = retAnn
		}
		body = surface.Lambda{Param: params[i], ParamAnn: rets[i], Ret: ret, Body: body, Pos: pos}
	}
	return &surface.ValDecl{Name: name, Rec: true, Body: body, Pos: pos}
}

func (p *Parser) parseParamList() (names []string, anns []surface.TypeExpr) {
	p.expect(token.LPAREN)
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		n := p.cur.Lexeme
		p.expect(token.IDENT)
		var ann surface.TypeExpr
		if p.curIs(token.COLON) {
			p.nextToken()
			ann = p.parseType()
		}
		names = append(names, n)
		anns = append(anns, ann)
		if p.curIs(token.COMMA) {
			p.nextToken()
		}
	}
	p.expect(token.RPAREN)
	return names, anns
}

// ---- Expressions ----------------------------------------------------------

func (p *Parser) parseExpr() surface.Expr {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > MaxRecursionDepth {
		p.errorf(diagnostics.ErrParseExpectedExpr, "expression too deeply nested")
		return surface.Fail{Pos: p.cur.Pos}
	}

	switch p.cur.Type {
	case token.LET:
		return p.parseLet()
	case token.FUN:
		return p.parseLambda()
	case token.MATCH:
		return p.parseMatch()
	case token.IF:
		return p.parseIf()
	case token.GIVE:
		return p.parseGive()
	case token.TAKE:
		return p.parseTake()
	case token.FAIL:
		pos := p.cur.Pos
		p.nextToken()
		return surface.Fail{Pos: pos}
	default:
		return p.parseOwnsOrApp()
	}
}

func (p *Parser) parseLet() surface.Expr {
	pos := p.cur.Pos
	p.nextToken() // 'let'
	rec := false
	if p.curIs(token.REC) {
		rec = true
		p.nextToken()
	}
	var bindings []surface.Binding
	bindings = append(bindings, p.parseBinding())
	for p.curIs(token.AND) {
		p.nextToken()
		bindings = append(bindings, p.parseBinding())
	}
	p.expect(token.IN)
	body := p.parseExpr()
	return surface.Let{Rec: rec, Bindings: bindings, Body: body, Pos: pos}
}

func (p *Parser) parseBinding() surface.Binding {
	pat := p.parsePattern()
	var ann surface.TypeExpr
	if p.curIs(token.COLON) {
		p.nextToken()
		ann = p.parseType()
	}
	p.expect(token.ASSIGN)
	val := p.parseExpr()
	return surface.Binding{Pattern: pat, Ann: ann, Value: val}
}

func (p *Parser) parseLambda() surface.Expr {
	pos := p.cur.Pos
	p.nextToken() // 'fun'
	p.expect(token.LPAREN)
	param := p.cur.Lexeme
	p.expect(token.IDENT)
	var paramAnn surface.TypeExpr
	if p.curIs(token.COLON) {
		p.nextToken()
		paramAnn = p.parseType()
	}
	p.expect(token.RPAREN)
	var ret surface.TypeExpr
	if p.curIs(token.COLON) {
		p.nextToken()
		ret = p.parseType()
	}
	p.expect(token.ARROW)
	body := p.parseExpr()
	return surface.Lambda{Param: param, ParamAnn: paramAnn, Ret: ret, Body: body, Pos: pos}
}

func (p *Parser) parseMatch() surface.Expr {
	pos := p.cur.Pos
	p.nextToken() // 'match'
	scrut := p.parseOwnsOrApp()
	p.expect(token.WITH)
	if p.curIs(token.BAR) {
		p.nextToken()
	}
	var arms []surface.MatchArm
	arms = append(arms, p.parseMatchArm())
	for p.curIs(token.BAR) {
		p.nextToken()
		arms = append(arms, p.parseMatchArm())
	}
	return surface.Match{Scrutinee: scrut, Arms: arms, Pos: pos}
}

func (p *Parser) parseMatchArm() surface.MatchArm {
	pat := p.parsePattern()
	var guard surface.Expr
	if p.curIs(token.IF) {
		p.nextToken()
		guard = p.parseExpr()
	}
	p.expect(token.ARROW)
	body := p.parseExpr()
	return surface.MatchArm{Pattern: pat, Guard: guard, Body: body}
}

func (p *Parser) parseIf() surface.Expr {
	pos := p.cur.Pos
	p.nextToken() // 'if'
	cond := p.parseOwnsOrApp()
	p.expect(token.THEN)
	then := p.parseExpr()
	p.expect(token.ELSE)
	els := p.parseExpr()
	return surface.If{Cond: cond, Then: then, Else: els, Pos: pos}
}

func (p *Parser) parseGive() surface.Expr {
	pos := p.cur.Pos
	p.nextToken() // 'give'
	x := p.parseOwnsOrApp()
	p.expect(token.TO)
	y := p.parseOwnsOrApp()
	return surface.Give{X: x, Y: y, Pos: pos}
}

func (p *Parser) parseTake() surface.Expr {
	pos := p.cur.Pos
	p.nextToken() // 'take'
	x := p.parseOwnsOrApp()
	p.expect(token.FROM)
	y := p.parseOwnsOrApp()
	return surface.Take{X: x, Y: y, Pos: pos}
}

// parseOwnsOrApp parses an application chain, then checks for the infix
// `owns` keyword, then for a trailing type ascription `e : T`.
func (p *Parser) parseOwnsOrApp() surface.Expr {
	left := p.parseApp()
	if p.curIs(token.OWNS) {
		pos := p.cur.Pos
		p.nextToken()
		x := p.parseApp()
		return surface.Owns{Y: left, X: x, Pos: pos}
	}
	if p.curIs(token.COLON) {
		pos := p.cur.Pos
		p.nextToken()
		t := p.parseType()
		return surface.Constraint{Expr: left, Type: t, Pos: pos}
	}
	return left
}

func (p *Parser) parseApp() surface.Expr {
	left := p.parsePostfix(p.parseAtom())
	for p.startsAtom() {
		arg := p.parsePostfix(p.parseAtom())
		left = surface.App{Fun: left, Arg: arg, Pos: left.Position()}
	}
	return left
}

func (p *Parser) startsAtom() bool {
	switch p.cur.Type {
	case token.IDENT, token.CONIDENT, token.INT, token.STRING, token.LPAREN, token.UNDERSCORE:
		return true
	default:
		return false
	}
}

func (p *Parser) parsePostfix(e surface.Expr) surface.Expr {
	for p.curIs(token.DOT) {
		pos := p.cur.Pos
		p.nextToken()
		field := p.cur.Lexeme
		p.nextToken()
		if field == "tag" && p.curIs(token.LARROW) {
			p.nextToken()
			dc := p.cur.Lexeme
			p.expect(token.CONIDENT)
			e = surface.AssignTag{Target: e, Datacon: dc, Pos: pos}
			continue
		}
		if p.curIs(token.LARROW) {
			p.nextToken()
			val := p.parseExpr()
			e = surface.Assign{Target: e, Field: field, Value: val, Pos: pos}
			continue
		}
		e = surface.Access{Target: e, Field: field, Pos: pos}
	}
	return e
}

func (p *Parser) parseAtom() surface.Expr {
	pos := p.cur.Pos
	switch p.cur.Type {
	case token.IDENT:
		name := p.cur.Lexeme
		p.nextToken()
		return surface.Var{Name: name, Pos: pos}
	case token.CONIDENT:
		name := p.cur.Lexeme
		p.nextToken()
		if p.curIs(token.LBRACE) {
			return p.parseConExpr(name, pos)
		}
		return surface.Var{Name: name, Pos: pos}
	case token.INT:
		lit := p.cur.Lexeme
		p.nextToken()
		n, _ := strconv.Atoi(lit)
		return surface.IntLit{Value: n, Pos: pos}
	case token.LPAREN:
		p.nextToken()
		if p.curIs(token.RPAREN) {
			p.nextToken()
			return surface.TupleExpr{Pos: pos}
		}
		first := p.parseExpr()
		if p.curIs(token.COMMA) {
			elems := []surface.Expr{first}
			for p.curIs(token.COMMA) {
				p.nextToken()
				elems = append(elems, p.parseExpr())
			}
			p.expect(token.RPAREN)
			return surface.TupleExpr{Elems: elems, Pos: pos}
		}
		p.expect(token.RPAREN)
		return first
	default:
		p.errorf(diagnostics.ErrParseExpectedExpr, "expected an expression, got %s %q", p.cur.Type, p.cur.Lexeme)
		p.nextToken()
		return surface.Fail{Pos: pos}
	}
}

func (p *Parser) parseConExpr(datacon string, pos token.Position) surface.Expr {
	p.expect(token.LBRACE)
	var fields []surface.FieldInit
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		name := p.cur.Lexeme
		p.expect(token.IDENT)
		p.expect(token.COLON)
		val := p.parseExpr()
		fields = append(fields, surface.FieldInit{Name: name, Value: val})
		if p.curIs(token.COMMA) || p.curIs(token.SEMI) {
			p.nextToken()
		}
	}
	p.expect(token.RBRACE)
	return surface.ConExpr{Datacon: datacon, Fields: fields, Pos: pos}
}

// ---- Patterns -------------------------------------------------------------

func (p *Parser) parsePattern() surface.Pattern {
	base := p.parsePatternAtom()
	if p.curIs(token.AS) {
		pos := p.cur.Pos
		p.nextToken()
		name := p.cur.Lexeme
		p.expect(token.IDENT)
		return surface.PAs{Name: name, Pattern: base, Pos: pos}
	}
	return base
}

func (p *Parser) parsePatternAtom() surface.Pattern {
	pos := p.cur.Pos
	switch p.cur.Type {
	case token.UNDERSCORE:
		p.nextToken()
		return surface.PWild{Pos: pos}
	case token.IDENT:
		name := p.cur.Lexeme
		p.nextToken()
		return surface.PVar{Name: name, Pos: pos}
	case token.CONIDENT:
		name := p.cur.Lexeme
		p.nextToken()
		pc := surface.PCon{Datacon: name, Pos: pos}
		if p.curIs(token.LBRACE) {
			p.nextToken()
			for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
				fname := p.cur.Lexeme
				p.expect(token.IDENT)
				var fp surface.Pattern
				if p.curIs(token.COLON) {
					p.nextToken()
					fp = p.parsePattern()
				}
				pc.Fields = append(pc.Fields, surface.FieldPattern{Name: fname, Pattern: fp})
				if p.curIs(token.COMMA) || p.curIs(token.SEMI) {
					p.nextToken()
				}
			}
			p.expect(token.RBRACE)
		}
		return pc
	case token.LPAREN:
		p.nextToken()
		if p.curIs(token.RPAREN) {
			p.nextToken()
			return surface.PTuple{Pos: pos}
		}
		elems := []surface.Pattern{p.parsePattern()}
		for p.curIs(token.COMMA) {
			p.nextToken()
			elems = append(elems, p.parsePattern())
		}
		p.expect(token.RPAREN)
		if len(elems) == 1 {
			return elems[0]
		}
		return surface.PTuple{Elems: elems, Pos: pos}
	default:
		p.errorf(diagnostics.ErrParseExpectedPattern, "expected a pattern, got %s %q", p.cur.Type, p.cur.Lexeme)
		p.nextToken()
		return surface.PWild{Pos: pos}
	}
}

// ---- Types ------------------------------------------------------------

func (p *Parser) parseType() surface.TypeExpr {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > MaxRecursionDepth {
		p.errorf(diagnostics.ErrParseExpectedType, "type too deeply nested")
		return surface.TUnknown{Pos: p.cur.Pos}
	}
	return p.parseArrowType()
}

func (p *Parser) parseArrowType() surface.TypeExpr {
	left := p.parseBarType()
	if p.curIs(token.ARROW) {
		pos := p.cur.Pos
		p.nextToken()
		right := p.parseArrowType()
		return surface.TArrow{Domain: left, Codomain: right, Pos: pos}
	}
	return left
}

func (p *Parser) parseBarType() surface.TypeExpr {
	left := p.parseStarType()
	if p.curIs(token.BAR) {
		pos := p.cur.Pos
		p.nextToken()
		right := p.parseStarType()
		return surface.TBar{Value: left, Perm: right, Pos: pos}
	}
	return left
}

func (p *Parser) parseStarType() surface.TypeExpr {
	left := p.parseAnchoredType()
	for p.curIs(token.STAR) {
		pos := p.cur.Pos
		p.nextToken()
		right := p.parseAnchoredType()
		left = surface.TStar{Left: left, Right: right, Pos: pos}
	}
	return left
}

func (p *Parser) parseAnchoredType() surface.TypeExpr {
	if p.curIs(token.IDENT) && p.peekIs(token.AT) {
		name := p.cur.Lexeme
		pos := p.cur.Pos
		p.nextToken()
		p.nextToken() // '@'
		t := p.parseTypeAtom()
		return surface.TAnchored{Var: name, Type: t, Pos: pos}
	}
	return p.parseTypeAtom()
}

func (p *Parser) parseTypeAtom() surface.TypeExpr {
	pos := p.cur.Pos
	switch p.cur.Type {
	case token.UNKNOWN_KW:
		p.nextToken()
		return surface.TUnknown{Pos: pos}
	case token.DYNAMIC_KW:
		p.nextToken()
		return surface.TDynamic{Pos: pos}
	case token.ASSIGN:
		p.nextToken()
		name := p.cur.Lexeme
		if p.curIs(token.CONIDENT) {
			p.nextToken()
		} else {
			p.expect(token.IDENT)
		}
		return surface.TSingleton{Name: name, Pos: pos}
	case token.IDENT:
		name := p.cur.Lexeme
		p.nextToken()
		if name == "empty" {
			return surface.TEmpty{Pos: pos}
		}
		if p.curIs(token.LPAREN) {
			return p.parseTypeApp(name, pos)
		}
		return surface.TName{Name: name, Pos: pos}
	case token.CONIDENT:
		name := p.cur.Lexeme
		p.nextToken()
		if p.curIs(token.LPAREN) {
			return p.parseTypeApp(name, pos)
		}
		return surface.TApp{Head: name, Pos: pos}
	case token.LPAREN:
		p.nextToken()
		if p.curIs(token.RPAREN) {
			p.nextToken()
			return surface.TTuple{Pos: pos}
		}
		first := p.parseType()
		if p.curIs(token.COMMA) {
			elems := []surface.TypeExpr{first}
			for p.curIs(token.COMMA) {
				p.nextToken()
				elems = append(elems, p.parseType())
			}
			p.expect(token.RPAREN)
			return surface.TTuple{Elems: elems, Pos: pos}
		}
		p.expect(token.RPAREN)
		return first
	case token.FORALL:
		p.nextToken()
		names := p.parseTypeVarList()
		p.expect(token.DOT)
		body := p.parseType()
		return surface.TForall{Names: names, Body: body, Pos: pos}
	case token.EXISTS:
		p.nextToken()
		names := p.parseTypeVarList()
		p.expect(token.DOT)
		body := p.parseType()
		return surface.TExists{Names: names, Body: body, Pos: pos}
	case token.DUPLICABLE, token.EXCLUSIVE:
		return p.parseConstraintType()
	default:
		p.errorf(diagnostics.ErrParseExpectedType, "expected a type, got %s %q", p.cur.Type, p.cur.Lexeme)
		p.nextToken()
		return surface.TUnknown{Pos: pos}
	}
}

func (p *Parser) parseTypeApp(head string, pos token.Position) surface.TypeExpr {
	p.nextToken() // '('
	var args []surface.TypeExpr
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		args = append(args, p.parseType())
		if p.curIs(token.COMMA) {
			p.nextToken()
		}
	}
	p.expect(token.RPAREN)
	return surface.TApp{Head: head, Args: args, Pos: pos}
}

func (p *Parser) parseTypeVarList() []string {
	var names []string
	for p.curIs(token.IDENT) {
		names = append(names, p.cur.Lexeme)
		p.nextToken()
		if p.curIs(token.COMMA) {
			p.nextToken()
		}
	}
	return names
}

func (p *Parser) parseConstraintType() surface.TypeExpr {
	pos := p.cur.Pos
	var cs []surface.TConstraint
	for p.curIs(token.DUPLICABLE) || p.curIs(token.EXCLUSIVE) {
		excl := p.curIs(token.EXCLUSIVE)
		p.nextToken()
		t := p.parseTypeAtom()
		cs = append(cs, surface.TConstraint{Exclusive: excl, Type: t})
		if p.curIs(token.COMMA) {
			p.nextToken()
		}
	}
	if p.curIs(token.FATARROW) {
		p.nextToken()
		body := p.parseType()
		return surface.TImply{Constraints: cs, Type: body, Pos: pos}
	}
	p.expect(token.AND)
	body := p.parseType()
	return surface.TAnd{Constraints: cs, Type: body, Pos: pos}
}
