// Package token defines the lexical tokens of Mezzo source and interface
// files.
package token

// Type identifies a lexical token category.
type Type int

const (
	ILLEGAL Type = iota
	EOF
	NEWLINE

	IDENT    // lowercase identifier: x, foo, list
	CONIDENT // uppercase identifier: Nil, Cons, T
	INT
	STRING

	// Keywords
	LET
	REC
	AND
	IN
	VAL
	FUN
	DATA
	DUPLICABLE
	EXCLUSIVE
	MUTABLE
	ABSTRACT
	MATCH
	WITH
	IF
	THEN
	ELSE
	FAIL
	GIVE
	TAKE
	OWNS
	TO
	FROM
	AS
	OPEN
	EXPORT
	UNKNOWN_KW
	DYNAMIC_KW
	FORALL
	EXISTS

	// Punctuation / operators
	ASSIGN   // =
	ARROW    // ->
	LARROW   // <-
	FATARROW // =>
	AT       // @
	BAR      // |
	STAR     // *
	COMMA
	SEMI
	COLON
	COLONCOLON
	DOT
	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET
	LT
	GT
	UNDERSCORE
	DOLLAR // $ (adopts-clause sigil in concrete surface syntax)
)

var names = map[Type]string{
	ILLEGAL: "ILLEGAL", EOF: "EOF", NEWLINE: "NEWLINE",
	IDENT: "IDENT", CONIDENT: "CONIDENT", INT: "INT", STRING: "STRING",
	LET: "let", REC: "rec", AND: "and", IN: "in", VAL: "val", FUN: "fun",
	DATA: "data", DUPLICABLE: "duplicable", EXCLUSIVE: "exclusive",
	MUTABLE: "mutable", ABSTRACT: "abstract", MATCH: "match",
	WITH: "with", IF: "if", THEN: "then", ELSE: "else", FAIL: "fail",
	GIVE: "give", TAKE: "take", OWNS: "owns", TO: "to", FROM: "from",
	AS: "as", OPEN: "open", EXPORT: "export", UNKNOWN_KW: "unknown",
	DYNAMIC_KW: "dynamic", FORALL: "forall", EXISTS: "exists",
	ASSIGN: "=", ARROW: "->", LARROW: "<-", FATARROW: "=>", AT: "@", BAR: "|", STAR: "*",
	COMMA: ",", SEMI: ";", COLON: ":", COLONCOLON: "::", DOT: ".",
	LPAREN: "(", RPAREN: ")", LBRACE: "{", RBRACE: "}",
	LBRACKET: "[", RBRACKET: "]", LT: "<", GT: ">", UNDERSCORE: "_", DOLLAR: "$",
}

func (t Type) String() string {
	if s, ok := names[t]; ok {
		return s
	}
	return "?"
}

var keywords = map[string]Type{
	"let": LET, "rec": REC, "and": AND, "in": IN, "val": VAL, "fun": FUN,
	"data": DATA, "duplicable": DUPLICABLE, "exclusive": EXCLUSIVE,
	"mutable": MUTABLE, "abstract": ABSTRACT, "match": MATCH,
	"with": WITH, "if": IF, "then": THEN, "else": ELSE, "fail": FAIL,
	"give": GIVE, "take": TAKE, "owns": OWNS, "to": TO, "from": FROM,
	"as": AS, "open": OPEN, "export": EXPORT, "unknown": UNKNOWN_KW,
	"dynamic": DYNAMIC_KW, "forall": FORALL, "exists": EXISTS,
}

// LookupIdent classifies an identifier as a keyword or a plain IDENT.
func LookupIdent(ident string) Type {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// Position is a single point in a source file.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	return p.File + ":" + itoa(p.Line) + ":" + itoa(p.Column)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Token is a single lexical token with its source position.
type Token struct {
	Type    Type
	Lexeme  string
	Literal string
	Pos     Position
}
