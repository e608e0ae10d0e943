// Package lexer turns Mezzo implementation (.mz) and interface (.mzi)
// source text into a stream of tokens.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mezzolang/mezzo/internal/token"
)

// Lexer is a hand-written scanner over UTF-8 source text.
type Lexer struct {
	file         string
	input        string
	position     int
	readPosition int
	ch           rune
	line         int
	column       int
}

// New creates a Lexer for the given file's contents. file is used only for
// position reporting in tokens and diagnostics.
func New(file, input string) *Lexer {
	l := &Lexer{file: file, input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		l.readPosition++
		l.column++
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) pos() token.Position {
	return token.Position{File: l.file, Line: l.line, Column: l.column}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		case l.ch == '(' && l.peekChar() == '*':
			l.readChar()
			l.readChar()
			depth := 1
			for depth > 0 && l.ch != 0 {
				if l.ch == '(' && l.peekChar() == '*' {
					depth++
					l.readChar()
					l.readChar()
				} else if l.ch == '*' && l.peekChar() == ')' {
					depth--
					l.readChar()
					l.readChar()
				} else {
					l.readChar()
				}
			}
		default:
			return
		}
	}
}

func newToken(typ token.Type, ch rune, pos token.Position) token.Token {
	lex := string(ch)
	return token.Token{Type: typ, Lexeme: lex, Literal: lex, Pos: pos}
}

// NextToken scans and returns the next token, advancing the lexer.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()
	p := l.pos()

	switch {
	case l.ch == 0:
		return token.Token{Type: token.EOF, Pos: p}
	case l.ch == '\n':
		l.readChar()
		return token.Token{Type: token.NEWLINE, Lexeme: "\\n", Pos: p}
	case l.ch == '=':
		if l.peekChar() == '>' {
			l.readChar()
			l.readChar()
			return token.Token{Type: token.FATARROW, Lexeme: "=>", Literal: "=>", Pos: p}
		}
		l.readChar()
		return token.Token{Type: token.ASSIGN, Lexeme: "=", Literal: "=", Pos: p}
	case l.ch == '-':
		if l.peekChar() == '>' {
			l.readChar()
			l.readChar()
			return token.Token{Type: token.ARROW, Lexeme: "->", Literal: "->", Pos: p}
		}
		tok := newToken(token.ILLEGAL, l.ch, p)
		l.readChar()
		return tok
	case l.ch == '@':
		l.readChar()
		return token.Token{Type: token.AT, Lexeme: "@", Pos: p}
	case l.ch == '|':
		l.readChar()
		return token.Token{Type: token.BAR, Lexeme: "|", Pos: p}
	case l.ch == '*':
		l.readChar()
		return token.Token{Type: token.STAR, Lexeme: "*", Pos: p}
	case l.ch == ',':
		l.readChar()
		return token.Token{Type: token.COMMA, Lexeme: ",", Pos: p}
	case l.ch == ';':
		l.readChar()
		return token.Token{Type: token.SEMI, Lexeme: ";", Pos: p}
	case l.ch == ':':
		if l.peekChar() == ':' {
			l.readChar()
			l.readChar()
			return token.Token{Type: token.COLONCOLON, Lexeme: "::", Pos: p}
		}
		l.readChar()
		return token.Token{Type: token.COLON, Lexeme: ":", Pos: p}
	case l.ch == '.':
		l.readChar()
		return token.Token{Type: token.DOT, Lexeme: ".", Pos: p}
	case l.ch == '(':
		l.readChar()
		return token.Token{Type: token.LPAREN, Lexeme: "(", Pos: p}
	case l.ch == ')':
		l.readChar()
		return token.Token{Type: token.RPAREN, Lexeme: ")", Pos: p}
	case l.ch == '{':
		l.readChar()
		return token.Token{Type: token.LBRACE, Lexeme: "{", Pos: p}
	case l.ch == '}':
		l.readChar()
		return token.Token{Type: token.RBRACE, Lexeme: "}", Pos: p}
	case l.ch == '[':
		l.readChar()
		return token.Token{Type: token.LBRACKET, Lexeme: "[", Pos: p}
	case l.ch == ']':
		l.readChar()
		return token.Token{Type: token.RBRACKET, Lexeme: "]", Pos: p}
	case l.ch == '<':
		if l.peekChar() == '-' {
			l.readChar()
			l.readChar()
			return token.Token{Type: token.LARROW, Lexeme: "<-", Literal: "<-", Pos: p}
		}
		l.readChar()
		return token.Token{Type: token.LT, Lexeme: "<", Pos: p}
	case l.ch == '>':
		l.readChar()
		return token.Token{Type: token.GT, Lexeme: ">", Pos: p}
	case l.ch == '$':
		l.readChar()
		return token.Token{Type: token.DOLLAR, Lexeme: "$", Pos: p}
	case l.ch == '"':
		lit := l.readString()
		return token.Token{Type: token.STRING, Lexeme: lit, Literal: lit, Pos: p}
	case isDigit(l.ch):
		lit := l.readNumber()
		return token.Token{Type: token.INT, Lexeme: lit, Literal: lit, Pos: p}
	case l.ch == '_' && !isIdentContinue(l.peekChar()):
		l.readChar()
		return token.Token{Type: token.UNDERSCORE, Lexeme: "_", Pos: p}
	case isIdentStart(l.ch):
		lit := l.readIdentifier()
		typ := token.LookupIdent(lit)
		if typ == token.IDENT && startsUpper(lit) {
			typ = token.CONIDENT
		}
		return token.Token{Type: typ, Lexeme: lit, Literal: lit, Pos: p}
	default:
		tok := newToken(token.ILLEGAL, l.ch, p)
		l.readChar()
		return tok
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for isIdentContinue(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readNumber() string {
	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readString() string {
	var sb strings.Builder
	l.readChar() // consume opening quote
	for l.ch != '"' && l.ch != 0 {
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case '"':
				sb.WriteRune('"')
			case '\\':
				sb.WriteRune('\\')
			default:
				sb.WriteRune(l.ch)
			}
			l.readChar()
			continue
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}
	l.readChar() // consume closing quote
	return sb.String()
}

func isDigit(ch rune) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentContinue(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '\''
}

func startsUpper(s string) bool {
	if s == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

// All tokenizes the entire input, always ending with an EOF token. Lexical
// errors surface as token.ILLEGAL entries rather than aborting the scan, so
// the caller can report every bad codepoint in one pass.
func All(file, input string) []token.Token {
	l := New(file, input)
	var toks []token.Token
	for {
		t := l.NextToken()
		toks = append(toks, t)
		if t.Type == token.EOF {
			return toks
		}
	}
}
