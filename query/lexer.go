package query

import (
	"fmt"
	"strings"
)

type TokenType int

const (
	// Special
	ILLEGAL TokenType = iota
	EOF

	// Literals
	IDENTIFIER // Manager, `Sales Rep`
	STRING     // "won", 'won'
	NUMBER     // 3, -1.5

	// Keywords
	IN
	NOT
	AND
	OR
	TRUE
	FALSE
	NULL

	// Operators & Punctuation
	EQUALS        // ==
	NOT_EQUALS    // !=
	AMPERSAND     // &
	PIPE          // |
	TILDE         // ~
	COMMA         // ,
	PAREN_OPEN    // (
	PAREN_CLOSE   // )
	BRACKET_OPEN  // [
	BRACKET_CLOSE // ]
)

var tokenNames = map[TokenType]string{
	ILLEGAL: "ILLEGAL", EOF: "EOF",
	IDENTIFIER: "IDENTIFIER", STRING: "STRING", NUMBER: "NUMBER",
	IN: "in", NOT: "not", AND: "and", OR: "or", TRUE: "True", FALSE: "False", NULL: "None",
	EQUALS: "==", NOT_EQUALS: "!=", AMPERSAND: "&", PIPE: "|", TILDE: "~",
	COMMA: ",", PAREN_OPEN: "(", PAREN_CLOSE: ")", BRACKET_OPEN: "[", BRACKET_CLOSE: "]",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// keywords are matched case-insensitively.
var keywords = map[string]TokenType{
	"in":    IN,
	"not":   NOT,
	"and":   AND,
	"or":    OR,
	"true":  TRUE,
	"false": FALSE,
	"none":  NULL,
	"null":  NULL,
	"nan":   NULL,
}

type Token struct {
	Type    TokenType
	Literal string
	Pos     int // byte offset in the expression
}

func (t Token) String() string {
	return fmt.Sprintf("Token(%s, %q)", t.Type, t.Literal)
}

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
}

func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	tok := Token{Pos: l.position}

	switch l.ch {
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Literal = EQUALS, "=="
		} else {
			tok.Type, tok.Literal = ILLEGAL, "="
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Literal = NOT_EQUALS, "!="
		} else {
			tok.Type, tok.Literal = ILLEGAL, "!"
		}
	case '&':
		tok.Type, tok.Literal = AMPERSAND, "&"
	case '|':
		tok.Type, tok.Literal = PIPE, "|"
	case '~':
		tok.Type, tok.Literal = TILDE, "~"
	case ',':
		tok.Type, tok.Literal = COMMA, ","
	case '(':
		tok.Type, tok.Literal = PAREN_OPEN, "("
	case ')':
		tok.Type, tok.Literal = PAREN_CLOSE, ")"
	case '[':
		tok.Type, tok.Literal = BRACKET_OPEN, "["
	case ']':
		tok.Type, tok.Literal = BRACKET_CLOSE, "]"
	case '"', '\'':
		return l.readQuoted(STRING, l.ch)
	case '`':
		return l.readQuoted(IDENTIFIER, '`')
	case 0:
		tok.Type = EOF
		return tok
	default:
		if isLetter(l.ch) {
			tok.Literal = l.readIdentifier()
			tok.Type = lookupIdent(tok.Literal)
			return tok
		}
		if isDigit(l.ch) || ((l.ch == '-' || l.ch == '.') && isDigit(l.peekChar())) {
			tok.Type = NUMBER
			tok.Literal = l.readNumber()
			return tok
		}
		tok.Type, tok.Literal = ILLEGAL, string(l.ch)
	}

	l.readChar()
	return tok
}

// Tokens lexes the whole input, EOF included.
func (l *Lexer) Tokens() []Token {
	var out []Token
	for {
		tok := l.NextToken()
		out = append(out, tok)
		if tok.Type == EOF {
			return out
		}
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readNumber() string {
	start := l.position
	if l.ch == '-' {
		l.readChar()
	}
	for isDigit(l.ch) || l.ch == '.' || l.ch == 'e' || l.ch == 'E' ||
		((l.ch == '+' || l.ch == '-') && (l.input[l.position-1] == 'e' || l.input[l.position-1] == 'E')) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readQuoted reads up to the matching quote. A backslash escapes the next byte.
// An unterminated literal comes back as ILLEGAL.
func (l *Lexer) readQuoted(typ TokenType, quote byte) Token {
	tok := Token{Type: typ, Pos: l.position}
	var b strings.Builder
	l.readChar()
	for l.ch != quote {
		if l.ch == 0 {
			tok.Type = ILLEGAL
			tok.Literal = string(quote) + b.String()
			return tok
		}
		if l.ch == '\\' && l.peekChar() != 0 {
			l.readChar()
		}
		b.WriteByte(l.ch)
		l.readChar()
	}
	l.readChar()
	tok.Literal = b.String()
	return tok
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func lookupIdent(ident string) TokenType {
	if tok, ok := keywords[strings.ToLower(ident)]; ok {
		return tok
	}
	return IDENTIFIER
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || ch >= 0x80
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
