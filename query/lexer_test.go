package query

import (
	"testing"
)

func TestNextToken(t *testing.T) {
	input := "Manager == [\"Debra Henley\"] & Status in ['won', -1.5] | ~ (`Sales Rep` != None) and not TRUE"

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{IDENTIFIER, "Manager"},
		{EQUALS, "=="},
		{BRACKET_OPEN, "["},
		{STRING, "Debra Henley"},
		{BRACKET_CLOSE, "]"},
		{AMPERSAND, "&"},
		{IDENTIFIER, "Status"},
		{IN, "in"},
		{BRACKET_OPEN, "["},
		{STRING, "won"},
		{COMMA, ","},
		{NUMBER, "-1.5"},
		{BRACKET_CLOSE, "]"},
		{PIPE, "|"},
		{TILDE, "~"},
		{PAREN_OPEN, "("},
		{IDENTIFIER, "Sales Rep"},
		{NOT_EQUALS, "!="},
		{NULL, "None"},
		{PAREN_CLOSE, ")"},
		{AND, "and"},
		{NOT, "not"},
		{TRUE, "TRUE"},
		{EOF, ""},
	}

	l := NewLexer(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextTokenNumbers(t *testing.T) {
	for _, in := range []string{"3", "2024", "-1.5", ".5", "1e6", "2.5E-3"} {
		tok := NewLexer(in).NextToken()
		if tok.Type != NUMBER || tok.Literal != in {
			t.Errorf("%q lexed as %s", in, tok)
		}
	}
}

func TestNextTokenIllegal(t *testing.T) {
	tests := []struct {
		input   string
		literal string
	}{
		{"=", "="},
		{"!", "!"},
		{"'open", "'open"},
		{"$", "$"},
	}

	for _, tt := range tests {
		tok := NewLexer(tt.input).NextToken()
		if tok.Type != ILLEGAL {
			t.Errorf("%q: expected ILLEGAL, got %s", tt.input, tok)
		}
		if tok.Literal != tt.literal {
			t.Errorf("%q: literal wrong. expected=%q, got=%q", tt.input, tt.literal, tok.Literal)
		}
	}
}

func TestQuotedEscapes(t *testing.T) {
	tok := NewLexer(`'O\'Brien'`).NextToken()
	if tok.Type != STRING || tok.Literal != "O'Brien" {
		t.Fatalf("got %s", tok)
	}
}

func TestTokenPositions(t *testing.T) {
	toks := NewLexer("a == 'b'").Tokens()
	want := []int{0, 2, 5, 8}
	if len(toks) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(toks))
	}
	for i, tok := range toks {
		if tok.Pos != want[i] {
			t.Errorf("token %d (%s): pos %d, want %d", i, tok, tok.Pos, want[i])
		}
	}
}
