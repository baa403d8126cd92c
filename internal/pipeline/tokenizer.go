package pipeline

import "strings"

// Tokenizer yields the tokens of one command line. It is lazy and can be
// consumed only once.
//
// Spaces and tabs separate tokens. Single or double quotes group text,
// including separators, into the current token; the quote characters
// themselves are dropped. An unterminated quote runs to the end of the line.
type Tokenizer struct {
	line string
	pos  int
}

// NewTokenizer returns a tokenizer over the trimmed line.
func NewTokenizer(line string) *Tokenizer {
	return &Tokenizer{line: strings.TrimSpace(line)}
}

// Next returns the next token, or false once the line is exhausted.
func (t *Tokenizer) Next() (string, bool) {
	for t.pos < len(t.line) && isSpace(t.line[t.pos]) {
		t.pos++
	}
	if t.pos >= len(t.line) {
		return "", false
	}

	var (
		b      strings.Builder
		quote  byte
		quoted bool
	)
	for ; t.pos < len(t.line); t.pos++ {
		c := t.line[t.pos]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
				continue
			}
			b.WriteByte(c)
		case c == '"' || c == '\'':
			quote = c
			quoted = true
		case isSpace(c):
			return b.String(), true
		default:
			b.WriteByte(c)
		}
	}
	if b.Len() == 0 && !quoted {
		return "", false
	}
	return b.String(), true
}

// Tokenize drains a tokenizer over line.
func Tokenize(line string) []string {
	var tokens []string
	t := NewTokenizer(line)
	for {
		tok, ok := t.Next()
		if !ok {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}
