package parser

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

const (
	whitespaceToken = iota
	qualifierToken
	keywordToken
	identifierToken
	assignToken
	valueToken
	numberToken
	bracketBlockToken
	groupOpenToken
	groupNextToken
)

var whitespaceMatcher = parsly.NewToken(whitespaceToken, "Whitespace", &spaceMatch{})
var assignMatcher = parsly.NewToken(assignToken, "Assign", matcher.NewFragment(":="))
var valueMatcher = parsly.NewToken(valueToken, "Value", &terminatedMatch{terminator: ';'})
var numberMatcher = parsly.NewToken(numberToken, "Number", &numberMatch{})
var bracketBlockMatcher = parsly.NewToken(bracketBlockToken, "BracketBlock", &bracketBlockMatch{})
var groupOpenMatcher = parsly.NewToken(groupOpenToken, "GroupOpen", &pairMatch{first: '[', second: '['})
var groupNextMatcher = parsly.NewToken(groupNextToken, "GroupNext", &pairMatch{first: ',', second: '['})

// wordMatch matches one of the words exactly, case-sensitively.
type wordMatch struct {
	words [][]byte
}

func newWordMatch(words ...string) *wordMatch {
	m := &wordMatch{}
	for _, w := range words {
		m.words = append(m.words, []byte(w))
	}
	return m
}

func (w *wordMatch) Match(cursor *parsly.Cursor) int {
	rest := cursor.Input[cursor.Pos:]
outer:
	for _, word := range w.words {
		if len(word) == 0 || len(word) > len(rest) {
			continue
		}
		for i := range word {
			if rest[i] != word[i] {
				continue outer
			}
		}
		return len(word)
	}
	return 0
}

// identifierMatch matches [A-Za-z0-9_]+, optionally requiring a prefix that must be
// followed by at least one more identifier character.
type identifierMatch struct {
	prefix []byte
}

func (i *identifierMatch) Match(cursor *parsly.Cursor) int {
	pos := cursor.Pos
	for _, b := range i.prefix {
		if pos >= cursor.InputSize || cursor.Input[pos] != b {
			return 0
		}
		pos++
	}
	start := pos
	for pos < cursor.InputSize && isIdentifierPart(cursor.Input[pos]) {
		pos++
	}
	if pos == start {
		return 0
	}
	return pos - cursor.Pos
}

func isIdentifierPart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_'
}

// terminatedMatch matches everything up to and including the first terminator.
// Input without a terminator does not match.
type terminatedMatch struct {
	terminator byte
}

func (t *terminatedMatch) Match(cursor *parsly.Cursor) int {
	for pos := cursor.Pos; pos < cursor.InputSize; pos++ {
		if cursor.Input[pos] == t.terminator {
			return pos - cursor.Pos + 1
		}
	}
	return 0
}

// numberMatch matches -?\d+(\.\d+)?([eE][+-]?\d+)?
type numberMatch struct{}

func (n *numberMatch) Match(cursor *parsly.Cursor) int {
	input, size := cursor.Input, cursor.InputSize
	pos := cursor.Pos
	if pos < size && input[pos] == '-' {
		pos++
	}
	digits := scanDigits(input, size, pos)
	if digits == pos {
		return 0
	}
	pos = digits
	if pos+1 < size && input[pos] == '.' {
		if end := scanDigits(input, size, pos+1); end > pos+1 {
			pos = end
		}
	}
	if pos < size && (input[pos] == 'e' || input[pos] == 'E') {
		exp := pos + 1
		if exp < size && (input[exp] == '+' || input[exp] == '-') {
			exp++
		}
		if end := scanDigits(input, size, exp); end > exp {
			pos = end
		}
	}
	return pos - cursor.Pos
}

func scanDigits(input []byte, size, pos int) int {
	for pos < size && input[pos] >= '0' && input[pos] <= '9' {
		pos++
	}
	return pos
}

// bracketBlockMatch matches a depth-balanced [ ... ] block.
// An unbalanced block does not match.
type bracketBlockMatch struct{}

func (b *bracketBlockMatch) Match(cursor *parsly.Cursor) int {
	if cursor.Pos >= cursor.InputSize || cursor.Input[cursor.Pos] != '[' {
		return 0
	}
	depth := 0
	for pos := cursor.Pos; pos < cursor.InputSize; pos++ {
		switch cursor.Input[pos] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return pos - cursor.Pos + 1
			}
		}
	}
	return 0
}

// pairMatch matches first, optional whitespace, then second; the match stops
// before second so the following block can be matched from there.
type pairMatch struct {
	first, second byte
}

func (p *pairMatch) Match(cursor *parsly.Cursor) int {
	if cursor.Pos >= cursor.InputSize || cursor.Input[cursor.Pos] != p.first {
		return 0
	}
	pos := cursor.Pos + 1
	for pos < cursor.InputSize && isSpace(cursor.Input[pos]) {
		pos++
	}
	if pos >= cursor.InputSize || cursor.Input[pos] != p.second {
		return 0
	}
	return pos - cursor.Pos
}

// spaceMatch matches a run of ASCII whitespace, line breaks included.
type spaceMatch struct{}

func (s *spaceMatch) Match(cursor *parsly.Cursor) int {
	pos := cursor.Pos
	for pos < cursor.InputSize && isSpace(cursor.Input[pos]) {
		pos++
	}
	return pos - cursor.Pos
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
