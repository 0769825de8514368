// Package parser turns control-program text into declaration records and
// value expressions into numeric fields.
package parser

import (
	"bytes"
	"strings"

	"github.com/raphaelgruber/targetdiff/internal/models"
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Stage names the part of a declaration statement the grammar expects next.
type Stage int

const (
	StageQualifier Stage = iota // CONST / PERS at line start
	StageKeyword                // whitespace, then the kind keyword
	StageName                   // whitespace, then the identifier
	StageAssign                 // optional whitespace, then :=
	StageValue                  // value expression up to ;
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageQualifier:
		return "qualifier"
	case StageKeyword:
		return "keyword"
	case StageName:
		return "name"
	case StageAssign:
		return "assign"
	case StageValue:
		return "value"
	default:
		return "done"
	}
}

// Grammar recognises the declaration statements of one kind:
//
//	[ws] QUALIFIER ws+ keyword ws+ name [ws] := value ;
type Grammar struct {
	qualifier *parsly.Token
	keyword   *parsly.Token
	name      *parsly.Token
}

// NewGrammar builds the statement grammar described by a kind profile.
func NewGrammar(profile models.KindProfile) *Grammar {
	return &Grammar{
		qualifier: parsly.NewToken(qualifierToken, "Qualifier", newWordMatch(profile.Qualifiers...)),
		keyword:   parsly.NewToken(keywordToken, "Keyword", matcher.NewFragment(profile.Keyword)),
		name:      parsly.NewToken(identifierToken, "Identifier", &identifierMatch{prefix: []byte(profile.NamePrefix)}),
	}
}

// statement is one recognised declaration.
type statement struct {
	end   int // position after the terminator
	name  string
	value string
}

// parseStatement matches one statement at the cursor. It returns StageDone on
// success, otherwise the stage that failed to match.
func (g *Grammar) parseStatement(cursor *parsly.Cursor) (statement, Stage) {
	var stmt statement
	if cursor.MatchOne(g.qualifier).Code != qualifierToken {
		return stmt, StageQualifier
	}
	if cursor.MatchOne(whitespaceMatcher).Code != whitespaceToken {
		return stmt, StageKeyword
	}
	if cursor.MatchOne(g.keyword).Code != keywordToken {
		return stmt, StageKeyword
	}
	if cursor.MatchOne(whitespaceMatcher).Code != whitespaceToken {
		return stmt, StageName
	}
	name := cursor.MatchOne(g.name)
	if name.Code != identifierToken {
		return stmt, StageName
	}
	stmt.name = name.Text(cursor)
	cursor.MatchOne(whitespaceMatcher)
	if cursor.MatchOne(assignMatcher).Code != assignToken {
		return stmt, StageAssign
	}
	value := cursor.MatchOne(valueMatcher)
	if value.Code != valueToken {
		return stmt, StageValue
	}
	text := value.Text(cursor)
	stmt.value = strings.TrimSpace(text[:len(text)-1])
	stmt.end = cursor.Pos
	return stmt, StageDone
}

// Extract returns the declarations of the grammar's kind in file order.
// Text that does not form a statement is skipped.
func (g *Grammar) Extract(text string) []models.TargetRecord {
	input := []byte(text)
	cursor := parsly.NewCursor("", input, 0)
	var records []models.TargetRecord

	// A match starts at the line start, before any blank lines or
	// indentation leading up to the qualifier.
	line, counted := 1, 0
	for lineStart := 0; lineStart < len(input); {
		cursor.Pos = lineStart
		cursor.MatchOne(whitespaceMatcher)
		start := cursor.Pos

		stmt, stage := g.parseStatement(cursor)
		if stage != StageDone {
			lineStart = nextLineStart(input, start)
			continue
		}
		line += bytes.Count(input[counted:lineStart], []byte{'\n'})
		counted = lineStart
		records = append(records, models.TargetRecord{
			Name:     stmt.name,
			RawValue: stmt.value,
			Line:     line,
		})
		lineStart = nextLineStart(input, stmt.end)
	}
	return records
}

// Extract parses text with the built-in grammar of kind.
func Extract(text string, kind models.DeclarationKind) []models.TargetRecord {
	profile, err := models.DefaultProfile(kind)
	if err != nil {
		return nil
	}
	return NewGrammar(profile).Extract(text)
}

func nextLineStart(input []byte, pos int) int {
	if pos >= len(input) {
		return len(input)
	}
	idx := bytes.IndexByte(input[pos:], '\n')
	if idx < 0 {
		return len(input)
	}
	return pos + idx + 1
}
