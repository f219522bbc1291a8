package constraints

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Token codes
const (
	whitespaceCode = iota
	identifierCode
	numberCode
	operatorCode
	plusCode
	percentCode
)

// Token definitions
var (
	whitespaceToken = parsly.NewToken(whitespaceCode, "Whitespace", matcher.NewWhiteSpace())
	identifierToken = parsly.NewToken(identifierCode, "Identifier", newIdentifierMatcher())
	numberToken     = parsly.NewToken(numberCode, "Number", newNumberMatcher())
	operatorToken   = parsly.NewToken(operatorCode, "Operator", newOperatorMatcher())
	plusToken       = parsly.NewToken(plusCode, "+", matcher.NewByte('+'))
	percentToken    = parsly.NewToken(percentCode, "%", matcher.NewByte('%'))
)

// Custom matchers
func newIdentifierMatcher() parsly.Matcher {
	return &identifierMatcher{}
}

func newNumberMatcher() parsly.Matcher {
	return &numberMatcher{}
}

func newOperatorMatcher() parsly.Matcher {
	return &operatorMatcher{}
}

// identifierMatcher matches parameter and metric names
type identifierMatcher struct{}

func (m *identifierMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	if pos >= size {
		return 0
	}

	// First character must be a letter or underscore
	if !isLetter(input[pos]) && input[pos] != '_' {
		return 0
	}

	matched := 1
	for i := pos + 1; i < size; i++ {
		if isLetter(input[i]) || isDigit(input[i]) || input[i] == '_' || input[i] == '.' || input[i] == ':' {
			matched++
			continue
		}
		break
	}
	return matched
}

// numberMatcher matches integer and decimal literals with an optional sign
type numberMatcher struct{}

func (m *numberMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	if pos >= size {
		return 0
	}

	matched := 0
	i := pos
	if input[i] == '-' {
		matched++
		i++
	}
	digits := 0
	for ; i < size; i++ {
		if isDigit(input[i]) {
			matched++
			digits++
			continue
		}
		if input[i] == '.' {
			matched++
			continue
		}
		break
	}
	if digits == 0 {
		return 0
	}
	return matched
}

// operatorMatcher matches the comparison operators <= and >=
type operatorMatcher struct{}

func (m *operatorMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	if pos+1 >= size {
		return 0
	}
	if (input[pos] == '<' || input[pos] == '>') && input[pos+1] == '=' {
		return 2
	}
	return 0
}

// Helper functions
func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
