// Package constraints parses the textual constraint notation used in
// experiment definitions: order constraints ("x1 <= x2"), sum constraints
// ("x1 + x2 <= 10") and outcome constraints ("latency <= 10%").
package constraints

import (
	"fmt"
	"strconv"

	"github.com/sweepline/sweep/model"
	"github.com/viant/parsly"
)

// Parse parses a parameter constraint expression.  Two identifiers joined by
// a comparison yield an order constraint; identifiers summed with '+' and
// compared against a number yield a sum constraint.  A single identifier
// compared against a number is a one-element sum constraint.
func Parse(input []byte) (model.Constraint, error) {
	cursor := parsly.NewCursor("", input, 0)

	matched := cursor.MatchAfterOptional(whitespaceToken, identifierToken)
	if matched.Code != identifierToken.Code {
		return nil, cursor.NewError(identifierToken)
	}
	names := []string{matched.Text(cursor)}

	// Collect "+ name" terms
	for {
		matched = cursor.MatchAfterOptional(whitespaceToken, plusToken, operatorToken)
		switch matched.Code {
		case plusToken.Code:
			matched = cursor.MatchAfterOptional(whitespaceToken, identifierToken)
			if matched.Code != identifierToken.Code {
				return nil, cursor.NewError(identifierToken)
			}
			names = append(names, matched.Text(cursor))
			continue
		case operatorToken.Code:
		default:
			return nil, cursor.NewError(operatorToken)
		}
		break
	}
	operator := matched.Text(cursor)

	matched = cursor.MatchAfterOptional(whitespaceToken, numberToken, identifierToken)
	switch matched.Code {
	case identifierToken.Code:
		if len(names) != 1 {
			return nil, fmt.Errorf("sum constraint requires a numeric bound, got %q", matched.Text(cursor))
		}
		other := matched.Text(cursor)
		if err := expectEnd(cursor); err != nil {
			return nil, err
		}
		if operator == "<=" {
			return &model.OrderConstraint{LowerName: names[0], UpperName: other}, nil
		}
		return &model.OrderConstraint{LowerName: other, UpperName: names[0]}, nil
	case numberToken.Code:
		bound, err := strconv.ParseFloat(matched.Text(cursor), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bound %q: %w", matched.Text(cursor), err)
		}
		if err := expectEnd(cursor); err != nil {
			return nil, err
		}
		return &model.SumConstraint{Names: names, IsUpperBound: operator == "<=", Bound: bound}, nil
	}
	return nil, cursor.NewError(numberToken)
}

// ParseOutcome parses an outcome constraint expression in the form
// "metric <= bound" or "metric >= bound%"; a trailing percent marks the
// bound as relative to the status quo arm.
func ParseOutcome(input []byte) (*model.OutcomeConstraint, error) {
	cursor := parsly.NewCursor("", input, 0)

	matched := cursor.MatchAfterOptional(whitespaceToken, identifierToken)
	if matched.Code != identifierToken.Code {
		return nil, cursor.NewError(identifierToken)
	}
	metricName := matched.Text(cursor)

	matched = cursor.MatchAfterOptional(whitespaceToken, operatorToken)
	if matched.Code != operatorToken.Code {
		return nil, cursor.NewError(operatorToken)
	}
	op := model.GEQ
	if matched.Text(cursor) == "<=" {
		op = model.LEQ
	}

	matched = cursor.MatchAfterOptional(whitespaceToken, numberToken)
	if matched.Code != numberToken.Code {
		return nil, cursor.NewError(numberToken)
	}
	bound, err := strconv.ParseFloat(matched.Text(cursor), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid bound %q: %w", matched.Text(cursor), err)
	}

	relative := false
	matched = cursor.MatchAfterOptional(whitespaceToken, percentToken)
	if matched.Code == percentToken.Code {
		relative = true
	}
	if err := expectEnd(cursor); err != nil {
		return nil, err
	}
	return &model.OutcomeConstraint{
		Metric:   model.Metric{Name: metricName},
		Op:       op,
		Bound:    bound,
		Relative: relative,
	}, nil
}

func expectEnd(cursor *parsly.Cursor) error {
	cursor.MatchOne(whitespaceToken)
	if cursor.Pos < cursor.InputSize {
		return fmt.Errorf("unexpected trailing input %q", string(cursor.Input[cursor.Pos:]))
	}
	return nil
}
