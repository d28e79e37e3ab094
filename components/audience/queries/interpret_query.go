package queries

import (
	"context"

	audience "github.com/goliatone/go-audience/components/audience"
	gocommand "github.com/goliatone/go-command"
)

// InterpretInput describes one condition to render. Type, Operator and When
// accept the aliases understood by the audience parsers.
type InterpretInput struct {
	Type     string `json:"type"`
	Operator string `json:"operator"`
	N        string `json:"n"`
	Event    string `json:"event"`
	When     string `json:"when,omitempty"`
	Days     string `json:"days,omitempty"`
	Locale   string `json:"locale"`
}

// Interpretation is the rendered sentence for a condition.
type Interpretation struct {
	Text     string              `json:"text"`
	Complete bool                `json:"complete"`
	When     audience.WhenOption `json:"when,omitempty"`
	Window   string              `json:"window,omitempty"`
	Locale   string              `json:"locale"`
}

// InterpretQuery renders a single condition without touching any session.
type InterpretQuery struct{}

// NewInterpretQuery builds the query.
func NewInterpretQuery() *InterpretQuery {
	return &InterpretQuery{}
}

var _ gocommand.Querier[InterpretInput, Interpretation] = (*InterpretQuery)(nil)

// Query parses the input and interprets it. An incomplete condition is not an
// error; it yields an empty text with Complete false.
func (q *InterpretQuery) Query(_ context.Context, input InterpretInput) (Interpretation, error) {
	kind, err := audience.ParsePerformType(input.Type)
	if err != nil {
		return Interpretation{}, err
	}
	op, err := audience.ParseOperator(input.Operator)
	if err != nil {
		return Interpretation{}, err
	}
	locale := input.Locale
	if locale == "" {
		locale = audience.DefaultLocale
	}
	text, ok := audience.InterpretLocale(locale, kind, op, input.N, input.Event)
	result := Interpretation{Text: text, Complete: ok, Locale: locale}
	if input.When != "" {
		when, err := audience.ParseWhen(input.When)
		if err != nil {
			return Interpretation{}, err
		}
		result.When = when
		result.Window = audience.WindowLabel(when, input.Days)
	}
	return result, nil
}
