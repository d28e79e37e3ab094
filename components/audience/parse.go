package audience

import (
	"fmt"
	"strings"

	"github.com/ettle/strcase"
)

var performAliases = map[string]PerformType{
	"performed":       Performed,
	"perform":         Performed,
	"didnt":           DidNot,
	"didnt-perform":   DidNot,
	"did-not":         DidNot,
	"did-not-perform": DidNot,
	"not-performed":   DidNot,
}

var operatorAliases = map[string]Operator{
	"eq":                  OpEq,
	"equals":              OpEq,
	"equal":               OpEq,
	"gte":                 OpGte,
	"greater-or-equal":    OpGte,
	"more-than-or-equals": OpGte,
	"at-least":            OpGte,
	"gt":                  OpGt,
	"greater-than":        OpGt,
	"more-than":           OpGt,
	"lte":                 OpLte,
	"less-or-equal":       OpLte,
	"less-than-or-equals": OpLte,
	"at-most":             OpLte,
	"lt":                  OpLt,
	"less-than":           OpLt,
	"fewer-than":          OpLt,
}

var whenAliases = map[string]WhenOption{
	"during-last": WhenDuringLast,
	"last":        WhenDuringLast,
	"after":       WhenAfter,
	"before":      WhenBefore,
	"between":     WhenBetween,
}

// ParsePerformType accepts the wire code or a spelled-out alias such as
// "didn't-perform" or "DidNotPerform".
func ParsePerformType(value string) (PerformType, error) {
	if kind, ok := performAliases[aliasKey(value)]; ok {
		return kind, nil
	}
	return "", fmt.Errorf("%w: unknown condition type %q", ErrInvalidCondition, value)
}

// ParseOperator accepts "gte", "greater-or-equal", "GreaterOrEqual" and similar.
func ParseOperator(value string) (Operator, error) {
	if op, ok := operatorAliases[aliasKey(value)]; ok {
		return op, nil
	}
	return "", fmt.Errorf("%w: unknown operator %q", ErrInvalidCondition, value)
}

// ParseWhen accepts "during_last", "during-last", "DuringLast" and the other windows.
func ParseWhen(value string) (WhenOption, error) {
	if when, ok := whenAliases[aliasKey(value)]; ok {
		return when, nil
	}
	return "", fmt.Errorf("%w: unknown time window %q", ErrInvalidCondition, value)
}

func aliasKey(value string) string {
	value = strings.TrimSpace(value)
	value = strings.NewReplacer("'", "", "’", "").Replace(value)
	return strcase.ToKebab(value)
}

func validPerformType(kind PerformType) bool {
	return kind == Performed || kind == DidNot
}

func validOperator(op Operator) bool {
	switch op {
	case OpEq, OpGte, OpGt, OpLte, OpLt:
		return true
	}
	return false
}

func validWhen(when WhenOption) bool {
	switch when {
	case WhenDuringLast, WhenAfter, WhenBefore, WhenBetween:
		return true
	}
	return false
}
