package audience

import "fmt"

// Interpret renders a condition as an English sentence. It returns false when
// the event is empty or n is not an integer.
//
// Didn't-perform conditions are negated over non-negative counts and rendered
// in performed terms: NOT(>=n) is <n, NOT(>n) is <=n, NOT(<=n) is >=n+1,
// NOT(<n) is >=n and NOT(=n) is "0 or n+1 or more".
func Interpret(kind PerformType, op Operator, n, event string) (string, bool) {
	return interpret(PhrasebookFor(DefaultLocale), kind, op, n, event)
}

// InterpretLocale is Interpret using the phrasebook of locale.
func InterpretLocale(locale string, kind PerformType, op Operator, n, event string) (string, bool) {
	return interpret(PhrasebookFor(locale), kind, op, n, event)
}

// InterpretCondition interprets c using the phrasebook of locale.
func InterpretCondition(locale string, c Condition) (string, bool) {
	return InterpretLocale(locale, c.Type, c.Operator, c.N, c.Event)
}

func interpret(book Phrasebook, kind PerformType, op Operator, n, event string) (string, bool) {
	if event == "" {
		return "", false
	}
	num, ok := parseCount(n)
	if !ok {
		return "", false
	}
	if kind == Performed {
		switch op {
		case OpGte:
			if num == 1 {
				return fmt.Sprintf(book.PerformedOnce, event), true
			}
			return fmt.Sprintf(book.PerformedAtLeast, event, num), true
		case OpGt:
			return fmt.Sprintf(book.PerformedMoreThan, event, num), true
		case OpLte:
			return fmt.Sprintf(book.PerformedAtMost, event, num), true
		case OpLt:
			return fmt.Sprintf(book.PerformedFewerThan, event, num), true
		case OpEq:
			return fmt.Sprintf(book.PerformedExactly, event, num), true
		}
		return "", false
	}
	if kind != DidNot {
		return "", false
	}
	switch op {
	case OpGte:
		if num == 1 {
			return fmt.Sprintf(book.NeverPerformed, event), true
		}
		return fmt.Sprintf(book.PerformedFewerThan, event, num), true
	case OpGt:
		return fmt.Sprintf(book.PerformedAtMost, event, num), true
	case OpLte:
		return fmt.Sprintf(book.PerformedAtLeast, event, num+1), true
	case OpLt:
		return fmt.Sprintf(book.PerformedAtLeast, event, num), true
	case OpEq:
		return fmt.Sprintf(book.PerformedNotEqualTo, event, num, num+1), true
	}
	return "", false
}
