package audience

// DetectZeroOrNegative scans groups then conditions in order and returns the
// first warning found, or nil. Incomplete conditions are skipped.
func DetectZeroOrNegative(groups []ConditionGroup) *WarningState {
	return DetectZeroOrNegativeLocale(DefaultLocale, groups)
}

// DetectZeroOrNegativeLocale is DetectZeroOrNegative with messages for locale.
func DetectZeroOrNegativeLocale(locale string, groups []ConditionGroup) *WarningState {
	book := PhrasebookFor(locale)
	for _, group := range groups {
		for _, cond := range group.Conditions {
			if warning := zeroCaseWarning(book, cond); warning != nil {
				return warning
			}
		}
	}
	return nil
}

func zeroCaseWarning(book Phrasebook, cond Condition) *WarningState {
	if cond.Event == "" {
		return nil
	}
	num, ok := cond.Count()
	if !ok {
		return nil
	}
	switch {
	// NOT(>=0) is <0
	case cond.Type == DidNot && cond.Operator == OpGte && num == 0:
		return &WarningState{Type: WarningNegative, Message: book.NegativeCount}
	case cond.Type == Performed && cond.Operator == OpLt && num == 0:
		return &WarningState{Type: WarningNegative, Message: book.NegativeCount}
	case cond.Type == Performed && cond.Operator == OpEq && num == 0:
		return &WarningState{Type: WarningNoBase, Message: book.ZeroExactly}
	case cond.Type == Performed && cond.Operator == OpLte && num == 0:
		return &WarningState{Type: WarningNoBase, Message: book.ZeroAtMost}
	case cond.Type == Performed && cond.Operator == OpLt && num == 1:
		return &WarningState{Type: WarningNoBase, Message: book.ZeroFewerThan}
	}
	return nil
}

// DetectBaseNeed returns the condition a base population must be synthesized
// for, or nil when none is needed. Any complete performed condition with a
// count of at least one already defines the population.
func DetectBaseNeed(groups []ConditionGroup) *Condition {
	for _, group := range groups {
		for _, cond := range group.Conditions {
			if cond.Type != Performed || cond.Event == "" {
				continue
			}
			if num, ok := cond.Count(); ok && num >= 1 {
				return nil
			}
		}
	}
	for _, group := range groups {
		for _, cond := range group.Conditions {
			if cond.Type != DidNot || cond.Event == "" {
				continue
			}
			num, ok := cond.Count()
			if !ok {
				continue
			}
			if (cond.Operator == OpGte && num == 1) || (cond.Operator == OpGt && num == 0) {
				ref := cond
				return &ref
			}
		}
	}
	return nil
}

// SynthesizeBaseCondition builds the implicit "performed Any Event at least
// once" condition sharing the reference condition's time window.
func SynthesizeBaseCondition(ref Condition) Condition {
	return Condition{
		ID:           autoBaseID,
		Type:         Performed,
		Event:        AnyEvent,
		Operator:     OpGte,
		N:            "1",
		When:         ref.When,
		Days:         ref.Days,
		IncludeToday: ref.IncludeToday,
		IsAutoAdded:  true,
	}
}

// HasCompleteCondition reports whether any group holds a complete condition.
func HasCompleteCondition(groups []ConditionGroup) bool {
	for _, group := range groups {
		for _, cond := range group.Conditions {
			if cond.Complete() {
				return true
			}
		}
	}
	return false
}
