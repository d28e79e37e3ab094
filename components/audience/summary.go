package audience

// SummaryGroup is one lettered AND-term of the summary panel.
type SummaryGroup struct {
	Letter  string   `json:"letter"`
	GroupID string   `json:"group_id"`
	Auto    bool     `json:"auto"`
	Label   string   `json:"label,omitempty"`
	Lines   []string `json:"lines"`
}

// Summary is the rendered condition summary.
type Summary struct {
	Groups []SummaryGroup `json:"groups"`
	Hidden int            `json:"hidden"`
	Empty  string         `json:"empty,omitempty"`
	Locale string         `json:"locale"`
}

const autoGroupID = "auto"

type summarySource struct {
	group ConditionGroup
	auto  bool
}

// BuildSummary renders every complete condition. The synthesized condition,
// when present, is prepended as its own auto group. Groups with no complete
// condition are dropped before lettering.
func BuildSummary(groups []ConditionGroup, autoAdded *Condition, locale string) Summary {
	book := PhrasebookFor(locale)
	all := make([]summarySource, 0, len(groups)+1)
	if autoAdded != nil {
		all = append(all, summarySource{
			group: ConditionGroup{ID: autoGroupID, Conditions: []Condition{*autoAdded}},
			auto:  true,
		})
	}
	for _, group := range groups {
		all = append(all, summarySource{group: group})
	}
	summary := Summary{Groups: []SummaryGroup{}, Locale: normalizeLocale(locale)}
	for _, source := range all {
		group := source.group
		var lines []string
		for _, cond := range group.Conditions {
			if !cond.Complete() {
				continue
			}
			if line, ok := interpret(book, cond.Type, cond.Operator, cond.N, cond.Event); ok {
				lines = append(lines, line)
			}
		}
		if len(lines) == 0 {
			continue
		}
		entry := SummaryGroup{
			Letter:  groupLetter(len(summary.Groups)),
			GroupID: group.ID,
			Lines:   lines,
		}
		if source.auto {
			entry.Auto = true
			entry.Label = book.AutoAddedLabel
		}
		summary.Groups = append(summary.Groups, entry)
	}
	if len(summary.Groups) == 0 {
		summary.Empty = book.EmptySummary
	}
	return summary
}

// Collapse keeps the first limit groups and records how many were hidden.
func (s Summary) Collapse(limit int) Summary {
	if limit <= 0 || len(s.Groups) <= limit {
		return s
	}
	out := s
	out.Hidden = len(s.Groups) - limit
	out.Groups = append([]SummaryGroup{}, s.Groups[:limit]...)
	return out
}

// groupLetter maps 0 to A, 25 to Z, 26 to AA.
func groupLetter(idx int) string {
	letters := ""
	for idx >= 0 {
		letters = string(rune('A'+idx%26)) + letters
		idx = idx/26 - 1
	}
	return letters
}
