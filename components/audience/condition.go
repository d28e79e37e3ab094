package audience

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const autoBaseID = "auto-base"

// IDGenerator produces unique condition and group identifiers.
type IDGenerator func(prefix string) string

// UUIDGenerator builds ids from time-ordered UUIDs.
func UUIDGenerator(prefix string) string {
	return prefix + "-" + uuid.Must(uuid.NewV7()).String()
}

var newID IDGenerator = UUIDGenerator

// NewCondition returns an empty condition of the given polarity with default
// operator, count and window.
func NewCondition(kind PerformType) Condition {
	return newCondition(newID, kind)
}

// NewGroup returns a group holding a single empty condition.
func NewGroup(kind PerformType) ConditionGroup {
	return newGroup(newID, kind)
}

func newCondition(gen IDGenerator, kind PerformType) Condition {
	if kind == "" {
		kind = Performed
	}
	return Condition{
		ID:           gen("cond"),
		Type:         kind,
		Operator:     OpGte,
		N:            "1",
		When:         WhenDuringLast,
		Days:         "30",
		IncludeToday: false,
	}
}

func newGroup(gen IDGenerator, kind PerformType) ConditionGroup {
	return ConditionGroup{
		ID:         gen("group"),
		Conditions: []Condition{newCondition(gen, kind)},
	}
}

// Count parses the textual threshold.
func (c Condition) Count() (int, bool) {
	return parseCount(c.N)
}

// Complete reports whether the condition takes part in interpretation and
// validation: an event is selected and the count parses.
func (c Condition) Complete() bool {
	if c.Event == "" {
		return false
	}
	_, ok := c.Count()
	return ok
}

// WithType returns a copy with the given polarity.
func (c Condition) WithType(kind PerformType) Condition {
	c.Type = kind
	return c
}

// Toggled flips the polarity.
func (c Condition) Toggled() Condition {
	if c.Type == Performed {
		c.Type = DidNot
	} else {
		c.Type = Performed
	}
	return c
}

// WithEvent returns a copy tracking event.
func (c Condition) WithEvent(event string) Condition {
	c.Event = event
	return c
}

// WithOperator returns a copy using op.
func (c Condition) WithOperator(op Operator) Condition {
	c.Operator = op
	return c
}

// WithCount returns a copy with the textual threshold n.
func (c Condition) WithCount(n string) Condition {
	c.N = n
	return c
}

// WithWindow returns a copy with the time window qualifier.
func (c Condition) WithWindow(when WhenOption, days string) Condition {
	c.When = when
	c.Days = days
	return c
}

// WithIncludeToday returns a copy with the include-today flag set.
func (c Condition) WithIncludeToday(include bool) Condition {
	c.IncludeToday = include
	return c
}

// WithCondition returns a copy of the group with the condition at idx replaced.
func (g ConditionGroup) WithCondition(idx int, cond Condition) ConditionGroup {
	out := g.clone()
	out.Conditions[idx] = cond
	return out
}

// AppendCondition returns a copy of the group with cond OR-ed in.
func (g ConditionGroup) AppendCondition(cond Condition) ConditionGroup {
	out := g.clone()
	out.Conditions = append(out.Conditions, cond)
	return out
}

// WithoutCondition returns a copy of the group without the condition at idx.
func (g ConditionGroup) WithoutCondition(idx int) ConditionGroup {
	out := ConditionGroup{ID: g.ID, Conditions: make([]Condition, 0, len(g.Conditions))}
	for i, cond := range g.Conditions {
		if i != idx {
			out.Conditions = append(out.Conditions, cond)
		}
	}
	return out
}

// WindowLabel renders a time window such as "during last 30 days".
func WindowLabel(when WhenOption, days string) string {
	label := WhenLabel(when)
	days = strings.TrimSpace(days)
	if days == "" {
		return label
	}
	return label + " " + days + " days"
}

// assignIDs makes every group and condition id in groups unique. Empty,
// reserved and repeated ids are replaced in place.
func assignIDs(gen IDGenerator, groups []ConditionGroup) []ConditionGroup {
	seen := map[string]struct{}{}
	claim := func(id, prefix string) string {
		for {
			_, taken := seen[id]
			if id != "" && !taken && !reservedID(id) {
				seen[id] = struct{}{}
				return id
			}
			id = gen(prefix)
		}
	}
	for gi := range groups {
		groups[gi].ID = claim(groups[gi].ID, "group")
		for ci := range groups[gi].Conditions {
			groups[gi].Conditions[ci].ID = claim(groups[gi].Conditions[ci].ID, "cond")
		}
	}
	return groups
}

func reservedID(id string) bool {
	return id == autoBaseID || id == autoGroupID
}

func (g ConditionGroup) clone() ConditionGroup {
	return ConditionGroup{ID: g.ID, Conditions: append([]Condition{}, g.Conditions...)}
}

func cloneGroups(groups []ConditionGroup) []ConditionGroup {
	if groups == nil {
		return nil
	}
	out := make([]ConditionGroup, len(groups))
	for i, g := range groups {
		out[i] = g.clone()
	}
	return out
}

func parseCount(n string) (int, bool) {
	n = strings.TrimSpace(n)
	if n == "" {
		return 0, false
	}
	num, err := strconv.Atoi(n)
	if err != nil {
		return 0, false
	}
	return num, true
}
