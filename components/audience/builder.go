package audience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Phase is the builder's coarse state.
type Phase string

const (
	PhaseEmpty   Phase = "empty"
	PhaseEditing Phase = "editing"
	PhaseBlocked Phase = "blocked"
)

var (
	ErrGroupIndex        = errors.New("audience: group index out of range")
	ErrConditionIndex    = errors.New("audience: condition index out of range")
	ErrReadOnlyCondition = errors.New("audience: auto-added conditions are read-only")
	ErrInvalidCondition  = errors.New("audience: invalid condition")
	ErrEmptyGroup        = errors.New("audience: group must hold at least one condition")
	ErrUnknownIdentifier = errors.New("audience: unknown identifier")
)

// BuilderOptions configures a Builder. Zero values get safe defaults.
type BuilderOptions struct {
	Estimator Estimator
	Telemetry Telemetry
	Clock     func() time.Time
	IDs       IDGenerator
	Locale    string
}

// State is the view-facing snapshot of a builder.
type State struct {
	Phase               Phase            `json:"phase"`
	Groups              []ConditionGroup `json:"groups"`
	Warning             *WarningState    `json:"warning"`
	AutoAddedCondition  *Condition       `json:"auto_added_condition"`
	EstimatedUsers      *int             `json:"estimated_users"`
	LastCalculatedAt    *time.Time       `json:"last_calculated_at"`
	IsNextDisabled      bool             `json:"is_next_disabled"`
	SelectedIdentifiers []string         `json:"selected_identifiers"`
	Summary             Summary          `json:"summary"`
}

// Builder owns the working condition set of one builder dialog and re-runs
// validation, augmentation and estimation after every mutation. A Builder is
// not safe for concurrent use; callers serialize access.
type Builder struct {
	opts BuilderOptions

	groups           []ConditionGroup
	selected         []string
	warning          *WarningState
	autoAdded        *Condition
	estimate         *int
	lastCalculatedAt *time.Time
}

// NewBuilder returns an empty builder.
func NewBuilder(opts BuilderOptions) *Builder {
	if opts.Estimator == nil {
		opts.Estimator = NewRandomEstimator(defaultEstimateMin, defaultEstimateSpan, 0)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.IDs == nil {
		opts.IDs = newID
	}
	if opts.Locale == "" {
		opts.Locale = DefaultLocale
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	return &Builder{
		opts:     opts,
		selected: DefaultSelectedIdentifiers(),
	}
}

// AddGroup appends a new AND-term holding one empty condition of kind.
func (b *Builder) AddGroup(ctx context.Context, kind PerformType) error {
	if !validPerformType(kind) {
		return fmt.Errorf("%w: type %q", ErrInvalidCondition, kind)
	}
	groups := cloneGroups(b.groups)
	groups = append(groups, newGroup(b.opts.IDs, kind))
	b.commit(ctx, groups, "audience.group.add")
	return nil
}

// RemoveGroup deletes the group at idx.
func (b *Builder) RemoveGroup(ctx context.Context, idx int) error {
	if idx < 0 || idx >= len(b.groups) {
		return ErrGroupIndex
	}
	groups := make([]ConditionGroup, 0, len(b.groups)-1)
	for i, g := range b.groups {
		if i != idx {
			groups = append(groups, g.clone())
		}
	}
	b.commit(ctx, groups, "audience.group.remove")
	return nil
}

// UpdateGroup replaces the group at idx. The stored group id is kept; a
// condition keeps its id only when it already belongs to that group.
func (b *Builder) UpdateGroup(ctx context.Context, idx int, group ConditionGroup) error {
	if idx < 0 || idx >= len(b.groups) {
		return ErrGroupIndex
	}
	if len(group.Conditions) == 0 {
		return ErrEmptyGroup
	}
	for _, cond := range group.Conditions {
		if err := checkCondition(cond); err != nil {
			return err
		}
	}
	groups := cloneGroups(b.groups)
	groups[idx] = b.adoptGroupIDs(b.groups[idx], group)
	b.commit(ctx, groups, "audience.group.update")
	return nil
}

// AddCondition OR-s a new empty condition of kind into the group at groupIdx.
func (b *Builder) AddCondition(ctx context.Context, groupIdx int, kind PerformType) error {
	if groupIdx < 0 || groupIdx >= len(b.groups) {
		return ErrGroupIndex
	}
	if !validPerformType(kind) {
		return fmt.Errorf("%w: type %q", ErrInvalidCondition, kind)
	}
	groups := cloneGroups(b.groups)
	groups[groupIdx] = groups[groupIdx].AppendCondition(newCondition(b.opts.IDs, kind))
	b.commit(ctx, groups, "audience.condition.add")
	return nil
}

// UpdateCondition replaces one condition. The stored id is always kept.
func (b *Builder) UpdateCondition(ctx context.Context, groupIdx, condIdx int, cond Condition) error {
	if groupIdx < 0 || groupIdx >= len(b.groups) {
		return ErrGroupIndex
	}
	group := b.groups[groupIdx]
	if condIdx < 0 || condIdx >= len(group.Conditions) {
		return ErrConditionIndex
	}
	if err := checkCondition(cond); err != nil {
		return err
	}
	cond.ID = group.Conditions[condIdx].ID
	groups := cloneGroups(b.groups)
	groups[groupIdx] = group.WithCondition(condIdx, cond)
	b.commit(ctx, groups, "audience.condition.update")
	return nil
}

// RemoveCondition deletes one condition; a group left empty is removed.
func (b *Builder) RemoveCondition(ctx context.Context, groupIdx, condIdx int) error {
	if groupIdx < 0 || groupIdx >= len(b.groups) {
		return ErrGroupIndex
	}
	group := b.groups[groupIdx]
	if condIdx < 0 || condIdx >= len(group.Conditions) {
		return ErrConditionIndex
	}
	if len(group.Conditions) == 1 {
		return b.RemoveGroup(ctx, groupIdx)
	}
	groups := cloneGroups(b.groups)
	groups[groupIdx] = group.WithoutCondition(condIdx)
	b.commit(ctx, groups, "audience.condition.remove")
	return nil
}

// Replace swaps the whole condition set. Missing, reserved or repeated ids
// are replaced with fresh ones.
func (b *Builder) Replace(ctx context.Context, groups []ConditionGroup) error {
	for _, group := range groups {
		if len(group.Conditions) == 0 {
			return ErrEmptyGroup
		}
		for _, cond := range group.Conditions {
			if err := checkCondition(cond); err != nil {
				return err
			}
		}
	}
	b.commit(ctx, assignIDs(b.opts.IDs, cloneGroups(groups)), "audience.groups.replace")
	return nil
}

// ToggleIdentifier selects or deselects an export identifier.
func (b *Builder) ToggleIdentifier(ctx context.Context, id string) error {
	if !knownIdentifier(id) {
		return fmt.Errorf("%w: %s", ErrUnknownIdentifier, id)
	}
	selected := make([]string, 0, len(b.selected)+1)
	found := false
	for _, existing := range b.selected {
		if existing == id {
			found = true
			continue
		}
		selected = append(selected, existing)
	}
	if !found {
		selected = append(selected, id)
	}
	b.selected = selected
	b.opts.Telemetry.Record(ctx, "audience.identifier.toggle", map[string]any{
		"identifier": id,
		"selected":   !found,
	})
	return nil
}

// SetLocale changes the language of warnings and summaries.
func (b *Builder) SetLocale(locale string) {
	if locale == "" {
		return
	}
	b.opts.Locale = locale
	if b.warning != nil {
		b.warning = DetectZeroOrNegativeLocale(locale, b.groups)
	}
}

// State returns a snapshot safe to hand to a view.
func (b *Builder) State() State {
	state := State{
		Phase:               b.phase(),
		Groups:              cloneGroups(b.groups),
		IsNextDisabled:      !HasCompleteCondition(b.groups) || b.warning != nil,
		SelectedIdentifiers: append([]string{}, b.selected...),
		Summary:             BuildSummary(b.groups, b.autoAdded, b.opts.Locale),
	}
	if state.Groups == nil {
		state.Groups = []ConditionGroup{}
	}
	if b.warning != nil {
		w := *b.warning
		state.Warning = &w
	}
	if b.autoAdded != nil {
		c := *b.autoAdded
		state.AutoAddedCondition = &c
	}
	if b.estimate != nil {
		v := *b.estimate
		state.EstimatedUsers = &v
	}
	if b.lastCalculatedAt != nil {
		t := *b.lastCalculatedAt
		state.LastCalculatedAt = &t
	}
	return state
}

func (b *Builder) phase() Phase {
	switch {
	case len(b.groups) == 0:
		return PhaseEmpty
	case b.warning != nil:
		return PhaseBlocked
	default:
		return PhaseEditing
	}
}

func (b *Builder) commit(ctx context.Context, groups []ConditionGroup, event string) {
	b.groups = groups
	b.reevaluate(ctx)
	b.opts.Telemetry.Record(ctx, event, map[string]any{
		"groups":  len(b.groups),
		"phase":   string(b.phase()),
		"warning": b.warning != nil,
		"auto":    b.autoAdded != nil,
	})
}

func (b *Builder) reevaluate(ctx context.Context) {
	if len(b.groups) == 0 {
		b.warning = nil
		b.autoAdded = nil
		b.estimate = nil
		return
	}

	b.warning = DetectZeroOrNegativeLocale(b.opts.Locale, b.groups)
	if b.warning != nil {
		zero := 0
		b.estimate = &zero
		b.autoAdded = nil
		b.stamp()
		return
	}

	if ref := DetectBaseNeed(b.groups); ref != nil {
		base := SynthesizeBaseCondition(*ref)
		b.autoAdded = &base
	} else {
		b.autoAdded = nil
	}

	if !HasCompleteCondition(b.groups) {
		b.estimate = nil
		return
	}
	value, err := b.opts.Estimator.Estimate(ctx, cloneGroups(b.groups), b.autoAdded)
	if err != nil {
		b.estimate = nil
		b.opts.Telemetry.Record(ctx, "audience.estimate.error", map[string]any{"error": err.Error()})
		return
	}
	b.estimate = &value
	b.stamp()
}

func (b *Builder) adoptGroupIDs(stored, group ConditionGroup) ConditionGroup {
	owned := make(map[string]struct{}, len(stored.Conditions))
	for _, c := range stored.Conditions {
		owned[c.ID] = struct{}{}
	}
	out := group.clone()
	out.ID = stored.ID
	used := make(map[string]struct{}, len(out.Conditions))
	for i := range out.Conditions {
		id := out.Conditions[i].ID
		_, mine := owned[id]
		_, taken := used[id]
		if !mine || taken {
			id = b.opts.IDs("cond")
		}
		used[id] = struct{}{}
		out.Conditions[i].ID = id
	}
	return out
}

func (b *Builder) stamp() {
	now := b.opts.Clock()
	b.lastCalculatedAt = &now
}

func checkCondition(cond Condition) error {
	if cond.IsAutoAdded {
		return ErrReadOnlyCondition
	}
	if !validPerformType(cond.Type) {
		return fmt.Errorf("%w: type %q", ErrInvalidCondition, cond.Type)
	}
	if !validOperator(cond.Operator) {
		return fmt.Errorf("%w: operator %q", ErrInvalidCondition, cond.Operator)
	}
	if !validWhen(cond.When) {
		return fmt.Errorf("%w: when %q", ErrInvalidCondition, cond.When)
	}
	return nil
}
