package audience

// PerformType is the polarity of a behavioral condition.
type PerformType string

const (
	Performed PerformType = "performed"
	DidNot    PerformType = "didnt"
)

// Operator compares an event count against the condition threshold.
type Operator string

const (
	OpEq  Operator = "eq"
	OpGte Operator = "gte"
	OpGt  Operator = "gt"
	OpLte Operator = "lte"
	OpLt  Operator = "lt"
)

// WhenOption qualifies the time window of a condition.
type WhenOption string

const (
	WhenDuringLast WhenOption = "during_last"
	WhenAfter      WhenOption = "after"
	WhenBefore     WhenOption = "before"
	WhenBetween    WhenOption = "between"
)

// WarningType tags the blocking warning produced by validation.
type WarningType string

const (
	WarningNegative WarningType = "negative"
	WarningNoBase   WarningType = "no_base"
)

// AnyEvent is the catch-all event used by synthesized base conditions.
const AnyEvent = "Any Event"

// Condition is a single behavioral predicate. N and Days stay textual so an
// uncommitted input can be represented.
type Condition struct {
	ID           string      `json:"id" yaml:"id"`
	Type         PerformType `json:"type" yaml:"type"`
	Event        string      `json:"event" yaml:"event"`
	Operator     Operator    `json:"operator" yaml:"operator"`
	N            string      `json:"n" yaml:"n"`
	When         WhenOption  `json:"when" yaml:"when"`
	Days         string      `json:"days" yaml:"days"`
	IncludeToday bool        `json:"include_today" yaml:"include_today"`
	IsAutoAdded  bool        `json:"is_auto_added,omitempty" yaml:"is_auto_added,omitempty"`
}

// ConditionGroup is an OR-list of conditions occupying one AND slot.
type ConditionGroup struct {
	ID         string      `json:"id" yaml:"id"`
	Conditions []Condition `json:"conditions" yaml:"conditions"`
}

// WarningState is the single blocking warning for a condition set.
type WarningState struct {
	Type    WarningType `json:"type"`
	Message string      `json:"message"`
}

// Identifier is an exportable user identifier kind.
type Identifier struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	HasInfo bool   `json:"has_info"`
}

// Option pairs a wire value with its display label.
type Option[T ~string] struct {
	Value T      `json:"value"`
	Label string `json:"label"`
}

// Operators lists the operators in display order.
var Operators = []Option[Operator]{
	{Value: OpEq, Label: "equals"},
	{Value: OpGte, Label: "more than or equals"},
	{Value: OpGt, Label: "more than"},
	{Value: OpLte, Label: "less than or equals"},
	{Value: OpLt, Label: "less than"},
}

// WhenOptions lists the time window qualifiers in display order.
var WhenOptions = []Option[WhenOption]{
	{Value: WhenDuringLast, Label: "during last"},
	{Value: WhenAfter, Label: "after"},
	{Value: WhenBefore, Label: "before"},
	{Value: WhenBetween, Label: "between"},
}

var defaultIdentifiers = []Identifier{
	{ID: "abid", Label: "Airbridge Device ID", HasInfo: true},
	{ID: "gaid", Label: "GAID"},
	{ID: "appset", Label: "App Set ID"},
	{ID: "idfa", Label: "IDFA"},
	{ID: "idfv", Label: "IDFV"},
	{ID: "userid", Label: "User ID", HasInfo: true},
	{ID: "hashed_userid", Label: "Hashed User ID", HasInfo: true},
	{ID: "hashed_email", Label: "Hashed User Email", HasInfo: true},
	{ID: "hashed_phone", Label: "Hashed User Phone", HasInfo: true},
}

var defaultSelectedIdentifiers = []string{"abid", "gaid", "appset"}

// DefaultIdentifiers returns a copy of the identifier catalog.
func DefaultIdentifiers() []Identifier {
	return append([]Identifier{}, defaultIdentifiers...)
}

// DefaultSelectedIdentifiers returns the identifiers selected when a builder opens.
func DefaultSelectedIdentifiers() []string {
	return append([]string{}, defaultSelectedIdentifiers...)
}

// OperatorLabel returns the display label for op, or op itself when unknown.
func OperatorLabel(op Operator) string {
	for _, o := range Operators {
		if o.Value == op {
			return o.Label
		}
	}
	return string(op)
}

// WhenLabel returns the display label for when.
func WhenLabel(when WhenOption) string {
	for _, o := range WhenOptions {
		if o.Value == when {
			return o.Label
		}
	}
	return string(when)
}

func knownIdentifier(id string) bool {
	for _, ident := range defaultIdentifiers {
		if ident.ID == id {
			return true
		}
	}
	return false
}
