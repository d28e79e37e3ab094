package audience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownEvent     = errors.New("audience: event is not in the catalog")
	ErrMissingSessionID = errors.New("audience: session id is required")
)

// Options configures the audience Service. Every collaborator is provided via
// interface so applications can swap implementations.
type Options struct {
	Sessions  SessionStore
	Estimator Estimator
	Telemetry Telemetry
	Catalog   *EventCatalog
	Validator PayloadValidator
	Clock     func() time.Time
	Locale    string
}

// Service hosts builder sessions and the stateless evaluation endpoint.
type Service struct {
	opts Options
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.Sessions == nil {
		opts.Sessions = NewCacheSessionStore(30*time.Minute, 10*time.Minute)
	}
	if opts.Estimator == nil {
		opts.Estimator = NewRandomEstimator(defaultEstimateMin, defaultEstimateSpan, 0)
	}
	if opts.Catalog == nil {
		opts.Catalog = DefaultEventCatalog()
	}
	if opts.Validator == nil {
		opts.Validator = NewJSONSchemaValidator()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Locale == "" {
		opts.Locale = DefaultLocale
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	return &Service{opts: opts}
}

// SessionState is a builder snapshot tagged with its session.
type SessionState struct {
	SessionID string `json:"session_id"`
	State
}

// OpenRequest starts a builder session.
type OpenRequest struct {
	SessionID string `json:"session_id"`
	Locale    string `json:"locale"`
}

// AddGroupRequest appends a group holding one empty condition.
type AddGroupRequest struct {
	SessionID string      `json:"session_id"`
	Type      PerformType `json:"type"`
}

// RemoveGroupRequest removes a group by position.
type RemoveGroupRequest struct {
	SessionID  string `json:"session_id"`
	GroupIndex int    `json:"group_index"`
}

// AddConditionRequest OR-s a new empty condition into a group.
type AddConditionRequest struct {
	SessionID  string      `json:"session_id"`
	GroupIndex int         `json:"group_index"`
	Type       PerformType `json:"type"`
}

// UpdateConditionRequest replaces one condition.
type UpdateConditionRequest struct {
	SessionID      string    `json:"session_id"`
	GroupIndex     int       `json:"group_index"`
	ConditionIndex int       `json:"condition_index"`
	Condition      Condition `json:"condition"`
}

// UpdateGroupRequest replaces a whole group, typically after its OR-list was
// edited in place.
type UpdateGroupRequest struct {
	SessionID  string         `json:"session_id"`
	GroupIndex int            `json:"group_index"`
	Group      ConditionGroup `json:"group"`
}

// SetLocaleRequest switches the language of a session's warnings and summary.
type SetLocaleRequest struct {
	SessionID string `json:"session_id"`
	Locale    string `json:"locale"`
}

// RemoveConditionRequest removes one condition by position.
type RemoveConditionRequest struct {
	SessionID      string `json:"session_id"`
	GroupIndex     int    `json:"group_index"`
	ConditionIndex int    `json:"condition_index"`
}

// ToggleIdentifierRequest flips the selection of an export identifier.
type ToggleIdentifierRequest struct {
	SessionID    string `json:"session_id"`
	IdentifierID string `json:"identifier_id"`
}

// EvaluateRequest runs a full evaluation over a posted condition set.
type EvaluateRequest struct {
	Groups []ConditionGroup `json:"groups"`
	Locale string           `json:"locale"`
}

// Validator returns the payload validator transports run before decoding
// conditions and groups.
func (s *Service) Validator() PayloadValidator {
	return s.opts.Validator
}

// Catalog returns the event catalog conditions are checked against.
func (s *Service) Catalog() *EventCatalog {
	return s.opts.Catalog
}

// Open starts a new builder session, using req.SessionID when the caller
// picked one.
func (s *Service) Open(ctx context.Context, req OpenRequest) (SessionState, error) {
	builder := s.newBuilder(req.Locale)
	session := NewSession(req.SessionID, builder, s.opts.Clock())
	if err := s.opts.Sessions.Create(ctx, session); err != nil {
		return SessionState{}, err
	}
	s.recordTelemetry(ctx, "audience.session.open", map[string]any{"session_id": session.ID})
	return SessionState{SessionID: session.ID, State: builder.State()}, nil
}

// State returns the current snapshot of a session.
func (s *Service) State(ctx context.Context, sessionID string) (SessionState, error) {
	return s.mutate(ctx, sessionID, func(*Builder) error { return nil })
}

// AddGroup appends a group to the session's condition set.
func (s *Service) AddGroup(ctx context.Context, req AddGroupRequest) (SessionState, error) {
	return s.mutate(ctx, req.SessionID, func(b *Builder) error {
		return b.AddGroup(ctx, req.Type)
	})
}

// RemoveGroup removes a group from the session's condition set.
func (s *Service) RemoveGroup(ctx context.Context, req RemoveGroupRequest) (SessionState, error) {
	return s.mutate(ctx, req.SessionID, func(b *Builder) error {
		return b.RemoveGroup(ctx, req.GroupIndex)
	})
}

// UpdateGroup replaces a group after checking every event against the catalog.
func (s *Service) UpdateGroup(ctx context.Context, req UpdateGroupRequest) (SessionState, error) {
	for _, cond := range req.Group.Conditions {
		if err := s.checkEvent(cond.Event); err != nil {
			return SessionState{}, err
		}
	}
	return s.mutate(ctx, req.SessionID, func(b *Builder) error {
		return b.UpdateGroup(ctx, req.GroupIndex, req.Group)
	})
}

// SetLocale changes the session language. An empty locale restores the
// service default.
func (s *Service) SetLocale(ctx context.Context, req SetLocaleRequest) (SessionState, error) {
	locale := req.Locale
	if locale == "" {
		locale = s.opts.Locale
	}
	return s.mutate(ctx, req.SessionID, func(b *Builder) error {
		b.SetLocale(locale)
		return nil
	})
}

// AddCondition OR-s a condition into a group.
func (s *Service) AddCondition(ctx context.Context, req AddConditionRequest) (SessionState, error) {
	return s.mutate(ctx, req.SessionID, func(b *Builder) error {
		return b.AddCondition(ctx, req.GroupIndex, req.Type)
	})
}

// UpdateCondition replaces a condition after checking its event against the catalog.
func (s *Service) UpdateCondition(ctx context.Context, req UpdateConditionRequest) (SessionState, error) {
	if err := s.checkEvent(req.Condition.Event); err != nil {
		return SessionState{}, err
	}
	return s.mutate(ctx, req.SessionID, func(b *Builder) error {
		return b.UpdateCondition(ctx, req.GroupIndex, req.ConditionIndex, req.Condition)
	})
}

// RemoveCondition removes a condition, dropping its group when it was the last one.
func (s *Service) RemoveCondition(ctx context.Context, req RemoveConditionRequest) (SessionState, error) {
	return s.mutate(ctx, req.SessionID, func(b *Builder) error {
		return b.RemoveCondition(ctx, req.GroupIndex, req.ConditionIndex)
	})
}

// ToggleIdentifier flips an export identifier selection.
func (s *Service) ToggleIdentifier(ctx context.Context, req ToggleIdentifierRequest) (SessionState, error) {
	return s.mutate(ctx, req.SessionID, func(b *Builder) error {
		return b.ToggleIdentifier(ctx, req.IdentifierID)
	})
}

// Close discards a session; nothing is persisted.
func (s *Service) Close(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrMissingSessionID
	}
	if _, err := s.opts.Sessions.Get(ctx, sessionID); err != nil {
		return err
	}
	if err := s.opts.Sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "audience.session.close", map[string]any{"session_id": sessionID})
	return nil
}

// Evaluate runs validation, augmentation and estimation over req.Groups
// without keeping any state.
func (s *Service) Evaluate(ctx context.Context, req EvaluateRequest) (State, error) {
	for _, group := range req.Groups {
		for _, cond := range group.Conditions {
			if err := s.checkEvent(cond.Event); err != nil {
				return State{}, err
			}
		}
	}
	builder := s.newBuilder(req.Locale)
	if err := builder.Replace(ctx, req.Groups); err != nil {
		return State{}, err
	}
	state := builder.State()
	s.recordTelemetry(ctx, "audience.evaluate", map[string]any{
		"groups":  len(req.Groups),
		"warning": state.Warning != nil,
	})
	return state, nil
}

// EvaluatePayload validates a raw JSON group list against the condition
// schema before evaluating it.
func (s *Service) EvaluatePayload(ctx context.Context, raw []byte, locale string) (State, error) {
	groups, err := s.opts.Validator.ValidateGroups(raw)
	if err != nil {
		return State{}, err
	}
	return s.Evaluate(ctx, EvaluateRequest{Groups: groups, Locale: locale})
}

func (s *Service) newBuilder(locale string) *Builder {
	if locale == "" {
		locale = s.opts.Locale
	}
	return NewBuilder(BuilderOptions{
		Estimator: s.opts.Estimator,
		Telemetry: s.opts.Telemetry,
		Clock:     s.opts.Clock,
		Locale:    locale,
	})
}

func (s *Service) mutate(ctx context.Context, sessionID string, fn func(*Builder) error) (SessionState, error) {
	if sessionID == "" {
		return SessionState{}, ErrMissingSessionID
	}
	session, err := s.opts.Sessions.Get(ctx, sessionID)
	if err != nil {
		return SessionState{}, err
	}
	var state State
	err = session.Do(func(b *Builder) error {
		if err := fn(b); err != nil {
			return err
		}
		state = b.State()
		return nil
	})
	if err != nil {
		return SessionState{}, err
	}
	return SessionState{SessionID: session.ID, State: state}, nil
}

func (s *Service) checkEvent(event string) error {
	if event == "" || s.opts.Catalog.Contains(event) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownEvent, event)
}

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}
