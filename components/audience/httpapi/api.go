package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	audience "github.com/goliatone/go-audience/components/audience"
	"github.com/goliatone/go-audience/components/audience/commands"
	"github.com/goliatone/go-audience/components/audience/queries"
	gocommand "github.com/goliatone/go-command"
)

// Handlers exposes HTTP endpoints backed by shared commands and queries.
// Mutating endpoints execute their command and answer with the session state.
type Handlers struct {
	Open             gocommand.Commander[audience.OpenRequest]
	Close            gocommand.Commander[commands.CloseSessionInput]
	AddGroup         gocommand.Commander[audience.AddGroupRequest]
	UpdateGroup      gocommand.Commander[audience.UpdateGroupRequest]
	RemoveGroup      gocommand.Commander[audience.RemoveGroupRequest]
	AddCondition     gocommand.Commander[audience.AddConditionRequest]
	UpdateCondition  gocommand.Commander[audience.UpdateConditionRequest]
	RemoveCondition  gocommand.Commander[audience.RemoveConditionRequest]
	ToggleIdentifier gocommand.Commander[audience.ToggleIdentifierRequest]
	SetLocale        gocommand.Commander[audience.SetLocaleRequest]

	State     gocommand.Querier[queries.StateInput, audience.SessionState]
	Evaluate  gocommand.Querier[queries.EvaluateInput, audience.State]
	Interpret gocommand.Querier[queries.InterpretInput, queries.Interpretation]
	Catalog   gocommand.Querier[queries.CatalogInput, *audience.EventCatalog]

	// Validator checks edited conditions and groups. Nil uses the JSON schema.
	Validator audience.PayloadValidator
}

// DecodeCondition validates and decodes an edited condition body.
func (h *Handlers) DecodeCondition(raw []byte) (audience.Condition, error) {
	return h.validator().ValidateCondition(raw)
}

// DecodeGroup validates and decodes an edited group body.
func (h *Handlers) DecodeGroup(raw []byte) (audience.ConditionGroup, error) {
	return h.validator().ValidateGroup(raw)
}

func (h *Handlers) validator() audience.PayloadValidator {
	if h.Validator == nil {
		h.Validator = audience.NewJSONSchemaValidator()
	}
	return h.Validator
}

// HandleOpen starts a session. The body is optional.
func (h *Handlers) HandleOpen(w http.ResponseWriter, r *http.Request) {
	var payload audience.OpenRequest
	if !decodeOptional(w, r, &payload) {
		return
	}
	if payload.SessionID == "" {
		payload.SessionID = audience.NewSessionID()
	}
	if err := h.Open.Execute(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	h.writeState(w, r, http.StatusCreated, payload.SessionID)
}

func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request, sessionID string) {
	h.writeState(w, r, http.StatusOK, sessionID)
}

func (h *Handlers) HandleClose(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := h.Close.Execute(r.Context(), commands.CloseSessionInput{SessionID: sessionID}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleAddGroup(w http.ResponseWriter, r *http.Request, sessionID string) {
	var payload audience.AddGroupRequest
	if !decodeOptional(w, r, &payload) {
		return
	}
	payload.SessionID = sessionID
	if err := h.AddGroup.Execute(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	h.writeState(w, r, http.StatusCreated, sessionID)
}

func (h *Handlers) HandleRemoveGroup(w http.ResponseWriter, r *http.Request, sessionID string, groupIndex int) {
	input := audience.RemoveGroupRequest{SessionID: sessionID, GroupIndex: groupIndex}
	if err := h.RemoveGroup.Execute(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	h.writeState(w, r, http.StatusOK, sessionID)
}

func (h *Handlers) HandleAddCondition(w http.ResponseWriter, r *http.Request, sessionID string, groupIndex int) {
	var payload audience.AddConditionRequest
	if !decodeOptional(w, r, &payload) {
		return
	}
	payload.SessionID = sessionID
	payload.GroupIndex = groupIndex
	if err := h.AddCondition.Execute(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	h.writeState(w, r, http.StatusCreated, sessionID)
}

// HandleUpdateGroup expects the edited group as the request body.
func (h *Handlers) HandleUpdateGroup(w http.ResponseWriter, r *http.Request, sessionID string, groupIndex int) {
	raw, ok := readBody(w, r)
	if !ok {
		return
	}
	group, err := h.DecodeGroup(raw)
	if err != nil {
		writeError(w, err)
		return
	}
	input := audience.UpdateGroupRequest{SessionID: sessionID, GroupIndex: groupIndex, Group: group}
	if err := h.UpdateGroup.Execute(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	h.writeState(w, r, http.StatusOK, sessionID)
}

// HandleUpdateCondition expects the edited condition as the request body.
func (h *Handlers) HandleUpdateCondition(w http.ResponseWriter, r *http.Request, sessionID string, groupIndex, conditionIndex int) {
	raw, ok := readBody(w, r)
	if !ok {
		return
	}
	cond, err := h.DecodeCondition(raw)
	if err != nil {
		writeError(w, err)
		return
	}
	input := audience.UpdateConditionRequest{
		SessionID:      sessionID,
		GroupIndex:     groupIndex,
		ConditionIndex: conditionIndex,
		Condition:      cond,
	}
	if err := h.UpdateCondition.Execute(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	h.writeState(w, r, http.StatusOK, sessionID)
}

func (h *Handlers) HandleRemoveCondition(w http.ResponseWriter, r *http.Request, sessionID string, groupIndex, conditionIndex int) {
	input := audience.RemoveConditionRequest{SessionID: sessionID, GroupIndex: groupIndex, ConditionIndex: conditionIndex}
	if err := h.RemoveCondition.Execute(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	h.writeState(w, r, http.StatusOK, sessionID)
}

func (h *Handlers) HandleToggleIdentifier(w http.ResponseWriter, r *http.Request, sessionID, identifierID string) {
	input := audience.ToggleIdentifierRequest{SessionID: sessionID, IdentifierID: identifierID}
	if err := h.ToggleIdentifier.Execute(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	h.writeState(w, r, http.StatusOK, sessionID)
}

// HandleSetLocale reads {"locale": "..."} and switches the session language.
func (h *Handlers) HandleSetLocale(w http.ResponseWriter, r *http.Request, sessionID string) {
	var payload audience.SetLocaleRequest
	if !decodeOptional(w, r, &payload) {
		return
	}
	payload.SessionID = sessionID
	if err := h.SetLocale.Execute(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	h.writeState(w, r, http.StatusOK, sessionID)
}

func (h *Handlers) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	var payload queries.EvaluateInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	state, err := h.Evaluate.Query(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// HandleInterpret reads the condition fields and locale from the query string.
func (h *Handlers) HandleInterpret(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := queries.InterpretInput{
		Type:     q.Get("type"),
		Operator: q.Get("operator"),
		N:        q.Get("n"),
		Event:    q.Get("event"),
		When:     q.Get("when"),
		Days:     q.Get("days"),
		Locale:   q.Get("locale"),
	}
	result, err := h.Interpret.Query(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.Catalog.Query(r.Context(), queries.CatalogInput{Locale: r.URL.Query().Get("locale")})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

func (h *Handlers) writeState(w http.ResponseWriter, r *http.Request, status int, sessionID string) {
	state, err := h.State.Query(r.Context(), queries.StateInput{SessionID: sessionID})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, state)
}

// StatusFor maps audience errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, audience.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, audience.ErrSessionExists):
		return http.StatusConflict
	case errors.Is(err, audience.ErrMissingSessionID),
		errors.Is(err, audience.ErrGroupIndex),
		errors.Is(err, audience.ErrConditionIndex):
		return http.StatusBadRequest
	case errors.Is(err, audience.ErrInvalidCondition),
		errors.Is(err, audience.ErrReadOnlyCondition),
		errors.Is(err, audience.ErrEmptyGroup),
		errors.Is(err, audience.ErrUnknownIdentifier),
		errors.Is(err, audience.ErrUnknownEvent):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if r.Body == nil {
		http.Error(w, "request body is required", http.StatusBadRequest)
		return nil, false
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	if !json.Valid(raw) {
		http.Error(w, "request body is not valid JSON", http.StatusBadRequest)
		return nil, false
	}
	return raw, true
}

func decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
