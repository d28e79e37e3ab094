package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audience "github.com/goliatone/go-audience/components/audience"
	"github.com/goliatone/go-audience/components/audience/commands"
	"github.com/goliatone/go-audience/components/audience/queries"
)

type stubCommander[T any] struct {
	last  T
	calls int
	err   error
}

func (s *stubCommander[T]) Execute(ctx context.Context, msg T) error {
	s.last = msg
	s.calls++
	return s.err
}

type stubStateQuerier struct {
	last queries.StateInput
}

func (s *stubStateQuerier) Query(_ context.Context, input queries.StateInput) (audience.SessionState, error) {
	s.last = input
	return audience.SessionState{SessionID: input.SessionID, State: audience.State{Phase: audience.PhaseEditing}}, nil
}

func TestHandleOpenAssignsSessionID(t *testing.T) {
	open := &stubCommander[audience.OpenRequest]{}
	state := &stubStateQuerier{}
	api := &Handlers{Open: open, State: state}
	req := httptest.NewRequest(http.MethodPost, "/audience/sessions", nil)
	rec := httptest.NewRecorder()
	api.HandleOpen(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, open.calls)
	assert.NotEmpty(t, open.last.SessionID)
	assert.Equal(t, open.last.SessionID, state.last.SessionID)
}

func TestHandleAddGroupPropagatesSession(t *testing.T) {
	add := &stubCommander[audience.AddGroupRequest]{}
	api := &Handlers{AddGroup: add, State: &stubStateQuerier{}}
	buf, _ := json.Marshal(map[string]string{"type": "didnt"})
	req := httptest.NewRequest(http.MethodPost, "/audience/sessions/s1/groups", bytes.NewReader(buf))
	rec := httptest.NewRecorder()
	api.HandleAddGroup(rec, req, "s1")

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "s1", add.last.SessionID)
	assert.Equal(t, audience.DidNot, add.last.Type)
}

func TestHandleUpdateConditionRejectsBadJSON(t *testing.T) {
	update := &stubCommander[audience.UpdateConditionRequest]{}
	api := &Handlers{UpdateCondition: update, State: &stubStateQuerier{}}
	req := httptest.NewRequest(http.MethodPost, "/audience/sessions/s1/groups/0/conditions/0", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	api.HandleUpdateCondition(rec, req, "s1", 0, 0)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, update.calls)
}

func TestHandleUpdateConditionValidatesSchema(t *testing.T) {
	update := &stubCommander[audience.UpdateConditionRequest]{}
	api := &Handlers{UpdateCondition: update, State: &stubStateQuerier{}}
	body := `{"type":"performed","event":"Purchase","operator":"approximately","n":"1","when":"during_last"}`
	rec := httptest.NewRecorder()
	api.HandleUpdateCondition(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(body))), "s1", 0, 0)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Zero(t, update.calls)

	body = `{"type":"performed","event":"Purchase","operator":"gte","n":"1","when":"during_last","is_auto_added":true}`
	rec = httptest.NewRecorder()
	api.HandleUpdateCondition(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(body))), "s1", 0, 0)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Zero(t, update.calls)

	body = `{"type":"performed","event":"Purchase","operator":"gte","n":"1","when":"during_last","days":"30"}`
	rec = httptest.NewRecorder()
	api.HandleUpdateCondition(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(body))), "s1", 1, 2)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Purchase", update.last.Condition.Event)
	assert.Equal(t, 1, update.last.GroupIndex)
	assert.Equal(t, 2, update.last.ConditionIndex)
}

func TestHandleUpdateGroup(t *testing.T) {
	update := &stubCommander[audience.UpdateGroupRequest]{}
	api := &Handlers{UpdateGroup: update, State: &stubStateQuerier{}}
	body := `{"conditions":[{"type":"didnt","event":"Purchase","operator":"gte","n":"1","when":"during_last","days":"30"},{"type":"performed","event":"Search","operator":"gt","n":"2","when":"during_last","days":"30"}]}`
	rec := httptest.NewRecorder()
	api.HandleUpdateGroup(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(body))), "s1", 0)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s1", update.last.SessionID)
	assert.Len(t, update.last.Group.Conditions, 2)

	rec = httptest.NewRecorder()
	api.HandleUpdateGroup(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(`{"conditions":[]}`))), "s1", 0)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 1, update.calls)
}

func TestHandleSetLocale(t *testing.T) {
	setLocale := &stubCommander[audience.SetLocaleRequest]{}
	api := &Handlers{SetLocale: setLocale, State: &stubStateQuerier{}}
	rec := httptest.NewRecorder()
	api.HandleSetLocale(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(`{"locale":"ko"}`))), "s1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s1", setLocale.last.SessionID)
	assert.Equal(t, "ko", setLocale.last.Locale)
}

func TestHandleCatalogLocale(t *testing.T) {
	service := audience.NewService(audience.Options{})
	api := &Handlers{Catalog: queries.NewCatalogQuery(service)}
	rec := httptest.NewRecorder()
	api.HandleCatalog(rec, httptest.NewRequest(http.MethodGet, "/audience/catalog?locale=ko", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var catalog audience.EventCatalog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &catalog))
	assert.Equal(t, "커스텀 이벤트", catalog.Categories[1].Label)
}

func TestHandleRemoveConditionMapsErrors(t *testing.T) {
	remove := &stubCommander[audience.RemoveConditionRequest]{err: audience.ErrConditionIndex}
	api := &Handlers{RemoveCondition: remove, State: &stubStateQuerier{}}
	req := httptest.NewRequest(http.MethodDelete, "/audience/sessions/s1/groups/0/conditions/5", nil)
	rec := httptest.NewRecorder()
	api.HandleRemoveCondition(rec, req, "s1", 0, 5)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 5, remove.last.ConditionIndex)
}

func TestHandleClose(t *testing.T) {
	closeCmd := &stubCommander[commands.CloseSessionInput]{}
	api := &Handlers{Close: closeCmd}
	req := httptest.NewRequest(http.MethodDelete, "/audience/sessions/s1", nil)
	rec := httptest.NewRecorder()
	api.HandleClose(rec, req, "s1")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "s1", closeCmd.last.SessionID)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusFor(audience.ErrSessionNotFound))
	assert.Equal(t, http.StatusConflict, StatusFor(audience.ErrSessionExists))
	assert.Equal(t, http.StatusBadRequest, StatusFor(audience.ErrMissingSessionID))
	assert.Equal(t, http.StatusBadRequest, StatusFor(audience.ErrGroupIndex))
	assert.Equal(t, http.StatusBadRequest, StatusFor(fmt.Errorf("wrapped: %w", audience.ErrConditionIndex)))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(audience.ErrInvalidCondition))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(audience.ErrUnknownEvent))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("boom")))
}

func TestHandlersAgainstService(t *testing.T) {
	service := audience.NewService(audience.Options{Estimator: audience.FixedEstimator(5000)})
	api := &Handlers{
		Open:            commands.NewOpenSessionCommand(service, nil),
		AddGroup:        commands.NewAddGroupCommand(service, nil),
		UpdateCondition: commands.NewUpdateConditionCommand(service, nil),
		State:           queries.NewStateQuery(service),
		Evaluate:        queries.NewEvaluateQuery(service),
		Interpret:       queries.NewInterpretQuery(),
	}

	rec := httptest.NewRecorder()
	api.HandleOpen(rec, httptest.NewRequest(http.MethodPost, "/audience/sessions", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	var opened audience.SessionState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opened))
	assert.Equal(t, audience.PhaseEmpty, opened.Phase)

	rec = httptest.NewRecorder()
	api.HandleAddGroup(rec, httptest.NewRequest(http.MethodPost, "/audience/sessions/x/groups", nil), opened.SessionID)
	require.Equal(t, http.StatusCreated, rec.Code)

	cond := audience.Condition{Type: audience.Performed, Event: "Purchase", Operator: audience.OpEq, N: "0", When: audience.WhenDuringLast, Days: "30"}
	buf, _ := json.Marshal(cond)
	rec = httptest.NewRecorder()
	api.HandleUpdateCondition(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(buf)), opened.SessionID, 0, 0)
	require.Equal(t, http.StatusOK, rec.Code)

	var blocked audience.SessionState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &blocked))
	assert.Equal(t, audience.PhaseBlocked, blocked.Phase)
	require.NotNil(t, blocked.Warning)
	assert.Equal(t, audience.WarningNoBase, blocked.Warning.Type)
	require.NotNil(t, blocked.EstimatedUsers)
	assert.Zero(t, *blocked.EstimatedUsers)
	assert.True(t, blocked.IsNextDisabled)

	cond.Event = "Teleport"
	buf, _ = json.Marshal(cond)
	rec = httptest.NewRecorder()
	api.HandleUpdateCondition(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(buf)), opened.SessionID, 0, 0)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	api.HandleInterpret(rec, httptest.NewRequest(http.MethodGet, "/audience/interpret?type=didnt&operator=eq&n=2&event=Search", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var interpretation queries.Interpretation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &interpretation))
	assert.Equal(t, "performed Search a count not equal to 2 (0 or 3 or more)", interpretation.Text)

	body := `{"groups":[{"conditions":[{"type":"performed","event":"Search","operator":"gt","n":"3","when":"during_last","days":"30"}]}]}`
	rec = httptest.NewRecorder()
	api.HandleEvaluate(rec, httptest.NewRequest(http.MethodPost, "/audience/evaluate", bytes.NewReader([]byte(body))))
	require.Equal(t, http.StatusOK, rec.Code)
	var evaluated audience.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &evaluated))
	require.NotNil(t, evaluated.EstimatedUsers)
	assert.Equal(t, 5000, *evaluated.EstimatedUsers)
	assert.Nil(t, evaluated.AutoAddedCondition)
}
