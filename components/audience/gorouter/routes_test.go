package gorouter

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audience "github.com/goliatone/go-audience/components/audience"
	"github.com/goliatone/go-audience/components/audience/commands"
	"github.com/goliatone/go-audience/components/audience/httpapi"
	"github.com/goliatone/go-audience/components/audience/queries"
)

func TestRegisterValidatesConfig(t *testing.T) {
	err := Register(Config[struct{}]{})
	assert.Error(t, err)
}

func TestCheckHandlersListsMissing(t *testing.T) {
	err := checkHandlers(&httpapi.Handlers{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open")
	assert.Contains(t, err.Error(), "queries")
	assert.NoError(t, checkHandlers(newHandlers(audience.NewService(audience.Options{}))))
}

func TestDefaultRouteConfigKeepsOverrides(t *testing.T) {
	routes := defaultRouteConfig(RouteConfig{Evaluate: "/segments/evaluate"})
	assert.Equal(t, "/segments/evaluate", routes.Evaluate)
	assert.Equal(t, "/audience/sessions/:session", routes.Session)
	assert.Equal(t, "/audience/sessions/:session/groups/:group/conditions/:condition", routes.Condition)
	assert.Equal(t, "/audience/sessions/:session/locale", routes.Locale)
	assert.Equal(t, "/api", DefaultBasePath)
}

func TestGroupAndLocaleHandlers(t *testing.T) {
	service := audience.NewService(audience.Options{Estimator: audience.FixedEstimator(10)})
	api := newHandlers(service)

	ctx := newMockContext()
	require.NoError(t, openSession(api)(ctx))
	var opened audience.SessionState
	require.NoError(t, json.Unmarshal(ctx.body, &opened))

	ctx = newMockContext()
	ctx.params["session"] = opened.SessionID
	require.NoError(t, addGroup(api)(ctx))
	var added audience.SessionState
	require.NoError(t, json.Unmarshal(ctx.body, &added))
	groupID := added.Groups[0].ID

	ctx = newMockContext()
	ctx.params["session"] = opened.SessionID
	ctx.params["group"] = "0"
	ctx.request = []byte(`{"id":"auto","conditions":[{"type":"performed","event":"Purchase","operator":"eq","n":"0","when":"during_last","days":"30"},{"type":"performed","event":"Search","operator":"gte","n":"1","when":"during_last","days":"30"}]}`)
	require.NoError(t, updateGroup(api)(ctx))
	require.Equal(t, http.StatusOK, ctx.status)
	var state audience.SessionState
	require.NoError(t, json.Unmarshal(ctx.body, &state))
	assert.Equal(t, groupID, state.Groups[0].ID)
	require.NotNil(t, state.Warning)
	assert.Equal(t, audience.WarningNoBase, state.Warning.Type)

	ctx = newMockContext()
	ctx.params["session"] = opened.SessionID
	ctx.request = []byte(`{"locale":"ko"}`)
	require.NoError(t, setLocale(api)(ctx))
	require.Equal(t, http.StatusOK, ctx.status)
	require.NoError(t, json.Unmarshal(ctx.body, &state))
	assert.Equal(t, audience.PhrasebookFor("ko").ZeroExactly, state.Warning.Message)

	ctx = newMockContext()
	ctx.params["session"] = opened.SessionID
	ctx.params["group"] = "0"
	ctx.params["condition"] = "0"
	ctx.request = []byte(`{"type":"performed","event":"Purchase","operator":"approximately","n":"1","when":"during_last"}`)
	require.NoError(t, updateCondition(api)(ctx))
	assert.Equal(t, http.StatusUnprocessableEntity, ctx.status)

	ctx = newMockContext()
	ctx.params["session"] = opened.SessionID
	ctx.params["group"] = "0"
	ctx.params["condition"] = "0"
	ctx.request = []byte(`{`)
	require.NoError(t, updateCondition(api)(ctx))
	assert.Equal(t, http.StatusBadRequest, ctx.status)

	ctx = newMockContext()
	ctx.params["session"] = opened.SessionID
	ctx.params["group"] = "7"
	ctx.request = []byte(`{"conditions":[{"type":"performed","event":"Search","operator":"gte","n":"1","when":"during_last"}]}`)
	require.NoError(t, updateGroup(api)(ctx))
	assert.Equal(t, http.StatusBadRequest, ctx.status)
}

func TestCatalogHandlerLocale(t *testing.T) {
	api := newHandlers(audience.NewService(audience.Options{}))
	ctx := newMockContext()
	ctx.query["locale"] = "ko-KR"
	require.NoError(t, catalog(api)(ctx))
	require.Equal(t, http.StatusOK, ctx.status)
	var result audience.EventCatalog
	require.NoError(t, json.Unmarshal(ctx.body, &result))
	assert.Equal(t, "앱 표준 이벤트", result.Categories[0].Label)
}

func TestBuilderFlowThroughHandlers(t *testing.T) {
	service := audience.NewService(audience.Options{Estimator: audience.FixedEstimator(777)})
	api := newHandlers(service)

	ctx := newMockContext()
	require.NoError(t, openSession(api)(ctx))
	require.Equal(t, http.StatusCreated, ctx.status)
	var opened audience.SessionState
	require.NoError(t, json.Unmarshal(ctx.body, &opened))
	require.NotEmpty(t, opened.SessionID)

	ctx = newMockContext()
	ctx.params["session"] = opened.SessionID
	ctx.request = []byte(`{"type":"didnt"}`)
	require.NoError(t, addGroup(api)(ctx))
	require.Equal(t, http.StatusCreated, ctx.status)

	ctx = newMockContext()
	ctx.params["session"] = opened.SessionID
	ctx.params["group"] = "0"
	ctx.params["condition"] = "0"
	ctx.request = []byte(`{"type":"didnt","event":"Purchase","operator":"gte","n":"1","when":"before","days":"14"}`)
	require.NoError(t, updateCondition(api)(ctx))
	require.Equal(t, http.StatusOK, ctx.status)

	var state audience.SessionState
	require.NoError(t, json.Unmarshal(ctx.body, &state))
	require.NotNil(t, state.AutoAddedCondition)
	assert.Equal(t, audience.WhenBefore, state.AutoAddedCondition.When)
	assert.Equal(t, "14", state.AutoAddedCondition.Days)
	require.NotNil(t, state.EstimatedUsers)
	assert.Equal(t, 777, *state.EstimatedUsers)

	ctx = newMockContext()
	ctx.params["session"] = opened.SessionID
	ctx.params["group"] = "zero"
	require.NoError(t, removeGroup(api)(ctx))
	assert.Equal(t, http.StatusBadRequest, ctx.status)

	ctx = newMockContext()
	ctx.params["session"] = opened.SessionID
	ctx.params["group"] = "0"
	ctx.params["condition"] = "0"
	require.NoError(t, removeCondition(api)(ctx))
	require.Equal(t, http.StatusOK, ctx.status)
	require.NoError(t, json.Unmarshal(ctx.body, &state))
	assert.Equal(t, audience.PhaseEmpty, state.Phase)
	assert.Nil(t, state.AutoAddedCondition)

	ctx = newMockContext()
	ctx.params["session"] = opened.SessionID
	require.NoError(t, closeSession(api)(ctx))
	assert.Equal(t, http.StatusOK, ctx.status)

	ctx = newMockContext()
	ctx.params["session"] = opened.SessionID
	require.NoError(t, sessionState(api)(ctx))
	assert.Equal(t, http.StatusNotFound, ctx.status)
}

func TestInterpretHandler(t *testing.T) {
	api := newHandlers(audience.NewService(audience.Options{}))
	ctx := newMockContext()
	ctx.request = []byte(`{"type":"didnt","operator":"lt","n":"3","event":"Search"}`)
	require.NoError(t, interpret(api)(ctx))
	require.Equal(t, http.StatusOK, ctx.status)
	var result queries.Interpretation
	require.NoError(t, json.Unmarshal(ctx.body, &result))
	assert.Equal(t, "performed Search at least 3 times", result.Text)
}

func newHandlers(service *audience.Service) *httpapi.Handlers {
	return &httpapi.Handlers{
		Open:             commands.NewOpenSessionCommand(service, nil),
		Close:            commands.NewCloseSessionCommand(service, nil),
		AddGroup:         commands.NewAddGroupCommand(service, nil),
		UpdateGroup:      commands.NewUpdateGroupCommand(service, nil),
		RemoveGroup:      commands.NewRemoveGroupCommand(service, nil),
		AddCondition:     commands.NewAddConditionCommand(service, nil),
		UpdateCondition:  commands.NewUpdateConditionCommand(service, nil),
		RemoveCondition:  commands.NewRemoveConditionCommand(service, nil),
		ToggleIdentifier: commands.NewToggleIdentifierCommand(service, nil),
		SetLocale:        commands.NewSetLocaleCommand(service, nil),
		State:            queries.NewStateQuery(service),
		Evaluate:         queries.NewEvaluateQuery(service),
		Interpret:        queries.NewInterpretQuery(),
		Catalog:          queries.NewCatalogQuery(service),
		Validator:        service.Validator(),
	}
}

type mockContext struct {
	ctx     context.Context
	request []byte
	body    []byte
	params  map[string]string
	query   map[string]string
	status  int
}

func newMockContext() *mockContext {
	return &mockContext{
		ctx:    context.Background(),
		params: map[string]string{},
		query:  map[string]string{},
	}
}

func (m *mockContext) Context() context.Context {
	return m.ctx
}

func (m *mockContext) Body() []byte { return m.request }

func (m *mockContext) Param(name string, defaultValue ...string) string {
	if v, ok := m.params[name]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *mockContext) Query(name string, defaultValue ...string) string {
	if v, ok := m.query[name]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *mockContext) JSON(code int, v any) error {
	m.status = code
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.body = data
	return nil
}
