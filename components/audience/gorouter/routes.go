package gorouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	router "github.com/goliatone/go-router"

	audience "github.com/goliatone/go-audience/components/audience"
	"github.com/goliatone/go-audience/components/audience/commands"
	"github.com/goliatone/go-audience/components/audience/httpapi"
	"github.com/goliatone/go-audience/components/audience/queries"
)

// DefaultBasePath prefixes every builder route unless Config.BasePath is set.
const DefaultBasePath = "/api"

// Config wires go-router with the audience builder commands and queries.
type Config[T any] struct {
	Router   router.Router[T]
	API      *httpapi.Handlers
	BasePath string
	Routes   RouteConfig
}

// RouteConfig customizes the relative paths used for builder endpoints.
type RouteConfig struct {
	Sessions   string
	Session    string
	Groups     string
	Group      string
	Conditions string
	Condition  string
	Identifier string
	Locale     string
	Evaluate   string
	Interpret  string
	Catalog    string
}

// requestContext is the subset of router.Context the handlers use.
type requestContext interface {
	Context() context.Context
	Body() []byte
	Param(name string, defaultValue ...string) string
	Query(name string, defaultValue ...string) string
	JSON(code int, v any) error
}

type handler func(requestContext) error

// Register mounts the builder REST endpoints on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.API == nil {
		return errors.New("gorouter: api handlers are required")
	}
	if err := checkHandlers(cfg.API); err != nil {
		return err
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := cfg.BasePath
	if base == "" {
		base = DefaultBasePath
	}
	api := cfg.API
	group := cfg.Router.Group(base)

	group.Post(routes.Sessions, wrap(openSession(api)))
	group.Get(routes.Session, wrap(sessionState(api)))
	group.Delete(routes.Session, wrap(closeSession(api)))
	group.Post(routes.Groups, wrap(addGroup(api)))
	group.Post(routes.Group, wrap(updateGroup(api)))
	group.Delete(routes.Group, wrap(removeGroup(api)))
	group.Post(routes.Conditions, wrap(addCondition(api)))
	group.Post(routes.Condition, wrap(updateCondition(api)))
	group.Delete(routes.Condition, wrap(removeCondition(api)))
	group.Post(routes.Identifier, wrap(toggleIdentifier(api)))
	group.Post(routes.Locale, wrap(setLocale(api)))
	group.Post(routes.Evaluate, wrap(evaluate(api)))
	group.Post(routes.Interpret, wrap(interpret(api)))
	group.Get(routes.Catalog, wrap(catalog(api)))
	return nil
}

func wrap(h handler) router.HandlerFunc {
	return router.WrapHandler(func(ctx router.Context) error {
		return h(ctx)
	})
}

func checkHandlers(api *httpapi.Handlers) error {
	missing := []string{}
	if api.Open == nil {
		missing = append(missing, "open")
	}
	if api.Close == nil {
		missing = append(missing, "close")
	}
	if api.AddGroup == nil || api.UpdateGroup == nil || api.RemoveGroup == nil {
		missing = append(missing, "groups")
	}
	if api.AddCondition == nil || api.UpdateCondition == nil || api.RemoveCondition == nil {
		missing = append(missing, "conditions")
	}
	if api.ToggleIdentifier == nil {
		missing = append(missing, "identifiers")
	}
	if api.SetLocale == nil {
		missing = append(missing, "locale")
	}
	if api.State == nil || api.Evaluate == nil || api.Interpret == nil || api.Catalog == nil {
		missing = append(missing, "queries")
	}
	if len(missing) > 0 {
		return fmt.Errorf("gorouter: missing handlers: %s", strings.Join(missing, ", "))
	}
	return nil
}

func openSession(api *httpapi.Handlers) handler {
	return func(ctx requestContext) error {
		var payload audience.OpenRequest
		if body := ctx.Body(); len(body) > 0 {
			if err := json.Unmarshal(body, &payload); err != nil {
				return respondError(ctx, http.StatusBadRequest, err)
			}
		}
		if payload.SessionID == "" {
			payload.SessionID = audience.NewSessionID()
		}
		if err := api.Open.Execute(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return respondState(ctx, api, http.StatusCreated, payload.SessionID)
	}
}

func sessionState(api *httpapi.Handlers) handler {
	return func(ctx requestContext) error {
		return respondState(ctx, api, http.StatusOK, ctx.Param("session"))
	}
}

func closeSession(api *httpapi.Handlers) handler {
	return func(ctx requestContext) error {
		id := ctx.Param("session")
		if err := api.Close.Execute(ctx.Context(), commands.CloseSessionInput{SessionID: id}); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "closed"})
	}
}

func addGroup(api *httpapi.Handlers) handler {
	return func(ctx requestContext) error {
		var payload audience.AddGroupRequest
		if body := ctx.Body(); len(body) > 0 {
			if err := json.Unmarshal(body, &payload); err != nil {
				return respondError(ctx, http.StatusBadRequest, err)
			}
		}
		payload.SessionID = ctx.Param("session")
		if err := api.AddGroup.Execute(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return respondState(ctx, api, http.StatusCreated, payload.SessionID)
	}
}

func updateGroup(api *httpapi.Handlers) handler {
	return func(ctx requestContext) error {
		groupIdx, err := indexParam(ctx, "group")
		if err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		if err := requireJSON(ctx); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		group, err := api.DecodeGroup(ctx.Body())
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		input := audience.UpdateGroupRequest{
			SessionID:  ctx.Param("session"),
			GroupIndex: groupIdx,
			Group:      group,
		}
		if err := api.UpdateGroup.Execute(ctx.Context(), input); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return respondState(ctx, api, http.StatusOK, input.SessionID)
	}
}

func removeGroup(api *httpapi.Handlers) handler {
	return func(ctx requestContext) error {
		groupIdx, err := indexParam(ctx, "group")
		if err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		input := audience.RemoveGroupRequest{SessionID: ctx.Param("session"), GroupIndex: groupIdx}
		if err := api.RemoveGroup.Execute(ctx.Context(), input); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return respondState(ctx, api, http.StatusOK, input.SessionID)
	}
}

func addCondition(api *httpapi.Handlers) handler {
	return func(ctx requestContext) error {
		groupIdx, err := indexParam(ctx, "group")
		if err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		var payload audience.AddConditionRequest
		if body := ctx.Body(); len(body) > 0 {
			if err := json.Unmarshal(body, &payload); err != nil {
				return respondError(ctx, http.StatusBadRequest, err)
			}
		}
		payload.SessionID = ctx.Param("session")
		payload.GroupIndex = groupIdx
		if err := api.AddCondition.Execute(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return respondState(ctx, api, http.StatusCreated, payload.SessionID)
	}
}

func updateCondition(api *httpapi.Handlers) handler {
	return func(ctx requestContext) error {
		groupIdx, err := indexParam(ctx, "group")
		if err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		condIdx, err := indexParam(ctx, "condition")
		if err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		if err := requireJSON(ctx); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		cond, err := api.DecodeCondition(ctx.Body())
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		input := audience.UpdateConditionRequest{
			SessionID:      ctx.Param("session"),
			GroupIndex:     groupIdx,
			ConditionIndex: condIdx,
			Condition:      cond,
		}
		if err := api.UpdateCondition.Execute(ctx.Context(), input); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return respondState(ctx, api, http.StatusOK, input.SessionID)
	}
}

func removeCondition(api *httpapi.Handlers) handler {
	return func(ctx requestContext) error {
		groupIdx, err := indexParam(ctx, "group")
		if err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		condIdx, err := indexParam(ctx, "condition")
		if err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		input := audience.RemoveConditionRequest{
			SessionID:      ctx.Param("session"),
			GroupIndex:     groupIdx,
			ConditionIndex: condIdx,
		}
		if err := api.RemoveCondition.Execute(ctx.Context(), input); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return respondState(ctx, api, http.StatusOK, input.SessionID)
	}
}

func toggleIdentifier(api *httpapi.Handlers) handler {
	return func(ctx requestContext) error {
		input := audience.ToggleIdentifierRequest{
			SessionID:    ctx.Param("session"),
			IdentifierID: ctx.Param("identifier"),
		}
		if err := api.ToggleIdentifier.Execute(ctx.Context(), input); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return respondState(ctx, api, http.StatusOK, input.SessionID)
	}
}

func setLocale(api *httpapi.Handlers) handler {
	return func(ctx requestContext) error {
		var payload audience.SetLocaleRequest
		if body := ctx.Body(); len(body) > 0 {
			if err := json.Unmarshal(body, &payload); err != nil {
				return respondError(ctx, http.StatusBadRequest, err)
			}
		}
		payload.SessionID = ctx.Param("session")
		if err := api.SetLocale.Execute(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return respondState(ctx, api, http.StatusOK, payload.SessionID)
	}
}

func evaluate(api *httpapi.Handlers) handler {
	return func(ctx requestContext) error {
		var payload queries.EvaluateInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		state, err := api.Evaluate.Query(ctx.Context(), payload)
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, state)
	}
}

func interpret(api *httpapi.Handlers) handler {
	return func(ctx requestContext) error {
		var payload queries.InterpretInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		result, err := api.Interpret.Query(ctx.Context(), payload)
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, result)
	}
}

func catalog(api *httpapi.Handlers) handler {
	return func(ctx requestContext) error {
		locale := strings.TrimSpace(ctx.Query("locale"))
		result, err := api.Catalog.Query(ctx.Context(), queries.CatalogInput{Locale: locale})
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, result)
	}
}

func respondState(ctx requestContext, api *httpapi.Handlers, status int, sessionID string) error {
	state, err := api.State.Query(ctx.Context(), queries.StateInput{SessionID: sessionID})
	if err != nil {
		return respondError(ctx, httpapi.StatusFor(err), err)
	}
	return ctx.JSON(status, state)
}

func indexParam(ctx requestContext, name string) (int, error) {
	raw := strings.TrimSpace(ctx.Param(name))
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s index %q is not a number", name, raw)
	}
	return idx, nil
}

func requireJSON(ctx requestContext) error {
	if !json.Valid(ctx.Body()) {
		return errors.New("request body is not valid JSON")
	}
	return nil
}

func respondError(ctx requestContext, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.Sessions == "" {
		routes.Sessions = "/audience/sessions"
	}
	if routes.Session == "" {
		routes.Session = "/audience/sessions/:session"
	}
	if routes.Groups == "" {
		routes.Groups = "/audience/sessions/:session/groups"
	}
	if routes.Group == "" {
		routes.Group = "/audience/sessions/:session/groups/:group"
	}
	if routes.Conditions == "" {
		routes.Conditions = "/audience/sessions/:session/groups/:group/conditions"
	}
	if routes.Condition == "" {
		routes.Condition = "/audience/sessions/:session/groups/:group/conditions/:condition"
	}
	if routes.Identifier == "" {
		routes.Identifier = "/audience/sessions/:session/identifiers/:identifier"
	}
	if routes.Locale == "" {
		routes.Locale = "/audience/sessions/:session/locale"
	}
	if routes.Evaluate == "" {
		routes.Evaluate = "/audience/evaluate"
	}
	if routes.Interpret == "" {
		routes.Interpret = "/audience/interpret"
	}
	if routes.Catalog == "" {
		routes.Catalog = "/audience/catalog"
	}
	return routes
}
