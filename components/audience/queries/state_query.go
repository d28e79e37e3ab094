package queries

import (
	"context"

	audience "github.com/goliatone/go-audience/components/audience"
	gocommand "github.com/goliatone/go-command"
)

// StateInput identifies a builder session.
type StateInput struct {
	SessionID string `json:"session_id"`
}

type stateService interface {
	State(ctx context.Context, sessionID string) (audience.SessionState, error)
}

// StateQuery reads the current snapshot of a builder session.
type StateQuery struct {
	service stateService
}

// NewStateQuery builds the query.
func NewStateQuery(service stateService) *StateQuery {
	return &StateQuery{service: service}
}

var _ gocommand.Querier[StateInput, audience.SessionState] = (*StateQuery)(nil)

// Query returns the session snapshot.
func (q *StateQuery) Query(ctx context.Context, input StateInput) (audience.SessionState, error) {
	return q.service.State(ctx, input.SessionID)
}

type catalogService interface {
	Catalog() *audience.EventCatalog
}

// CatalogInput selects the locale of category labels.
type CatalogInput struct {
	Locale string `json:"locale"`
}

// CatalogQuery lists the events conditions may reference.
type CatalogQuery struct {
	service catalogService
}

// NewCatalogQuery builds the query.
func NewCatalogQuery(service catalogService) *CatalogQuery {
	return &CatalogQuery{service: service}
}

var _ gocommand.Querier[CatalogInput, *audience.EventCatalog] = (*CatalogQuery)(nil)

// Query returns the catalog with category labels in the requested locale.
func (q *CatalogQuery) Query(_ context.Context, input CatalogInput) (*audience.EventCatalog, error) {
	return q.service.Catalog().Localized(input.Locale), nil
}
