package queries

import (
	"context"
	"encoding/json"

	audience "github.com/goliatone/go-audience/components/audience"
	gocommand "github.com/goliatone/go-command"
)

// EvaluateInput carries a raw group payload. Groups is validated against the
// condition schema before it is decoded.
type EvaluateInput struct {
	Groups json.RawMessage `json:"groups"`
	Locale string          `json:"locale"`
}

type evaluateService interface {
	EvaluatePayload(ctx context.Context, raw []byte, locale string) (audience.State, error)
}

// EvaluateQuery runs a stateless evaluation of a condition set.
type EvaluateQuery struct {
	service evaluateService
}

// NewEvaluateQuery builds the query.
func NewEvaluateQuery(service evaluateService) *EvaluateQuery {
	return &EvaluateQuery{service: service}
}

var _ gocommand.Querier[EvaluateInput, audience.State] = (*EvaluateQuery)(nil)

// Query evaluates the payload.
func (q *EvaluateQuery) Query(ctx context.Context, input EvaluateInput) (audience.State, error) {
	raw := []byte(input.Groups)
	if len(raw) == 0 {
		raw = []byte("[]")
	}
	return q.service.EvaluatePayload(ctx, raw, input.Locale)
}
