package audience

import (
	core "github.com/goliatone/go-audience/components/audience"
	"github.com/goliatone/go-audience/components/audience/commands"
	"github.com/goliatone/go-audience/components/audience/httpapi"
	"github.com/goliatone/go-audience/components/audience/queries"
)

// Service exposes the underlying components/audience.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

// State re-export for convenience.
type State = core.State

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}

// NewHandlers wires every command and query of service into an httpapi.Handlers
// bundle usable by both the net/http and go-router transports.
func NewHandlers(service *Service, telemetry commands.Telemetry) *httpapi.Handlers {
	return &httpapi.Handlers{
		Open:             commands.NewOpenSessionCommand(service, telemetry),
		Close:            commands.NewCloseSessionCommand(service, telemetry),
		AddGroup:         commands.NewAddGroupCommand(service, telemetry),
		UpdateGroup:      commands.NewUpdateGroupCommand(service, telemetry),
		RemoveGroup:      commands.NewRemoveGroupCommand(service, telemetry),
		AddCondition:     commands.NewAddConditionCommand(service, telemetry),
		UpdateCondition:  commands.NewUpdateConditionCommand(service, telemetry),
		RemoveCondition:  commands.NewRemoveConditionCommand(service, telemetry),
		ToggleIdentifier: commands.NewToggleIdentifierCommand(service, telemetry),
		SetLocale:        commands.NewSetLocaleCommand(service, telemetry),
		State:            queries.NewStateQuery(service),
		Evaluate:         queries.NewEvaluateQuery(service),
		Interpret:        queries.NewInterpretQuery(),
		Catalog:          queries.NewCatalogQuery(service),
		Validator:        service.Validator(),
	}
}
