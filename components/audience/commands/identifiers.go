package commands

import (
	"context"
	"errors"

	audience "github.com/goliatone/go-audience/components/audience"
	gocommand "github.com/goliatone/go-command"
)

type identifierService interface {
	ToggleIdentifier(ctx context.Context, req audience.ToggleIdentifierRequest) (audience.SessionState, error)
}

// ToggleIdentifierCommand flips an export identifier selection.
type ToggleIdentifierCommand struct {
	service   identifierService
	telemetry Telemetry
}

// NewToggleIdentifierCommand creates a command instance.
func NewToggleIdentifierCommand(service identifierService, telemetry Telemetry) *ToggleIdentifierCommand {
	return &ToggleIdentifierCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[audience.ToggleIdentifierRequest] = (*ToggleIdentifierCommand)(nil)

// Execute toggles the identifier.
func (c *ToggleIdentifierCommand) Execute(ctx context.Context, msg audience.ToggleIdentifierRequest) error {
	if c.service == nil {
		return errors.New("toggle identifier command requires service")
	}
	state, err := c.service.ToggleIdentifier(ctx, msg)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "audience.command.identifier.toggle", map[string]any{
		"session_id": msg.SessionID,
		"identifier": msg.IdentifierID,
		"selected":   len(state.SelectedIdentifiers),
	})
	return nil
}
