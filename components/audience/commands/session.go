package commands

import (
	"context"
	"errors"

	audience "github.com/goliatone/go-audience/components/audience"
	gocommand "github.com/goliatone/go-command"
)

type openService interface {
	Open(ctx context.Context, req audience.OpenRequest) (audience.SessionState, error)
}

// OpenSessionCommand starts a builder session. Transports pick the session id
// up front so they can query the new state afterwards.
type OpenSessionCommand struct {
	service   openService
	telemetry Telemetry
}

// NewOpenSessionCommand creates a command instance.
func NewOpenSessionCommand(service openService, telemetry Telemetry) *OpenSessionCommand {
	return &OpenSessionCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[audience.OpenRequest] = (*OpenSessionCommand)(nil)

// Execute opens the session.
func (c *OpenSessionCommand) Execute(ctx context.Context, msg audience.OpenRequest) error {
	if c.service == nil {
		return errors.New("open command requires service")
	}
	state, err := c.service.Open(ctx, msg)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "audience.command.open", map[string]any{
		"session_id": state.SessionID,
		"locale":     msg.Locale,
	})
	return nil
}

// CloseSessionInput identifies the session to discard.
type CloseSessionInput struct {
	SessionID string `json:"session_id"`
}

type closeService interface {
	Close(ctx context.Context, sessionID string) error
}

// CloseSessionCommand discards a builder session.
type CloseSessionCommand struct {
	service   closeService
	telemetry Telemetry
}

// NewCloseSessionCommand creates a command instance.
func NewCloseSessionCommand(service closeService, telemetry Telemetry) *CloseSessionCommand {
	return &CloseSessionCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[CloseSessionInput] = (*CloseSessionCommand)(nil)

// Execute closes the session.
func (c *CloseSessionCommand) Execute(ctx context.Context, msg CloseSessionInput) error {
	if c.service == nil {
		return errors.New("close command requires service")
	}
	if err := c.service.Close(ctx, msg.SessionID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "audience.command.close", map[string]any{"session_id": msg.SessionID})
	return nil
}

type localeService interface {
	SetLocale(ctx context.Context, req audience.SetLocaleRequest) (audience.SessionState, error)
}

// SetLocaleCommand switches the language of a session.
type SetLocaleCommand struct {
	service   localeService
	telemetry Telemetry
}

// NewSetLocaleCommand creates a command instance.
func NewSetLocaleCommand(service localeService, telemetry Telemetry) *SetLocaleCommand {
	return &SetLocaleCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[audience.SetLocaleRequest] = (*SetLocaleCommand)(nil)

// Execute sets the locale.
func (c *SetLocaleCommand) Execute(ctx context.Context, msg audience.SetLocaleRequest) error {
	if c.service == nil {
		return errors.New("set locale command requires service")
	}
	state, err := c.service.SetLocale(ctx, msg)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "audience.command.locale", map[string]any{
		"session_id": msg.SessionID,
		"locale":     state.Summary.Locale,
	})
	return nil
}
