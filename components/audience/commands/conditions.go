package commands

import (
	"context"
	"errors"

	audience "github.com/goliatone/go-audience/components/audience"
	gocommand "github.com/goliatone/go-command"
)

type conditionService interface {
	AddCondition(ctx context.Context, req audience.AddConditionRequest) (audience.SessionState, error)
	UpdateCondition(ctx context.Context, req audience.UpdateConditionRequest) (audience.SessionState, error)
	RemoveCondition(ctx context.Context, req audience.RemoveConditionRequest) (audience.SessionState, error)
}

// AddConditionCommand OR-s an empty condition into a group.
type AddConditionCommand struct {
	service   conditionService
	telemetry Telemetry
}

// NewAddConditionCommand creates a command instance.
func NewAddConditionCommand(service conditionService, telemetry Telemetry) *AddConditionCommand {
	return &AddConditionCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[audience.AddConditionRequest] = (*AddConditionCommand)(nil)

// Execute delegates to the audience service.
func (c *AddConditionCommand) Execute(ctx context.Context, msg audience.AddConditionRequest) error {
	if c.service == nil {
		return errors.New("add condition command requires service")
	}
	if msg.Type == "" {
		msg.Type = audience.Performed
	}
	if _, err := c.service.AddCondition(ctx, msg); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "audience.command.condition.add", map[string]any{
		"session_id":  msg.SessionID,
		"group_index": msg.GroupIndex,
		"type":        string(msg.Type),
	})
	return nil
}

// UpdateConditionCommand replaces a condition with the edited value.
type UpdateConditionCommand struct {
	service   conditionService
	telemetry Telemetry
}

// NewUpdateConditionCommand creates a command instance.
func NewUpdateConditionCommand(service conditionService, telemetry Telemetry) *UpdateConditionCommand {
	return &UpdateConditionCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[audience.UpdateConditionRequest] = (*UpdateConditionCommand)(nil)

// Execute delegates to the audience service and reports whether the edit
// blocked the builder.
func (c *UpdateConditionCommand) Execute(ctx context.Context, msg audience.UpdateConditionRequest) error {
	if c.service == nil {
		return errors.New("update condition command requires service")
	}
	state, err := c.service.UpdateCondition(ctx, msg)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "audience.command.condition.update", map[string]any{
		"session_id":      msg.SessionID,
		"group_index":     msg.GroupIndex,
		"condition_index": msg.ConditionIndex,
		"phase":           string(state.Phase),
	})
	return nil
}

// RemoveConditionCommand deletes a condition by position.
type RemoveConditionCommand struct {
	service   conditionService
	telemetry Telemetry
}

// NewRemoveConditionCommand creates a command instance.
func NewRemoveConditionCommand(service conditionService, telemetry Telemetry) *RemoveConditionCommand {
	return &RemoveConditionCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[audience.RemoveConditionRequest] = (*RemoveConditionCommand)(nil)

// Execute removes the condition.
func (c *RemoveConditionCommand) Execute(ctx context.Context, msg audience.RemoveConditionRequest) error {
	if c.service == nil {
		return errors.New("remove condition command requires service")
	}
	if _, err := c.service.RemoveCondition(ctx, msg); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "audience.command.condition.remove", map[string]any{
		"session_id":      msg.SessionID,
		"group_index":     msg.GroupIndex,
		"condition_index": msg.ConditionIndex,
	})
	return nil
}
