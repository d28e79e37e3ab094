package commands

import (
	"context"
	"errors"

	audience "github.com/goliatone/go-audience/components/audience"
	gocommand "github.com/goliatone/go-command"
)

type addGroupService interface {
	AddGroup(ctx context.Context, req audience.AddGroupRequest) (audience.SessionState, error)
}

// AddGroupCommand appends an AND-term to a session's condition set.
type AddGroupCommand struct {
	service   addGroupService
	telemetry Telemetry
}

// NewAddGroupCommand creates a command instance.
func NewAddGroupCommand(service addGroupService, telemetry Telemetry) *AddGroupCommand {
	return &AddGroupCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[audience.AddGroupRequest] = (*AddGroupCommand)(nil)

// Execute delegates to the audience service.
func (c *AddGroupCommand) Execute(ctx context.Context, msg audience.AddGroupRequest) error {
	if c.service == nil {
		return errors.New("add group command requires service")
	}
	if msg.Type == "" {
		msg.Type = audience.Performed
	}
	state, err := c.service.AddGroup(ctx, msg)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "audience.command.group.add", map[string]any{
		"session_id": msg.SessionID,
		"type":       string(msg.Type),
		"groups":     len(state.Groups),
	})
	return nil
}

type removeGroupService interface {
	RemoveGroup(ctx context.Context, req audience.RemoveGroupRequest) (audience.SessionState, error)
}

// RemoveGroupCommand deletes a group by position.
type RemoveGroupCommand struct {
	service   removeGroupService
	telemetry Telemetry
}

// NewRemoveGroupCommand creates a command instance.
func NewRemoveGroupCommand(service removeGroupService, telemetry Telemetry) *RemoveGroupCommand {
	return &RemoveGroupCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[audience.RemoveGroupRequest] = (*RemoveGroupCommand)(nil)

// Execute removes the group.
func (c *RemoveGroupCommand) Execute(ctx context.Context, msg audience.RemoveGroupRequest) error {
	if c.service == nil {
		return errors.New("remove group command requires service")
	}
	state, err := c.service.RemoveGroup(ctx, msg)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "audience.command.group.remove", map[string]any{
		"session_id":  msg.SessionID,
		"group_index": msg.GroupIndex,
		"groups":      len(state.Groups),
	})
	return nil
}

type updateGroupService interface {
	UpdateGroup(ctx context.Context, req audience.UpdateGroupRequest) (audience.SessionState, error)
}

// UpdateGroupCommand replaces a group with its edited OR-list.
type UpdateGroupCommand struct {
	service   updateGroupService
	telemetry Telemetry
}

// NewUpdateGroupCommand creates a command instance.
func NewUpdateGroupCommand(service updateGroupService, telemetry Telemetry) *UpdateGroupCommand {
	return &UpdateGroupCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[audience.UpdateGroupRequest] = (*UpdateGroupCommand)(nil)

// Execute replaces the group.
func (c *UpdateGroupCommand) Execute(ctx context.Context, msg audience.UpdateGroupRequest) error {
	if c.service == nil {
		return errors.New("update group command requires service")
	}
	state, err := c.service.UpdateGroup(ctx, msg)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "audience.command.group.update", map[string]any{
		"session_id":  msg.SessionID,
		"group_index": msg.GroupIndex,
		"conditions":  len(msg.Group.Conditions),
		"phase":       string(state.Phase),
	})
	return nil
}
