// Package mcptools exposes tech attack flows as MCP tools.
package mcptools

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/lancerflow/internal/services/flow/accdiff"
	"github.com/louisbranch/lancerflow/internal/services/flow/app"
	"github.com/louisbranch/lancerflow/internal/services/flow/attack"
	"github.com/louisbranch/lancerflow/internal/services/flow/tech"
)

const (
	serverName    = "lancerflow"
	serverVersion = "0.1.0"
)

// EditInput is an accuracy/difficulty edit.
type EditInput struct {
	Accuracy   int    `json:"accuracy,omitempty" jsonschema:"accuracy bonus dice"`
	Difficulty int    `json:"difficulty,omitempty" jsonschema:"difficulty penalty dice"`
	Cover      string `json:"cover,omitempty" jsonschema:"cover: empty, soft or hard"`
}

// NegotiationInput collects the edits a player would make in the prompt.
type NegotiationInput struct {
	TargetIDs []string             `json:"target_ids,omitempty" jsonschema:"actor ids of the selected targets"`
	Base      *EditInput           `json:"base,omitempty" jsonschema:"edit applied to every target"`
	Targets   map[string]EditInput `json:"targets,omitempty" jsonschema:"edits keyed by target id"`
	Cancel    bool                 `json:"cancel,omitempty" jsonschema:"cancel instead of rolling"`
}

// TechAttackInput is the input of the tech_attack tool.
type TechAttackInput struct {
	SourceID   string `json:"source_id" jsonschema:"actor or item id making the attack"`
	ActionPath string `json:"action_path,omitempty" jsonschema:"dot path of an item action, e.g. system.actions.0"`
	NegotiationInput
}

// RollMacroInput is the input of the roll_macro tool.
type RollMacroInput struct {
	Token string `json:"token" jsonschema:"encoded macro invocation from a card or sheet"`
	NegotiationInput
}

// FlowResult is the output of both tools.
type FlowResult struct {
	FlowID      string           `json:"flow_id" jsonschema:"flow identifier"`
	State       string           `json:"state" jsonschema:"final flow state"`
	Trace       []string         `json:"trace" jsonschema:"states visited in order"`
	Outcomes    []attack.Outcome `json:"outcomes" jsonschema:"one roll per target"`
	RerollToken string           `json:"reroll_token,omitempty" jsonschema:"token that rerolls this attack"`
	Card        string           `json:"card,omitempty" jsonschema:"rendered HTML card"`
	Notices     []tech.Notice    `json:"notices" jsonschema:"notices shown to the operator"`
	Abort       *tech.Abort      `json:"abort,omitempty" jsonschema:"why the flow stopped early"`
}

// TechAttackTool defines the MCP tool schema for tech attacks.
func TechAttackTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "tech_attack",
		Description: "Makes a Lancer tech attack from an actor, NPC feature or mech system",
	}
}

// RollMacroTool defines the MCP tool schema for macro tokens.
func RollMacroTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "roll_macro",
		Description: "Runs an encoded macro invocation, such as a card's reroll token",
	}
}

// TechAttackHandler runs tech_attack against a.
func TechAttackHandler(a *app.App) mcp.ToolHandlerFor[TechAttackInput, FlowResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TechAttackInput) (*mcp.CallToolResult, FlowResult, error) {
		if input.SourceID == "" {
			return nil, FlowResult{}, errors.New("source_id is required")
		}
		req, err := input.request()
		if err != nil {
			return nil, FlowResult{}, err
		}
		resp, err := a.TechAttack(ctx, input.SourceID, input.ActionPath, req)
		if err != nil {
			return nil, FlowResult{}, fmt.Errorf("tech attack: %w", err)
		}
		return nil, flowResult(resp), nil
	}
}

// RollMacroHandler runs roll_macro against a.
func RollMacroHandler(a *app.App) mcp.ToolHandlerFor[RollMacroInput, FlowResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RollMacroInput) (*mcp.CallToolResult, FlowResult, error) {
		req, err := input.request()
		if err != nil {
			return nil, FlowResult{}, err
		}
		resp, err := a.RunMacro(ctx, input.Token, req)
		if err != nil {
			return nil, FlowResult{}, fmt.Errorf("roll macro: %w", err)
		}
		return nil, flowResult(resp), nil
	}
}

// NewServer builds an MCP server with both tools registered.
func NewServer(a *app.App) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	mcp.AddTool(server, TechAttackTool(), TechAttackHandler(a))
	mcp.AddTool(server, RollMacroTool(), RollMacroHandler(a))
	return server
}

// Serve runs the server over stdio until ctx is done.
func Serve(ctx context.Context, a *app.App) error {
	return NewServer(a).Run(ctx, &mcp.StdioTransport{})
}

func (in NegotiationInput) request() (app.Request, error) {
	req := app.Request{TargetIDs: in.TargetIDs, Cancel: in.Cancel}
	if in.Base != nil {
		edit, err := in.Base.edit()
		if err != nil {
			return app.Request{}, fmt.Errorf("base: %w", err)
		}
		req.Base = &edit
	}
	if len(in.Targets) > 0 {
		req.Edits = make(map[string]accdiff.Edit, len(in.Targets))
		for id, input := range in.Targets {
			edit, err := input.edit()
			if err != nil {
				return app.Request{}, fmt.Errorf("target %s: %w", id, err)
			}
			req.Edits[id] = edit
		}
	}
	return req, nil
}

func (in EditInput) edit() (accdiff.Edit, error) {
	edit := accdiff.Edit{Accuracy: in.Accuracy, Difficulty: in.Difficulty, Cover: accdiff.Cover(in.Cover)}
	switch edit.Cover {
	case accdiff.CoverNone, accdiff.CoverSoft, accdiff.CoverHard:
	default:
		return accdiff.Edit{}, fmt.Errorf("unknown cover %q", in.Cover)
	}
	if edit.Accuracy < 0 || edit.Difficulty < 0 {
		return accdiff.Edit{}, errors.New("accuracy and difficulty must not be negative")
	}
	return edit, nil
}

func flowResult(resp app.Response) FlowResult {
	result := resp.Result
	out := FlowResult{
		FlowID:   result.FlowID,
		State:    string(result.State),
		Trace:    make([]string, 0, len(result.Trace)),
		Outcomes: append([]attack.Outcome{}, result.Outcomes...),
		Card:     result.Rendered,
		Notices:  append([]tech.Notice{}, resp.Notices...),
		Abort:    result.Abort,
	}
	for _, state := range result.Trace {
		out.Trace = append(out.Trace, string(state))
	}
	if result.Payload != nil {
		out.RerollToken = result.Payload.RerollInvocation
	}
	return out
}
