package tech

import (
	apperrors "github.com/louisbranch/lancerflow/internal/platform/errors"
	"github.com/louisbranch/lancerflow/internal/services/flow/accdiff"
	"github.com/louisbranch/lancerflow/internal/services/flow/attack"
	"github.com/louisbranch/lancerflow/internal/systems/lancer"
)

// State is a step of the flow state machine.
type State string

const (
	StateResolvingSource    State = "resolving_source"
	StateBuildingParameters State = "building_parameters"
	StateNegotiating        State = "negotiating"
	StateConsumingResource  State = "consuming_resource"
	StateComputing          State = "computing"
	StateRendering          State = "rendering"
	StateDone               State = "done"
	StateAborted            State = "aborted"
)

// Speaker is the actor a rendered card is attributed to.
type Speaker struct {
	ActorUUID string `json:"actor_uuid"`
	Name      string `json:"name"`
}

// AttackRollParameters is everything a roll needs once the source has been
// resolved. It travels whole inside the reroll token.
type AttackRollParameters struct {
	Title      string            `json:"title"`
	AttackType lancer.AttackType `json:"attack_type"`
	FlatBonus  int               `json:"flat_bonus"`
	Tags       []lancer.Tag      `json:"tags"`
	Effect     string            `json:"effect,omitempty"`
	Speaker    Speaker           `json:"speaker"`
	AccDiff    accdiff.AccDiff   `json:"acc_diff"`
}

// Payload is the data handed to the Renderer.
type Payload struct {
	Title            string            `json:"title"`
	AttackType       lancer.AttackType `json:"attack_type"`
	Effect           string            `json:"effect,omitempty"`
	Tags             []lancer.Tag      `json:"tags"`
	Outcomes         []attack.Outcome  `json:"outcomes"`
	RerollInvocation string            `json:"reroll_invocation"`
}

// AbortKind classifies why a flow stopped early.
type AbortKind string

const (
	// AbortUser is a silent operator cancellation.
	AbortUser AbortKind = "user"
	// AbortPrecondition means the source cannot drive this flow.
	AbortPrecondition AbortKind = "precondition"
	// AbortComputation means the negotiated state could not be rolled.
	AbortComputation AbortKind = "computation"
)

// Abort records where and why a flow stopped.
type Abort struct {
	Kind   AbortKind      `json:"kind"`
	At     State          `json:"at"`
	Code   apperrors.Code `json:"code,omitempty"`
	Reason string         `json:"reason,omitempty"`
}

// NoticeLevel is the severity of a Notice.
type NoticeLevel string

const (
	NoticeWarn  NoticeLevel = "warn"
	NoticeError NoticeLevel = "error"
)

// Notice is a localized message for the operator.
type Notice struct {
	Level   NoticeLevel    `json:"level"`
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
}

// Result summarizes one flow execution.
type Result struct {
	FlowID   string                `json:"flow_id"`
	State    State                 `json:"state"`
	Trace    []State               `json:"trace"`
	Params   *AttackRollParameters `json:"params,omitempty"`
	Outcomes []attack.Outcome      `json:"outcomes,omitempty"`
	Payload  *Payload              `json:"payload,omitempty"`
	Rendered string                `json:"rendered,omitempty"`
	Notice   *Notice               `json:"notice,omitempty"`
	Abort    *Abort                `json:"abort,omitempty"`
}

// Done reports whether the flow reached Done.
func (r Result) Done() bool { return r.State == StateDone }
