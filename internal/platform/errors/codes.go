// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Dice errors
	CodeDiceMissing     Code = "DICE_MISSING"
	CodeDiceInvalidSpec Code = "DICE_INVALID_SPEC"

	// Flow precondition errors
	CodeFlowSourceMissing       Code = "FLOW_SOURCE_MISSING"
	CodeFlowInvalidTechAttacker Code = "FLOW_INVALID_TECH_ATTACKER"
	CodeFlowFeatureNotCharged   Code = "FLOW_FEATURE_NOT_CHARGED"
	CodeFlowItemNotInvokable    Code = "FLOW_ITEM_NOT_INVOKABLE"
	CodeFlowTargetsChanged      Code = "FLOW_TARGETS_CHANGED"
	CodeFlowTargetMissing       Code = "FLOW_TARGET_MISSING"
	CodeFlowEditInvalid         Code = "FLOW_EDIT_INVALID"

	// Flow computation errors
	CodeFlowAccDiffInvalid Code = "FLOW_ACCDIFF_INVALID"

	// Invocation errors
	CodeInvocationMalformed       Code = "INVOCATION_MALFORMED"
	CodeInvocationShape           Code = "INVOCATION_SHAPE"
	CodeInvocationUnknownFunction Code = "INVOCATION_UNKNOWN_FUNCTION"
)

// GRPCCode maps domain codes to gRPC status codes. Transports without gRPC
// (HTTP, MCP) still use it to classify failures consistently.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - malformed input
	case CodeDiceMissing,
		CodeDiceInvalidSpec,
		CodeFlowAccDiffInvalid,
		CodeFlowEditInvalid,
		CodeInvocationMalformed,
		CodeInvocationShape:
		return codes.InvalidArgument

	// FailedPrecondition - document state doesn't allow the flow
	case CodeFlowInvalidTechAttacker,
		CodeFlowFeatureNotCharged,
		CodeFlowItemNotInvokable,
		CodeFlowTargetsChanged:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeFlowSourceMissing,
		CodeFlowTargetMissing,
		CodeInvocationUnknownFunction:
		return codes.NotFound

	default:
		return codes.Internal
	}
}
