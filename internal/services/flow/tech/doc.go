// Package tech runs the tech attack flow.
//
// A flow resolves its source document, builds AttackRollParameters, asks a
// Negotiator for accuracy/difficulty edits, spends a recharge charge when the
// source needs one, rolls, and renders a card that carries a reroll token.
// Decoding the token re-enters the flow at negotiation with the same
// parameters and the operator's current targets.
//
//	ResolvingSource -> BuildingParameters -> Negotiating -> (ConsumingResource)
//	    -> Computing -> Rendering -> Done
//
// Aborted is reachable before any side effect is committed. Aborts that the
// operator should hear about are reported through the Notifier; failures of
// the collaborators themselves are returned as errors.
package tech
