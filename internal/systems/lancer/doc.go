// Package lancer defines the slice of the Lancer document schema that the
// attack flows read and write: actors, items, tags and item actions.
//
// Documents are stored as JSON. Typed structs cover the fields the flows use;
// ResolveDotPath and ApplyPatch work on the raw JSON so callers can address
// any field by dot path without a schema change.
package lancer
