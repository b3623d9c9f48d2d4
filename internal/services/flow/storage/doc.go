// Package storage defines the document persistence contracts behind the
// attack flows.
//
// Actors and items are stored as whole JSON documents. Flows read them
// through tech.Resolver and mutate them only through dot-path patches, which
// keeps the flow independent of the document schema beyond the fields it
// reads.
package storage
