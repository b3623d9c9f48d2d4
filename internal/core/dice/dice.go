// Package dice rolls polyhedral dice from a replaceable random source.
package dice

import "errors"

// ErrMissingDice indicates a roll request had no dice specified.
var ErrMissingDice = errors.New("at least one die must be provided")

// ErrInvalidDiceSpec indicates a die specification has invalid fields.
var ErrInvalidDiceSpec = errors.New("dice must have positive sides and count")

// Spec describes a die to roll and how many times to roll it.
type Spec struct {
	Sides int `json:"sides"`
	Count int `json:"count"`
}

// Request describes a seeded request to roll one or more dice.
type Request struct {
	Dice []Spec
	Seed int64
}

// Roll captures the results for a single dice spec. Results keeps every die
// individually so callers can inspect faces (doubles, highest die).
type Roll struct {
	Sides   int   `json:"sides"`
	Results []int `json:"results"`
	Total   int   `json:"total"`
}

// Result captures the results from rolling multiple dice specs.
type Result struct {
	Rolls []Roll `json:"rolls"`
	Total int    `json:"total"`
}
