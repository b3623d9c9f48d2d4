package dice

import "math/rand"

// RollDice rolls req.Dice from a source seeded with req.Seed. The same seed
// and specs always give the same Result, with Rolls in spec order.
//
//	result, err := RollDice(Request{Dice: []Spec{{Sides: 6, Count: 2}}, Seed: 1})
func RollDice(req Request) (Result, error) {
	return RollWithSource(rand.New(rand.NewSource(req.Seed)), req.Dice)
}

// RollWithSource rolls specs in order, drawing every die from src. Every spec
// is validated before the first draw so a bad request consumes nothing.
func RollWithSource(src Source, specs []Spec) (Result, error) {
	if len(specs) == 0 {
		return Result{}, ErrMissingDice
	}
	for _, spec := range specs {
		if !spec.valid() {
			return Result{}, ErrInvalidDiceSpec
		}
	}

	result := Result{Rolls: make([]Roll, 0, len(specs))}
	for _, spec := range specs {
		roll := spec.roll(src)
		result.Rolls = append(result.Rolls, roll)
		result.Total += roll.Total
	}
	return result, nil
}

func (s Spec) valid() bool {
	return s.Sides > 0 && s.Count > 0
}

func (s Spec) roll(src Source) Roll {
	roll := Roll{Sides: s.Sides, Results: make([]int, s.Count)}
	for i := range roll.Results {
		face := src.Intn(s.Sides) + 1
		roll.Results[i] = face
		roll.Total += face
	}
	return roll
}
