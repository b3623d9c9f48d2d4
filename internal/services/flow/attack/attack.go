// Package attack turns a flat bonus and negotiated accuracy/difficulty into
// 2d6 roll specifications and rolls them against target defenses.
package attack

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/louisbranch/lancerflow/internal/core/check"
	"github.com/louisbranch/lancerflow/internal/core/dice"
	"github.com/louisbranch/lancerflow/internal/services/flow/accdiff"
	"github.com/louisbranch/lancerflow/internal/systems/lancer"
)

// ErrInvalidAccDiff indicates the accuracy/difficulty state cannot be rolled.
var ErrInvalidAccDiff = errors.New("attack rolls: invalid accuracy/difficulty")

// AttackDice is the pair of d6 every attack roll uses.
var AttackDice = dice.Spec{Sides: 6, Count: 2}

// RollSpec is one pending attack roll. Target is nil for an unconditional roll.
type RollSpec struct {
	Target      *accdiff.TargetRef `json:"target,omitempty"`
	FlatBonus   int                `json:"flat_bonus"`
	NetModifier int                `json:"net_modifier"`
	Dice        dice.Spec          `json:"dice"`
}

// Formula renders the spec as dice notation, e.g. "2d6+2-1".
func (s RollSpec) Formula() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%dd%d", s.Dice.Count, s.Dice.Sides)
	writeSigned(&b, s.FlatBonus)
	writeSigned(&b, s.NetModifier)
	return b.String()
}

func writeSigned(b *strings.Builder, n int) {
	if n == 0 {
		return
	}
	if n > 0 {
		b.WriteByte('+')
	}
	b.WriteString(strconv.Itoa(n))
}

// AttackRolls returns one spec per target, or a single unconditional spec when
// there are no targets.
func AttackRolls(flatBonus int, ad accdiff.AccDiff) ([]RollSpec, error) {
	if err := ad.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccDiff, err)
	}
	if len(ad.Targets) == 0 {
		return []RollSpec{{
			FlatBonus:   flatBonus,
			NetModifier: ad.NetModifierFor(nil),
			Dice:        AttackDice,
		}}, nil
	}
	specs := make([]RollSpec, 0, len(ad.Targets))
	for _, target := range ad.Targets {
		ref := target.Ref
		specs = append(specs, RollSpec{
			Target:      &ref,
			FlatBonus:   flatBonus,
			NetModifier: ad.NetModifierFor(&ref),
			Dice:        AttackDice,
		})
	}
	return specs, nil
}

// Outcome is the result of rolling one RollSpec.
type Outcome struct {
	Target      *accdiff.TargetRef `json:"target,omitempty"`
	FlatBonus   int                `json:"flat_bonus"`
	NetModifier int                `json:"net_modifier"`
	Formula     string             `json:"formula"`
	Dice        dice.Roll          `json:"dice"`
	Total       int                `json:"total"`
	Defense     int                `json:"defense"`
	Hit         bool               `json:"hit"`
	Margin      int                `json:"margin"`
}

// Doubles reports whether both d6 show the same face, the signal downstream
// rules use for critical effects.
func (o Outcome) Doubles() bool {
	faces := o.Dice.Results
	return len(faces) == 2 && faces[0] == faces[1]
}

// Roller rolls specs with an injected dice source.
type Roller struct {
	Source dice.Source
}

// Roll draws the dice for spec and checks the total against the target's
// E-Defense for tech attacks or Evasion otherwise. Unconditional rolls never hit.
func (r Roller) Roll(spec RollSpec, attackType lancer.AttackType) (Outcome, error) {
	if r.Source == nil {
		return Outcome{}, errors.New("attack roller: dice source is required")
	}
	result, err := dice.RollWithSource(r.Source, []dice.Spec{spec.Dice})
	if err != nil {
		return Outcome{}, err
	}
	outcome := Outcome{
		Target:      spec.Target,
		FlatBonus:   spec.FlatBonus,
		NetModifier: spec.NetModifier,
		Formula:     spec.Formula(),
		Dice:        result.Rolls[0],
		Total:       result.Total + spec.FlatBonus + spec.NetModifier,
	}
	if spec.Target == nil {
		return outcome, nil
	}
	outcome.Defense = spec.Target.Evasion
	if attackType.IsTech() {
		outcome.Defense = spec.Target.EDefense
	}
	res := check.Against(outcome.Total, outcome.Defense)
	outcome.Hit = res.Hit
	outcome.Margin = res.Margin
	return outcome, nil
}

// RollAll rolls every spec in order.
func (r Roller) RollAll(specs []RollSpec, attackType lancer.AttackType) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(specs))
	for _, spec := range specs {
		outcome, err := r.Roll(spec, attackType)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}
