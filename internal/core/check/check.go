// Package check resolves attack totals against defense scores.
package check

// Hits reports whether total reaches defense. Ties go to the attacker.
func Hits(total, defense int) bool {
	return total >= defense
}

// Margin is total minus defense; negative values are misses.
func Margin(total, defense int) int {
	return total - defense
}

// Result represents the outcome of one attack against one defense.
type Result struct {
	Hit    bool `json:"hit"`
	Margin int  `json:"margin"`
}

// Against compares total to defense.
func Against(total, defense int) Result {
	return Result{
		Hit:    Hits(total, defense),
		Margin: Margin(total, defense),
	}
}
