// Package render turns tech attack payloads into chat cards and reports
// notices to the operator.
//
// Cards are looked up by template id; the HTML card is a templ component and
// the terminal card uses lipgloss. Both carry the reroll invocation so a
// card can be replayed later.
package render
