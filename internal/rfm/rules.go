package rfm

// Rule labels customers whose scores satisfy Match.
type Rule struct {
	Label string
	Match func(r, f, m int) bool
}

// Segment labels.
const (
	Champions         = "Champions"
	Loyal             = "Loyal"
	PotentialLoyalist = "Potential Loyalist"
	AtRisk            = "At Risk"
	Hibernating       = "Hibernating"
	Recent            = "Recent"
	Others            = "Others"
)

// Rules is evaluated top to bottom; the first match wins. The last rule
// matches everything.
var Rules = []Rule{
	{Champions, func(r, f, m int) bool { return r >= 4 && f >= 4 && m >= 4 }},
	{Loyal, func(r, f, m int) bool { return r >= 4 && f >= 3 }},
	{PotentialLoyalist, func(r, f, m int) bool { return r >= 3 && f >= 3 && m >= 3 }},
	{AtRisk, func(r, f, m int) bool { return r <= 2 && f >= 3 && m >= 3 }},
	{Hibernating, func(r, f, m int) bool { return f <= 2 && m <= 2 && r <= 2 }},
	{Recent, func(r, f, m int) bool { return r >= 3 && (f <= 2 || m <= 2) }},
	{Others, func(r, f, m int) bool { return true }},
}

// Classify returns the label of the first rule matching the scores.
func Classify(r, f, m int) string {
	for _, rule := range Rules {
		if rule.Match(r, f, m) {
			return rule.Label
		}
	}
	return Others
}
