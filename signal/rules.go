package signal

import (
	"regexp"
	"sort"
)

// Intent names what a piece of inbound text asks for.
type Intent string

const (
	IntentNone         Intent = ""
	IntentLoanInterest Intent = "loan_interest"
	IntentAccept       Intent = "accept"
	IntentSelectOffer  Intent = "select_offer"
	IntentNegotiate    Intent = "negotiate"
	IntentRequestCode  Intent = "request_code"
)

// Rule maps a pattern to an intent. Higher priorities are evaluated first;
// rules with equal priority keep their declaration order.
type Rule struct {
	Intent   Intent
	Pattern  *regexp.Regexp
	Priority int
}

// Table is an ordered set of rules for one decision point.
type Table struct {
	name  string
	rules []Rule
}

// NewTable builds a table ordered by descending priority.
func NewTable(name string, rules ...Rule) *Table {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority > sorted[j].Priority })
	return &Table{name: name, rules: sorted}
}

// Name returns the decision point the table serves.
func (t *Table) Name() string { return t.name }

// Rules returns a copy of the ordered rules.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Match returns the first rule matching text.
func (t *Table) Match(text string) (Rule, bool) {
	for _, r := range t.rules {
		if r.Pattern.MatchString(text) {
			return r, true
		}
	}
	return Rule{}, false
}

// Classify returns the intent of the first matching rule or IntentNone.
func (t *Table) Classify(text string) Intent {
	r, ok := t.Match(text)
	if !ok {
		return IntentNone
	}
	return r.Intent
}

// Has reports whether any rule for intent matches text.
func (t *Table) Has(text string, intent Intent) bool {
	for _, r := range t.rules {
		if r.Intent == intent && r.Pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// Intents returns every distinct intent matched by text in rule order.
func (t *Table) Intents(text string) []Intent {
	var out []Intent
	seen := map[Intent]bool{}
	for _, r := range t.rules {
		if seen[r.Intent] || !r.Pattern.MatchString(text) {
			continue
		}
		seen[r.Intent] = true
		out = append(out, r.Intent)
	}
	return out
}

func rule(intent Intent, priority int, expr string) Rule {
	return Rule{Intent: intent, Pattern: regexp.MustCompile(expr), Priority: priority}
}
