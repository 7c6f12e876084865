// Package intent routes a customer message to one of the response strategies
// with an ordered keyword rule table.
package intent

import (
	"regexp"
	"strings"

	"maitred/internal/models"
)

// Label is the routing decision for a message
type Label string

const (
	Recommendation Label = "recommendation"
	Feedback       Label = "feedback"
	Kitchen        Label = "kitchen"
	General        Label = "general"
)

// Labels lists every routing label.
var Labels = []Label{Recommendation, Feedback, Kitchen, General}

// Family names a group of patterns sharing a label
type Family string

const (
	FamilyAllergy      Family = "allergy"
	FamilyModification Family = "modification"
	FamilyMeal         Family = "meal"
	FamilyComplaint    Family = "complaint"
	FamilyFollowUp     Family = "follow_up"
	FamilyDefault      Family = "default"
)

// Rule maps a pattern family to a label. Rules are evaluated in order and the
// first family with a matching pattern wins.
type Rule struct {
	Family   Family
	Label    Label
	Patterns []*regexp.Regexp
}

// Matches returns the first pattern in the rule that matches text.
func (r Rule) Matches(text string) (*regexp.Regexp, bool) {
	for _, p := range r.Patterns {
		if p.MatchString(text) {
			return p, true
		}
	}
	return nil, false
}

func patterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

// Vocabulary shared with the kitchen strategy.
var (
	AllergyPatterns = patterns(
		`\ballerg`,
		`\banaphyla`,
		`\bepi-?pens?\b`,
		`\bintoleran`,
		`\bc(o)?eliac\b`,
	)
	ModificationPatterns = patterns(
		`\bsubstitut`,
		`\bswap\b`,
		`\breplace\b`,
		`\bmodif(y|ication)`,
		`\bcustomi[sz]`,
		`\bspecial request\b`,
		`\bleave out\b`,
		`\bhold the\b`,
		`\bextra (sauce|protein|portion|dressing|rice|veg\w*)\b`,
		`\b(no|without) \w+ (in|on) (any of )?my\b`,
		`\b(less|more) (salt|spice|spicy|oil|sugar|sauce)\b`,
		`\b(bigger|larger|smaller) portions?\b`,
		`\bi (don'?t|do not|can'?t|cannot) eat\b`,
	)
	MealPatterns = patterns(
		`\brecommend`,
		`\bsuggest`,
		`\bmeals?\b`,
		`\bmenu\b`,
		`\bdish(es)?\b`,
		`\bwhat (should|can) i (eat|order|have)\b`,
		`\bhigh[\s-]?protein\b`,
		`\blow[\s-]?(carb|cal)`,
		`\bvegan\b`,
		`\bvegetarian\b`,
		`\bketo\b`,
		`\bgluten[\s-]?free\b`,
		`\bcalories?\b`,
		`\b(breakfast|lunch|dinner|snacks?)\b`,
		`\blooking for\b`,
		`\bhungry\b`,
	)
	ComplaintPatterns = patterns(
		`\b(loved?|liked?|hated?|enjoyed)\b`,
		`\b(delicious|tasty|amazing|excellent|great|perfect)\b`,
		`\b(terrible|awful|disgusting|worst|bland|soggy|stale|cold|salty|late|bad|poor)\b`,
		`\bcomplain`,
		`\bdisappoint`,
		`\bfeedback\b`,
		`\breview\b`,
		`\brat(e|ing)\b`,
		`\b[1-5]\s*(/|out of)\s*5\b`,
		`\b[1-5] stars?\b`,
	)
	followUpPattern = regexp.MustCompile(`(?i)^\s*(yes|yeah|yep|sure|ok(ay)?|more|another( one)?|any others?|what else|something else|others?)\b`)
)

// DefaultRules is the routing table: allergy and modification requests go to
// the kitchen ahead of meal questions, which come ahead of feedback.
func DefaultRules() []Rule {
	return []Rule{
		{Family: FamilyAllergy, Label: Kitchen, Patterns: AllergyPatterns},
		{Family: FamilyModification, Label: Kitchen, Patterns: ModificationPatterns},
		{Family: FamilyMeal, Label: Recommendation, Patterns: MealPatterns},
		{Family: FamilyComplaint, Label: Feedback, Patterns: ComplaintPatterns},
	}
}

// Decision explains a classification
type Decision struct {
	Label   Label  `json:"label"`
	Family  Family `json:"family"`
	Pattern string `json:"pattern,omitempty"`
}

// Classifier applies an ordered rule table. It is stateless.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds a classifier; with no rules it uses DefaultRules.
func NewClassifier(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Classify returns the routing label for message. It never fails: anything
// unmatched is General.
func (c *Classifier) Classify(message string, history []models.Message) Label {
	return c.Explain(message, history).Label
}

// Explain classifies message and reports which family and pattern decided it.
func (c *Classifier) Explain(message string, history []models.Message) Decision {
	text := strings.TrimSpace(message)
	if text == "" {
		return Decision{Label: General, Family: FamilyDefault}
	}

	for _, rule := range c.rules {
		if p, ok := rule.Matches(text); ok {
			return Decision{Label: rule.Label, Family: rule.Family, Pattern: p.String()}
		}
	}

	// a bare follow-up inherits the previous request when it was for meals
	if followUpPattern.MatchString(text) {
		if prev := lastUserMessage(history, text); prev != "" {
			for _, rule := range c.rules {
				if _, ok := rule.Matches(prev); ok {
					if rule.Label == Recommendation {
						return Decision{Label: Recommendation, Family: FamilyFollowUp, Pattern: followUpPattern.String()}
					}
					break
				}
			}
		}
	}

	return Decision{Label: General, Family: FamilyDefault}
}

func lastUserMessage(history []models.Message, current string) string {
	for i := len(history) - 1; i >= 0; i-- {
		m := history[i]
		if m.Role != models.RoleUser {
			continue
		}
		if strings.TrimSpace(m.Content) == current && i == len(history)-1 {
			continue
		}
		return m.Content
	}
	return ""
}
