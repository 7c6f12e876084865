package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"maitred/internal/intent"
	"maitred/internal/models"
	"maitred/internal/retry"
)

var (
	complaintVocabulary = regexp.MustCompile(`(?i)\b(complain\w*|wrong (meal|order|item)|missing|spoiled|undercooked|raw|mou?ldy|food poisoning|got sick|refund|unacceptable)\b`)
	severeVocabulary    = regexp.MustCompile(`(?i)\b(severe|severely|anaphyla\w*|epi-?pens?|life[\s-]threatening|hospital)\b`)
	allergenAfter       = regexp.MustCompile(`(?i)\ballergic to ([a-z][a-z ]*?)(?:[.,;!?]|\band\b|\bso\b|\bbut\b|$)`)
	allergenBefore      = regexp.MustCompile(`(?i)\b([a-z]+)\s+(?:allerg(?:y|ies)|intoleran(?:ce|t))\b`)
	ingredientTarget    = regexp.MustCompile(`(?i)\b(?:no|without|hold the|leave out|substitute|swap|replace|remove)\s+(?:the\s+)?([a-z]+)`)
)

var requestPriorities = map[models.RequestType]int{
	models.RequestTypeAllergy:      models.MaxPriority,
	models.RequestTypeComplaint:    4,
	models.RequestTypeModification: 3,
	models.RequestTypePreference:   2,
}

const excerptLength = 160

// KitchenAgent turns a customer message into a kitchen request draft. It is
// deterministic and never calls the model.
type KitchenAgent struct {
	*BaseAgent
}

// NewKitchenAgent creates a kitchen escalation agent
func NewKitchenAgent() *KitchenAgent {
	return &KitchenAgent{BaseAgent: NewBaseAgent(intent.Kitchen, nil, retry.Policy{})}
}

// Respond drafts the request and confirms the escalation.
func (a *KitchenAgent) Respond(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	draft := DraftKitchenRequest(req.UserID, req.Message)
	return &Result{
		Reply:          kitchenReply(draft),
		Agent:          a.Label(),
		KitchenRequest: draft,
	}, nil
}

// DraftKitchenRequest classifies message into a request type, priority and details.
func DraftKitchenRequest(userID, message string) *models.KitchenRequest {
	reqType := ClassifyRequestType(message)
	details := models.StringMap{"excerpt": truncate(strings.TrimSpace(message), excerptLength)}

	switch reqType {
	case models.RequestTypeAllergy:
		if allergen := ExtractAllergen(message); allergen != "" {
			details["allergen"] = allergen
		}
		details["severity"] = "standard"
		if severeVocabulary.MatchString(message) {
			details["severity"] = "severe"
		}
	default:
		if m := ingredientTarget.FindStringSubmatch(message); m != nil {
			details["ingredient"] = strings.ToLower(m[1])
		}
	}

	return &models.KitchenRequest{
		UserID:   userID,
		Message:  message,
		Type:     reqType,
		Details:  details,
		Priority: requestPriorities[reqType],
	}
}

// ClassifyRequestType applies allergy, complaint and modification vocabulary
// in that order. Anything else is a preference.
func ClassifyRequestType(message string) models.RequestType {
	switch {
	case matchesAny(intent.AllergyPatterns, message):
		return models.RequestTypeAllergy
	case complaintVocabulary.MatchString(message):
		return models.RequestTypeComplaint
	case matchesAny(intent.ModificationPatterns, message):
		return models.RequestTypeModification
	}
	return models.RequestTypePreference
}

// ExtractAllergen returns the allergen named in message, lowercased.
func ExtractAllergen(message string) string {
	if m := allergenAfter.FindStringSubmatch(message); m != nil {
		return strings.ToLower(strings.TrimSpace(m[1]))
	}
	if m := allergenBefore.FindStringSubmatch(message); m != nil {
		w := strings.ToLower(m[1])
		if w != "an" && w != "my" && w != "severe" && w != "food" {
			return w
		}
	}
	return ""
}

func matchesAny(ps []*regexp.Regexp, text string) bool {
	for _, p := range ps {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func kitchenReply(r *models.KitchenRequest) string {
	switch r.Type {
	case models.RequestTypeAllergy:
		subject := "your allergy"
		if a := r.Details["allergen"]; a != "" {
			subject = "your " + a + " allergy"
		}
		return fmt.Sprintf("Thank you for telling us about %s. I've escalated this to our kitchen team as an urgent request (priority %d of %d) so they can make sure your meals are safe for you.",
			subject, r.Priority, models.MaxPriority)
	case models.RequestTypeComplaint:
		return fmt.Sprintf("I'm sorry about this. I've passed it to our kitchen team with priority %d of %d and they will follow up with you.",
			r.Priority, models.MaxPriority)
	case models.RequestTypeModification:
		return fmt.Sprintf("Got it. I've sent your modification request to the kitchen team (priority %d of %d). They'll confirm what they can adjust.",
			r.Priority, models.MaxPriority)
	}
	return fmt.Sprintf("Thanks, I've shared your preference with the kitchen team (priority %d of %d) so they can keep it in mind.",
		r.Priority, models.MaxPriority)
}
