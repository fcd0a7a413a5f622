package mapping

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/marcus/quote-desk/internal/models"
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationError carries the per-field messages for a rejected draft. The
// UI renders each message next to its field; a single opaque failure is
// never produced here.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Messages, "; "))
}

// ValidateDraft checks the postability rules: clientName, a well-formed
// clientEmail, and projectDescription must all be non-empty after trimming.
func ValidateDraft(d models.QuoteDraft) error {
	var messages []string

	if strings.TrimSpace(d.ClientName) == "" {
		messages = append(messages, "client name is required")
	}

	email := strings.TrimSpace(d.ClientEmail)
	if email == "" {
		messages = append(messages, "client email is required")
	} else if !emailRe.MatchString(email) {
		messages = append(messages, "client email is not a valid email address")
	}

	if strings.TrimSpace(d.ProjectDescription) == "" {
		messages = append(messages, "project description is required")
	}

	if len(messages) > 0 {
		return &ValidationError{Messages: messages}
	}
	return nil
}
