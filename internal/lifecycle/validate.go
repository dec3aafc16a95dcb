package lifecycle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aegiswhistle/aegis/pkg/models"
)

// Validation errors, checked by callers before invoking an operation.
var (
	ErrUnauthenticated = errors.New("no authenticated actor")
	ErrEmptyNote       = errors.New("please enter a note before submitting")
	ErrNoInvestigator  = errors.New("please select an investigator")
	ErrNotInvestigator = errors.New("assignee is not an investigator")
	ErrInvalidStatus   = errors.New("invalid status")
)

// RequireActor fails when there is no current actor.
func RequireActor(actor *models.User) error {
	if actor == nil || actor.ID == "" {
		return ErrUnauthenticated
	}
	return nil
}

// ValidateNote rejects empty and whitespace-only notes.
func ValidateNote(note string) error {
	if strings.TrimSpace(note) == "" {
		return ErrEmptyNote
	}
	return nil
}

// ValidateInvestigator requires a selected user whose role is investigator.
func ValidateInvestigator(u *models.User) error {
	if u == nil {
		return ErrNoInvestigator
	}
	if u.Role != models.RoleInvestigator {
		return fmt.Errorf("%w: %s is %s", ErrNotInvestigator, u.Name, u.Role)
	}
	return nil
}

// ValidateStatus parses s into one of the four statuses.
func ValidateStatus(s string) (models.Status, error) {
	st := models.Status(strings.TrimSpace(s))
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}
