package dto

import (
	"errors"

	"github.com/spec-kit/fluxo-portal/internal/domain"
	"github.com/spec-kit/fluxo-portal/internal/session"
	apperrors "github.com/spec-kit/fluxo-portal/pkg/util/errorutil"
)

// Layout carries what every page needs for the shared header.
type Layout struct {
	Title       string
	CurrentUser *domain.Identity
}

func (l Layout) IsAuthenticated() bool {
	return l.CurrentUser != nil
}

// FormErrors lists validation problems in display order and indexes them by field.
type FormErrors struct {
	Messages []string
	fields   map[string]string
}

// NewFormErrors converts a service error into form errors. Field violations
// are listed individually; any other domain error contributes its message.
func NewFormErrors(err error) FormErrors {
	var fe FormErrors
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		return fe
	}
	if len(domainErr.Fields) == 0 {
		fe.Messages = []string{domainErr.Message}
		return fe
	}
	fe.fields = make(map[string]string, len(domainErr.Fields))
	for _, v := range domainErr.Fields {
		fe.Messages = append(fe.Messages, v.Message)
		if _, seen := fe.fields[v.Field]; !seen {
			fe.fields[v.Field] = v.Message
		}
	}
	return fe
}

// MessageErrors builds form errors carrying a single general message.
func MessageErrors(message string) FormErrors {
	return FormErrors{Messages: []string{message}}
}

func (f FormErrors) Any() bool {
	return len(f.Messages) > 0
}

// For returns the message attached to field, or "".
func (f FormErrors) For(field string) string {
	return f.fields[field]
}

// HomeView renders the marketing page.
type HomeView struct {
	Layout
}

// ContactView renders the contact form.
type ContactView struct {
	Layout
	Form    ContactForm
	Errors  FormErrors
	Success bool
}

// LoginView renders the login form.
type LoginView struct {
	Layout
	Form   LoginForm
	Errors FormErrors
}

// RegisterView renders the registration form.
type RegisterView struct {
	Layout
	Form   RegisterForm
	Errors FormErrors
}

// DashboardView renders the client or admin dashboard.
type DashboardView struct {
	Layout
	Requests      []domain.Request
	Totals        domain.RequestTotals
	IsAdmin       bool
	StatusOptions []domain.RequestStatus
	Form          ClientRequestForm
	Errors        FormErrors
	Success       bool
	Flash         *session.Flash
}

// ErrorView renders the 404 and generic failure pages.
type ErrorView struct {
	Layout
	Status  int
	Message string
}
