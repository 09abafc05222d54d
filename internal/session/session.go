// Package session keeps per-visitor state: the signed-in identity, the URL to
// return to after login and a one-shot flash notice.
package session

import (
	"github.com/spec-kit/fluxo-portal/internal/domain"
)

// FlashKind distinguishes success notices from failures.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

// Flash is a notice shown on the next render and then discarded.
type Flash struct {
	Kind    FlashKind `json:"type"`
	Message string    `json:"message"`
}

// Data is the persisted part of a session.
type Data struct {
	Identity   *domain.Identity `json:"user,omitempty"`
	RedirectTo string           `json:"redirect_to,omitempty"`
	Flash      *Flash           `json:"flash,omitempty"`
}

// Session is the mutable session handed to each handler. Changes are written
// back to the store once the handler returns.
type Session struct {
	id        string
	staleID   string
	data      Data
	dirty     bool
	destroyed bool
}

func newSession(id string, data Data) *Session {
	return &Session{id: id, data: data}
}

// ID is empty until the session is first saved.
func (s *Session) ID() string {
	return s.id
}

// Identity returns the signed-in actor, if any.
func (s *Session) Identity() (domain.Identity, bool) {
	if s.data.Identity == nil {
		return domain.Identity{}, false
	}
	return *s.data.Identity, true
}

// Login binds identity to the session under a fresh session id.
func (s *Session) Login(identity domain.Identity) {
	if s.id != "" {
		s.staleID = s.id
		s.id = ""
	}
	s.data.Identity = &identity
	s.dirty = true
}

// RememberRedirect records where to send the visitor after login.
func (s *Session) RememberRedirect(target string) {
	s.data.RedirectTo = target
	s.dirty = true
}

// ConsumeRedirect returns the remembered target once, or fallback.
func (s *Session) ConsumeRedirect(fallback string) string {
	target := s.data.RedirectTo
	if target == "" {
		return fallback
	}
	s.data.RedirectTo = ""
	s.dirty = true
	return target
}

// SetFlash replaces any pending notice.
func (s *Session) SetFlash(kind FlashKind, message string) {
	s.data.Flash = &Flash{Kind: kind, Message: message}
	s.dirty = true
}

// ConsumeFlash returns the pending notice and clears it.
func (s *Session) ConsumeFlash() *Flash {
	flash := s.data.Flash
	if flash == nil {
		return nil
	}
	s.data.Flash = nil
	s.dirty = true
	return flash
}

// Destroy drops the session from the store and clears the cookie.
func (s *Session) Destroy() {
	s.data = Data{}
	s.destroyed = true
}
