// Package interaction governs when and how a slash command interaction is
// acknowledged and what may be sent afterwards.
//
// A session starts when the interaction arrives. Before the soft deadline the
// handler may acknowledge it however it likes; once the soft deadline passes,
// AutoDefault and AutoEphemeral sessions defer on the handler's behalf. A
// session that is still unacknowledged at the hard deadline is dead: the
// platform has already failed it. Every session closes when its handler
// returns, and nothing can be sent after that.
package interaction

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Mode selects what happens at the soft deadline.
type Mode int

const (
	// Manual never acknowledges automatically.
	Manual Mode = iota
	// AutoDefault defers with a response visible to everyone.
	AutoDefault
	// AutoEphemeral defers with a response only the invoker sees.
	AutoEphemeral
)

func (m Mode) String() string {
	switch m {
	case Manual:
		return "manual"
	case AutoDefault:
		return "auto-default"
	case AutoEphemeral:
		return "auto-ephemeral"
	}
	return "unknown"
}

var (
	ErrAlreadyAcknowledged    = errors.New("interaction already acknowledged")
	ErrNotAcknowledged        = errors.New("interaction not acknowledged yet")
	ErrClosed                 = errors.New("interaction session is closed")
	ErrAcknowledgementTimeout = errors.New("interaction was not acknowledged before the deadline")
	ErrDeleted                = errors.New("response was deleted")
	// ErrUnacknowledged is returned when a handler finishes without ever
	// acknowledging. The platform fails such interactions at the hard deadline.
	ErrUnacknowledged = fmt.Errorf("handler returned without acknowledging: %w", ErrAcknowledgementTimeout)
)

// Responder is the messaging layer an interaction answers through.
type Responder interface {
	// Defer acknowledges without content.
	Defer(ctx context.Context, ephemeral bool) error
	// Respond acknowledges with content.
	Respond(ctx context.Context, content string, ephemeral bool) error
	EditOriginal(ctx context.Context, content string) error
	DeleteOriginal(ctx context.Context) error
	// Followup sends an additional message and returns its id.
	Followup(ctx context.Context, content string, ephemeral bool) (string, error)
	EditFollowup(ctx context.Context, id, content string) error
	DeleteFollowup(ctx context.Context, id string) error
}

// Session is the per-interaction acknowledgement state.
type Session struct {
	mu        sync.Mutex
	mode      Mode
	responder Responder
	now       func() time.Time

	receivedAt time.Time
	ackedAt    time.Time
	acked      bool

	// deferred sessions have an empty original response the first send fills
	deferred          bool
	deferredEphemeral bool
	originalFilled    bool

	closed   bool
	closeErr error
	handles  []*Handle
}

func newSession(mode Mode, r Responder, now func() time.Time) *Session {
	return &Session{mode: mode, responder: r, now: now, receivedAt: now()}
}

// Mode returns the acknowledgement mode the session was created with.
func (s *Session) Mode() Mode { return s.mode }

// ReceivedAt returns when the interaction arrived.
func (s *Session) ReceivedAt() time.Time { return s.receivedAt }

// Acknowledged reports whether the interaction has been acknowledged.
func (s *Session) Acknowledged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acked
}

// AcknowledgedAt returns the acknowledgement time, or the zero time.
func (s *Session) AcknowledgedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ackedAt
}

// Closed reports whether the session accepts no more calls.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Handles returns the handles issued so far.
func (s *Session) Handles() []*Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Handle, len(s.handles))
	copy(out, s.handles)
	return out
}

func (s *Session) usable() error {
	if s.closed {
		if s.closeErr != nil {
			return s.closeErr
		}
		return ErrClosed
	}
	return nil
}

// Acknowledge defers the interaction. A second acknowledgement fails with
// ErrAlreadyAcknowledged and leaves the first untouched.
func (s *Session) Acknowledge(ctx context.Context, ephemeral bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return err
	}
	if s.acked {
		return ErrAlreadyAcknowledged
	}
	return s.deferLocked(ctx, ephemeral)
}

func (s *Session) deferLocked(ctx context.Context, ephemeral bool) error {
	if err := s.responder.Defer(ctx, ephemeral); err != nil {
		return err
	}
	s.markAcked()
	s.deferred = true
	s.deferredEphemeral = ephemeral
	return nil
}

func (s *Session) markAcked() {
	s.acked = true
	s.ackedAt = s.now()
}

// Respond sends content. The first send acknowledges the interaction (or fills
// a deferred acknowledgement); later sends are followups. Ephemeral content
// cannot be edited or deleted, so it yields a nil handle.
func (s *Session) Respond(ctx context.Context, content string, ephemeral bool) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return nil, err
	}
	return s.respondLocked(ctx, content, ephemeral)
}

// RespondPrivate sends content only the invoker can see. When the session was
// deferred publicly, the public placeholder is deleted and the content goes
// out as an ephemeral followup.
func (s *Session) RespondPrivate(ctx context.Context, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return err
	}
	if s.deferred && !s.deferredEphemeral && !s.originalFilled {
		if _, err := s.responder.Followup(ctx, content, true); err != nil {
			return err
		}
		if err := s.responder.DeleteOriginal(ctx); err != nil {
			return err
		}
		s.originalFilled = true
		return nil
	}
	_, err := s.respondLocked(ctx, content, true)
	return err
}

func (s *Session) respondLocked(ctx context.Context, content string, ephemeral bool) (*Handle, error) {
	switch {
	case !s.acked:
		if err := s.responder.Respond(ctx, content, ephemeral); err != nil {
			return nil, err
		}
		s.markAcked()
		s.originalFilled = true
		if ephemeral {
			return nil, nil
		}
		return s.issue(""), nil

	case s.deferred && !s.originalFilled:
		if err := s.responder.EditOriginal(ctx, content); err != nil {
			return nil, err
		}
		s.originalFilled = true
		if s.deferredEphemeral {
			return nil, nil
		}
		return s.issue(""), nil
	}

	id, err := s.responder.Followup(ctx, content, ephemeral)
	if err != nil {
		return nil, err
	}
	if ephemeral {
		return nil, nil
	}
	return s.issue(id), nil
}

// EditOriginal edits the first response.
func (s *Session) EditOriginal(ctx context.Context, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return err
	}
	if !s.acked {
		return ErrNotAcknowledged
	}
	if err := s.responder.EditOriginal(ctx, content); err != nil {
		return err
	}
	s.originalFilled = true
	return nil
}

// DeleteOriginal deletes the first response.
func (s *Session) DeleteOriginal(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return err
	}
	if !s.acked {
		return ErrNotAcknowledged
	}
	if err := s.responder.DeleteOriginal(ctx); err != nil {
		return err
	}
	for _, h := range s.handles {
		if h.id == "" {
			h.deleted = true
		}
	}
	return nil
}

func (s *Session) issue(id string) *Handle {
	h := &Handle{session: s, id: id}
	s.handles = append(s.handles, h)
	return h
}

// autoAcknowledge runs at the soft deadline.
func (s *Session) autoAcknowledge(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.acked || s.mode == Manual {
		return nil
	}
	return s.deferLocked(ctx, s.mode == AutoEphemeral)
}

// expire runs at the hard deadline and reports whether it killed the session.
func (s *Session) expire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.acked {
		return false
	}
	s.closed = true
	s.closeErr = ErrAcknowledgementTimeout
	return true
}

// close ends the session. It returns ErrAcknowledgementTimeout if the session
// had expired and ErrUnacknowledged if it was never acknowledged at all.
func (s *Session) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.closeErr != nil {
		return s.closeErr
	}
	if !s.acked {
		return ErrUnacknowledged
	}
	return nil
}

// Handle is an editable, deletable response.
type Handle struct {
	session *Session
	// id is empty for the original response
	id      string
	deleted bool
}

// Original reports whether h refers to the first response.
func (h *Handle) Original() bool { return h.id == "" }

// ID returns the followup message id, or "" for the original response.
func (h *Handle) ID() string { return h.id }

// Edit replaces the content of the response.
func (h *Handle) Edit(ctx context.Context, content string) error {
	s := h.session
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return err
	}
	if h.deleted {
		return ErrDeleted
	}
	if h.id == "" {
		return s.responder.EditOriginal(ctx, content)
	}
	return s.responder.EditFollowup(ctx, h.id, content)
}

// Delete removes the response.
func (h *Handle) Delete(ctx context.Context) error {
	s := h.session
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return err
	}
	if h.deleted {
		return ErrDeleted
	}
	var err error
	if h.id == "" {
		err = s.responder.DeleteOriginal(ctx)
	} else {
		err = s.responder.DeleteFollowup(ctx, h.id)
	}
	if err != nil {
		return err
	}
	h.deleted = true
	return nil
}
