// Package session drives one PJLink conversation: greeting, optional digest
// authentication, and the strictly sequential command/response cycle.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/rbright/pjctl/internal/fsm"
	"github.com/rbright/pjctl/internal/pjlink"
)

// Result is the complete outcome returned by one Run invocation.
type Result struct {
	State         fsm.State
	Reports       []pjlink.Report
	Sent          int
	Authenticated bool
	Err           error
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Options configures a Session.
type Options struct {
	Password string
	Logger   *slog.Logger
	// OnReport, when set, receives each report as soon as it is dispatched.
	OnReport func(pjlink.Report)
}

// Session owns the command queue and authenticator for one connection.
type Session struct {
	logger   *slog.Logger
	frames   *pjlink.FrameReader
	w        io.Writer
	queue    *pjlink.Queue
	auth     *pjlink.Authenticator
	onReport func(pjlink.Report)

	state   fsm.State
	reports []pjlink.Report
	sent    int
}

// New builds a session over an already connected stream.
func New(rw io.ReadWriter, queue *pjlink.Queue, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	onReport := opts.OnReport
	if onReport == nil {
		onReport = func(pjlink.Report) {}
	}

	return &Session{
		logger:   logger,
		frames:   pjlink.NewFrameReader(rw),
		w:        rw,
		queue:    queue,
		auth:     pjlink.NewAuthenticator(opts.Password),
		onReport: onReport,
		state:    fsm.StateAwaitGreeting,
	}
}

// Run reads frames until the queue drains or a fatal error occurs. Reads
// block without a deadline; callers bound them by closing the stream.
func (s *Session) Run(ctx context.Context) Result {
	result := Result{StartedAt: time.Now()}

	var err error
	if s.queue.Empty() {
		err = pjlink.ErrEmptyQueue
	}
	for err == nil && !fsm.Terminal(s.state) {
		if err = ctx.Err(); err != nil {
			break
		}

		var frame []byte
		frame, err = s.frames.ReadFrame()
		if err != nil {
			break
		}
		s.logger.Debug("frame received", "state", s.state, "frame", string(frame))
		err = s.handleFrame(frame)
	}
	if err != nil {
		s.fail()
	}

	result.State = s.state
	result.Reports = s.reports
	result.Sent = s.sent
	result.Authenticated = s.auth.Active()
	result.Err = err
	result.FinishedAt = time.Now()
	return result
}

func (s *Session) handleFrame(frame []byte) error {
	if pjlink.IsGreeting(frame) {
		switch s.state {
		case fsm.StateAwaitGreeting:
			return s.handleGreeting(frame)
		case fsm.StateAwaitResponseOrAuthError:
			// The device answers a rejected digest with a fresh greeting.
			if _, err := pjlink.ParseGreeting(frame); errors.Is(err, pjlink.ErrAuthenticationFailed) {
				return err
			}
		}
		return fmt.Errorf("%w in state %s: %q", pjlink.ErrUnexpectedGreeting, s.state, frame)
	}

	if s.state == fsm.StateAwaitGreeting {
		return fmt.Errorf("%w: %q", pjlink.ErrInvalidGreeting, frame)
	}
	return s.handleResponse(frame)
}

func (s *Session) handleGreeting(frame []byte) error {
	greeting, err := pjlink.ParseGreeting(frame)
	if err != nil {
		return err
	}

	event := fsm.EventGreetingOpen
	if greeting.Auth == pjlink.AuthDigest {
		if err := s.auth.Challenge(greeting.Salt); err != nil {
			return err
		}
		event = fsm.EventGreetingChallenge
	}
	s.logger.Debug("greeting accepted", "auth", greeting.Auth.String())

	if err := s.transition(event); err != nil {
		return err
	}
	return s.sendHead()
}

func (s *Session) handleResponse(frame []byte) error {
	resp, err := pjlink.ParseResponse(frame)
	if err != nil {
		return err
	}

	cmd, ok := s.queue.Pop()
	if !ok {
		return fmt.Errorf("%w: %q", pjlink.ErrUnsolicitedResponse, frame)
	}
	if resp.Opcode != cmd.Opcode() {
		s.logger.Warn("response opcode differs from command in flight",
			"command", cmd.Opcode(),
			"response", resp.Opcode,
		)
	}

	report := pjlink.Dispatch(cmd, resp)
	s.reports = append(s.reports, report)
	s.onReport(report)

	if s.queue.Empty() {
		if err := s.transition(fsm.EventDrained); err != nil {
			return err
		}
		s.logger.Info("session finished", "commands", s.sent)
		return nil
	}
	if err := s.transition(fsm.EventResponse); err != nil {
		return err
	}
	return s.sendHead()
}

// sendHead writes the oldest queued command. It stays queued until its
// response arrives.
func (s *Session) sendHead() error {
	cmd, ok := s.queue.Peek()
	if !ok {
		return pjlink.ErrEmptyQueue
	}
	if _, err := s.w.Write(s.auth.Seal(cmd.Wire())); err != nil {
		return fmt.Errorf("%w: write %s: %w", pjlink.ErrTransportClosed, cmd.Opcode(), err)
	}
	s.sent++
	s.logger.Debug("command sent",
		"command", strings.TrimSuffix(cmd.Wire(), "\r"),
		"authenticated", s.auth.Active(),
	)
	return nil
}

func (s *Session) transition(event fsm.Event) error {
	next, err := fsm.Transition(s.state, event)
	if err != nil {
		return err
	}
	s.logger.Debug("state transition", "from", s.state, "event", event, "to", next)
	s.state = next
	return nil
}

func (s *Session) fail() {
	if next, err := fsm.Transition(s.state, fsm.EventFail); err == nil {
		s.state = next
	}
}
