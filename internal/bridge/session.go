package bridge

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/andresmejia3/facebridge/internal/store"
	"github.com/andresmejia3/facebridge/internal/surface"
	"github.com/andresmejia3/facebridge/internal/types"
	"github.com/andresmejia3/facebridge/internal/utils"
	"github.com/google/uuid"
)

// teardownTimeout bounds the best-effort stopCamera call so closure never hangs
// on a surface that stopped answering.
const teardownTimeout = 2 * time.Second

// State is where a session is in its lifecycle.
type State int

const (
	StateOpened State = iota
	StateRegistered
	StateCollecting
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateOpened:
		return "opened"
	case StateRegistered:
		return "registered"
	case StateCollecting:
		return "collecting"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// PageCloser closes the host page showing the content surface.
type PageCloser interface {
	ClosePage(ctx context.Context) error
}

// PageCloserFunc adapts a function to PageCloser.
type PageCloserFunc func(ctx context.Context) error

func (f PageCloserFunc) ClosePage(ctx context.Context) error { return f(ctx) }

// Config wires a session to its collaborators.
type Config struct {
	ID uuid.UUID // generated when zero

	// Session inputs. Either may be empty.
	ReferenceImage  string
	ReferenceVector string

	Surface    surface.Evaluator
	Prefs      store.Preferences
	Dispatcher Dispatcher
	Page       PageCloser // optional
	Logger     *slog.Logger
}

// Session is one face-capture interaction, from open to close.
type Session struct {
	ID       uuid.UUID
	identity IdentityMaterial

	surface    surface.Evaluator
	dispatcher Dispatcher
	page       PageCloser
	state      sessionState
	log        *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// flagged is closed once registration has recorded hasvectorimage, so a
	// detect-only override can never be clobbered by a late registration write.
	flagged     chan struct{}
	flaggedOnce sync.Once

	mu      sync.Mutex
	current State
	result  types.Result

	done    chan struct{}
	endOnce sync.Once
}

// ErrMissingCollaborator is returned by New when Surface or Dispatcher is nil.
var ErrMissingCollaborator = errors.New("session needs a surface and a dispatcher")

// New creates a session in the opened state.
func New(cfg Config) (*Session, error) {
	if cfg.Surface == nil || cfg.Dispatcher == nil {
		return nil, ErrMissingCollaborator
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	id := cfg.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	log = log.With("session", id.String())

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:         id,
		identity:   SelectIdentity(cfg.ReferenceImage, cfg.ReferenceVector),
		surface:    cfg.Surface,
		dispatcher: cfg.Dispatcher,
		page:       cfg.Page,
		state:      sessionState{prefs: cfg.Prefs, log: log},
		log:        log,
		ctx:        ctx,
		cancel:     cancel,
		flagged:    make(chan struct{}),
		done:       make(chan struct{}),
	}, nil
}

// Identity returns the reference material selected for this session.
func (s *Session) Identity() IdentityMaterial { return s.identity }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Done is closed when the session has ended.
func (s *Session) Done() <-chan struct{} { return s.done }

// Result returns a snapshot of the session output.
func (s *Session) Result() types.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.result
	if r.Outcome != nil {
		o := *r.Outcome
		r.Outcome = &o
	}
	return r
}

// Wait blocks until the session ends or ctx is done. The session itself has no
// timeout; owners that want one pass a deadline here and call Teardown.
func (s *Session) Wait(ctx context.Context) (types.Result, error) {
	select {
	case <-s.done:
		return s.Result(), nil
	case <-ctx.Done():
		return types.Result{}, ctx.Err()
	}
}

// Navigating is the callback channel's interception point. It runs synchronously
// with the navigation attempt: callback targets are cancelled before it returns,
// every other target is left alone and never parsed.
func (s *Session) Navigating(nav *surface.Navigation) {
	if !IsCallback(nav.URL) {
		return
	}
	nav.Cancel = true

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("callback handling panicked", "url", nav.URL, "panic", r)
		}
	}()

	ev, err := ParseCallback(nav.URL)
	if err != nil {
		s.log.Warn("dropping callback", "error", err)
		return
	}
	s.HandleEvent(ev)
}

// HandleEvent advances the state machine. It never blocks on the content surface.
func (s *Session) HandleEvent(ev types.CallbackEvent) {
	switch {
	case ev.Tag == types.TagError:
		s.log.Warn("content surface reported an error", "message", ev.Message())

	case ev.Tag == types.TagReady:
		if !s.transition(StateOpened, StateRegistered) {
			s.log.Debug("ignoring ready", "state", s.State())
			return
		}
		s.log.Info("content surface ready", "identity", s.identity.Kind.String())
		s.dispatcher.Dispatch(s.register)

	case ev.Tag.Terminal():
		if !s.transition(StateRegistered, StateCollecting) {
			s.log.Debug("ignoring terminal event", "tag", string(ev.Tag), "state", s.State())
			return
		}
		outcome, _ := MapOutcome(ev)
		s.log.Info("detection finished",
			"tag", string(ev.Tag),
			"matched", outcome.Matched,
			"name", outcome.DisplayName,
			"confidence", outcome.Confidence,
			"has_image", outcome.HasCapturedImage)
		go s.collect(outcome, forcesDetectOnly(ev.Tag))

	default:
		s.log.Debug("ignoring unknown callback", "tag", string(ev.Tag))
	}
}

func (s *Session) transition(from, to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != from {
		return false
	}
	s.current = to
	return true
}

// register runs on the dispatcher. Fire-and-forget: the command is handed off and
// neither the dispatcher nor the command slot waits for the surface's answer.
func (s *Session) register(ctx context.Context) {
	markFlagged := func() { s.flaggedOnce.Do(func() { close(s.flagged) }) }
	defer markFlagged()

	cmd, hasVector := s.identity.Registration()
	s.state.setHasVector(s.ctx, hasVector)
	markFlagged()

	log := s.log.With("command", cmd.Name, "payload", utils.Truncate(s.identity.Payload, 48))
	if p, ok := s.surface.(surface.Poster); ok {
		if err := p.Post(s.ctx, cmd); err != nil {
			log.Warn("registration command failed", "error", err)
			return
		}
		log.Debug("registration sent")
		return
	}

	go func() {
		if _, err := s.surface.Evaluate(s.ctx, cmd); err != nil {
			log.Warn("registration command failed", "error", err)
			return
		}
		log.Debug("registered reference identity")
	}()
}

// closePage runs on the dispatcher once collection is done.
func (s *Session) closePage(ctx context.Context) {
	if s.State() == StateEnded {
		return
	}
	if s.page != nil {
		if err := s.page.ClosePage(ctx); err != nil {
			s.log.Warn("failed to close capture page", "error", err)
		}
	}
	s.Teardown(ctx)
}

// Teardown ends the session from any state. It asks the surface to release the
// camera (errors ignored, bounded by a short timeout) and is safe to call twice.
func (s *Session) Teardown(ctx context.Context) {
	s.endOnce.Do(func() {
		// Abort anything still waiting on the surface so stopCamera gets the slot.
		s.cancel()

		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
		defer cancel()
		if _, err := s.surface.Evaluate(stopCtx, surface.StopCamera()); err != nil {
			s.log.Debug("stopCamera ignored", "error", err)
		}

		s.mu.Lock()
		s.current = StateEnded
		s.mu.Unlock()

		close(s.done)
		s.log.Info("session ended")
	})
}
