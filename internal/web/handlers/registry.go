package handlers

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/andresmejia3/facebridge/internal/bridge"
	"github.com/andresmejia3/facebridge/internal/store"
	"github.com/andresmejia3/facebridge/internal/surface"
	"github.com/google/uuid"
)

// keepFinished is how many ended sessions stay queryable.
const keepFinished = 16

var (
	// ErrSessionActive is returned by Create while another session is still running.
	ErrSessionActive = errors.New("a capture session is already active")
	// ErrSurfaceAttached is returned when a second content page tries to attach.
	ErrSurfaceAttached = errors.New("content surface already attached")

	errNotAttached = errors.New("content surface not attached")
)

// HostedSession is a bridge session owned by the web host, together with the
// slot its content page attaches to.
type HostedSession struct {
	Session   *bridge.Session
	CreatedAt time.Time

	surface *attachableSurface
}

// Attached reports whether a content page is connected.
func (h *HostedSession) Attached() bool { return h.surface.attached() }

// attachableSurface forwards commands to whichever client the content page
// attached with. Before that, and after the session ends, commands fail.
type attachableSurface struct {
	mu     sync.Mutex
	client *surface.Client
	closed bool
}

func (a *attachableSurface) attach(c *surface.Client) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return surface.ErrClosed
	}
	if a.client != nil {
		return ErrSurfaceAttached
	}
	a.client = c
	return nil
}

func (a *attachableSurface) attached() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.client != nil
}

func (a *attachableSurface) Evaluate(ctx context.Context, cmd surface.Command) (string, error) {
	a.mu.Lock()
	c := a.client
	a.mu.Unlock()
	if c == nil {
		return "", errNotAttached
	}
	return c.Evaluate(ctx, cmd)
}

func (a *attachableSurface) Post(ctx context.Context, cmd surface.Command) error {
	a.mu.Lock()
	c := a.client
	a.mu.Unlock()
	if c == nil {
		return errNotAttached
	}
	return c.Post(ctx, cmd)
}

// close drops the content page connection. This is how the web host closes the page.
func (a *attachableSurface) close() {
	a.mu.Lock()
	a.closed = true
	c := a.client
	a.mu.Unlock()
	if c != nil {
		c.Close()
	}
}

// Registry owns the web host's sessions. Only one may be active at a time
// because the durable preference keys are shared.
type Registry struct {
	prefs store.Preferences
	log   *slog.Logger

	mu       sync.Mutex
	active   *HostedSession
	sessions map[uuid.UUID]*HostedSession
	order    []uuid.UUID
}

func NewRegistry(prefs store.Preferences, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		prefs:    prefs,
		log:      log,
		sessions: make(map[uuid.UUID]*HostedSession),
	}
}

// Create opens a session. It waits for its content page in the opened state.
func (r *Registry) Create(image, vector string) (*HostedSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		return nil, ErrSessionActive
	}

	loop := bridge.NewLoop(r.log)
	sf := &attachableSurface{}
	sess, err := bridge.New(bridge.Config{
		ReferenceImage:  image,
		ReferenceVector: vector,
		Surface:         sf,
		Prefs:           r.prefs,
		Dispatcher:      loop,
		Logger:          r.log,
	})
	if err != nil {
		return nil, err
	}

	ctx, stopLoop := context.WithCancel(context.Background())
	go loop.Run(ctx)

	h := &HostedSession{Session: sess, CreatedAt: time.Now(), surface: sf}
	r.active = h
	r.sessions[sess.ID] = h
	r.order = append(r.order, sess.ID)
	r.trim()

	go r.watch(h, stopLoop)
	return h, nil
}

// watch closes the page connection once the session has ended, so stopCamera
// from teardown has already been delivered.
func (r *Registry) watch(h *HostedSession, stopLoop context.CancelFunc) {
	<-h.Session.Done()
	h.surface.close()
	stopLoop()

	r.mu.Lock()
	if r.active == h {
		r.active = nil
	}
	r.mu.Unlock()
}

// trim forgets the oldest ended sessions. Caller holds r.mu.
func (r *Registry) trim() {
	for len(r.order) > keepFinished {
		id := r.order[0]
		if h := r.sessions[id]; h == r.active {
			return
		}
		delete(r.sessions, id)
		r.order = r.order[1:]
	}
}

// Get looks a session up by id.
func (r *Registry) Get(id uuid.UUID) (*HostedSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.sessions[id]
	return h, ok
}

// Active returns the running session, if any.
func (r *Registry) Active() (*HostedSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active, r.active != nil
}

// Shutdown ends the active session.
func (r *Registry) Shutdown(ctx context.Context) {
	if h, ok := r.Active(); ok {
		h.Session.Teardown(ctx)
	}
}
