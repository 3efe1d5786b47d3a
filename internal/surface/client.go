package surface

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/andresmejia3/facebridge/internal/types"
)

// ErrClosed is returned by Evaluate once the transport has gone away.
var ErrClosed = errors.New("surface: closed")

// CommandError is a command the content surface evaluated and rejected.
type CommandError struct {
	Command string
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s failed in content surface: %s", e.Command, e.Message)
}

// Transport moves envelopes between host and content surface.
// Send may be called concurrently with Receive but not with itself.
type Transport interface {
	Send(msg types.Message) error
	Receive() (types.Message, error)
	Close() error
}

// Navigation is a navigation request raised by the content surface.
// Handlers set Cancel to stop it; the decision is acknowledged before the
// surface is allowed to proceed.
type Navigation struct {
	URL    string
	Cancel bool
}

// NavigationHandler inspects a navigation synchronously. It must not block on
// Evaluate: the acknowledgement is sent only after it returns.
type NavigationHandler func(nav *Navigation)

// Client evaluates commands and routes navigations over a single Transport.
type Client struct {
	transport Transport
	log       *slog.Logger

	slot   chan struct{} // one in-flight command at a time
	sendMu sync.Mutex

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan types.Message

	closed    chan struct{}
	closeOnce sync.Once
	closedErr error
}

// NewClient wraps a transport. Call Run to start routing inbound messages.
func NewClient(t Transport, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		transport: t,
		log:       log,
		slot:      make(chan struct{}, 1),
		pending:   make(map[uint64]chan types.Message),
		closed:    make(chan struct{}),
	}
}

// Run reads from the transport until it fails, ctx is cancelled or Close is called.
// Each navigation is passed to onNavigate and acknowledged in arrival order.
func (c *Client) Run(ctx context.Context, onNavigate NavigationHandler) error {
	stop := context.AfterFunc(ctx, func() { c.shutdown(ctx.Err()) })
	defer stop()

	for {
		msg, err := c.transport.Receive()
		if err != nil {
			select {
			case <-c.closed:
				// Close or ctx already explained why the transport went away.
				if errors.Is(c.closedErr, ErrClosed) {
					return nil
				}
				return c.closedErr
			default:
			}
			c.shutdown(fmt.Errorf("receive: %w", err))
			return c.closedErr
		}

		switch msg.Type {
		case types.MessageResult:
			c.deliver(msg)
		case types.MessageNavigate:
			nav := &Navigation{URL: msg.URL}
			c.navigate(onNavigate, nav)
			ack := types.Message{Type: types.MessageNavigateAck, ID: msg.ID, Cancel: nav.Cancel}
			if err := c.send(ack); err != nil {
				c.log.Warn("failed to acknowledge navigation", "url", msg.URL, "error", err)
			}
		default:
			c.log.Debug("ignoring unknown envelope", "type", msg.Type)
		}
	}
}

func (c *Client) navigate(h NavigationHandler, nav *Navigation) {
	if h == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("navigation handler panicked", "url", nav.URL, "panic", r)
		}
	}()
	h(nav)
}

func (c *Client) deliver(msg types.Message) {
	c.mu.Lock()
	ch, ok := c.pending[msg.ID]
	delete(c.pending, msg.ID)
	c.mu.Unlock()
	if !ok {
		c.log.Debug("dropping result for unknown request", "id", msg.ID)
		return
	}
	ch <- msg
}

func (c *Client) send(msg types.Message) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return c.transport.Send(msg)
}

// Evaluate runs cmd on the content surface and waits for its result.
// A null or undefined result comes back as "".
func (c *Client) Evaluate(ctx context.Context, cmd Command) (string, error) {
	select {
	case c.slot <- struct{}{}:
		defer func() { <-c.slot }()
	case <-c.closed:
		return "", ErrClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case <-c.closed:
		return "", ErrClosed
	default:
	}

	ch := make(chan types.Message, 1)
	id := c.track(ch)
	defer c.untrack(id)

	if err := c.send(types.Message{Type: types.MessageEval, ID: id, Script: cmd.Script()}); err != nil {
		return "", fmt.Errorf("send %s: %w", cmd, err)
	}

	select {
	case msg := <-ch:
		if msg.Error != "" {
			return "", &CommandError{Command: cmd.Name, Message: msg.Error}
		}
		if msg.Result == nil {
			return "", nil
		}
		return NormalizeResult(*msg.Result), nil
	case <-c.closed:
		return "", ErrClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Post sends cmd without taking the command slot or waiting for its result.
// The answer, if one ever arrives, is only logged.
func (c *Client) Post(ctx context.Context, cmd Command) error {
	select {
	case <-c.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	ch := make(chan types.Message, 1)
	id := c.track(ch)
	if err := c.send(types.Message{Type: types.MessageEval, ID: id, Script: cmd.Script()}); err != nil {
		c.untrack(id)
		return fmt.Errorf("send %s: %w", cmd, err)
	}

	go func() {
		defer c.untrack(id)
		select {
		case msg := <-ch:
			if msg.Error != "" {
				c.log.Warn("posted command failed", "command", cmd.Name, "error", msg.Error)
				return
			}
			c.log.Debug("posted command answered", "command", cmd.Name)
		case <-c.closed:
		case <-ctx.Done():
		}
	}()
	return nil
}

func (c *Client) track(ch chan types.Message) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.pending[c.nextID] = ch
	return c.nextID
}

func (c *Client) untrack(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// Done is closed once the client stops routing messages.
func (c *Client) Done() <-chan struct{} { return c.closed }

// Close shuts the transport down and fails any in-flight Evaluate.
func (c *Client) Close() error {
	c.shutdown(ErrClosed)
	return nil
}

func (c *Client) shutdown(reason error) {
	c.closeOnce.Do(func() {
		c.closedErr = reason
		close(c.closed)
		if err := c.transport.Close(); err != nil && !isClosedConn(err) {
			c.log.Debug("transport close failed", "error", err)
		}
	})
}

func isClosedConn(err error) bool {
	return strings.Contains(err.Error(), "use of closed")
}
