package pushchan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nodo1014/indexer/internal/config"
	"github.com/nodo1014/indexer/internal/logging"
)

// ErrNotConnected is returned by Send when no live connection exists. Callers
// decide whether that is fatal; a dropped outbound frame is not retried.
var ErrNotConnected = errors.New("push channel not connected")

// State describes the connection lifecycle.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	// StateError means the reconnect budget is exhausted; only an explicit
	// Connect leaves it.
	StateError State = "error"
)

// ParseState converts a string into a known State.
func ParseState(value string) (State, bool) {
	switch State(strings.ToLower(strings.TrimSpace(value))) {
	case StateDisconnected:
		return StateDisconnected, true
	case StateConnecting:
		return StateConnecting, true
	case StateConnected:
		return StateConnected, true
	case StateError:
		return StateError, true
	default:
		return "", false
	}
}

// Handler receives raw frames from the worker, invoked on the reader
// goroutine so delivery order matches arrival order.
type Handler func(payload []byte)

// Options configures a Connection.
type Options struct {
	// URL is the full endpoint including the client identity path segment.
	URL                  string
	MaxReconnectAttempts int
	ReconnectInterval    time.Duration
	HandshakeTimeout     time.Duration
	Logger               *slog.Logger
}

// OptionsFromConfig derives connection options from the loaded configuration
// and a resolved client identity.
func OptionsFromConfig(cfg *config.Config, clientID string, logger *slog.Logger) Options {
	return Options{
		URL:                  EndpointURL(cfg.Worker.WebSocketURL, clientID),
		MaxReconnectAttempts: cfg.Push.MaxReconnectAttempts,
		ReconnectInterval:    time.Duration(cfg.Push.ReconnectInterval) * time.Second,
		HandshakeTimeout:     time.Duration(cfg.Push.HandshakeTimeout) * time.Second,
		Logger:               logger,
	}
}

// EndpointURL joins the worker push base URL with the client identity.
func EndpointURL(base, clientID string) string {
	return strings.TrimRight(base, "/") + "/ws/" + url.PathEscape(clientID)
}

// Connection maintains one push channel to the worker, redialing on failure
// until the attempt budget runs out. All exported methods are safe for
// concurrent use.
type Connection struct {
	opts    Options
	handler Handler
	logger  *slog.Logger
	dialer  *websocket.Dialer

	mu       sync.Mutex
	state    State
	ws       *websocket.Conn
	attempts int
	manual   bool
	timer    *time.Timer
	gen      int

	writeMu sync.Mutex

	subMu   sync.Mutex
	nextSub int
	subs    map[int]func(State)
}

// New builds a disconnected Connection. The handler may be nil when the
// caller only sends.
func New(opts Options, handler Handler) *Connection {
	if opts.MaxReconnectAttempts <= 0 {
		opts.MaxReconnectAttempts = 5
	}
	if opts.ReconnectInterval <= 0 {
		opts.ReconnectInterval = 3 * time.Second
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Connection{
		opts:    opts,
		handler: handler,
		logger:  logging.WithComponent(logger, "pushchan"),
		dialer: &websocket.Dialer{
			HandshakeTimeout: opts.HandshakeTimeout,
		},
		state: StateDisconnected,
		subs:  make(map[int]func(State)),
	}
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnStateChange registers an observer and returns its remover. Observers are
// called outside the connection lock, in registration-independent order.
func (c *Connection) OnStateChange(fn func(State)) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
}

// setStateLocked transitions the state; the caller holds c.mu. Observers run
// after the lock is released by the caller via the returned func.
func (c *Connection) setStateLocked(next State) func() {
	if c.state == next {
		return func() {}
	}
	c.state = next
	return func() {
		c.subMu.Lock()
		observers := make([]func(State), 0, len(c.subs))
		for _, fn := range c.subs {
			observers = append(observers, fn)
		}
		c.subMu.Unlock()
		for _, fn := range observers {
			fn(next)
		}
	}
}

// Connect opens the channel. It is idempotent: while connecting or connected
// it does nothing. A fresh call resets the reconnect budget, so it also
// restarts a channel that gave up in the error state.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnected || c.state == StateConnecting {
		c.mu.Unlock()
		return nil
	}
	c.manual = false
	c.attempts = 0
	c.stopTimerLocked()
	c.gen++
	notify := c.setStateLocked(StateConnecting)
	gen := c.gen
	c.mu.Unlock()
	notify()

	return c.dial(ctx, gen)
}

func (c *Connection) dial(ctx context.Context, gen int) error {
	ws, resp, err := c.dialer.DialContext(ctx, c.opts.URL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		c.logger.Warn("dial failed", slog.String("url", c.opts.URL), logging.Error(err))
		c.scheduleReconnect(ctx, gen)
		return fmt.Errorf("dial %s: %w", c.opts.URL, err)
	}

	c.mu.Lock()
	if gen != c.gen || c.manual {
		c.mu.Unlock()
		ws.Close()
		return nil
	}
	c.ws = ws
	c.attempts = 0
	notify := c.setStateLocked(StateConnected)
	c.mu.Unlock()
	notify()
	c.logger.Info("connected", slog.String("url", c.opts.URL))

	go c.readLoop(ctx, ws, gen)
	return nil
}

// readLoop is the sole reader. It exits on the first read error, which
// covers both peer close and local Disconnect.
func (c *Connection) readLoop(ctx context.Context, ws *websocket.Conn, gen int) {
	for {
		_, payload, err := ws.ReadMessage()
		if err != nil {
			c.mu.Lock()
			stale := gen != c.gen
			manual := c.manual
			if !stale && c.ws == ws {
				c.ws = nil
			}
			c.mu.Unlock()
			if stale || manual {
				return
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("connection lost", logging.Error(err))
			} else {
				c.logger.Info("connection closed by worker")
			}
			c.scheduleReconnect(ctx, gen)
			return
		}
		if c.handler != nil {
			c.handler(payload)
		}
	}
}

// scheduleReconnect arms the single redial timer, or parks the channel in
// the error state once the budget is spent. At most one timer is live; a
// second failure before it fires does not stack another.
func (c *Connection) scheduleReconnect(ctx context.Context, gen int) {
	c.mu.Lock()
	if gen != c.gen || c.manual || c.timer != nil {
		c.mu.Unlock()
		return
	}
	if c.attempts >= c.opts.MaxReconnectAttempts {
		notify := c.setStateLocked(StateError)
		c.mu.Unlock()
		notify()
		c.logger.Error("reconnect budget exhausted",
			slog.Int("attempts", c.opts.MaxReconnectAttempts))
		return
	}
	c.attempts++
	attempt := c.attempts
	notify := c.setStateLocked(StateConnecting)
	c.timer = time.AfterFunc(c.opts.ReconnectInterval, func() {
		c.mu.Lock()
		c.timer = nil
		stale := gen != c.gen || c.manual
		c.mu.Unlock()
		if stale {
			return
		}
		// A failed dial logs and arms the next timer itself.
		_ = c.dial(ctx, gen)
	})
	c.mu.Unlock()
	notify()
	c.logger.Info("reconnecting",
		slog.Int("attempt", attempt),
		slog.Int("max", c.opts.MaxReconnectAttempts),
		slog.Duration("in", c.opts.ReconnectInterval))
}

// Disconnect closes the channel and cancels any pending redial. It is safe
// to call in any state.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	c.manual = true
	c.gen++
	c.stopTimerLocked()
	ws := c.ws
	c.ws = nil
	c.attempts = 0
	notify := c.setStateLocked(StateDisconnected)
	c.mu.Unlock()
	notify()

	if ws != nil {
		deadline := time.Now().Add(time.Second)
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		ws.Close()
	}
}

func (c *Connection) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Send marshals v as JSON and writes it to the channel. It fails immediately
// with ErrNotConnected when no live connection exists.
func (c *Connection) Send(v any) error {
	c.mu.Lock()
	ws := c.ws
	connected := c.state == StateConnected
	c.mu.Unlock()
	if !connected || ws == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := ws.WriteJSON(v); err != nil {
		return fmt.Errorf("write push frame: %w", err)
	}
	return nil
}

// Stop asks the worker to abandon the current batch.
func (c *Connection) Stop() error {
	return c.Send(map[string]string{"type": "stop_processing"})
}
