package panels

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nodo1014/indexer/internal/logging"
)

// The panel set is fixed; activation of anything else is rejected.
const (
	PanelExtract  = "extract"
	PanelSyncAI   = "sync-ai"
	PanelDownload = "download"
	PanelWhisper  = "whisper"
)

var panelOrder = []string{PanelExtract, PanelSyncAI, PanelDownload, PanelWhisper}

var panelSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(panelOrder))
	for _, name := range panelOrder {
		set[name] = struct{}{}
	}
	return set
}()

// ErrUnknownPanel is returned when an activation names a panel outside the
// fixed set. The active panel does not change.
var ErrUnknownPanel = errors.New("unknown panel")

// Names returns the fixed panel names in display order.
func Names() []string {
	cp := make([]string, len(panelOrder))
	copy(cp, panelOrder)
	return cp
}

// Known reports whether name is in the fixed panel set.
func Known(name string) bool {
	_, ok := panelSet[name]
	return ok
}

// Panel is one switchable view. Activate runs each time the panel becomes
// current, Deactivate each time it stops being current; both may be called
// many times over a session.
type Panel interface {
	Name() string
	Activate(ctx context.Context) error
	Deactivate(ctx context.Context) error
}

// NavigationStore persists the active panel across sessions.
type NavigationStore interface {
	ActivePanel(ctx context.Context) (string, error)
	SetActivePanel(ctx context.Context, name string) error
}

// Controller owns the single-active-panel invariant and the panel event bus.
type Controller struct {
	store  NavigationStore
	logger *slog.Logger

	mu     sync.Mutex
	panels map[string]Panel
	active string

	subMu   sync.Mutex
	nextSub int
	subs    map[string]map[int]func(payload any)
}

// NewController builds a controller with no active panel. The store may be
// nil, in which case the active panel is not persisted.
func NewController(store NavigationStore, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Controller{
		store:  store,
		logger: logging.WithComponent(logger, "panels"),
		panels: make(map[string]Panel),
		subs:   make(map[string]map[int]func(payload any)),
	}
}

// Register adds a panel implementation. The name must belong to the fixed
// set and may be registered once.
func (c *Controller) Register(panel Panel) error {
	name := panel.Name()
	if !Known(name) {
		return fmt.Errorf("%w: %s", ErrUnknownPanel, name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.panels[name]; exists {
		return fmt.Errorf("panel %s already registered", name)
	}
	c.panels[name] = panel
	return nil
}

// Active returns the name of the current panel, empty before the first
// activation.
func (c *Controller) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Activate makes the named panel current. Naming a panel outside the fixed
// set fails with ErrUnknownPanel and leaves the current panel untouched.
// Re-activating the current panel is a no-op.
func (c *Controller) Activate(ctx context.Context, name string) error {
	if !Known(name) {
		return fmt.Errorf("%w: %s", ErrUnknownPanel, name)
	}

	c.mu.Lock()
	if c.active == name {
		c.mu.Unlock()
		return nil
	}
	next, registered := c.panels[name]
	previous := c.panels[c.active]
	c.mu.Unlock()
	if !registered {
		return fmt.Errorf("panel %s not registered", name)
	}

	if previous != nil {
		if err := previous.Deactivate(ctx); err != nil {
			c.logger.Warn("panel deactivation failed",
				slog.String("panel", previous.Name()), logging.Error(err))
		}
	}
	if err := next.Activate(ctx); err != nil {
		return fmt.Errorf("activate panel %s: %w", name, err)
	}

	c.mu.Lock()
	c.active = name
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.SetActivePanel(ctx, name); err != nil {
			c.logger.Warn("persist active panel", logging.Error(err))
		}
	}
	c.Emit(EventPanelChanged, name)
	return nil
}

// Restore activates the panel persisted by the previous session, falling
// back to fallback when nothing usable was saved.
func (c *Controller) Restore(ctx context.Context, fallback string) error {
	name := fallback
	if c.store != nil {
		saved, err := c.store.ActivePanel(ctx)
		if err != nil {
			c.logger.Warn("read persisted panel", logging.Error(err))
		} else if Known(saved) {
			name = saved
		}
	}
	if !Known(name) {
		name = PanelExtract
	}
	return c.Activate(ctx, name)
}

// EventPanelChanged fires after every successful activation; the payload is
// the new panel name.
const EventPanelChanged = "panel:changed"

// On subscribes to a named event and returns the unsubscriber.
func (c *Controller) On(event string, handler func(payload any)) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if c.subs[event] == nil {
		c.subs[event] = make(map[int]func(payload any))
	}
	id := c.nextSub
	c.nextSub++
	c.subs[event][id] = handler
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs[event], id)
	}
}

// Emit delivers payload to every subscriber of event. A panicking handler is
// logged and skipped; the rest still run.
func (c *Controller) Emit(event string, payload any) {
	c.subMu.Lock()
	handlers := make([]func(payload any), 0, len(c.subs[event]))
	for _, h := range c.subs[event] {
		handlers = append(handlers, h)
	}
	c.subMu.Unlock()

	for _, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error("event handler panicked",
						slog.String("event", event), slog.Any("panic", r))
				}
			}()
			handler(payload)
		}()
	}
}
