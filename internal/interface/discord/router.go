// Package discord implements the bot-side interface: gateway events flow
// through a single bounded queue and are dispatched to typed handlers, so
// slow handlers back-pressure the queue instead of blocking the gateway
// reader.
package discord

import (
	"context"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// EventKind discriminates queued gateway events.
type EventKind int

const (
	// EventInteraction is a component press or modal submission.
	EventInteraction EventKind = iota
	// EventMemberJoin is a guild member arrival.
	EventMemberJoin
	// EventMemberLeave is a guild member departure.
	EventMemberLeave
)

// Event is one queued gateway occurrence. Exactly one payload field is set,
// matching Kind.
type Event struct {
	Kind EventKind

	Interaction  *discordgo.InteractionCreate
	MemberAdd    *discordgo.GuildMemberAdd
	MemberRemove *discordgo.GuildMemberRemove
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// InteractionHandler processes component presses and modal submissions whose
// custom ID carries the handler's registered prefix.
type InteractionHandler interface {
	Handle(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error
}

// MemberHandler processes join and leave events.
type MemberHandler interface {
	MemberJoined(ctx context.Context, m *discordgo.Member) error
	MemberLeft(ctx context.Context, userID string) error
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER
// ══════════════════════════════════════════════════════════════════════════════

// RouterConfig contains configuration for the Router.
type RouterConfig struct {
	// Logger for structured logging.
	Logger *zap.Logger

	// QueueSize bounds the inbound event queue (default: 256).
	QueueSize int

	// Workers is the number of dispatch goroutines (default: 4).
	Workers int

	// GuildID restricts processing to one guild; events from other guilds
	// are dropped.
	GuildID string
}

// Router receives gateway events, queues them, and dispatches to handlers.
type Router struct {
	config RouterConfig
	logger *zap.Logger

	queue chan Event

	mu                  sync.RWMutex
	interactionHandlers map[string]InteractionHandler
	memberHandler       MemberHandler

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewRouter creates a router.
func NewRouter(config RouterConfig) *Router {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 256
	}
	if config.Workers <= 0 {
		config.Workers = 4
	}

	return &Router{
		config:              config,
		logger:              config.Logger.With(zap.String("component", "discord.router")),
		queue:               make(chan Event, config.QueueSize),
		interactionHandlers: make(map[string]InteractionHandler),
	}
}

// OnInteraction registers a handler for custom IDs beginning with prefix.
func (r *Router) OnInteraction(prefix string, h InteractionHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interactionHandlers[prefix] = h
}

// OnMembers registers the membership event handler.
func (r *Router) OnMembers(h MemberHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memberHandler = h
}

// Bind attaches the router's gateway callbacks to the session. Callbacks
// only enqueue; all work happens on router workers.
func (r *Router) Bind(session *discordgo.Session) {
	session.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		if r.config.GuildID != "" && i.GuildID != r.config.GuildID {
			return
		}
		r.enqueue(Event{Kind: EventInteraction, Interaction: i})
	})
	session.AddHandler(func(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
		if r.config.GuildID != "" && m.GuildID != r.config.GuildID {
			return
		}
		r.enqueue(Event{Kind: EventMemberJoin, MemberAdd: m})
	})
	session.AddHandler(func(_ *discordgo.Session, m *discordgo.GuildMemberRemove) {
		if r.config.GuildID != "" && m.GuildID != r.config.GuildID {
			return
		}
		r.enqueue(Event{Kind: EventMemberLeave, MemberRemove: m})
	})
}

// Start launches the dispatch workers. The session must be bound first.
func (r *Router) Start(ctx context.Context, session *discordgo.Session) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	ctx, r.cancel = context.WithCancel(ctx)
	r.mu.Unlock()

	for i := 0; i < r.config.Workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx, session)
	}

	r.logger.Info("event router started",
		zap.Int("workers", r.config.Workers),
		zap.Int("queue_size", r.config.QueueSize),
	)
}

// Stop cancels the workers and waits for in-flight events to finish.
func (r *Router) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	r.cancel()
	r.mu.Unlock()

	r.wg.Wait()
	r.logger.Info("event router stopped")
}

// enqueue adds an event, dropping when the queue is full. A full queue means
// handlers are badly behind; blocking the gateway reader would be worse.
func (r *Router) enqueue(ev Event) {
	select {
	case r.queue <- ev:
	default:
		r.logger.Warn("event queue full, dropping event", zap.Int("kind", int(ev.Kind)))
	}
}

func (r *Router) worker(ctx context.Context, session *discordgo.Session) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-r.queue:
			r.dispatch(ctx, session, ev)
		}
	}
}

func (r *Router) dispatch(ctx context.Context, session *discordgo.Session, ev Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("handler panicked", zap.Any("panic", rec))
		}
	}()

	switch ev.Kind {
	case EventInteraction:
		r.dispatchInteraction(ctx, session, ev.Interaction)
	case EventMemberJoin:
		r.mu.RLock()
		h := r.memberHandler
		r.mu.RUnlock()
		if h == nil {
			return
		}
		if err := h.MemberJoined(ctx, ev.MemberAdd.Member); err != nil {
			r.logger.Error("member join handler failed",
				zap.String("user_id", ev.MemberAdd.User.ID), zap.Error(err))
		}
	case EventMemberLeave:
		r.mu.RLock()
		h := r.memberHandler
		r.mu.RUnlock()
		if h == nil {
			return
		}
		if err := h.MemberLeft(ctx, ev.MemberRemove.User.ID); err != nil {
			r.logger.Error("member leave handler failed",
				zap.String("user_id", ev.MemberRemove.User.ID), zap.Error(err))
		}
	}
}

func (r *Router) dispatchInteraction(ctx context.Context, session *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := interactionCustomID(i)
	if customID == "" {
		return
	}

	r.mu.RLock()
	var handler InteractionHandler
	for prefix, h := range r.interactionHandlers {
		if strings.HasPrefix(customID, prefix) {
			handler = h
			break
		}
	}
	r.mu.RUnlock()

	if handler == nil {
		r.logger.Debug("no handler for interaction", zap.String("custom_id", customID))
		return
	}

	if err := handler.Handle(ctx, session, i); err != nil {
		r.logger.Error("interaction handler failed",
			zap.String("custom_id", customID), zap.Error(err))
	}
}

// interactionCustomID extracts the custom ID for the interaction types the
// router cares about.
func interactionCustomID(i *discordgo.InteractionCreate) string {
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		return i.MessageComponentData().CustomID
	case discordgo.InteractionModalSubmit:
		return i.ModalSubmitData().CustomID
	default:
		return ""
	}
}
