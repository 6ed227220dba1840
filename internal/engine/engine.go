// Package engine implements the message synchronization and presence
// engine: dual-channel ingestion, deduplication, chronological
// ordering, optimistic-echo reconciliation, per-scope visibility,
// unread bookkeeping, and the online-presence set.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"retrochat/internal/backend"
	"retrochat/internal/chat"
	"retrochat/internal/logging"
)

// Engine errors.
var (
	ErrNotRunning         = errors.New("engine not running")
	ErrAlreadyRunning     = errors.New("engine already running")
	ErrIdentityUnresolved = errors.New("local identity could not be resolved")
)

// Config contains tuning knobs for the engine.
type Config struct {
	// PollInterval is the fixed cadence of the poll safety net.
	// Default: 2s
	PollInterval time.Duration

	// PresenceInterval is how often presence is re-announced.
	// Default: 30s
	PresenceInterval time.Duration

	// UpdateBuffer is the capacity of the Updates() channel.
	// Default: 64
	UpdateBuffer int

	// OpBuffer is the capacity of the internal operation queue.
	// Default: 256
	OpBuffer int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval:     2 * time.Second,
		PresenceInterval: 30 * time.Second,
		UpdateBuffer:     64,
		OpBuffer:         256,
	}
}

// Registry persists the active-conversation set across reloads.
type Registry interface {
	LoadActiveConversations(ctx context.Context, localID string) ([]string, error)
	SaveActiveConversations(ctx context.Context, localID string, peers []string) error
}

// Deps are the external collaborators the engine consumes.
type Deps struct {
	Backend  backend.Backend
	Identity backend.Identity

	// Registry may be nil, in which case the active-conversation set
	// only lives in memory.
	Registry Registry
}

// Engine reconciles the local view of messages and presence against
// the remote store via two redundant channels. All state mutations run
// on a single internal loop; callbacks and timers enqueue operations,
// blocking I/O runs in workers that enqueue their completions.
type Engine struct {
	cfg     Config
	backend backend.Backend
	reg     Registry
	log     zerolog.Logger

	localID     string
	displayName string

	mu      sync.Mutex
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	ops     chan func()
	closed  chan struct{}
	updates chan Update

	// Loop-owned state. Only the run loop touches these after Start.
	epoch         int
	scope         chat.Scope
	timeline      *Timeline
	watermark     Watermark
	presence      *presenceSet
	unread        map[string]int
	conversations map[string]struct{}
	participants  map[string]chat.Participant
	counted       *seenSet
	pushState     ChannelState
	pollState     ChannelState
	status        Status
	pollBusy      bool
	msgSub        backend.Subscription
	presSub       backend.Subscription
}

// New creates an engine. Call Start before use.
func New(deps Deps, cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.PresenceInterval <= 0 {
		cfg.PresenceInterval = def.PresenceInterval
	}
	if cfg.UpdateBuffer <= 0 {
		cfg.UpdateBuffer = def.UpdateBuffer
	}
	if cfg.OpBuffer <= 0 {
		cfg.OpBuffer = def.OpBuffer
	}

	e := &Engine{
		cfg:           cfg,
		backend:       deps.Backend,
		reg:           deps.Registry,
		log:           logging.Component("engine"),
		timeline:      NewTimeline(),
		presence:      newPresenceSet(),
		unread:        make(map[string]int),
		conversations: make(map[string]struct{}),
		participants:  make(map[string]chat.Participant),
		counted:       newSeenSet(0),
		pushState:     ChannelIdle,
		pollState:     ChannelIdle,
		status:        StatusDisconnected,
	}
	if deps.Identity != nil {
		e.localID = deps.Identity.ParticipantID()
		e.displayName = deps.Identity.DisplayName()
	}
	return e
}

// Start resolves identity, loads the persisted conversation set, and
// brings up both ingestion channels. Identity failure is fatal: the
// engine cannot filter events without knowing who it is.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return ErrAlreadyRunning
	}
	if e.localID == "" {
		return fmt.Errorf("engine start: %w", ErrIdentityUnresolved)
	}

	if e.reg != nil {
		peers, err := e.reg.LoadActiveConversations(ctx, e.localID)
		if err != nil {
			return fmt.Errorf("load active conversations: %w", err)
		}
		for _, peer := range peers {
			e.conversations[peer] = struct{}{}
		}
	}

	e.ctx, e.cancel = context.WithCancel(ctx)
	e.ops = make(chan func(), e.cfg.OpBuffer)
	e.closed = make(chan struct{})
	e.updates = make(chan Update, e.cfg.UpdateBuffer)
	e.started = true

	// The watermark stays zero until the first bulk fetch lands; it is
	// only ever advanced with server-assigned timestamps, so a skewed
	// client clock cannot open a poll gap.

	e.scope = chat.Public()
	e.pushState = ChannelConnecting
	e.pollState = ChannelConnecting
	e.status = combineStatus(e.pushState, e.pollState)

	e.log.Info().
		Str("participant_id", e.localID).
		Dur("poll_interval", e.cfg.PollInterval).
		Msg("engine starting")

	e.wg.Add(1)
	go e.run()

	e.wg.Add(1)
	go e.pollLoop()

	e.wg.Add(1)
	go e.announceLoop()

	go e.connectPush()
	go e.refreshParticipants()

	e.dispatch(func() { e.resync() })
	return nil
}

// Stop tears the engine down: departure is announced, both channels
// are unsubscribed, the poll timer is cancelled, and the loop drains.
// After Stop, snapshots return zero values.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.started = false
	msgSub, presSub := e.msgSub, e.presSub
	e.mu.Unlock()

	// Leave is not implicit on disconnect; announce it first.
	leaveCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := e.backend.AnnounceDeparture(leaveCtx, e.localID); err != nil {
		e.log.Debug().Err(err).Msg("departure announcement failed")
	}
	cancel()

	if msgSub != nil {
		_ = msgSub.Unsubscribe()
	}
	if presSub != nil {
		_ = presSub.Unsubscribe()
	}

	e.cancel()
	e.wg.Wait()

	// Run anything that raced into the queue so reply channels resolve.
	for {
		select {
		case fn := <-e.ops:
			fn()
		default:
			e.presence.Clear()
			close(e.closed)
			close(e.updates)
			e.log.Info().Msg("engine stopped")
			return
		}
	}
}

// Updates returns the change-notification channel. It is closed by
// Stop.
func (e *Engine) Updates() <-chan Update {
	return e.updates
}

// LocalID returns the local participant identifier.
func (e *Engine) LocalID() string { return e.localID }

// DisplayName returns the local display name.
func (e *Engine) DisplayName() string { return e.displayName }

// run is the engine loop: the single goroutine allowed to mutate
// timeline, presence, unread, watermark, and channel state.
func (e *Engine) run() {
	defer e.wg.Done()
	for {
		select {
		case fn := <-e.ops:
			fn()
		case <-e.ctx.Done():
			return
		}
	}
}

// dispatch queues an operation onto the loop. Returns false once the
// engine is shutting down.
func (e *Engine) dispatch(fn func()) bool {
	if e.ctx == nil || e.ctx.Err() != nil {
		return false
	}
	select {
	case e.ops <- fn:
		return true
	case <-e.ctx.Done():
		return false
	}
}

// notify emits a best-effort update. Dropping is fine: consumers
// re-read snapshots, and a full buffer means refreshes are pending
// anyway.
func (e *Engine) notify(kind UpdateKind) {
	select {
	case e.updates <- Update{Kind: kind}:
	default:
	}
}

func (e *Engine) notifySendFailed(err error) {
	select {
	case e.updates <- Update{Kind: UpdateSendFailed, Err: err}:
	default:
	}
}

// ingest routes one event through the visibility filter and applies
// the resulting mutation. Runs on the loop. Both channels converge
// here; there is no other filtering code path.
func (e *Engine) ingest(msg chat.Message) {
	defer e.watermark.Advance(msg.CreatedAt)

	switch Decide(msg, e.scope, e.localID) {
	case Show:
		if msg.IsDirect() {
			// Direct traffic shown in-scope still counts as processed so a
			// late redelivery in another scope cannot double-book it.
			e.counted.add(msg.ID)
		}
		if e.timeline.Upsert(msg) {
			e.notify(UpdateMessages)
		}
	case CountUnread:
		if e.counted.has(msg.ID) {
			return
		}
		e.counted.add(msg.ID)
		other := msg.Peer(e.localID)
		e.unread[other]++
		if e.registerConversation(other) {
			e.persistConversations()
		}
		e.notify(UpdateUnread)
	default:
		e.log.Debug().
			Str("message_id", msg.ID).
			Str("scope", e.scope.String()).
			Msg("event outside scope, ignored")
	}
}

// resync schedules a bulk fetch of the active scope and replaces the
// timeline when it lands, unless the scope changed in the meantime.
// Runs on the loop.
func (e *Engine) resync() {
	epoch := e.epoch
	scope := e.scope

	go func() {
		msgs, err := e.backend.FetchMessages(e.ctx, backend.MessageFilter{Scope: &scope})
		e.dispatch(func() {
			if epoch != e.epoch {
				e.log.Debug().Str("scope", scope.String()).Msg("discarding stale resync")
				return
			}
			if err != nil {
				e.log.Warn().Err(err).Str("scope", scope.String()).Msg("bulk fetch failed")
				return
			}
			e.timeline.Reset(msgs)
			for _, m := range msgs {
				e.watermark.Advance(m.CreatedAt)
			}
			e.notify(UpdateMessages)
		})
	}()
}

// Send validates the body, shows a provisional echo in the current
// scope, and issues the remote insert. Validation failures return
// immediately with no state mutated; remote failures roll the echo
// back and surface an UpdateSendFailed.
func (e *Engine) Send(text string) error {
	body, err := chat.ValidateBody(text)
	if err != nil {
		return err
	}

	ok := e.dispatch(func() {
		epoch := e.epoch
		prov := chat.Message{
			ID:          chat.NewProvisionalID(),
			SenderID:    e.localID,
			SenderName:  e.displayName,
			Body:        body,
			CreatedAt:   time.Now().UTC(),
			ClientToken: chat.NewClientToken(),
			Provisional: true,
		}
		if e.scope.IsDirect() {
			prov.RecipientID = e.scope.Other()
			if e.registerConversation(prov.RecipientID) {
				e.persistConversations()
			}
		}

		e.timeline.Upsert(prov)
		e.notify(UpdateMessages)

		go e.deliver(prov, epoch)
	})
	if !ok {
		return ErrNotRunning
	}
	return nil
}

// deliver performs the remote insert for a provisional message and
// reconciles or rolls back on completion. The returned row is applied
// directly as a resilience measure for moments when both channels are
// silent; the channels' own delivery of the same row dedupes by ID.
func (e *Engine) deliver(prov chat.Message, epoch int) {
	confirmed, err := e.backend.InsertMessage(e.ctx, prov)

	e.dispatch(func() {
		if err != nil {
			if epoch == e.epoch && e.timeline.Remove(prov.ID) {
				e.notify(UpdateMessages)
			}
			e.log.Warn().Err(err).Msg("message send failed")
			e.notifySendFailed(err)
			return
		}

		e.watermark.Advance(confirmed.CreatedAt)
		if epoch == e.epoch {
			if e.timeline.Upsert(confirmed) {
				e.notify(UpdateMessages)
			}
		}
		if confirmed.IsDirect() {
			e.counted.add(confirmed.ID)
		}
	})
}

// SwitchScope changes the viewing context: the timeline is cleared,
// the departing provisional echoes go with it, the new scope's unread
// counter resets, and a bulk fetch refills the view.
func (e *Engine) SwitchScope(scope chat.Scope) error {
	ok := e.dispatch(func() {
		e.epoch++
		e.scope = scope
		e.timeline.Reset(nil)

		if scope.IsDirect() {
			other := scope.Other()
			delete(e.unread, other)
			if e.registerConversation(other) {
				e.persistConversations()
			}
			e.notify(UpdateUnread)
		}

		e.notify(UpdateMessages)
		e.resync()
	})
	if !ok {
		return ErrNotRunning
	}
	return nil
}

// RemoveConversation forgets a direct conversation: registry entry and
// unread counter are deleted, and if it was the active scope the view
// falls back to public.
func (e *Engine) RemoveConversation(other string) error {
	ok := e.dispatch(func() {
		delete(e.conversations, other)
		delete(e.unread, other)
		e.persistConversations()
		e.notify(UpdateUnread)

		if e.scope.IsDirect() && e.scope.Other() == other {
			e.epoch++
			e.scope = chat.Public()
			e.timeline.Reset(nil)
			e.notify(UpdateMessages)
			e.resync()
		}
	})
	if !ok {
		return ErrNotRunning
	}
	return nil
}

// registerConversation adds a peer to the active-conversation set.
// Returns true if it was new.
func (e *Engine) registerConversation(other string) bool {
	if other == "" || other == e.localID {
		return false
	}
	if _, ok := e.conversations[other]; ok {
		return false
	}
	e.conversations[other] = struct{}{}
	return true
}

// persistConversations saves the registry snapshot in the background.
// Runs on the loop; the write itself does not.
func (e *Engine) persistConversations() {
	if e.reg == nil {
		return
	}
	peers := make([]string, 0, len(e.conversations))
	for peer := range e.conversations {
		peers = append(peers, peer)
	}
	sort.Strings(peers)

	go func() {
		if err := e.reg.SaveActiveConversations(e.ctx, e.localID, peers); err != nil {
			e.log.Warn().Err(err).Msg("failed to persist conversations")
		}
	}()
}

// refreshParticipants loads the participant directory.
func (e *Engine) refreshParticipants() {
	participants, err := e.backend.FetchParticipants(e.ctx)
	if err != nil {
		e.log.Warn().Err(err).Msg("failed to fetch participants")
		return
	}
	e.dispatch(func() {
		e.participants = make(map[string]chat.Participant, len(participants))
		for _, p := range participants {
			e.participants[p.ID] = p
		}
		e.notify(UpdateParticipants)
	})
}

// RefreshParticipants re-fetches the participant directory on demand.
func (e *Engine) RefreshParticipants() {
	go e.refreshParticipants()
}

// setPushState applies a push channel transition. Runs on the loop.
func (e *Engine) setPushState(state ChannelState) {
	if state == e.pushState {
		return
	}
	e.log.Info().
		Str("channel", "push").
		Str("from", string(e.pushState)).
		Str("to", string(state)).
		Msg("channel state changed")
	e.pushState = state

	switch state {
	case ChannelActive:
		// Close any gap that existed before the feed was live.
		e.resync()
		go e.announcePresence()
	case ChannelDegraded, ChannelDisconnected:
		// Presence must not be assumed stale-but-valid; require a fresh
		// sync after reconnect.
		e.presence.Clear()
		e.notify(UpdatePresence)
	}

	e.refreshStatus()
}

// setPollState applies a poll channel transition. Runs on the loop.
func (e *Engine) setPollState(state ChannelState) {
	if state == e.pollState {
		return
	}
	e.log.Info().
		Str("channel", "poll").
		Str("from", string(e.pollState)).
		Str("to", string(state)).
		Msg("channel state changed")
	e.pollState = state
	e.refreshStatus()
}

func (e *Engine) refreshStatus() {
	status := combineStatus(e.pushState, e.pollState)
	if status == e.status {
		return
	}
	e.status = status
	e.notify(UpdateStatus)
}
