package backend

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"retrochat/internal/logging"
)

const (
	// Time allowed to write a frame.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong.
	pongWait = 60 * time.Second

	// Ping cadence; must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// realtime owns the websocket connection and fans frames out to
// message and presence subscribers. The socket is dialed when the
// first subscription arrives and closed when the last one leaves; on
// transport failure it reconnects on a fixed interval, reporting state
// transitions to every subscriber.
type realtime struct {
	g   *Gateway
	log zerolog.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	msgSubs  map[string]MessageHandlers
	presSubs map[string]PresenceHandlers
	running  bool
	cancel   context.CancelFunc
	done     chan struct{}

	writeMu sync.Mutex
}

type subscriptionKind int

const (
	kindMessages subscriptionKind = iota
	kindPresence
)

type realtimeSubscription struct {
	rt   *realtime
	id   string
	kind subscriptionKind
}

func (s *realtimeSubscription) Unsubscribe() error {
	s.rt.unsubscribe(s.id, s.kind)
	return nil
}

func newRealtime(g *Gateway) *realtime {
	return &realtime{
		g:        g,
		log:      logging.Component("realtime"),
		msgSubs:  make(map[string]MessageHandlers),
		presSubs: make(map[string]PresenceHandlers),
	}
}

func (rt *realtime) subscribeMessages(ctx context.Context, h MessageHandlers) (Subscription, error) {
	rt.mu.Lock()
	id := uuid.NewString()
	rt.msgSubs[id] = h
	connected := rt.conn != nil
	rt.ensureRunningLocked()
	rt.mu.Unlock()

	if h.OnState != nil {
		if connected {
			h.OnState(StatusActive)
		} else {
			h.OnState(StatusConnecting)
		}
	}
	return &realtimeSubscription{rt: rt, id: id, kind: kindMessages}, nil
}

func (rt *realtime) subscribePresence(ctx context.Context, h PresenceHandlers) (Subscription, error) {
	rt.mu.Lock()
	id := uuid.NewString()
	rt.presSubs[id] = h
	connected := rt.conn != nil
	rt.ensureRunningLocked()
	rt.mu.Unlock()

	if h.OnState != nil {
		if connected {
			h.OnState(StatusActive)
		} else {
			h.OnState(StatusConnecting)
		}
	}
	return &realtimeSubscription{rt: rt, id: id, kind: kindPresence}, nil
}

func (rt *realtime) unsubscribe(id string, kind subscriptionKind) {
	rt.mu.Lock()
	switch kind {
	case kindMessages:
		delete(rt.msgSubs, id)
	case kindPresence:
		delete(rt.presSubs, id)
	}
	empty := len(rt.msgSubs) == 0 && len(rt.presSubs) == 0
	var done chan struct{}
	if empty && rt.running {
		rt.cancel()
		rt.running = false
		done = rt.done
	}
	rt.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (rt *realtime) close() error {
	rt.mu.Lock()
	var done chan struct{}
	if rt.running {
		rt.cancel()
		rt.running = false
		done = rt.done
	}
	rt.msgSubs = make(map[string]MessageHandlers)
	rt.presSubs = make(map[string]PresenceHandlers)
	rt.mu.Unlock()

	if done != nil {
		<-done
	}
	return nil
}

func (rt *realtime) ensureRunningLocked() {
	if rt.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	rt.running = true
	rt.cancel = cancel
	rt.done = make(chan struct{})
	go rt.run(ctx, rt.done)
}

// run dials, pumps, and reconnects until cancelled. There is no
// backoff: the engine's poll channel covers gaps, so a fixed interval
// is enough.
func (rt *realtime) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		rt.notifyState(StatusConnecting)

		conn, err := rt.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			rt.log.Warn().Err(err).Msg("realtime dial failed")
			rt.notifyState(StatusDisconnected)
			if !sleepCtx(ctx, rt.g.cfg.ReconnectInterval) {
				return
			}
			continue
		}

		rt.setConn(conn)
		rt.notifyState(StatusActive)

		err = rt.readPump(ctx, conn)
		rt.setConn(nil)
		_ = conn.Close()

		if ctx.Err() != nil {
			return
		}
		rt.log.Warn().Err(err).Msg("realtime connection lost")
		rt.notifyState(StatusDisconnected)
		if !sleepCtx(ctx, rt.g.cfg.ReconnectInterval) {
			return
		}
	}
}

func (rt *realtime) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: rt.g.cfg.DialTimeout}
	dialCtx, cancel := context.WithTimeout(ctx, rt.g.cfg.DialTimeout)
	defer cancel()

	conn, resp, err := dialer.DialContext(dialCtx, rt.g.socketURL(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

// readPump reads frames until the connection fails or the context is
// cancelled. Pings keep the read deadline alive.
func (rt *realtime) readPump(ctx context.Context, conn *websocket.Conn) error {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	pingDone := make(chan struct{})
	go rt.pingLoop(ctx, conn, pingDone)
	defer close(pingDone)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		f, err := decodeFrame(data)
		if err != nil {
			rt.log.Debug().Err(err).Msg("dropping malformed frame")
			continue
		}
		rt.dispatch(f)
	}
}

func (rt *realtime) pingLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			rt.writeMu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			rt.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (rt *realtime) dispatch(f frame) {
	rt.mu.Lock()
	msgSubs := make([]MessageHandlers, 0, len(rt.msgSubs))
	for _, h := range rt.msgSubs {
		msgSubs = append(msgSubs, h)
	}
	presSubs := make([]PresenceHandlers, 0, len(rt.presSubs))
	for _, h := range rt.presSubs {
		presSubs = append(presSubs, h)
	}
	rt.mu.Unlock()

	switch f.Type {
	case frameMessageInsert:
		if f.Message == nil {
			return
		}
		for _, h := range msgSubs {
			if h.OnEvent != nil {
				h.OnEvent(*f.Message)
			}
		}
	case framePresenceSync:
		for _, h := range presSubs {
			if h.OnSync != nil {
				ids := make([]string, len(f.Participants))
				copy(ids, f.Participants)
				h.OnSync(ids)
			}
		}
	case framePresenceJoin:
		for _, h := range presSubs {
			if h.OnJoin != nil {
				h.OnJoin(f.ParticipantID)
			}
		}
	case framePresenceLeave:
		for _, h := range presSubs {
			if h.OnLeave != nil {
				h.OnLeave(f.ParticipantID)
			}
		}
	default:
		rt.log.Debug().Str("type", f.Type).Msg("ignoring unknown frame type")
	}
}

func (rt *realtime) notifyState(status ChannelStatus) {
	rt.mu.Lock()
	msgSubs := make([]MessageHandlers, 0, len(rt.msgSubs))
	for _, h := range rt.msgSubs {
		msgSubs = append(msgSubs, h)
	}
	presSubs := make([]PresenceHandlers, 0, len(rt.presSubs))
	for _, h := range rt.presSubs {
		presSubs = append(presSubs, h)
	}
	rt.mu.Unlock()

	for _, h := range msgSubs {
		if h.OnState != nil {
			h.OnState(status)
		}
	}
	for _, h := range presSubs {
		if h.OnState != nil {
			h.OnState(status)
		}
	}
}

func (rt *realtime) setConn(conn *websocket.Conn) {
	rt.mu.Lock()
	rt.conn = conn
	rt.mu.Unlock()
}

// send writes a frame on the current connection.
func (rt *realtime) send(f frame) error {
	rt.mu.Lock()
	conn := rt.conn
	rt.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	data, err := encodeFrame(f)
	if err != nil {
		return err
	}

	rt.writeMu.Lock()
	defer rt.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
