package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"taash29/apps/server/internal/auth"
	"taash29/apps/server/internal/codec"
	"taash29/apps/server/internal/lobby"
)

const (
	readLimit    = 65536
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
	sendBuffer   = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Connection is one websocket client.
type Connection struct {
	ID       string
	Identity string
	Guest    bool

	conn    *websocket.Conn
	gateway *Gateway
	out     chan []byte
	done    chan struct{} // closed once; out itself is never closed
	format  atomic.Uint32

	closeOnce sync.Once
	log       *zap.Logger
}

// Gateway upgrades websocket requests and dispatches client messages to
// the lobby and rooms.
type Gateway struct {
	hub   *Hub
	lobby *lobby.Lobby
	auth  auth.Service
	log   *zap.Logger

	nextConnID atomic.Uint64
	nextGuest  atomic.Uint64
	seq        atomic.Uint64
}

func New(hub *Hub, lby *lobby.Lobby, authService auth.Service, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{hub: hub, lobby: lby, auth: authService, log: log.Named("gateway")}
}

// identify resolves ?token= to a username, falling back to a guest identity.
func (g *Gateway) identify(r *http.Request) (string, bool, error) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		token = auth.BearerToken(r.Header.Get("Authorization"))
	}
	if token != "" && g.auth != nil {
		s, ok := g.auth.Resolve(r.Context(), token)
		if !ok {
			return "", false, errors.New("invalid session token")
		}
		return s.Username, false, nil
	}
	return fmt.Sprintf("Guest%d", g.nextGuest.Add(1)), true, nil
}

// HandleWebSocket handles the upgrade and starts the connection pumps.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	identity, guest, err := g.identify(r)
	if err != nil {
		auth.WriteError(w, http.StatusUnauthorized, err.Error())
		return
	}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	c := &Connection{
		ID:       fmt.Sprintf("conn_%d", g.nextConnID.Add(1)),
		Identity: identity,
		Guest:    guest,
		conn:     ws,
		gateway:  g,
		out:      make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
	}
	c.log = g.log.With(zap.String("conn", c.ID), zap.String("identity", identity))
	if prev := g.hub.register(c); prev != nil {
		c.log.Info("replacing previous connection", zap.String("previous", prev.ID))
		prev.close()
	}
	c.log.Info("client connected", zap.Bool("guest", guest), zap.Int("total", g.hub.Count()))

	go c.readPump()
	go c.writePump()
}

func (c *Connection) readPump() {
	defer func() {
		c.gateway.disconnect(c)
		c.close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Info("read error", zap.Error(err))
			}
			return
		}
		format := codec.FormatBinary
		if messageType == websocket.TextMessage {
			format = codec.FormatJSON
		}
		c.format.Store(uint32(format))
		c.gateway.handleMessage(c, message, format)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			kind := websocket.BinaryMessage
			if codec.Format(c.format.Load()) == codec.FormatJSON {
				kind = websocket.TextMessage
			}
			if err := c.conn.WriteMessage(kind, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// send encodes env and queues it without blocking.
func (c *Connection) send(env codec.Envelope) {
	data, err := codec.Encode(env, codec.Format(c.format.Load()))
	if err != nil {
		c.log.Error("encode failed", zap.String("type", env.Type), zap.Error(err))
		return
	}
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.out <- data:
	case <-c.done:
	default:
		c.log.Warn("send buffer full, dropping", zap.String("type", env.Type))
	}
}

func (c *Connection) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (g *Gateway) disconnect(c *Connection) {
	if !g.hub.unregister(c) {
		// a newer connection owns the identity and its seat
		return
	}
	if err := g.lobby.Leave(c.Identity); err != nil && !errors.Is(err, lobby.ErrNotInRoom) {
		c.log.Warn("leave on disconnect failed", zap.Error(err))
	}
	c.log.Info("client disconnected", zap.Int("total", g.hub.Count()))
}

// sendError replies with an errorMessage envelope.
func (g *Gateway) sendError(c *Connection, roomCode string, err error) {
	c.send(codec.NewEnvelope(codec.TypeErrorMessage, roomCode, g.seq.Add(1), codec.Payload{
		"code":    int(errorCodeOf(err)),
		"reason":  err.Error(),
		"message": err.Error(),
	}))
}
