package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taash29/apps/server/internal/auth"
	"taash29/apps/server/internal/codec"
	"taash29/apps/server/internal/lobby"
	"taash29/apps/server/internal/room"
	"taash29/card"
	"taash29/twentynine"
	"taash29/twentynine/bot"
)

func newTestServer(t *testing.T) (*httptest.Server, auth.Service) {
	t.Helper()
	log := zap.NewNop()
	bots, err := bot.NewManager(bot.ManagerConfig{Brain: bot.BrainRandom, ThinkDelay: time.Hour}, log)
	require.NoError(t, err)

	hub := NewHub(log)
	lby := lobby.New(room.Config{
		BackfillDelay: time.Hour,
		TrumpPolicy:   twentynine.TrumpFixed,
		Trump:         card.Heart,
	}, hub, nil, bots, log)
	t.Cleanup(lby.Shutdown)

	authSvc := auth.NewManager(0)
	gw := New(hub, lby, authSvc, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	mux.HandleFunc("/api/rooms", gw.HandleRooms)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, authSvc
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func sendJSON(t *testing.T, ws *websocket.Conn, frame string) {
	t.Helper()
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(frame)))
}

// next reads frames until one of msgType arrives.
func next(t *testing.T, ws *websocket.Conn, msgType string) codec.Envelope {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		kind, data, err := ws.ReadMessage()
		require.NoError(t, err)
		format := codec.FormatBinary
		if kind == websocket.TextMessage {
			format = codec.FormatJSON
		}
		env, err := codec.Decode(data, format)
		require.NoError(t, err)
		if env.Type == msgType {
			return env
		}
	}
}

func TestGuestQuickJoinAndStart(t *testing.T) {
	srv, _ := newTestServer(t)
	ws := dial(t, srv, "")

	sendJSON(t, ws, `{"type":"quickJoin","payload":{"displayName":"Hu"}}`)
	joined := next(t, ws, codec.TypeJoinedRoom)
	code, err := codec.RequiredString(joined.Payload, "roomCode")
	require.NoError(t, err)

	update := next(t, ws, codec.TypeRoomUpdate)
	creator, err := codec.String(update.Payload, "creatorId")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(creator, "Guest"))

	sendJSON(t, ws, fmt.Sprintf(`{"type":"startGame","roomCode":%q}`, code))
	deal := next(t, ws, codec.TypeDealPrivate)
	cards, err := codec.Strings(deal.Payload, "cards")
	require.NoError(t, err)
	require.Len(t, cards, twentynine.HandSize)

	start := next(t, ws, codec.TypeMatchStart)
	bid, err := codec.Int(start.Payload, "bid")
	require.NoError(t, err)
	require.Positive(t, bid)

	resp, err := http.Get(srv.URL + "/api/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()
	var listing struct {
		Rooms []roomView `json:"rooms"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	require.Len(t, listing.Rooms, 1)
	require.Equal(t, "playing", listing.Rooms[0].Status)
	require.Equal(t, 3, listing.Rooms[0].Bots)
	require.Equal(t, []string{"Hu"}, listing.Rooms[0].Players)
}

func TestErrorsAreReported(t *testing.T) {
	srv, _ := newTestServer(t)
	ws := dial(t, srv, "")

	sendJSON(t, ws, `{"type":"joinRoom","payload":{}}`)
	e := next(t, ws, codec.TypeErrorMessage)
	require.EqualValues(t, CodeBadMessage, e.Payload["code"])
	require.Equal(t, "roomCode required", e.Payload["reason"])

	sendJSON(t, ws, `{"type":"joinRoom","roomCode":"NOPE42"}`)
	e = next(t, ws, codec.TypeErrorMessage)
	require.EqualValues(t, CodeRoomNotFound, e.Payload["code"])

	sendJSON(t, ws, `{"type":"dance"}`)
	e = next(t, ws, codec.TypeErrorMessage)
	require.EqualValues(t, CodeUnknownType, e.Payload["code"])

	sendJSON(t, ws, `{"type":"resolveRound","payload":{"winningTeam":["A"]}}`)
	e = next(t, ws, codec.TypeErrorMessage)
	require.EqualValues(t, CodeBadMessage, e.Payload["code"])
}

func TestBinaryClientGetsBinaryReplies(t *testing.T) {
	srv, _ := newTestServer(t)
	ws := dial(t, srv, "")

	frame, err := codec.Encode(codec.NewEnvelope(codec.TypeCreateRoom, "", 1, codec.Payload{"roomCode": "bin01"}), codec.FormatBinary)
	require.NoError(t, err)
	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, frame))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	kind, data, err := ws.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.BinaryMessage, kind)
	env, err := codec.Decode(data, codec.FormatBinary)
	require.NoError(t, err)
	require.Equal(t, codec.TypeRoomCreated, env.Type)
	require.Equal(t, "BIN01", env.Payload["roomCode"])
}

func TestTokenIdentity(t *testing.T) {
	srv, authSvc := newTestServer(t)
	s, err := authSvc.Register(context.Background(), "dana", "secret12")
	require.NoError(t, err)

	ws := dial(t, srv, "?token="+s.Token)
	sendJSON(t, ws, `{"type":"createRoom","payload":{"roomCode":"DANA1"}}`)
	update := next(t, ws, codec.TypeRoomUpdate)
	require.Equal(t, "dana", update.Payload["creatorId"])

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=bogus"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestErrorCodes(t *testing.T) {
	require.Equal(t, CodeIllegalPlay, errorCodeOf(fmt.Errorf("x: %w", twentynine.ErrIllegalPlay)))
	require.Equal(t, CodeInsufficientFunds, errorCodeOf(&room.InsufficientFundsError{}))
	require.Equal(t, CodeNoActiveBid, errorCodeOf(room.ErrNoActiveBid))
	require.Equal(t, CodeRoomUnavailable, errorCodeOf(fmt.Errorf("AAA: %w", lobby.ErrInMatch)))
	require.Equal(t, CodeInternal, errorCodeOf(fmt.Errorf("boom")))
}

func TestSendRacingCloseDoesNotPanic(t *testing.T) {
	c := &Connection{
		ID:       "conn_1",
		Identity: "a",
		out:      make(chan []byte, 1),
		done:     make(chan struct{}),
		log:      zap.NewNop(),
	}
	env := codec.NewEnvelope(codec.TypeLogMessage, "", 1, codec.Payload{"message": "hi"})

	c.send(env)
	require.Len(t, c.out, 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c.send(env)
			}
		}()
	}
	c.close()
	c.close()
	wg.Wait()

	// full buffer drops, a closed connection queues nothing
	require.Len(t, c.out, 1)
	<-c.out
	c.send(env)
	require.Empty(t, c.out)
}
