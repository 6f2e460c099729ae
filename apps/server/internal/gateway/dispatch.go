package gateway

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"taash29/apps/server/internal/auth"
	"taash29/apps/server/internal/codec"
	"taash29/apps/server/internal/lobby"
	"taash29/apps/server/internal/room"
	"taash29/twentynine"
)

// ErrorCode is the stable code reported in errorMessage.
type ErrorCode int32

const (
	CodeInternal ErrorCode = iota + 1
	CodeBadMessage
	CodeUnknownType
	CodeRoomNotFound
	CodeRoomUnavailable
	CodeNotSeated
	CodeNotYourTurn
	CodeCardNotInHand
	CodeIllegalPlay
	CodeNoActiveBid
	CodeBidActive
	CodeInsufficientFunds
	CodeInvalidBidData
)

var (
	errUnknownType  = errors.New("unknown message type")
	errRoomRequired = errors.New("roomCode required")
)

// errorCodeOf maps an error to its wire code.
func errorCodeOf(err error) ErrorCode {
	var short *room.InsufficientFundsError
	switch {
	case errors.As(err, &short):
		return CodeInsufficientFunds
	case errors.Is(err, room.ErrInvalidBidData):
		return CodeInvalidBidData
	case errors.Is(err, codec.ErrEmptyFrame), errors.Is(err, codec.ErrMissingType),
		errors.Is(err, codec.ErrFieldMissing), errors.Is(err, codec.ErrFieldType),
		errors.Is(err, errRoomRequired), errors.Is(err, lobby.ErrInvalidRoomCode):
		return CodeBadMessage
	case errors.Is(err, errUnknownType):
		return CodeUnknownType
	case errors.Is(err, lobby.ErrRoomNotFound):
		return CodeRoomNotFound
	case errors.Is(err, room.ErrRoomFull), errors.Is(err, room.ErrRoomInPlay), errors.Is(err, room.ErrRoomClosed),
		errors.Is(err, lobby.ErrInMatch):
		return CodeRoomUnavailable
	case errors.Is(err, room.ErrNotSeated), errors.Is(err, room.ErrNoMatch), errors.Is(err, lobby.ErrNotInRoom):
		return CodeNotSeated
	case errors.Is(err, twentynine.ErrNotYourTurn), errors.Is(err, twentynine.ErrMatchEnded):
		return CodeNotYourTurn
	case errors.Is(err, twentynine.ErrCardNotInHand):
		return CodeCardNotInHand
	case errors.Is(err, twentynine.ErrIllegalPlay):
		return CodeIllegalPlay
	case errors.Is(err, room.ErrNoActiveBid):
		return CodeNoActiveBid
	case errors.Is(err, room.ErrBidActive):
		return CodeBidActive
	}
	return CodeInternal
}

func (g *Gateway) handleMessage(c *Connection, data []byte, format codec.Format) {
	env, err := codec.Decode(data, format)
	if err != nil {
		c.log.Debug("bad frame", zap.Error(err))
		g.sendError(c, "", err)
		return
	}
	if err := g.dispatch(c, env); err != nil {
		if errorCodeOf(err) == CodeInternal {
			c.log.Error("request failed", zap.String("type", env.Type), zap.Error(err))
		}
		g.sendError(c, env.RoomCode, err)
	}
}

func (g *Gateway) dispatch(c *Connection, env codec.Envelope) error {
	p := env.Payload
	switch env.Type {
	case codec.TypeQuickJoin:
		name, err := displayName(p)
		if err != nil {
			return err
		}
		_, err = g.lobby.QuickJoin(c.Identity, name)
		return err

	case codec.TypeCreateRoom:
		name, err := displayName(p)
		if err != nil {
			return err
		}
		code, err := roomCode(env)
		if err != nil {
			return err
		}
		_, err = g.lobby.CreateRoom(c.Identity, name, code)
		return err

	case codec.TypeJoinRoom:
		name, err := displayName(p)
		if err != nil {
			return err
		}
		code, err := roomCode(env)
		if err != nil {
			return err
		}
		if code == "" {
			return errRoomRequired
		}
		_, err = g.lobby.JoinRoom(c.Identity, name, code)
		return err

	case codec.TypeStartGame:
		code, err := roomCode(env)
		if err != nil {
			return err
		}
		if code == "" {
			return errRoomRequired
		}
		return g.lobby.StartGame(code)

	case codec.TypePlayCard:
		r, err := g.roomFor(c, env)
		if err != nil {
			return err
		}
		cd, err := codec.Card(p, "card")
		if err != nil {
			return err
		}
		return r.Play(c.Identity, cd)

	case codec.TypeStartBid:
		r, err := g.roomFor(c, env)
		if err != nil {
			return err
		}
		team, err := codec.Strings(p, "biddingTeam")
		if err != nil {
			return errors.Join(room.ErrInvalidBidData, err)
		}
		amount, err := bidAmount(p)
		if err != nil {
			return errors.Join(room.ErrInvalidBidData, err)
		}
		return r.StartBid(team, amount)

	case codec.TypeResolveRound:
		r, err := g.roomFor(c, env)
		if err != nil {
			return err
		}
		winners, err := codec.Strings(p, "winningTeam")
		if err != nil {
			return errors.Join(room.ErrInvalidBidData, err)
		}
		return r.ResolveRound(winners)

	case codec.TypeLeave:
		return g.lobby.Leave(c.Identity)
	}
	return errUnknownType
}

// roomFor resolves the envelope's room, defaulting to the sender's room.
func (g *Gateway) roomFor(c *Connection, env codec.Envelope) (*room.Room, error) {
	code, err := roomCode(env)
	if err != nil {
		return nil, err
	}
	if code != "" {
		return g.lobby.Room(code)
	}
	if r := g.lobby.RoomOf(c.Identity); r != nil {
		return r, nil
	}
	return nil, errRoomRequired
}

func roomCode(env codec.Envelope) (string, error) {
	code, err := codec.String(env.Payload, "roomCode")
	if err != nil {
		return "", err
	}
	if code == "" {
		code = env.RoomCode
	}
	return lobby.NormalizeCode(code), nil
}

func displayName(p codec.Payload) (string, error) {
	for _, key := range []string{"displayName", "username"} {
		name, err := codec.String(p, key)
		if err != nil || name != "" {
			return name, err
		}
	}
	return "", nil
}

func bidAmount(p codec.Payload) (int64, error) {
	if _, ok := p["amount"]; ok {
		return codec.Int(p, "amount")
	}
	return codec.Int(p, "bidAmount")
}

type roomView struct {
	Code    string   `json:"roomCode"`
	Status  string   `json:"status"`
	Players []string `json:"players"`
	Bots    int      `json:"bots"`
	MatchID string   `json:"matchId,omitempty"`
	Stake   int64    `json:"stake,omitempty"`
}

// HandleRooms lists the lobby's rooms as JSON.
func (g *Gateway) HandleRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		auth.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	summaries := g.lobby.ListRooms()
	out := make([]roomView, 0, len(summaries))
	for _, s := range summaries {
		v := roomView{Code: s.Code, Status: s.Status.String(), Players: []string{}, MatchID: s.MatchID}
		for _, seat := range s.Seats {
			if seat.Bot {
				v.Bots++
				continue
			}
			if !seat.Vacant {
				v.Players = append(v.Players, seat.Name)
			}
		}
		if s.Stake != nil {
			v.Stake = s.Stake.Amount
		}
		out = append(out, v)
	}
	auth.WriteJSON(w, http.StatusOK, map[string]any{"rooms": out})
}
