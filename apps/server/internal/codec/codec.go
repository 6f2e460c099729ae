// Package codec frames client and server messages as google.protobuf.Struct
// envelopes: {type, roomCode, seq, tsMs, payload}.
package codec

import (
	"errors"
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"taash29/card"
)

// Format is the wire encoding of a frame.
type Format uint8

const (
	FormatBinary Format = iota // protobuf wire encoding
	FormatJSON                 // protojson, sent as websocket text frames
)

// Inbound message types.
const (
	TypeQuickJoin    = "quickJoin"
	TypeCreateRoom   = "createRoom"
	TypeJoinRoom     = "joinRoom"
	TypeStartGame    = "startGame"
	TypePlayCard     = "playCard"
	TypeStartBid     = "startBid"
	TypeResolveRound = "resolveRound"
	TypeLeave        = "leave"
)

// Outbound message types.
const (
	TypeRoomUpdate    = "roomUpdate"
	TypeJoinedRoom    = "joinedRoom"
	TypeRoomCreated   = "roomCreated"
	TypeDealPrivate   = "dealPrivate"
	TypeMatchStart    = "matchStart"
	TypeCardPlayed    = "cardPlayed"
	TypeTrickWon      = "trickWon"
	TypePyarActivated = "pyarActivated"
	TypeMatchEnd      = "matchEnd"
	TypeTurnRequest   = "turnRequest"
	TypeBidStarted    = "bidStarted"
	TypeWalletUpdate  = "walletUpdate"
	TypeRoundResolved = "roundResolved"
	TypeErrorMessage  = "errorMessage"
	TypeLogMessage    = "logMessage"
)

var (
	ErrEmptyFrame   = errors.New("empty frame")
	ErrMissingType  = errors.New("envelope has no type")
	ErrFieldMissing = errors.New("payload field missing")
	ErrFieldType    = errors.New("payload field has wrong type")
)

// Payload is the body of an envelope. Values must be representable by
// structpb: nil, bool, numbers, string, []any and map[string]any.
type Payload = map[string]any

// Envelope is one framed message.
type Envelope struct {
	Type     string
	RoomCode string
	Seq      uint64
	TsMs     int64
	Payload  Payload
}

// NewEnvelope stamps an outbound envelope with the current time.
func NewEnvelope(msgType, roomCode string, seq uint64, payload Payload) Envelope {
	return Envelope{
		Type:     msgType,
		RoomCode: roomCode,
		Seq:      seq,
		TsMs:     time.Now().UnixMilli(),
		Payload:  payload,
	}
}

func (e Envelope) toStruct() (*structpb.Struct, error) {
	payload := e.Payload
	if payload == nil {
		payload = Payload{}
	}
	body, err := structpb.NewStruct(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", e.Type, err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"type":     structpb.NewStringValue(e.Type),
		"roomCode": structpb.NewStringValue(e.RoomCode),
		"seq":      structpb.NewNumberValue(float64(e.Seq)),
		"tsMs":     structpb.NewNumberValue(float64(e.TsMs)),
		"payload":  structpb.NewStructValue(body),
	}}, nil
}

// Encode serializes env in the given format.
func Encode(env Envelope, format Format) ([]byte, error) {
	if env.Type == "" {
		return nil, ErrMissingType
	}
	s, err := env.toStruct()
	if err != nil {
		return nil, err
	}
	if format == FormatJSON {
		return protojson.Marshal(s)
	}
	return proto.Marshal(s)
}

// Decode parses a frame. Missing roomCode, seq and payload are allowed.
func Decode(data []byte, format Format) (Envelope, error) {
	if len(data) == 0 {
		return Envelope{}, ErrEmptyFrame
	}
	var s structpb.Struct
	var err error
	if format == FormatJSON {
		err = protojson.Unmarshal(data, &s)
	} else {
		err = proto.Unmarshal(data, &s)
	}
	if err != nil {
		return Envelope{}, fmt.Errorf("decode frame: %w", err)
	}

	fields := s.GetFields()
	env := Envelope{
		Type:     fields["type"].GetStringValue(),
		RoomCode: fields["roomCode"].GetStringValue(),
		Seq:      uint64(fields["seq"].GetNumberValue()),
		TsMs:     int64(fields["tsMs"].GetNumberValue()),
	}
	if env.Type == "" {
		return Envelope{}, ErrMissingType
	}
	if body := fields["payload"].GetStructValue(); body != nil {
		env.Payload = body.AsMap()
	} else {
		env.Payload = Payload{}
	}
	return env, nil
}

// String reads an optional string field; absent reads as "".
func String(p Payload, key string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: %w", key, ErrFieldType)
	}
	return s, nil
}

// RequiredString is String but rejects an absent or blank value.
func RequiredString(p Payload, key string) (string, error) {
	s, err := String(p, key)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", fmt.Errorf("%s: %w", key, ErrFieldMissing)
	}
	return s, nil
}

// Int reads a whole number field.
func Int(p Payload, key string) (int64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%s: %w", key, ErrFieldMissing)
	}
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("%s: %w", key, ErrFieldType)
	}
	return int64(f), nil
}

// Strings reads a list of strings.
func Strings(p Payload, key string) ([]string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, fmt.Errorf("%s: %w", key, ErrFieldMissing)
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrFieldType)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s: %w", key, ErrFieldType)
		}
		out = append(out, s)
	}
	return out, nil
}

// Card reads a card in any form card.Parse accepts.
func Card(p Payload, key string) (card.Card, error) {
	raw, err := RequiredString(p, key)
	if err != nil {
		return card.CardInvalid, err
	}
	return card.Parse(raw)
}

// List converts a typed slice into the []any structpb expects.
func List[T any](items []T) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

// CardList renders cards as their short names.
func CardList(cards []card.Card) []any {
	return List(card.Strings(cards))
}
