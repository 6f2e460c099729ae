package room

import "errors"

var (
	ErrRoomClosed     = errors.New("room closed")
	ErrRoomFull       = errors.New("room is full")
	ErrRoomInPlay     = errors.New("match in progress")
	ErrNotSeated      = errors.New("not seated in this room")
	ErrNoMatch        = errors.New("no match in progress")
	ErrNoActiveBid    = errors.New("no active bid")
	ErrBidActive      = errors.New("a bid is already active")
	ErrInvalidBidData = errors.New("invalid bid data")
)
