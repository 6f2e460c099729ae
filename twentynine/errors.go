package twentynine

import "errors"

var (
	ErrMatchEnded    = errors.New("match already ended")
	ErrNotDealt      = errors.New("match not dealt yet")
	ErrAlreadyDealt  = errors.New("match already dealt")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrCardNotInHand = errors.New("card not in hand")
	ErrIllegalPlay   = errors.New("must follow lead suit")
	ErrSeatTaken     = errors.New("seat already occupied")
	ErrSeatsNotFull  = errors.New("all four seats must be occupied")
)

type InvalidStateError string

func (e InvalidStateError) Error() string { return "invalid state: " + string(e) }

func ErrInvalidState(msg string) error { return InvalidStateError(msg) }
