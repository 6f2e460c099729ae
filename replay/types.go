package replay

// MatchSpec describes a match to replay. Seats left out are filled with bots
// and plays beyond the scripted ones are chosen by bots.
type MatchSpec struct {
	Leader      uint8      `json:"leader"`
	Trump       string     `json:"trump,omitempty"`
	TrumpPolicy string     `json:"trump_policy,omitempty"`
	Bid         int        `json:"bid,omitempty"`
	Brain       string     `json:"brain,omitempty"`
	Seats       []SeatSpec `json:"seats,omitempty"`
	Deck        []string   `json:"deck,omitempty"`
	Plays       []PlaySpec `json:"plays,omitempty"`
	RNG         *RNGSpec   `json:"rng,omitempty"`
}

type SeatSpec struct {
	Seat uint8  `json:"seat"`
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type PlaySpec struct {
	Seat uint8  `json:"seat"`
	Card string `json:"card"`
}

type RNGSpec struct {
	Seed int64 `json:"seed"`
}

type ReplayTape struct {
	TapeVersion int           `json:"tape_version"`
	MatchID     string        `json:"match_id"`
	Events      []ReplayEvent `json:"events"`
	Result      *ResultView   `json:"result,omitempty"`
}

type ReplayEvent struct {
	Type  string         `json:"type"`
	Seq   uint64         `json:"seq"`
	Value map[string]any `json:"value,omitempty"`
}

type ResultView struct {
	DeclarerPoints  int   `json:"declarer_points"`
	OpponentPoints  int   `json:"opponent_points"`
	DeclarerTricks  int   `json:"declarer_tricks"`
	OpponentTricks  int   `json:"opponent_tricks"`
	LastTrickWinner uint8 `json:"last_trick_winner"`
	Bid             int   `json:"bid"`
	DeclarerMadeBid bool  `json:"declarer_made_bid"`
}
