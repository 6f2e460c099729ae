package replay

import (
	"reflect"
	"testing"
)

func baseMatchSpec() MatchSpec {
	// Seat s receives deck[s], deck[s+4], ... with leader 0.
	return MatchSpec{
		Leader: 0,
		Trump:  "D",
		Bid:    16,
		Seats: []SeatSpec{
			{Seat: 0, ID: "alice", Name: "Alice"},
			{Seat: 2, ID: "carol", Name: "Carol"},
		},
		Deck: []string{
			"JH", "AH", "KH", "8H",
			"9H", "TH", "QH", "7H",
			"AS", "JS", "KS", "8S",
			"TS", "9S", "QS", "7S",
			"KC", "8C", "JC", "AC",
			"QC", "7C", "9C", "TC",
			"8D", "KD", "AD", "JD",
			"7D", "QD", "TD", "9D",
		},
		Plays: []PlaySpec{
			{Seat: 0, Card: "JH"},
			{Seat: 1, Card: "AH"},
			{Seat: 2, Card: "KH"},
			{Seat: 3, Card: "8H"},
		},
		RNG: &RNGSpec{Seed: 42},
	}
}

func TestGenerateReplayTape_IsDeterministic(t *testing.T) {
	spec := baseMatchSpec()

	tapeA, err := GenerateReplayTape(spec)
	if err != nil {
		t.Fatalf("GenerateReplayTape A failed: %v", err)
	}
	tapeB, err := GenerateReplayTape(spec)
	if err != nil {
		t.Fatalf("GenerateReplayTape B failed: %v", err)
	}

	if !reflect.DeepEqual(tapeA, tapeB) {
		t.Fatalf("expected deterministic replay tape for the same MatchSpec")
	}

	counts := map[string]int{}
	for _, e := range tapeA.Events {
		counts[e.Type]++
	}
	if counts["dealPrivate"] != 4 || counts["matchStart"] != 1 {
		t.Fatalf("unexpected deal events: %v", counts)
	}
	if counts["cardPlayed"] != 32 || counts["trickWon"] != 8 || counts["matchEnd"] != 1 {
		t.Fatalf("unexpected play events: %v", counts)
	}
	if tapeA.Result == nil || tapeA.Result.DeclarerPoints+tapeA.Result.OpponentPoints != 29 {
		t.Fatalf("unexpected result %+v", tapeA.Result)
	}
}

func TestGenerateReplayTape_ScriptedTrickGoesToJack(t *testing.T) {
	tape, err := GenerateReplayTape(baseMatchSpec())
	if err != nil {
		t.Fatalf("GenerateReplayTape failed: %v", err)
	}
	for _, e := range tape.Events {
		if e.Type != "trickWon" {
			continue
		}
		if e.Value["winner"] != 0 || e.Value["points"] != 4 {
			t.Fatalf("first trick = %v, want winner 0 with 4 points", e.Value)
		}
		return
	}
	t.Fatalf("no trickWon event")
}

func TestGenerateReplayTape_ReturnsReplayErrorOnOutOfTurnPlay(t *testing.T) {
	spec := baseMatchSpec()
	spec.Plays[0].Seat = 2

	_, err := GenerateReplayTape(spec)
	if err == nil {
		t.Fatalf("expected replay generation to fail on out-of-turn play")
	}
	replayErr, ok := err.(*ReplayError)
	if !ok {
		t.Fatalf("expected ReplayError type, got %T", err)
	}
	if replayErr.Reason != "out_of_turn" {
		t.Fatalf("unexpected reason: %s", replayErr.Reason)
	}
	if replayErr.Expected == nil || replayErr.Expected.ActionSeat != 0 {
		t.Fatalf("expected replay error to point at seat 0, got %+v", replayErr.Expected)
	}
}

func TestGenerateReplayTape_ReturnsReplayErrorOnRevoke(t *testing.T) {
	spec := baseMatchSpec()
	// Seat 1 holds AH and TH, so a spade on a heart lead is a revoke.
	spec.Plays[1].Card = "JS"

	_, err := GenerateReplayTape(spec)
	replayErr, ok := err.(*ReplayError)
	if !ok {
		t.Fatalf("expected ReplayError, got %v", err)
	}
	if replayErr.Reason != "illegal_play" || replayErr.StepIndex != 1 {
		t.Fatalf("unexpected error %+v", replayErr)
	}
	if len(replayErr.Expected.LegalCards) != 2 {
		t.Fatalf("expected two legal hearts, got %v", replayErr.Expected.LegalCards)
	}
}

func TestGenerateReplayTape_RejectsBadDeck(t *testing.T) {
	spec := baseMatchSpec()
	spec.Deck = spec.Deck[:31]
	_, err := GenerateReplayTape(spec)
	replayErr, ok := err.(*ReplayError)
	if !ok || replayErr.Reason != "engine_init_failed" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestGenerateReplayTape_AllBotsFromSeed(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		tape, err := GenerateReplayTape(MatchSpec{Brain: "greedy", TrumpPolicy: "last-dealt", RNG: &RNGSpec{Seed: seed}})
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if tape.Result == nil {
			t.Fatalf("seed %d: match did not finish", seed)
		}
	}
}
