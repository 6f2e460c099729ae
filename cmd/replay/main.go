package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"taash29/replay"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "replay",
		Usage: "generate 29 match tapes from a spec file or a seed",
		Commands: []*cli.Command{
			{
				Name:  "tape",
				Usage: "print the event tape of one match as JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "spec", Usage: "match spec JSON file (- for stdin)"},
					&cli.Int64Flag{Name: "seed", Value: 1, Usage: "seed when no spec is given"},
					&cli.StringFlag{Name: "brain", Value: "random", Usage: "bot brain: random|greedy"},
					&cli.BoolFlag{Name: "pretty", Usage: "indent output"},
				},
				Action: runTape,
			},
			{
				Name:  "stats",
				Usage: "play many all-bot matches and summarise the results",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "games", Value: 100},
					&cli.Int64Flag{Name: "seed", Value: 1, Usage: "first seed"},
					&cli.StringFlag{Name: "brain", Value: "random"},
					&cli.StringFlag{Name: "trump-policy", Value: "fixed"},
				},
				Action: runStats,
			},
		},
	}
}

func runTape(c *cli.Context) error {
	spec := replay.MatchSpec{
		Brain: c.String("brain"),
		RNG:   &replay.RNGSpec{Seed: c.Int64("seed")},
	}
	if path := c.String("spec"); path != "" {
		raw, err := readSpec(path)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &spec); err != nil {
			return fmt.Errorf("parse spec: %w", err)
		}
	}

	tape, err := replay.GenerateReplayTape(spec)
	if err != nil {
		var replayErr *replay.ReplayError
		if errors.As(err, &replayErr) {
			b, _ := json.Marshal(replayErr)
			return cli.Exit(string(b), 2)
		}
		return err
	}

	enc := json.NewEncoder(c.App.Writer)
	if c.Bool("pretty") {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(tape)
}

func readSpec(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func runStats(c *cli.Context) error {
	games := c.Int("games")
	if games <= 0 {
		return cli.Exit("games must be > 0", 2)
	}
	first := c.Int64("seed")

	var made, declarerPts, opponentPts int
	for i := 0; i < games; i++ {
		tape, err := replay.GenerateReplayTape(replay.MatchSpec{
			Leader:      uint8(i % 4),
			Brain:       c.String("brain"),
			TrumpPolicy: c.String("trump-policy"),
			RNG:         &replay.RNGSpec{Seed: first + int64(i)},
		})
		if err != nil {
			return err
		}
		if tape.Result.DeclarerMadeBid {
			made++
		}
		declarerPts += tape.Result.DeclarerPoints
		opponentPts += tape.Result.OpponentPoints
	}

	fmt.Fprintf(c.App.Writer, "games=%d declarer_made_bid=%.1f%% avg_declarer=%.2f avg_opponent=%.2f\n",
		games,
		100*float64(made)/float64(games),
		float64(declarerPts)/float64(games),
		float64(opponentPts)/float64(games),
	)
	return nil
}
