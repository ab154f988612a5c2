// Package main provides wicketctl, the operator CLI of the scoring service.
//
// Usage:
//
//	wicketctl simulate  [--url URL] [--matches N] [--overs N] ...
//	wicketctl scorecard --match ID --innings N [--url URL]
//	wicketctl replay    FILE
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/okian/wicket/internal/domain/innings"
	"github.com/okian/wicket/internal/domain/model"
	"github.com/okian/wicket/internal/domain/scoring"
	"github.com/okian/wicket/internal/simulator"
	"github.com/okian/wicket/pkg/logger"
)

const (
	defaultURL     = "http://localhost:9080"
	defaultTimeout = 10 * time.Second
	runTimeout     = 10 * time.Minute
)

var urlFlag = &cli.StringFlag{
	Name:    "url",
	Usage:   "Base URL of the scoring service",
	Value:   defaultURL,
	EnvVars: []string{"WICKET_URL"},
}

var timeoutFlag = &cli.DurationFlag{
	Name:  "timeout",
	Usage: "HTTP request timeout",
	Value: defaultTimeout,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:           "wicketctl",
		Usage:          "Drive and inspect a wicket scoring server",
		ExitErrHandler: exitErrHandler,
		Before: func(*cli.Context) error {
			return logger.Init()
		},
		Commands: []*cli.Command{
			simulateCommand(),
			scorecardCommand(),
			replayCommand(),
		},
	}
}

func simulateCommand() *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "Score synthetic innings against a running server and verify the scoreboards",
		Flags: []cli.Flag{
			urlFlag,
			timeoutFlag,
			&cli.IntFlag{Name: "matches", Value: 10, Usage: "Number of matches"},
			&cli.IntFlag{Name: "innings", Value: 2, Usage: "Innings per match (1 or 2)"},
			&cli.IntFlag{Name: "overs", Value: 20, Usage: "Overs per innings"},
			&cli.IntFlag{Name: "workers", Value: runtime.NumCPU() * 2, Usage: "Innings scored concurrently"},
			&cli.Int64Flag{Name: "seed", Usage: "Generator seed (default: clock)"},
			&cli.StringFlag{Name: "prefix", Value: "sim-", Usage: "Prefix of generated match IDs"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Save generated innings to this JSON file"},
		},
		Action: simulateAction,
	}
}

func simulateAction(c *cli.Context) error {
	ctx, cancel := context.WithTimeout(c.Context, runTimeout)
	defer cancel()

	report, err := simulator.Run(ctx, simulator.Config{
		BaseURL:         c.String("url"),
		Matches:         c.Int("matches"),
		InningsPerMatch: c.Int("innings"),
		Overs:           c.Int("overs"),
		Workers:         c.Int("workers"),
		Timeout:         c.Duration("timeout"),
		Seed:            c.Int64("seed"),
		OutputFile:      c.String("output"),
		MatchPrefix:     c.String("prefix"),
	})
	if err != nil {
		return err
	}
	if err := simulator.WriteReport(c.App.Writer, report); err != nil {
		return err
	}
	if !report.OK() {
		return cli.Exit("", 2)
	}
	return nil
}

func scorecardCommand() *cli.Command {
	return &cli.Command{
		Name:  "scorecard",
		Usage: "Print the batting and bowling tables of one innings",
		Flags: []cli.Flag{
			urlFlag,
			timeoutFlag,
			&cli.StringFlag{Name: "match", Aliases: []string{"m"}, Required: true, Usage: "Match ID"},
			&cli.IntFlag{Name: "innings", Aliases: []string{"i"}, Value: 1, Usage: "Innings number"},
		},
		Action: scorecardAction,
	}
}

func scorecardAction(c *cli.Context) error {
	key := model.InningsKey{MatchID: c.String("match"), InningsNo: c.Int("innings")}
	if err := key.Validate(); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	client := simulator.NewClient(c.String("url"), c.Duration("timeout"))
	sb, err := client.Scoreboard(c.Context, key)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("%s [%s]", simulator.InningsTitle(key), sb.Status)
	return simulator.WriteScorecard(c.App.Writer, title, sb.Snapshot)
}

func replayCommand() *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Usage:     "Score a JSON file of deliveries locally and print the scorecards",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "strict", Usage: "Reject deliveries earlier than the previous one"},
		},
		Action: replayAction,
	}
}

func replayAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("replay needs exactly one FILE argument", 1)
	}
	list, err := simulator.LoadInnings(c.Args().First())
	if err != nil {
		return err
	}

	problems := 0
	for _, in := range list {
		inn, rejected := simulator.Replay(in, innings.WithStrictBallOrder(c.Bool("strict")))
		for _, p := range rejected {
			fmt.Fprintf(c.App.ErrWriter, "%s: %s\n", in.Key, p)
		}
		problems += len(rejected)
		if err := simulator.WriteScorecard(c.App.Writer, simulator.InningsTitle(in.Key), scoring.Aggregate(inn.Deliveries())); err != nil {
			return err
		}
	}
	if problems > 0 {
		return cli.Exit(fmt.Sprintf("%d deliveries rejected", problems), 2)
	}
	return nil
}

// exitErrHandler preserves exit codes from cli.Exit and prints other errors.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		if msg := exitCoder.Error(); msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
