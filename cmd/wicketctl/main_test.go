package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"github.com/urfave/cli/v2"
)

// testApp returns the CLI with output captured and exits disabled.
func testApp() (*cli.App, *bytes.Buffer, *bytes.Buffer) {
	app := newApp()
	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(*cli.Context, error) {}
	return app, &out, &errOut
}

func TestReplayCommand(t *testing.T) {
	convey.Convey("Given a delivery file", t, func() {
		path := filepath.Join(t.TempDir(), "balls.json")
		convey.So(os.WriteFile(path, []byte(`[
			{"over_no":1,"ball_no":1,"striker":"S1","bowler":"B1","runs":4},
			{"over_no":1,"ball_no":2,"striker":"S1","bowler":"B1","runs":6}
		]`), 0o600), convey.ShouldBeNil)

		convey.Convey("When it is replayed", func() {
			app, out, _ := testApp()
			err := app.Run([]string{"wicketctl", "replay", path})

			convey.Convey("Then the scorecard is printed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.String(), convey.ShouldContainSubstring, "replay, 1st innings: 10/0 (0.2 overs)")
				convey.So(out.String(), convey.ShouldContainSubstring, "Batter")
				convey.So(out.String(), convey.ShouldContainSubstring, "Bowler")
			})
		})

		convey.Convey("When no file is given", func() {
			app, _, _ := testApp()
			err := app.Run([]string{"wicketctl", "replay"})

			convey.Convey("Then the command fails with a usage error", func() {
				convey.So(err, convey.ShouldImplement, (*cli.ExitCoder)(nil))
				convey.So(err.(cli.ExitCoder).ExitCode(), convey.ShouldEqual, 1)
			})
		})
	})

	convey.Convey("Given a delivery file with an invalid delivery", t, func() {
		path := filepath.Join(t.TempDir(), "bad.json")
		convey.So(os.WriteFile(path, []byte(`[{"over_no":1,"ball_no":1,"runs":1}]`), 0o600), convey.ShouldBeNil)

		app, _, errOut := testApp()
		err := app.Run([]string{"wicketctl", "replay", path})

		convey.Convey("Then the rejection is reported with exit code 2", func() {
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.(cli.ExitCoder).ExitCode(), convey.ShouldEqual, 2)
			convey.So(errOut.String(), convey.ShouldContainSubstring, "missing bowler")
		})
	})
}

func TestScorecardCommand(t *testing.T) {
	convey.Convey("Given a server answering one scoreboard", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/matches/m1/innings/2/scoreboard" {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"status":"error","code":"not_found","reason":"innings not found"}`))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"key":{"match_id":"m1","innings_no":2},"status":"ended",
				"snapshot":{"total_runs":12,"total_wickets":1,"overs":"1.0",
				"batting":{"S1":{"runs":12,"balls_faced":6,"fours":3}},
				"bowling":{"B1":{"runs_conceded":12,"balls_bowled":6,"wickets":1}}}}`))
		}))
		defer srv.Close()

		convey.Convey("When the scorecard is requested", func() {
			app, out, _ := testApp()
			err := app.RunContext(context.Background(), []string{"wicketctl", "scorecard", "--url", srv.URL, "--match", "m1", "--innings", "2"})

			convey.Convey("Then the tables are printed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.String(), convey.ShouldContainSubstring, "m1, 2nd innings [ended]: 12/1 (1.0 overs)")
				convey.So(out.String(), convey.ShouldContainSubstring, "200.00")
			})
		})

		convey.Convey("When the innings is unknown", func() {
			app, _, _ := testApp()
			err := app.Run([]string{"wicketctl", "scorecard", "--url", srv.URL, "--match", "zz"})

			convey.Convey("Then the server's reason is surfaced", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "not_found")
			})
		})
	})
}
