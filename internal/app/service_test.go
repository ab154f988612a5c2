package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	service "github.com/okian/wicket/internal/app"
	"github.com/okian/wicket/internal/adapters/repository"
	"github.com/okian/wicket/internal/domain/innings"
	"github.com/okian/wicket/internal/domain/model"
	"github.com/okian/wicket/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var m1 = model.InningsKey{MatchID: "m1", InningsNo: 1}

func ball(over, n int, runs int, extra model.Extra, wicket string) model.Delivery {
	return model.Delivery{OverNo: over, BallNo: n, Striker: "S1", NonStriker: "S2", Bowler: "B1", Runs: runs, Extras: extra, Wicket: wicket}
}

func startedService(opts ...service.Option) *service.Service {
	svc := service.New(append([]service.Option{service.WithWorkerCount(2), service.WithQueueSize(64)}, opts...)...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func TestService_New(t *testing.T) {
	Convey("Given a service built with options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(512),
			service.WithDedupeSize(1000),
			service.WithShardCount(2),
			service.WithStrictBallOrder(true),
		)

		Convey("Then its stats reflect the options before start", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["workerCount"], ShouldEqual, 8)
			So(stats["queueSize"], ShouldEqual, 512)
			So(stats["shardCount"], ShouldEqual, 2)
			So(stats["strictBallOrder"], ShouldEqual, true)
		})

		Convey("And operations fail until it is started", func() {
			res := svc.StartInnings(context.Background(), m1)
			So(res.OK(), ShouldBeFalse)
			_, err := svc.Scoreboard(context.Background(), m1)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService()
		defer func() { _ = svc.Stop(context.Background()) }()
		ctx := context.Background()

		Convey("When appending before the innings starts", func() {
			_, res := svc.AppendDelivery(ctx, m1, ball(1, 1, 1, model.ExtraNone, ""))

			Convey("Then it is rejected as not active and nothing is registered", func() {
				So(res.Status, ShouldEqual, innings.ResultError)
				So(res.Code, ShouldEqual, "innings_not_active")
				_, err := svc.ListDeliveries(ctx, m1)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When ending an innings that never started", func() {
			res := svc.EndInnings(ctx, m1)

			Convey("Then it is an invalid transition", func() {
				So(res.Code, ShouldEqual, "invalid_transition")
			})
		})

		Convey("When the innings is started", func() {
			So(svc.StartInnings(ctx, m1).OK(), ShouldBeTrue)

			Convey("Then a second start is rejected", func() {
				res := svc.StartInnings(ctx, m1)
				So(res.Status, ShouldEqual, innings.ResultError)
				So(res.Code, ShouldEqual, "invalid_transition")
			})

			Convey("And the innings view suggests the first ball", func() {
				v, err := svc.Innings(ctx, m1)
				So(err, ShouldBeNil)
				So(v.Status, ShouldEqual, model.StatusInProgress)
				So(v.NextOver, ShouldEqual, 1)
				So(v.NextBall, ShouldEqual, 1)
				So(v.StartedAt, ShouldNotBeNil)
				So(v.EndedAt, ShouldBeNil)
			})

			Convey("And after ending, appends are rejected but reads still work", func() {
				_, res := svc.AppendDelivery(ctx, m1, ball(1, 1, 4, model.ExtraNone, ""))
				So(res.OK(), ShouldBeTrue)
				So(svc.EndInnings(ctx, m1).OK(), ShouldBeTrue)

				_, res = svc.AppendDelivery(ctx, m1, ball(1, 2, 1, model.ExtraNone, ""))
				So(res.Code, ShouldEqual, "innings_not_active")

				board, err := svc.Scoreboard(ctx, m1)
				So(err, ShouldBeNil)
				So(board.Status, ShouldEqual, model.StatusEnded)
				So(board.Snapshot.TotalRuns, ShouldEqual, 4)
			})
		})
	})
}

func TestService_AppendValidation(t *testing.T) {
	Convey("Given an innings in progress", t, func() {
		svc := startedService()
		defer func() { _ = svc.Stop(context.Background()) }()
		ctx := context.Background()
		So(svc.StartInnings(ctx, m1).OK(), ShouldBeTrue)

		Convey("When the bowler is missing", func() {
			d := ball(1, 1, 0, model.ExtraNone, "")
			d.Bowler = " "
			_, res := svc.AppendDelivery(ctx, m1, d)

			Convey("Then it is a validation error and the log is untouched", func() {
				So(res.Code, ShouldEqual, "validation_error")
				So(res.Reason, ShouldContainSubstring, "bowler")
				list, _ := svc.ListDeliveries(ctx, m1)
				So(list, ShouldBeEmpty)
			})
		})

		Convey("When omitted fields are defaulted", func() {
			stored, res := svc.AppendDelivery(ctx, m1, model.Delivery{OverNo: 1, BallNo: 1, Bowler: "B1", Runs: 2})

			Convey("Then extras and wicket are none and an id is assigned", func() {
				So(res.OK(), ShouldBeTrue)
				So(stored.Extras, ShouldEqual, model.ExtraNone)
				So(stored.Wicket, ShouldEqual, model.WicketNone)
				So(stored.DeliveryID, ShouldNotBeEmpty)
				So(stored.RecordedAt.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When an invalid innings key is used", func() {
			_, res := svc.AppendDelivery(ctx, model.InningsKey{MatchID: "m1"}, ball(1, 1, 0, model.ExtraNone, ""))

			Convey("Then it is a validation error", func() {
				So(res.Code, ShouldEqual, "validation_error")
			})
		})
	})
}

func TestService_Dedupe(t *testing.T) {
	Convey("Given an innings in progress", t, func() {
		svc := startedService()
		defer func() { _ = svc.Stop(context.Background()) }()
		ctx := context.Background()
		So(svc.StartInnings(ctx, m1).OK(), ShouldBeTrue)

		d := ball(1, 1, 6, model.ExtraNone, "")
		d.DeliveryID = "d-1"

		Convey("When the same delivery_id is submitted twice", func() {
			_, first := svc.AppendDelivery(ctx, m1, d)
			stored, second := svc.AppendDelivery(ctx, m1, d)

			Convey("Then the second is an ok duplicate and the ball counts once", func() {
				So(first.OK(), ShouldBeTrue)
				So(first.Duplicate, ShouldBeFalse)
				So(second.OK(), ShouldBeTrue)
				So(second.Duplicate, ShouldBeTrue)
				So(stored.DeliveryID, ShouldEqual, "d-1")
				board, _ := svc.Scoreboard(ctx, m1)
				So(board.Snapshot.TotalRuns, ShouldEqual, 6)
			})
		})

		Convey("When the same delivery_id is used in another innings", func() {
			other := model.InningsKey{MatchID: "m1", InningsNo: 2}
			So(svc.StartInnings(ctx, other).OK(), ShouldBeTrue)
			_, _ = svc.AppendDelivery(ctx, m1, d)
			_, res := svc.AppendDelivery(ctx, other, d)

			Convey("Then it is not a duplicate", func() {
				So(res.Duplicate, ShouldBeFalse)
			})
		})

		Convey("When a rejected delivery is retried after a fix", func() {
			svc2 := startedService(service.WithStrictBallOrder(true))
			defer func() { _ = svc2.Stop(context.Background()) }()
			So(svc2.StartInnings(ctx, m1).OK(), ShouldBeTrue)
			late := ball(2, 1, 0, model.ExtraNone, "")
			_, _ = svc2.AppendDelivery(ctx, m1, late)

			early := ball(1, 1, 0, model.ExtraNone, "")
			early.DeliveryID = "retry"
			_, rejected := svc2.AppendDelivery(ctx, m1, early)
			fixed := ball(2, 2, 0, model.ExtraNone, "")
			fixed.DeliveryID = "retry"
			_, accepted := svc2.AppendDelivery(ctx, m1, fixed)

			Convey("Then the id was released by the rejection", func() {
				So(rejected.Code, ShouldEqual, "validation_error")
				So(accepted.OK(), ShouldBeTrue)
				So(accepted.Duplicate, ShouldBeFalse)
			})
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService()

		Convey("When it is stopped twice", func() {
			So(svc.Stop(context.Background()), ShouldBeNil)
			So(svc.Stop(context.Background()), ShouldBeNil)

			Convey("Then it reports not started", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
				_, err := svc.LiveBoard(context.Background(), 10)
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
