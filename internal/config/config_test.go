package config_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/wicket/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 100_000)
			convey.So(cfg.ShardCount, convey.ShouldEqual, 16)
			convey.So(cfg.MaxBoardLimit, convey.ShouldEqual, 100)
			convey.So(cfg.StrictBallOrder, convey.ShouldBeFalse)
			convey.So(cfg.DataFile, convey.ShouldBeEmpty)
			convey.So(cfg.SnapshotInterval(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid settings", t, func() {
		cases := map[string]func(c *config.Config){
			"addr":                 func(c *config.Config) { c.Addr = " " },
			"shard_count":          func(c *config.Config) { c.ShardCount = 0 },
			"queue_size":           func(c *config.Config) { c.QueueSize = 0 },
			"max_board_limit":      func(c *config.Config) { c.MaxBoardLimit = -1 },
			"snapshot_interval_ms": func(c *config.Config) { c.SnapshotIntervalMS = -5 },
			"log_format":           func(c *config.Config) { c.LogFormat = "xml" },
		}
		for field, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, field)
		}
	})
}
