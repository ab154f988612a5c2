package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/wicket/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"WICKET_CONFIG",
	"WICKET_ADDR",
	"WICKET_QUEUE_SIZE",
	"WICKET_WORKER_COUNT",
	"WICKET_DEDUPE_SIZE",
	"WICKET_SHARD_COUNT",
	"WICKET_STRICT_BALL_ORDER",
	"WICKET_DATA_FILE",
	"WICKET_LOG_FORMAT",
}

func clearConfigEnvVars() {
	for _, v := range configEnvVars {
		_ = os.Unsetenv(v)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wicket.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then the defaults are returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.StrictBallOrder, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading with environment variables", func() {
			_ = os.Setenv("WICKET_ADDR", ":8080")
			_ = os.Setenv("WICKET_QUEUE_SIZE", "512")
			_ = os.Setenv("WICKET_WORKER_COUNT", "3")
			_ = os.Setenv("WICKET_STRICT_BALL_ORDER", "true")
			_ = os.Setenv("WICKET_DATA_FILE", "/tmp/wicket.msgpack")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env values override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 512)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.StrictBallOrder, convey.ShouldBeTrue)
				convey.So(cfg.DataFile, convey.ShouldEqual, "/tmp/wicket.msgpack")
			})
		})

		convey.Convey("When loading with a YAML file and env", func() {
			path := writeConfigFile(t, `
addr: ":9090"
queue_size: 2048
shard_count: 4
max_board_limit: 25
log_format: json
`)
			_ = os.Setenv("WICKET_CONFIG", path)
			_ = os.Setenv("WICKET_SHARD_COUNT", "8")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins over the file and the file over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 2048)
				convey.So(cfg.ShardCount, convey.ShouldEqual, 8)
				convey.So(cfg.MaxBoardLimit, convey.ShouldEqual, 25)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 100_000)
			})
		})

		convey.Convey("When the YAML file is malformed", func() {
			_ = os.Setenv("WICKET_CONFIG", writeConfigFile(t, `invalid: yaml: content: [`))
			cfg, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the YAML file does not exist", func() {
			_ = os.Setenv("WICKET_CONFIG", "/non/existent/wicket.yaml")
			cfg, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a numeric variable is not a number", func() {
			_ = os.Setenv("WICKET_QUEUE_SIZE", "lots")
			cfg, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the address is blanked", func() {
			_ = os.Setenv("WICKET_ADDR", "")
			cfg, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}
