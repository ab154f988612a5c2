package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		So(Init(), ShouldBeNil)
		defer func() { So(Sync(), ShouldBeNil) }()

		Convey("Then Get returns a usable logger", func() {
			l := Get()
			So(l, ShouldNotBeNil)
			So(func() { l.Info(context.Background(), "test message", String("k", "v")) }, ShouldNotPanic)
		})

		Convey("And Named returns a child logger", func() {
			So(Named("test"), ShouldNotBeNil)
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		So(Init(), ShouldBeNil)
		var buf bytes.Buffer
		l := New(&buf).Named("innings")
		ctx := context.Background()

		Convey("When logging with structured fields", func() {
			l.Info(ctx, "delivery appended",
				String("match", "m1"),
				Int("innings", 1),
				Bool("legal", true),
				Duration("took", time.Millisecond),
			)

			Convey("Then the fields and the logger name are present", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "delivery appended")
				So(out, ShouldContainSubstring, "match=m1")
				So(out, ShouldContainSubstring, "innings=1")
				So(out, ShouldContainSubstring, "legal=true")
				So(out, ShouldContainSubstring, "logger=innings")
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level is raised to warn", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			defer func() { _ = SetLevelString("info") }()
			l.Info(ctx, "hidden")
			l.Warn(ctx, "shown")

			Convey("Then info lines are dropped", func() {
				So(buf.String(), ShouldNotContainSubstring, "hidden")
				So(buf.String(), ShouldContainSubstring, "shown")
			})
		})
	})
}

func TestLoggerFormat(t *testing.T) {
	Convey("Given the json format", t, func() {
		So(Init(), ShouldBeNil)
		So(SetFormat("json"), ShouldBeNil)
		defer func() { _ = SetFormat("text") }()

		var buf bytes.Buffer
		New(&buf).Error(context.Background(), "rejected", String("reason", "innings not active"))

		Convey("Then each line is a JSON object", func() {
			var line map[string]any
			So(json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &line), ShouldBeNil)
			So(line["msg"], ShouldEqual, "rejected")
			So(line["reason"], ShouldEqual, "innings not active")
		})
	})

	Convey("Given unknown settings", t, func() {
		Convey("Then SetFormat and SetLevelString reject them", func() {
			So(SetFormat("xml"), ShouldNotBeNil)
			So(SetLevelString("chatty"), ShouldNotBeNil)
		})
	})
}
