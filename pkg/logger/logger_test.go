package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with defaults", func() {
			So(Init(), ShouldBeNil)
			So(Get(), ShouldNotBeNil)
			So(Sync(), ShouldBeNil)
		})

		Convey("When initialized with an unknown format", func() {
			So(InitWith(&bytes.Buffer{}, "xml"), ShouldNotBeNil)
		})

		Convey("When initialized without an output", func() {
			So(InitWith(nil, "text"), ShouldNotBeNil)
		})
	})
}

func TestLoggerJSON(t *testing.T) {
	Convey("Given a JSON logger", t, func() {
		var buf bytes.Buffer
		So(InitWith(&buf, "json"), ShouldBeNil)

		Convey("When logging with a request id and fields", func() {
			ctx := WithRequestID(context.Background(), "req-1")
			Named("store").With(String("driver", "sqlite")).Info(ctx, "query", Int("rows", 3))

			var rec map[string]any
			So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)

			Convey("Then every field is present", func() {
				So(rec["msg"], ShouldEqual, "query")
				So(rec["component"], ShouldEqual, "store")
				So(rec["driver"], ShouldEqual, "sqlite")
				So(rec["rows"], ShouldEqual, 3.0)
				So(rec["request_id"], ShouldEqual, "req-1")
				So(rec["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level filters a record", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Info(context.Background(), "hidden")
			So(buf.Len(), ShouldEqual, 0)
			So(SetLevelString("info"), ShouldBeNil)
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level names", t, func() {
		So(SetLevelString("DEBUG"), ShouldBeNil)
		So(SetLevelString("warning"), ShouldBeNil)
		So(SetLevelString(""), ShouldBeNil)
		So(SetLevelString("loud"), ShouldNotBeNil)
	})
}

func TestDiscard(t *testing.T) {
	Convey("Given a discarding logger", t, func() {
		l := Discard()

		Convey("Then logging through it and its children never panics", func() {
			So(func() {
				l.Info(context.Background(), "dropped", String("k", "v"))
				l.Named("child").With(Int("n", 1)).Error(context.Background(), "dropped")
			}, ShouldNotPanic)
		})
	})
}
