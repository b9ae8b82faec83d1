package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestNewTeeHandlerCollapses(t *testing.T) {
	if _, ok := newTeeHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newTeeHandler(nil, inner, nil); h != inner {
		t.Fatal("expected single non-nil handler to be returned unwrapped")
	}
}

func TestTeeHandlerRespectsLevels(t *testing.T) {
	var infoBuf, warnBuf bytes.Buffer
	info := slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	warn := slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn})
	logger := slog.New(newTeeHandler(info, warn))

	if !logger.Handler().Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("expected info to be enabled")
	}
	if logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug to be disabled")
	}

	logger.Info("clip rendered")
	logger.Warn("gap skipped")

	if !strings.Contains(infoBuf.String(), "clip rendered") || !strings.Contains(infoBuf.String(), "gap skipped") {
		t.Fatalf("info handler missing records: %q", infoBuf.String())
	}
	if strings.Contains(warnBuf.String(), "clip rendered") {
		t.Fatalf("warn handler received info record: %q", warnBuf.String())
	}
	if !strings.Contains(warnBuf.String(), "gap skipped") {
		t.Fatalf("warn handler missing warning: %q", warnBuf.String())
	}
}

func TestTeeHandlerKeepsWritingAfterFailure(t *testing.T) {
	var buf bytes.Buffer
	good := slog.NewTextHandler(&buf, nil)
	h := newTeeHandler(failingHandler{good}, good)

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "segment done", 0)
	err := h.Handle(context.Background(), record)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected joined handler error, got %v", err)
	}
	if !strings.Contains(buf.String(), "segment done") {
		t.Fatalf("expected healthy handler to receive record, got %q", buf.String())
	}
}

func TestTeeLoggerPropagatesAttrs(t *testing.T) {
	var baseBuf, teeBuf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&baseBuf, nil))
	tee := slog.NewTextHandler(&teeBuf, nil)

	logger := TeeLogger(base, tee).With(String(FieldExportID, "exp-1"))
	logger.Info("export started")

	for name, out := range map[string]string{"base": baseBuf.String(), "tee": teeBuf.String()} {
		if !strings.Contains(out, "export_id=exp-1") {
			t.Fatalf("%s output missing export id: %q", name, out)
		}
	}
}

func TestTeeLoggerNilBase(t *testing.T) {
	var buf bytes.Buffer
	logger := TeeLogger(nil, slog.NewTextHandler(&buf, nil))
	logger.Info("only tee")
	if !strings.Contains(buf.String(), "only tee") {
		t.Fatalf("expected tee output, got %q", buf.String())
	}
}
