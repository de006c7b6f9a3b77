package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLogger(t *testing.T) {
	t.Run("NewLogger", func(t *testing.T) {
		t.Run("Writes To Provided Writer", func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf)
			logger.Info("hello")

			if !strings.Contains(buf.String(), "hello") {
				t.Errorf("expected log output to contain 'hello', got %q", buf.String())
			}
		})

		t.Run("Nil Writer Defaults To Stderr", func(t *testing.T) {
			logger := NewLogger(nil)
			if logger == nil {
				t.Fatal("expected logger instance")
			}
		})
	})

	t.Run("WithLogger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "reporter")
		logger.Info("queued")

		out := buf.String()
		if !strings.Contains(out, "component") || !strings.Contains(out, "reporter") {
			t.Errorf("expected child logger fields in output, got %q", out)
		}
	})

	t.Run("SetLogLevel", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		SetLogLevel(logger, log.ErrorLevel)
		logger.Info("suppressed")

		if strings.Contains(buf.String(), "suppressed") {
			t.Errorf("expected info log to be suppressed at error level, got %q", buf.String())
		}
	})
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{61, "1:01"},
		{149, "2:29"},
		{3600, "60:00"},
		{-5, "0:00"},
	}

	for _, tc := range cases {
		if got := FormatDuration(tc.seconds); got != tc.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestMarshalJSON(t *testing.T) {
	data := map[string]int{"tracks": 3}

	compact, err := MarshalJSON(data, false)
	if err != nil {
		t.Fatalf("compact marshal failed: %v", err)
	}
	if string(compact) != `{"tracks":3}` {
		t.Errorf("unexpected compact output: %s", compact)
	}

	pretty, err := MarshalJSON(data, true)
	if err != nil {
		t.Fatalf("indented marshal failed: %v", err)
	}
	if !strings.Contains(string(pretty), "\n") {
		t.Errorf("expected indented output, got: %s", pretty)
	}
}

func TestGenerateID(t *testing.T) {
	a := GenerateID()
	b := GenerateID()

	if a == "" || b == "" {
		t.Fatal("expected non-empty ids")
	}
	if a == b {
		t.Error("expected unique ids")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid format (36 chars), got %d", len(a))
	}
}
