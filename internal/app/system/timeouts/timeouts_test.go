package timeouts

import (
	"context"
	"testing"
	"time"
)

func TestConfigure_OnlyPositiveFields(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Read: 7 * time.Second, Write: -1})
	if got := Read(); got != 7*time.Second {
		t.Errorf("Read() = %v, want 7s", got)
	}
	if got := Write(); got != DefaultWrite {
		t.Errorf("Write() = %v, want default %v", got, DefaultWrite)
	}
	if got := Batch(); got != DefaultBatch {
		t.Errorf("Batch() = %v, want default %v", got, DefaultBatch)
	}
}

func TestReset(t *testing.T) {
	Configure(Config{Ping: time.Minute, Upload: time.Hour})
	Reset()
	want := Config{Ping: DefaultPing, Read: DefaultRead, Write: DefaultWrite, Upload: DefaultUpload, Batch: DefaultBatch}
	if got := Current(); got != want {
		t.Errorf("Current() = %+v, want %+v", got, want)
	}
}

func TestWithTimeout_Expires(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, nil, "probe")
	defer cancel()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context did not expire")
	}
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("ctx.Err() = %v, want DeadlineExceeded", ctx.Err())
	}
}
