package dbconn

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestBackoffDelay(t *testing.T) {
	b := Backoff{Initial: 500 * time.Millisecond, Max: 30 * time.Second, Factor: 2, ResetAfter: 10}

	tests := []struct {
		retry int
		want  time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, time.Second},
		{2, 2 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second},
		{100, 30 * time.Second},
	}
	for _, tt := range tests {
		if got := b.Delay(tt.retry); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.retry, got, tt.want)
		}
	}
}

func TestBackoffNext(t *testing.T) {
	b := Backoff{Initial: time.Second, Max: time.Minute, Factor: 2, ResetAfter: 3}

	retry := 0
	got := []int{}
	for i := 0; i < 6; i++ {
		retry = b.Next(retry)
		got = append(got, retry)
	}
	want := []int{1, 2, 0, 1, 2, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Next sequence = %v, want %v", got, want)
		}
	}

	noReset := Backoff{Initial: time.Second, Max: time.Minute, Factor: 2}
	if n := noReset.Next(41); n != 42 {
		t.Errorf("Next without ResetAfter: got %d, want 42", n)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateDisconnected, "disconnected"},
		{StateConnecting, "connecting"},
		{StateConnected, "connected"},
		{StateErrored, "errored"},
		{State(99), "disconnected"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestNewDefaults(t *testing.T) {
	m := New(Options{URI: "mongodb://localhost:27017", Database: "x"}, zap.NewNop())
	if m.opts.Backoff != DefaultBackoff {
		t.Errorf("zero backoff not defaulted: %+v", m.opts.Backoff)
	}
	if m.opts.ConnectTimeout != 10*time.Second {
		t.Errorf("ConnectTimeout default: %v", m.opts.ConnectTimeout)
	}
	if m.State() != StateDisconnected {
		t.Errorf("new manager state: %v", m.State())
	}
}

func TestClientBeforeConnect(t *testing.T) {
	m := New(Options{URI: "mongodb://localhost:27017", Database: "x"}, zap.NewNop())
	if _, err := m.Client(); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Client before Connect: got %v, want ErrNotConnected", err)
	}
	if db := m.Database(); db != nil {
		t.Error("Database before Connect should be nil")
	}
}

func TestConnectFailureSchedulesRetry(t *testing.T) {
	// Reserved TEST-NET-1 address; the dial times out without a listener.
	m := New(Options{
		URI:            "mongodb://192.0.2.1:27017",
		Database:       "x",
		ConnectTimeout: 200 * time.Millisecond,
		Backoff:        Backoff{Initial: time.Hour, Max: time.Hour, Factor: 2},
	}, zap.NewNop())
	defer m.Close(context.Background())

	if _, err := m.Connect(context.Background()); err == nil {
		t.Fatal("Connect to unroutable host should fail")
	}
	if s := m.State(); s != StateErrored {
		t.Errorf("state after failed connect: %v", s)
	}

	m.mu.Lock()
	armed := m.retryTmr != nil
	retry := m.retry
	m.mu.Unlock()
	if !armed {
		t.Error("reconnect timer not armed after failure")
	}
	if retry != 1 {
		t.Errorf("retry counter after failure: got %d, want 1", retry)
	}
}

func TestCloseIdempotent(t *testing.T) {
	m := New(Options{URI: "mongodb://localhost:27017", Database: "x"}, zap.NewNop())
	for i := 0; i < 2; i++ {
		if err := m.Close(context.Background()); err != nil {
			t.Fatalf("Close #%d: %v", i+1, err)
		}
	}
	if _, err := m.Connect(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("Connect after Close: got %v, want ErrClosed", err)
	}
	if m.State() != StateDisconnected {
		t.Errorf("state after Close: %v", m.State())
	}
}

func TestNotPrimaryError(t *testing.T) {
	err := &NotPrimaryError{Primary: "db1:27017", Hosts: []string{"db1:27017", "db2:27017"}}
	msg := err.Error()
	if !strings.Contains(msg, "db1:27017") || !strings.Contains(msg, "db2:27017") {
		t.Errorf("message missing topology details: %q", msg)
	}
}
