// internal/app/system/dbconn/dbconn.go

// Package dbconn owns the process-wide MongoDB connection.
//
// One Manager is constructed at startup and injected into everything that
// needs the client; nothing else connects. The Manager tracks an explicit
// state machine (Disconnected -> Connecting -> Connected | Errored) and,
// once a connection has been lost or never established, keeps retrying in
// the background with capped exponential backoff instead of giving up.
package dbconn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// State is the manager's connection state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateErrored:
		return "errored"
	default:
		return "disconnected"
	}
}

// Backoff computes reconnect delays: min(Initial * Factor^retry, Max).
// After ResetAfter consecutive attempts the retry counter starts over, so
// the loop periodically drops back to short delays rather than pinning at
// Max forever.
type Backoff struct {
	Initial    time.Duration
	Max        time.Duration
	Factor     float64
	ResetAfter int
}

// DefaultBackoff is used when Options leaves the backoff zero-valued.
var DefaultBackoff = Backoff{
	Initial:    500 * time.Millisecond,
	Max:        30 * time.Second,
	Factor:     2,
	ResetAfter: 10,
}

// Delay returns the delay for the given zero-based retry number.
func (b Backoff) Delay(retry int) time.Duration {
	d := float64(b.Initial)
	for i := 0; i < retry; i++ {
		d *= b.Factor
		if d >= float64(b.Max) {
			return b.Max
		}
	}
	if d > float64(b.Max) {
		return b.Max
	}
	return time.Duration(d)
}

// Next advances a retry counter, wrapping to 0 once ResetAfter attempts
// have been made.
func (b Backoff) Next(retry int) int {
	retry++
	if b.ResetAfter > 0 && retry >= b.ResetAfter {
		return 0
	}
	return retry
}

// Options configures a Manager.
type Options struct {
	URI            string
	Database       string
	MaxPoolSize    uint64
	MinPoolSize    uint64
	ConnectTimeout time.Duration // per-attempt timeout, default 10s
	Backoff        Backoff
}

// Manager supervises one mongo client.
type Manager struct {
	opts Options
	log  *zap.Logger

	mu       sync.Mutex
	state    State
	client   *mongo.Client
	retry    int
	retryTmr *time.Timer
	closed   bool
}

// ErrClosed is returned by Connect after Close.
var ErrClosed = errors.New("dbconn: manager is closed")

// ErrNotConnected is returned when a client is requested while disconnected.
var ErrNotConnected = errors.New("dbconn: not connected")

// New builds a Manager. It does not connect; call Connect.
func New(opts Options, log *zap.Logger) *Manager {
	if opts.Backoff == (Backoff{}) {
		opts.Backoff = DefaultBackoff
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	return &Manager{opts: opts, log: log, state: StateDisconnected}
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Client returns the connected client or ErrNotConnected.
func (m *Manager) Client() (*mongo.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateConnected || m.client == nil {
		return nil, ErrNotConnected
	}
	return m.client, nil
}

// Database returns a handle on the configured database, or nil while
// disconnected.
func (m *Manager) Database() *mongo.Database {
	c, err := m.Client()
	if err != nil {
		return nil
	}
	return c.Database(m.opts.Database)
}

// Connect establishes the connection. It is idempotent: while connecting or
// connected it returns the existing client/state without dialing again. On
// failure the manager enters StateErrored and schedules a background
// reconnect before returning the error.
func (m *Manager) Connect(ctx context.Context) (*mongo.Client, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	switch m.state {
	case StateConnected:
		c := m.client
		m.mu.Unlock()
		return c, nil
	case StateConnecting:
		m.mu.Unlock()
		return nil, fmt.Errorf("dbconn: connection attempt already in progress")
	}
	m.state = StateConnecting
	m.mu.Unlock()

	client, err := m.dial(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		if client != nil {
			go client.Disconnect(context.Background())
		}
		return nil, ErrClosed
	}
	if err != nil {
		m.state = StateErrored
		m.scheduleReconnectLocked()
		return nil, err
	}
	m.state = StateConnected
	m.client = client
	m.retry = 0
	m.log.Info("mongodb connected", zap.String("database", m.opts.Database))
	return client, nil
}

// dial performs one connection attempt and verifies it with a primary ping.
func (m *Manager) dial(ctx context.Context) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, m.opts.ConnectTimeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(m.opts.URI).
		SetServerMonitor(m.serverMonitor())
	if m.opts.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(m.opts.MaxPoolSize)
	}
	if m.opts.MinPoolSize > 0 {
		clientOpts.SetMinPoolSize(m.opts.MinPoolSize)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("dbconn: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		go client.Disconnect(context.Background())
		return nil, fmt.Errorf("dbconn: ping primary: %w", err)
	}
	return client, nil
}

// serverMonitor flags heartbeat failures so a dead server re-enters the
// reconnect cycle without waiting for the next query to fail.
func (m *Manager) serverMonitor() *event.ServerMonitor {
	return &event.ServerMonitor{
		ServerHeartbeatFailed: func(e *event.ServerHeartbeatFailedEvent) {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.closed || m.state != StateConnected {
				return
			}
			m.log.Warn("mongodb heartbeat failed", zap.Error(e.Failure))
			m.state = StateErrored
			m.dropClientLocked()
			m.scheduleReconnectLocked()
		},
	}
}

// scheduleReconnectLocked arms the retry timer. Caller holds m.mu.
func (m *Manager) scheduleReconnectLocked() {
	if m.closed || m.retryTmr != nil {
		return
	}
	delay := m.opts.Backoff.Delay(m.retry)
	m.log.Info("mongodb reconnect scheduled",
		zap.Duration("delay", delay),
		zap.Int("retry", m.retry))
	m.retry = m.opts.Backoff.Next(m.retry)
	m.retryTmr = time.AfterFunc(delay, m.reconnect)
}

// reconnect is the timer callback: one attempt, then either settle into
// StateConnected or arm the next timer.
func (m *Manager) reconnect() {
	m.mu.Lock()
	m.retryTmr = nil
	if m.closed || m.state == StateConnected {
		m.mu.Unlock()
		return
	}
	m.state = StateConnecting
	m.mu.Unlock()

	client, err := m.dial(context.Background())

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		if client != nil {
			go client.Disconnect(context.Background())
		}
		return
	}
	if err != nil {
		m.log.Warn("mongodb reconnect failed", zap.Error(err))
		m.state = StateErrored
		m.scheduleReconnectLocked()
		return
	}
	m.state = StateConnected
	m.client = client
	m.retry = 0
	m.log.Info("mongodb reconnected", zap.String("database", m.opts.Database))
}

// helloReply is the subset of the hello command reply we read.
type helloReply struct {
	IsWritablePrimary bool     `bson:"isWritablePrimary"`
	Me                string   `bson:"me"`
	Primary           string   `bson:"primary"`
	Hosts             []string `bson:"hosts"`
}

// NotPrimaryError reports a connection that targets a non-writable node.
type NotPrimaryError struct {
	Primary string
	Hosts   []string
}

func (e *NotPrimaryError) Error() string {
	return fmt.Sprintf("dbconn: connected node is not a writable primary (primary=%q hosts=%s)",
		e.Primary, strings.Join(e.Hosts, ","))
}

// VerifyPrimaryWritable confirms the connection targets a writable primary.
// Multi-document write paths (seeding, the region dual-write fallback) call
// this before proceeding.
func (m *Manager) VerifyPrimaryWritable(ctx context.Context) error {
	client, err := m.Client()
	if err != nil {
		return err
	}
	var reply helloReply
	if err := client.Database("admin").
		RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).
		Decode(&reply); err != nil {
		return fmt.Errorf("dbconn: hello: %w", err)
	}
	if !reply.IsWritablePrimary {
		return &NotPrimaryError{Primary: reply.Primary, Hosts: reply.Hosts}
	}
	return nil
}

// dropClientLocked disconnects the current client in the background.
// Caller holds m.mu.
func (m *Manager) dropClientLocked() {
	if m.client == nil {
		return
	}
	c := m.client
	m.client = nil
	go c.Disconnect(context.Background())
}

// Close drains and disconnects. Idempotent; safe while already
// disconnected. No reconnects are scheduled afterwards.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	if m.retryTmr != nil {
		m.retryTmr.Stop()
		m.retryTmr = nil
	}
	client := m.client
	m.client = nil
	m.state = StateDisconnected
	m.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}
