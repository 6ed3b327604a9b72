package virtualrf

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ramses-rf/virtualrf/internal/config"
	"github.com/ramses-rf/virtualrf/internal/gateway"
	"github.com/ramses-rf/virtualrf/internal/hub"
	"github.com/ramses-rf/virtualrf/internal/metric"
	"github.com/ramses-rf/virtualrf/internal/pool"
	"github.com/ramses-rf/virtualrf/internal/trace"
)

// MaxPorts bounds the size of a network.
const MaxPorts = pool.MaxPorts

// DefaultGatewayID is the sentinel address senders may use to mean "my
// own identity"; see the gateway behavior rules.
const DefaultGatewayID = gateway.DefaultGatewayID

// Firmware families for SetGateway.
type FwType = gateway.FwType

const (
	FwEvofw3 = gateway.FwEvofw3
	FwHGI80  = gateway.FwHGI80
)

// ParseFwType maps a configuration name ("evofw3", "hgi80") to a
// firmware family.
func ParseFwType(name string) (FwType, error) { return gateway.ParseFwType(name) }

// ComPortInfo is one emulated serial-adapter enumeration record.
type ComPortInfo = pool.ComPortInfo

// Sentinel errors surfaced by network operations.
var (
	ErrBadPortCount        = pool.ErrBadPortCount
	ErrPoolClosed          = pool.ErrPoolClosed
	ErrBadDeviceID         = gateway.ErrBadDeviceID
	ErrDuplicateDeviceID   = gateway.ErrDuplicateDeviceID
	ErrPortHasGateway      = gateway.ErrPortHasGateway
	ErrUnknownPort         = gateway.ErrUnknownPort
	ErrUnknownFirmware     = gateway.ErrUnknownFirmware
	ErrUnsupportedPlatform = pool.ErrUnsupportedPlatform
)

// LogEntry is one entry of the bounded frame log.
type LogEntry = hub.Entry

// Log directions.
const (
	DirSent     = hub.DirSent
	DirReceived = hub.DirReceived
)

// RF is a virtual RF network: a pool of virtual serial ports plus the
// hub that relays frames between them.
type RF struct {
	pool *pool.Pool
	hub  *hub.Hub

	closeOnce sync.Once
	trace     *trace.Writer
}

type options struct {
	logSize      int
	pollInterval time.Duration
	registerer   prometheus.Registerer
	trace        *trace.Writer
	autoStart    bool
}

// Option configures a network at construction.
type Option func(*options)

// WithLogSize bounds the in-memory frame log.
func WithLogSize(n int) Option {
	return func(o *options) { o.logSize = n }
}

// WithPollInterval sets how long the relay loop yields when idle.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) { o.pollInterval = d }
}

// WithMetrics registers the hub's relay counters with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithTraceFile writes every frame movement to a rotating JSONL file.
func WithTraceFile(file string, rot trace.RotationConfig) Option {
	return func(o *options) { o.trace = trace.NewWriter(file, rot) }
}

// WithAutoStart starts the hub as soon as the network is built.
func WithAutoStart() Option {
	return func(o *options) { o.autoStart = true }
}

// New creates a network of numPorts virtual serial ports, 1..MaxPorts.
// The hub is stopped until Start (or WithAutoStart).
func New(numPorts int, opts ...Option) (*RF, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	pl, err := pool.New(numPorts)
	if err != nil {
		return nil, err
	}

	rf := &RF{pool: pl, trace: o.trace}

	hubOpts := []hub.Option{}
	if o.logSize > 0 {
		hubOpts = append(hubOpts, hub.WithLogSize(o.logSize))
	}
	if o.pollInterval > 0 {
		hubOpts = append(hubOpts, hub.WithPollInterval(o.pollInterval))
	}
	if o.registerer != nil {
		hubOpts = append(hubOpts, hub.WithMetrics(metric.New(o.registerer)))
	}
	if o.trace != nil {
		hubOpts = append(hubOpts, hub.WithTrace(o.trace))
	}
	rf.hub = hub.New(pl, hubOpts...)

	if o.autoStart {
		rf.hub.Start()
	}
	return rf, nil
}

// NewFromConfig builds a network from a validated configuration,
// attaching the configured gateways. The hub is left stopped.
func NewFromConfig(cfg *config.Config) (*RF, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []Option{
		WithLogSize(cfg.LogSize),
		WithPollInterval(cfg.PollInterval()),
	}
	if cfg.Trace.Enabled {
		opts = append(opts, WithTraceFile(cfg.Trace.File, trace.RotationConfig{
			MaxSizeMB:  cfg.Trace.MaxSizeMB,
			MaxBackups: cfg.Trace.MaxBackups,
			MaxAgeDays: cfg.Trace.MaxAgeDays,
		}))
	}

	rf, err := New(cfg.Ports, opts...)
	if err != nil {
		return nil, err
	}

	ports := rf.Ports()
	for _, gw := range cfg.Gateways {
		fw, err := gateway.ParseFwType(gw.Firmware)
		if err != nil {
			rf.Stop()
			return nil, err
		}
		if err := rf.SetGateway(ports[gw.Port], gw.DeviceID, fw); err != nil {
			rf.Stop()
			return nil, err
		}
	}
	return rf, nil
}

// Ports returns the port device names in creation order.
func (rf *RF) Ports() []string { return rf.pool.Ports() }

// AddPort grows the network by one port before the hub starts relaying
// to it, and returns the new device name.
func (rf *RF) AddPort() (string, error) { return rf.pool.AddPort() }

// SetGateway attaches a gateway identity to a port.
func (rf *RF) SetGateway(portName, deviceID string, fw FwType) error {
	return rf.pool.SetGateway(portName, deviceID, fw)
}

// Gateways maps attached device ids to port names.
func (rf *RF) Gateways() map[string]string { return rf.pool.Gateways() }

// ComPorts enumerates the network's ports the way an OS lists serial
// adapters. The sequence is restartable; ordering beyond set equality is
// not guaranteed.
func (rf *RF) ComPorts() iter.Seq[ComPortInfo] { return rf.pool.ComPorts() }

// ComPortList returns the enumeration records as a slice.
func (rf *RF) ComPortList() []ComPortInfo { return rf.pool.ComPortList() }

// Start launches the relay loop; a no-op when already running.
func (rf *RF) Start() { rf.hub.Start() }

// Running reports whether the relay loop is active.
func (rf *RF) Running() bool { return rf.hub.Running() }

// Stop halts the relay loop, waits for it to finish, and then releases
// every port. Safe to call repeatedly and before Start.
func (rf *RF) Stop() {
	rf.hub.Stop()
	rf.closeOnce.Do(func() {
		rf.pool.Close()
		if rf.trace != nil {
			_ = rf.trace.Close()
		}
	})
}

// AddReply registers a canned reply for command frames matching pattern,
// emulating a device that is not on the bus.
func (rf *RF) AddReply(pattern, reply string) error {
	return rf.hub.AddReply(pattern, reply)
}

// Inject casts frames onto the bus as if sent from a phantom port.
func (rf *RF) Inject(frames ...[]byte) { rf.hub.Inject(frames...) }

// InjectWait injects frames and waits, bounded by ctx, until the bus has
// gone quiet.
func (rf *RF) InjectWait(ctx context.Context, frames ...[]byte) error {
	return rf.hub.InjectWait(ctx, frames...)
}

// Log returns a copy of the bounded frame log, oldest first.
func (rf *RF) Log() []LogEntry { return rf.hub.Log().Entries() }
