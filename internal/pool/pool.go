package pool

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/ramses-rf/virtualrf/internal/gateway"
)

// MaxPorts bounds the size of a pool. Real RF networks under test never
// need more gateways than this.
const MaxPorts = 6

var (
	// ErrBadPortCount means the requested pool size is outside 1..MaxPorts.
	ErrBadPortCount = errors.New("port count out of range")

	// ErrPoolClosed means a mutating call arrived after Close.
	ErrPoolClosed = errors.New("pool is closed")

	// ErrUnsupportedPlatform means the host OS cannot back virtual
	// serial ports with pseudo-terminals.
	ErrUnsupportedPlatform = errors.New("virtual serial ports require linux")
)

// port is one virtual serial port. The master fd is exclusively the
// hub's; the slave fd is held only so the device name stays allocated
// and is never read or written by the pool.
type port struct {
	name     string
	id       string // instance id, for trace correlation
	masterFD int
	slaveFD  int
	gw       gateway.Identity
}

// Pool allocates and owns virtual serial ports.
type Pool struct {
	mu     sync.RWMutex
	ports  []*port // insertion order
	byName map[string]*port
	closed bool
}

// New creates a pool of n virtual serial ports, 1 <= n <= MaxPorts.
func New(n int) (*Pool, error) {
	if n < 1 || n > MaxPorts {
		return nil, fmt.Errorf("%d: %w (want 1..%d)", n, ErrBadPortCount, MaxPorts)
	}

	p := &Pool{byName: make(map[string]*port)}
	for i := 0; i < n; i++ {
		if _, err := p.addPort(); err != nil {
			p.Close()
			return nil, err
		}
	}
	return p, nil
}

// AddPort grows the pool by one port and returns its name. Intended for
// setup; the hub picks the port up on its next poll cycle.
func (p *Pool) AddPort() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return "", ErrPoolClosed
	}
	if len(p.ports) >= MaxPorts {
		return "", fmt.Errorf("%d: %w (want 1..%d)", len(p.ports)+1, ErrBadPortCount, MaxPorts)
	}
	return p.addPort()
}

// addPort allocates one pty pair. Callers hold p.mu (New owns the pool
// exclusively during construction).
func (p *Pool) addPort() (string, error) {
	master, slave, name, err := openPTY()
	if err != nil {
		return "", fmt.Errorf("create port: %w", err)
	}

	pt := &port{
		name:     name,
		id:       uuid.NewString(),
		masterFD: master,
		slaveFD:  slave,
	}
	p.ports = append(p.ports, pt)
	p.byName[name] = pt
	return name, nil
}

// SetGateway attaches a gateway identity to a port. The attach is
// all-or-nothing: on any validation failure the pool is left unchanged.
func (p *Pool) SetGateway(portName, deviceID string, fw gateway.FwType) error {
	if err := gateway.ValidateDeviceID(deviceID); err != nil {
		return err
	}
	if fw != gateway.FwEvofw3 && fw != gateway.FwHGI80 {
		return fmt.Errorf("%q: %w", fw, gateway.ErrUnknownFirmware)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}
	pt, ok := p.byName[portName]
	if !ok {
		return fmt.Errorf("%q: %w", portName, gateway.ErrUnknownPort)
	}
	if pt.gw.Fw != gateway.FwNone {
		return fmt.Errorf("%q: %w", portName, gateway.ErrPortHasGateway)
	}
	for _, other := range p.ports {
		if other != pt && other.gw.DeviceID == deviceID {
			return fmt.Errorf("%q: %w", deviceID, gateway.ErrDuplicateDeviceID)
		}
	}

	pt.gw = gateway.Identity{DeviceID: deviceID, Fw: fw}
	return nil
}

// Gateway returns the identity attached to a port (zero value if none).
func (p *Pool) Gateway(portName string) (gateway.Identity, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	pt, ok := p.byName[portName]
	if !ok {
		return gateway.Identity{}, fmt.Errorf("%q: %w", portName, gateway.ErrUnknownPort)
	}
	return pt.gw, nil
}

// Gateways maps attached device ids to port names.
func (p *Pool) Gateways() map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]string)
	for _, pt := range p.ports {
		if pt.gw.Fw != gateway.FwNone {
			out[pt.gw.DeviceID] = pt.name
		}
	}
	return out
}

// Ports returns the port names in creation order.
func (p *Pool) Ports() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, len(p.ports))
	for i, pt := range p.ports {
		names[i] = pt.name
	}
	return names
}

// Endpoint is a per-cycle snapshot of one port, handed to the hub. The
// file descriptor stays valid until the pool is closed.
type Endpoint struct {
	Name string
	ID   string
	FD   int
	Gw   gateway.Identity
}

// Snapshot returns a stable view of the pool for one poll cycle, so a
// concurrent SetGateway or AddPort cannot corrupt an in-flight iteration.
func (p *Pool) Snapshot() []Endpoint {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil
	}
	eps := make([]Endpoint, len(p.ports))
	for i, pt := range p.ports {
		eps[i] = Endpoint{Name: pt.name, ID: pt.id, FD: pt.masterFD, Gw: pt.gw}
	}
	return eps
}

// Close releases both sides of every pty pair. Idempotent: teardown code
// commonly calls it defensively from more than one path.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	for _, pt := range p.ports {
		if err := unix.Close(pt.masterFD); err != nil {
			slog.Warn("close master side", "port", pt.name, "error", err)
		}
		// the slave fd must be closed too, or the device name leaks
		if err := unix.Close(pt.slaveFD); err != nil {
			slog.Warn("close slave side", "port", pt.name, "error", err)
		}
	}
}
