package hub

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ramses-rf/virtualrf/internal/gateway"
	"github.com/ramses-rf/virtualrf/internal/metric"
	"github.com/ramses-rf/virtualrf/internal/pool"
	"github.com/ramses-rf/virtualrf/internal/trace"
)

// DefaultPollInterval is how long the loop yields when no port has data.
const DefaultPollInterval = 100 * time.Microsecond

// PhantomPort names the source of injected frames in the log. It is not
// a real port and never receives deliveries.
const PhantomPort = "/dev/mock"

var frameDelim = []byte("\r\n")

// canned pairs a compiled command pattern with its reply frame.
type canned struct {
	pattern *regexp.Regexp
	frame   []byte
}

// Hub relays frames between the ports of a pool.
type Hub struct {
	pool         *pool.Pool
	log          *FrameLog
	metrics      *metric.Metrics
	trace        *trace.Writer
	pollInterval time.Duration

	// busMu serializes frame processing between the loop goroutine and
	// Inject, preserving run-to-completion per source frame.
	busMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	replyMu sync.Mutex
	replies []canned
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogSize bounds the ring log.
func WithLogSize(n int) Option {
	return func(h *Hub) { h.log = NewFrameLog(n) }
}

// WithPollInterval sets the idle yield duration.
func WithPollInterval(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.pollInterval = d
		}
	}
}

// WithMetrics wires relay counters.
func WithMetrics(m *metric.Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

// WithTrace wires a frame trace sink.
func WithTrace(w *trace.Writer) Option {
	return func(h *Hub) { h.trace = w }
}

// New creates a stopped hub over the pool's ports.
func New(pl *pool.Pool, opts ...Option) *Hub {
	h := &Hub{
		pool:         pl,
		log:          NewFrameLog(DefaultLogSize),
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Log returns the ring log.
func (h *Hub) Log() *FrameLog {
	return h.log
}

// Running reports whether the relay loop is active.
func (h *Hub) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancel != nil
}

// Start launches the relay loop. Calling Start on a running hub is a
// no-op, so setup code may call it defensively.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	h.cancel = cancel
	h.done = done

	go h.run(ctx, done)
}

// Stop cancels the relay loop and waits for it to exit, so no write can
// land on a handle the caller is about to close. Stop before Start, or a
// second Stop, is a no-op.
func (h *Hub) Stop() {
	h.mu.Lock()
	cancel, done := h.cancel, h.done
	h.cancel = nil
	h.done = nil
	h.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// run is the relay loop. Each iteration sweeps all ports once without
// blocking; when nothing is readable it yields briefly instead of
// spinning.
func (h *Hub) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		eps := h.pool.Snapshot()
		ready := h.pollReadable(eps)
		if len(ready) == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(h.pollInterval):
			}
			continue
		}

		for _, src := range ready {
			h.busMu.Lock()
			h.relayFrom(src, eps)
			h.busMu.Unlock()
		}
	}
}

// pollReadable returns the subset of endpoints with pending data, via a
// single zero-timeout poll sweep.
func (h *Hub) pollReadable(eps []pool.Endpoint) []pool.Endpoint {
	if len(eps) == 0 {
		return nil
	}

	fds := make([]unix.PollFd, len(eps))
	for i, ep := range eps {
		fds[i] = unix.PollFd{Fd: int32(ep.FD), Events: unix.POLLIN}
	}

	n, err := unix.Poll(fds, 0)
	if err != nil {
		if err != unix.EINTR {
			slog.Error("poll failed", "error", err)
			h.metrics.IOError(metric.OpPoll)
		}
		return nil
	}
	if n == 0 {
		return nil
	}

	ready := make([]pool.Endpoint, 0, n)
	for i, fd := range fds {
		if fd.Revents&unix.POLLIN != 0 {
			ready = append(ready, eps[i])
		}
	}
	return ready
}

// relayFrom drains one readable port and relays whatever frames it held.
// An I/O failure here is logged and isolated: the port is skipped for
// the rest of the cycle and the loop carries on, modeling one endpoint's
// hardware misbehaving while the network stays up.
func (h *Hub) relayFrom(src pool.Endpoint, eps []pool.Endpoint) {
	data, err := drain(src.FD)
	if err != nil {
		slog.Warn("read failed, port skipped this cycle", "port", src.Name, "error", err)
		h.metrics.IOError(metric.OpRead)
		return
	}
	if len(data) == 0 {
		return
	}

	for _, frame := range splitFrames(data) {
		h.relayFrame(src, frame, eps)
	}
}

// relayFrame pushes one frame from its source onto the ether.
func (h *Hub) relayFrame(src pool.Endpoint, frame []byte, eps []pool.Endpoint) {
	h.log.Append(src.Name, DirSent, frame)
	h.trace.Record(src.Name, src.ID, string(DirSent), frame)
	h.metrics.Sent()

	if gateway.IsControl(frame) {
		// control frames stay between the gateway and its own client
		h.metrics.Dropped(metric.ReasonControl)
		if reply := gateway.ControlReply(src.Gw, frame); reply != nil {
			h.metrics.Replied()
			h.deliver(src, reply)
		}
		return
	}

	out, ok := gateway.BeforeSend(src.Gw, frame)
	if !ok {
		h.metrics.Dropped(metric.ReasonFiltered)
		return
	}

	h.cast(src.Name, out, eps)

	if reply := h.findReply(out); reply != nil {
		h.metrics.Replied()
		h.cast("", reply, eps) // a mocked device answers everyone, the sender included
	}
}

// cast writes a frame to every port except the named source.
func (h *Hub) cast(srcName string, frame []byte, eps []pool.Endpoint) {
	for _, dst := range eps {
		if dst.Name == srcName {
			continue
		}
		h.deliver(dst, frame)
	}
}

// deliver runs the destination gateway's receive hook and writes the
// result to the port.
func (h *Hub) deliver(dst pool.Endpoint, frame []byte) {
	out, ok := gateway.AfterReceive(dst.Gw, frame)
	if !ok {
		return
	}

	if err := writeAll(dst.FD, out); err != nil {
		slog.Warn("write failed", "port", dst.Name, "error", err)
		h.metrics.IOError(metric.OpWrite)
		return
	}

	h.log.Append(dst.Name, DirReceived, out)
	h.trace.Record(dst.Name, dst.ID, string(DirReceived), out)
	h.metrics.Delivered()
}

// AddReply registers a canned reply frame for command frames matching
// pattern, emulating a device that is not on the bus. Patterns match
// from the start of the frame; the delimiter is appended to the reply.
func (h *Hub) AddReply(pattern, reply string) error {
	re, err := regexp.Compile("^(?:" + pattern + ")")
	if err != nil {
		return fmt.Errorf("reply pattern %q: %w", pattern, err)
	}

	h.replyMu.Lock()
	defer h.replyMu.Unlock()
	h.replies = append(h.replies, canned{
		pattern: re,
		frame:   append([]byte(reply), frameDelim...),
	})
	return nil
}

// findReply returns the first registered reply matching the frame.
func (h *Hub) findReply(frame []byte) []byte {
	h.replyMu.Lock()
	defer h.replyMu.Unlock()

	for _, c := range h.replies {
		if c.pattern.Match(frame) {
			return c.frame
		}
	}
	return nil
}

// Inject casts frames onto the bus as if sent from a phantom port, for
// mocking traffic from devices that have no endpoint of their own. The
// frames bypass pre-send behavior but may trigger canned replies.
func (h *Hub) Inject(frames ...[]byte) {
	eps := h.pool.Snapshot()

	h.busMu.Lock()
	defer h.busMu.Unlock()

	for _, frame := range frames {
		h.log.Append(PhantomPort, DirSent, frame)
		h.cast(PhantomPort, frame, eps)
		if reply := h.findReply(frame); reply != nil {
			h.metrics.Replied()
			h.cast("", reply, eps)
		}
	}
}

// InjectWait injects frames and then waits, bounded by ctx, until no
// port has pending data, so a test can assert on the settled state.
func (h *Hub) InjectWait(ctx context.Context, frames ...[]byte) error {
	h.Inject(frames...)

	for {
		if len(h.pollReadable(h.pool.Snapshot())) == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

// drain reads all currently available bytes from a non-blocking fd.
func drain(fd int) ([]byte, error) {
	var data []byte
	buf := make([]byte, 4096)
	for {
		n, err := unix.Read(fd, buf)
		if n > 0 {
			data = append(data, buf[:n]...)
		}
		switch {
		case err == unix.EAGAIN:
			return data, nil
		case err == unix.EINTR:
			continue
		case err != nil:
			return data, err
		case n == 0:
			return data, nil
		}
	}
}

// writeAll writes the whole frame, retrying short writes and EINTR.
func writeAll(fd int, data []byte) error {
	for len(data) > 0 {
		n, err := unix.Write(fd, data)
		if n > 0 {
			data = data[n:]
		}
		if err != nil && err != unix.EINTR {
			return err
		}
	}
	return nil
}

// splitFrames cuts raw bytes on the frame delimiter and restores the
// delimiter on each non-empty chunk. This is the only framing rule: no
// length field, no checksum, no escaping.
func splitFrames(data []byte) [][]byte {
	var frames [][]byte
	for _, chunk := range bytes.Split(data, frameDelim) {
		if len(chunk) == 0 {
			continue
		}
		frame := make([]byte, 0, len(chunk)+len(frameDelim))
		frame = append(frame, chunk...)
		frame = append(frame, frameDelim...)
		frames = append(frames, frame)
	}
	return frames
}
