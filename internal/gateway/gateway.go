package gateway

import (
	"bytes"
	"fmt"
	"regexp"
)

// DefaultGatewayID is the well-known sentinel a sender may place in the
// addr0 field to mean "substitute my own identity here". Every gateway
// family rewrites it to its real device id on the way out.
const DefaultGatewayID = "18:000730"

// A frame's addr0 field is a fixed-width device id: two bytes after the
// verb prefix and separator, nine bytes long (e.g. "18:000730").
const (
	addr0Start = 7
	addr0End   = 16
)

var deviceIDPattern = regexp.MustCompile(`^[0-9]{2}:[0-9]{6}$`)

// ValidateDeviceID checks the fixed NN:NNNNNN device id format.
func ValidateDeviceID(deviceID string) error {
	if !deviceIDPattern.MatchString(deviceID) {
		return fmt.Errorf("%q: %w", deviceID, ErrBadDeviceID)
	}
	return nil
}

// FwType identifies the firmware family of a simulated gateway.
type FwType int

const (
	// FwNone marks a bare port with no gateway attached.
	FwNone FwType = iota

	// FwEvofw3 is the atmega-based family: forwards every frame, answers
	// trace commands itself.
	FwEvofw3

	// FwHGI80 is the TUSB3410-based family: silently drops frames not
	// addressed from its own device id.
	FwHGI80
)

// String returns the configuration name of the firmware family.
func (t FwType) String() string {
	switch t {
	case FwNone:
		return "none"
	case FwEvofw3:
		return "evofw3"
	case FwHGI80:
		return "hgi80"
	default:
		return fmt.Sprintf("FwType(%d)", int(t))
	}
}

// ParseFwType maps a configuration name to a firmware family.
func ParseFwType(name string) (FwType, error) {
	switch name {
	case "evofw3", "EVOFW3":
		return FwEvofw3, nil
	case "hgi80", "HGI80", "hgi_80", "HGI_80":
		return FwHGI80, nil
	default:
		return FwNone, fmt.Errorf("%q: %w", name, ErrUnknownFirmware)
	}
}

// Identity describes a simulated gateway attached to a port. The zero
// value is "no gateway".
type Identity struct {
	DeviceID string
	Fw       FwType
}

// IsControl reports whether the frame is a trace/control command rather
// than ordinary traffic. Control frames are never cast to the ether.
func IsControl(frame []byte) bool {
	return len(frame) > 0 && frame[0] == '!'
}

// hasAddr0 reports whether the frame's addr0 field equals id.
func hasAddr0(frame []byte, id string) bool {
	return len(frame) >= addr0End && string(frame[addr0Start:addr0End]) == id
}

// BeforeSend returns the frame as the transmitting gateway would place it
// on the ether, or ok=false when the gateway suppresses it.
//
// Both families rewrite a sentinel addr0 to their real device id, and only
// that field. HGI80 hardware additionally drops any frame whose addr0,
// after substitution, is not its own identity. A bare port forwards
// everything untouched.
func BeforeSend(gw Identity, frame []byte) ([]byte, bool) {
	if IsControl(frame) {
		return nil, false
	}
	if gw.Fw == FwNone {
		return frame, true
	}

	if hasAddr0(frame, DefaultGatewayID) {
		out := make([]byte, len(frame))
		copy(out, frame)
		copy(out[addr0Start:addr0End], gw.DeviceID)
		frame = out
	}

	if gw.Fw == FwHGI80 && !hasAddr0(frame, gw.DeviceID) {
		return nil, false
	}
	return frame, true
}

// versionBanner is the canned reply an evofw3 gives to the !V command.
var versionBanner = []byte("# evofw3 0.7.1\r\n")

// ControlReply returns the synthetic response a gateway echoes back to its
// own port for a control frame, or nil when the command elicits none.
// Only evofw3 answers, and only the version query; every other control
// command is accepted silently.
func ControlReply(gw Identity, frame []byte) []byte {
	if gw.Fw != FwEvofw3 {
		return nil
	}
	if bytes.Equal(bytes.TrimSuffix(frame, []byte("\r\n")), []byte("!V")) {
		return versionBanner
	}
	return nil
}

// AfterReceive returns the frame as the receiving gateway hands it to its
// client, or ok=false to drop it. No current family alters or drops
// traffic on receipt; this is the hook where signal-strength prefixing
// would go.
func AfterReceive(gw Identity, frame []byte) ([]byte, bool) {
	_ = gw
	return frame, true
}
