package gateway

import "errors"

// Attach-time failures. All are synchronous configuration errors: the
// caller sees them directly and nothing is retried.
var (
	// ErrBadDeviceID means the device id does not match NN:NNNNNN.
	ErrBadDeviceID = errors.New("malformed device id")

	// ErrDuplicateDeviceID means another port already carries a gateway
	// with the same device id.
	ErrDuplicateDeviceID = errors.New("device id already attached to another port")

	// ErrPortHasGateway means the port already carries a gateway.
	ErrPortHasGateway = errors.New("port already has a gateway")

	// ErrUnknownPort means the named port does not exist in the pool.
	ErrUnknownPort = errors.New("port does not exist")

	// ErrUnknownFirmware means the firmware family name is not recognised.
	ErrUnknownFirmware = errors.New("unknown firmware type")
)
