// Package gateway models the serial gateway devices that may sit on a
// virtual RF port.
//
// A gateway is described by an immutable Identity (device id plus firmware
// family) and a pair of pure transforms that reproduce the observable
// behavior of the two real device families: address rewriting before a
// frame reaches the ether, and delivery shaping on the receiving side.
// The package also carries the USB descriptor attributes used to emulate
// serial-port enumeration.
package gateway
