// Package pool owns the virtual serial ports of an RF network.
//
// Each port is a pseudo-terminal pair: the master side belongs to the hub
// for relaying, the slave side stays open so the device name remains
// allocated for whatever client opens it. The pool also tracks the
// gateway identity attached to each port and answers the emulated
// "list available serial adapters" query.
package pool
