// Package hub implements the broadcast loop of the virtual RF network.
//
// One goroutine owns the whole poll-read-transform-write cycle: it polls
// every port's hub-side descriptor without blocking, drains whichever are
// readable, splits the bytes into delimiter-terminated frames, applies
// the source gateway's pre-send behavior, and writes each surviving frame
// to every other port. All per-frame processing is run to completion
// before the loop yields, so frames from different sources never
// interleave mid-processing. Ordering between sources readable in the
// same cycle follows the poll set and is not guaranteed.
//
// Frames are opaque except for the fixed addr0 field; there is no flow
// control beyond the OS pty buffers, which is acceptable for a test
// fixture and a stated non-goal.
package hub
