// Package virtualrf is a software-only stand-in for an RF serial bus.
//
// It creates up to six virtual serial ports and relays delimiter-framed
// byte traffic written to any one of them out to all the others, the way
// a shared radio ether would. Each port may carry a simulated gateway
// identity whose firmware family reproduces the quirks of the real
// device: sentinel address rewriting, hardware-level self-filtering, and
// synthetic replies to trace commands. Code under test opens a port
// exactly as it would open a real serial device path.
//
//	rf, err := virtualrf.New(3)
//	if err != nil { ... }
//	defer rf.Stop()
//
//	ports := rf.Ports()
//	_ = rf.SetGateway(ports[0], "18:111111", virtualrf.FwEvofw3)
//	rf.Start()
//
// The bus imposes no flow control beyond the OS pty buffers: it is a
// test fixture, not a production transport.
package virtualrf
