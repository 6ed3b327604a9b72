package pool

import (
	"iter"
	"strings"

	"github.com/ramses-rf/virtualrf/internal/gateway"
)

// ComPortInfo is one record of the emulated serial-adapter enumeration,
// the same shape an OS reports for a USB serial device. Ports without a
// gateway get the generic adapter family descriptor rather than being
// omitted.
type ComPortInfo struct {
	Device       string // e.g. /dev/pts/3
	Name         string // e.g. pts/3
	Manufacturer string
	Product      string
	VendorID     uint16
	ProductID    uint16
	Description  string
	SerialNumber string
	Interface    string
	Subsystem    string
}

// ComPorts returns a restartable sequence of enumeration records, one per
// port, in creation order. Callers must not rely on ordering beyond set
// equality: a real OS does not keep enumeration order stable either.
func (p *Pool) ComPorts() iter.Seq[ComPortInfo] {
	return func(yield func(ComPortInfo) bool) {
		for _, info := range p.ComPortList() {
			if !yield(info) {
				return
			}
		}
	}
}

// ComPortList returns the enumeration records as a slice.
func (p *Pool) ComPortList() []ComPortInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]ComPortInfo, 0, len(p.ports))
	for _, pt := range p.ports {
		out = append(out, comPortInfo(pt.name, pt.gw.Fw))
	}
	return out
}

func comPortInfo(device string, fw gateway.FwType) ComPortInfo {
	a := gateway.AttrsFor(fw)
	return ComPortInfo{
		Device:       device,
		Name:         strings.TrimPrefix(device, "/dev/"),
		Manufacturer: a.Manufacturer,
		Product:      a.Product,
		VendorID:     a.VendorID,
		ProductID:    a.ProductID,
		Description:  a.Description,
		SerialNumber: a.SerialNumber,
		Interface:    a.Interface,
		Subsystem:    a.Subsystem,
	}
}
