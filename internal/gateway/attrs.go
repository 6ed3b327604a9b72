package gateway

// Attrs holds the USB descriptor attributes reported for a gateway family
// by the emulated serial-port enumeration. Values are taken from real
// devices; they inform enumeration only, never protocol behavior.
type Attrs struct {
	Manufacturer string
	Product      string
	VendorID     uint16
	ProductID    uint16
	Description  string
	SerialNumber string
	Interface    string
	Subsystem    string
}

var fwAttrs = map[FwType]Attrs{
	FwEvofw3: {
		Manufacturer: "SparkFun",
		Product:      "evofw3 atmega32u4",
		VendorID:     0x1B4F, // SparkFun Electronics
		ProductID:    0x9206,
		Description:  "evofw3 atmega32u4",
		Subsystem:    "usb-serial",
	},
	FwHGI80: {
		Manufacturer: "Texas Instruments",
		Product:      "TUSB3410 Boot Device",
		VendorID:     0x10AC, // Honeywell, Inc.
		ProductID:    0x0102,
		Description:  "TUSB3410 Boot Device",
		SerialNumber: "TUSB3410",
		Subsystem:    "usb",
	},
}

// AttrsFor returns the descriptor attributes for a firmware family. Bare
// ports enumerate as the generic atmega family, mirroring how an unknown
// adapter presents itself.
func AttrsFor(fw FwType) Attrs {
	if a, ok := fwAttrs[fw]; ok {
		return a
	}
	return fwAttrs[FwEvofw3]
}
