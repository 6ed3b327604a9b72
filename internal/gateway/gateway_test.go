package gateway

import (
	"bytes"
	"errors"
	"testing"
)

func TestValidateDeviceID(t *testing.T) {
	valid := []string{"18:000730", "01:123456", "99:999999"}
	for _, id := range valid {
		if err := ValidateDeviceID(id); err != nil {
			t.Errorf("ValidateDeviceID(%q) = %v, want nil", id, err)
		}
	}

	invalid := []string{"", "18:00073", "18:0007300", "1:8000730", "AB:123456", "18-000730", "18:12345a", " 18:000730"}
	for _, id := range invalid {
		err := ValidateDeviceID(id)
		if !errors.Is(err, ErrBadDeviceID) {
			t.Errorf("ValidateDeviceID(%q) = %v, want ErrBadDeviceID", id, err)
		}
	}
}

func TestParseFwType(t *testing.T) {
	cases := []struct {
		name string
		want FwType
	}{
		{"evofw3", FwEvofw3},
		{"EVOFW3", FwEvofw3},
		{"hgi80", FwHGI80},
		{"HGI_80", FwHGI80},
	}
	for _, tc := range cases {
		got, err := ParseFwType(tc.name)
		if err != nil || got != tc.want {
			t.Errorf("ParseFwType(%q) = %v, %v, want %v, nil", tc.name, got, err, tc.want)
		}
	}

	if _, err := ParseFwType("evofw2"); !errors.Is(err, ErrUnknownFirmware) {
		t.Errorf("ParseFwType(evofw2) err = %v, want ErrUnknownFirmware", err)
	}
}

func TestBeforeSendSentinelRewrite(t *testing.T) {
	frame := []byte("RQ --- 18:000730 01:145038 --:------ 0006 001 00\r\n")

	for _, fw := range []FwType{FwEvofw3, FwHGI80} {
		gw := Identity{DeviceID: "18:111111", Fw: fw}
		out, ok := BeforeSend(gw, frame)
		if !ok {
			t.Fatalf("%v: frame suppressed, want forwarded", fw)
		}
		want := []byte("RQ --- 18:111111 01:145038 --:------ 0006 001 00\r\n")
		if !bytes.Equal(out, want) {
			t.Errorf("%v: got %q, want %q", fw, out, want)
		}
		// the input frame must not be mutated in place
		if !bytes.Equal(frame, []byte("RQ --- 18:000730 01:145038 --:------ 0006 001 00\r\n")) {
			t.Errorf("%v: source frame mutated: %q", fw, frame)
		}
	}
}

func TestBeforeSendBarePort(t *testing.T) {
	frame := []byte("RQ --- 18:000730 01:145038 --:------ 0006 001 00\r\n")
	out, ok := BeforeSend(Identity{}, frame)
	if !ok {
		t.Fatal("bare port suppressed a frame")
	}
	if !bytes.Equal(out, frame) {
		t.Errorf("bare port rewrote a frame: got %q, want %q", out, frame)
	}
}

func TestBeforeSendHGI80SelfFilter(t *testing.T) {
	gw := Identity{DeviceID: "18:222222", Fw: FwHGI80}

	// addr0 of a third device: dropped at the source
	foreign := []byte("RQ --- 03:333333 01:145038 --:------ 0006 001 00\r\n")
	if _, ok := BeforeSend(gw, foreign); ok {
		t.Error("HGI80 forwarded a frame with a foreign addr0")
	}

	// addr0 already its own id: forwarded
	own := []byte("RQ --- 18:222222 01:145038 --:------ 0006 001 00\r\n")
	if out, ok := BeforeSend(gw, own); !ok || !bytes.Equal(out, own) {
		t.Errorf("HGI80 mishandled own-addressed frame: %q, %v", out, ok)
	}

	// sentinel addr0: substituted, then passes the filter
	sentinel := []byte("RQ --- 18:000730 01:145038 --:------ 0006 001 00\r\n")
	out, ok := BeforeSend(gw, sentinel)
	if !ok {
		t.Fatal("HGI80 dropped a sentinel-addressed frame")
	}
	if !bytes.Contains(out, []byte("18:222222")) {
		t.Errorf("sentinel not substituted: %q", out)
	}

	// evofw3 has no such restriction
	evo := Identity{DeviceID: "18:111111", Fw: FwEvofw3}
	if _, ok := BeforeSend(evo, foreign); !ok {
		t.Error("evofw3 dropped a foreign-addressed frame")
	}
}

func TestBeforeSendControlNeverCast(t *testing.T) {
	for _, fw := range []FwType{FwNone, FwEvofw3, FwHGI80} {
		gw := Identity{DeviceID: "18:111111", Fw: fw}
		if _, ok := BeforeSend(gw, []byte("!V\r\n")); ok {
			t.Errorf("%v: control frame was cast to the ether", fw)
		}
	}
}

func TestBeforeSendShortFrame(t *testing.T) {
	// frames too short to carry an addr0 pass through untouched
	gw := Identity{DeviceID: "18:111111", Fw: FwEvofw3}
	short := []byte("RQ\r\n")
	if out, ok := BeforeSend(gw, short); !ok || !bytes.Equal(out, short) {
		t.Errorf("short frame mishandled: %q, %v", out, ok)
	}
}

func TestControlReply(t *testing.T) {
	evo := Identity{DeviceID: "18:111111", Fw: FwEvofw3}
	hgi := Identity{DeviceID: "18:222222", Fw: FwHGI80}

	if got := ControlReply(evo, []byte("!V\r\n")); !bytes.Equal(got, []byte("# evofw3 0.7.1\r\n")) {
		t.Errorf("evofw3 !V reply = %q", got)
	}
	if got := ControlReply(evo, []byte("!V")); !bytes.Equal(got, []byte("# evofw3 0.7.1\r\n")) {
		t.Errorf("evofw3 bare !V reply = %q", got)
	}
	if got := ControlReply(evo, []byte("!T 1\r\n")); got != nil {
		t.Errorf("evofw3 replied %q to an unknown trace command", got)
	}
	if got := ControlReply(hgi, []byte("!V\r\n")); got != nil {
		t.Errorf("HGI80 replied %q to !V", got)
	}
	if got := ControlReply(Identity{}, []byte("!V\r\n")); got != nil {
		t.Errorf("bare port replied %q to !V", got)
	}
}

func TestAfterReceiveIsTransparent(t *testing.T) {
	frame := []byte(" I --- 01:145038 --:------ 01:145038 1F09 003 FF0532\r\n")
	for _, fw := range []FwType{FwNone, FwEvofw3, FwHGI80} {
		out, ok := AfterReceive(Identity{DeviceID: "18:111111", Fw: fw}, frame)
		if !ok || !bytes.Equal(out, frame) {
			t.Errorf("%v: delivery altered the frame: %q, %v", fw, out, ok)
		}
	}
}

func TestAttrsFor(t *testing.T) {
	if a := AttrsFor(FwHGI80); a.Manufacturer != "Texas Instruments" || a.VendorID != 0x10AC {
		t.Errorf("HGI80 attrs = %+v", a)
	}
	if a := AttrsFor(FwEvofw3); a.Product != "evofw3 atmega32u4" {
		t.Errorf("evofw3 attrs = %+v", a)
	}
	// bare ports present as the generic atmega family
	if a := AttrsFor(FwNone); a.Manufacturer != "SparkFun" {
		t.Errorf("default attrs = %+v", a)
	}
}
