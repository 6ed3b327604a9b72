package hub

import (
	"bytes"
	"fmt"
	"testing"
)

func TestFrameLogAppendAndOrder(t *testing.T) {
	l := NewFrameLog(10)

	l.Append("/dev/pts/1", DirSent, []byte("a\r\n"))
	l.Append("/dev/pts/2", DirReceived, []byte("a\r\n"))

	entries := l.Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Port != "/dev/pts/1" || entries[0].Dir != DirSent {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[1].Port != "/dev/pts/2" || entries[1].Dir != DirReceived {
		t.Errorf("second entry = %+v", entries[1])
	}
}

func TestFrameLogEviction(t *testing.T) {
	l := NewFrameLog(3)

	for i := 0; i < 5; i++ {
		l.Append("/dev/pts/1", DirSent, []byte(fmt.Sprintf("frame %d\r\n", i)))
	}

	entries := l.Entries()
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want capacity 3", len(entries))
	}
	// oldest evicted first
	if !bytes.Equal(entries[0].Data, []byte("frame 2\r\n")) {
		t.Errorf("oldest retained entry = %q", entries[0].Data)
	}
	if !bytes.Equal(entries[2].Data, []byte("frame 4\r\n")) {
		t.Errorf("newest entry = %q", entries[2].Data)
	}
}

func TestFrameLogCopiesData(t *testing.T) {
	l := NewFrameLog(3)

	data := []byte("frame\r\n")
	l.Append("/dev/pts/1", DirSent, data)
	data[0] = 'X'

	if got := l.Entries()[0].Data; !bytes.Equal(got, []byte("frame\r\n")) {
		t.Errorf("log entry aliased caller data: %q", got)
	}
}

func TestFrameLogDefaultCapacity(t *testing.T) {
	if got := NewFrameLog(0).Capacity(); got != DefaultLogSize {
		t.Errorf("capacity = %d, want %d", got, DefaultLogSize)
	}
	if got := NewFrameLog(-5).Capacity(); got != DefaultLogSize {
		t.Errorf("capacity = %d, want %d", got, DefaultLogSize)
	}
}

func TestSplitFrames(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"\r\n", nil},
		{"RQ 00\r\n", []string{"RQ 00\r\n"}},
		{"RQ 00\r\nRP 01\r\n", []string{"RQ 00\r\n", "RP 01\r\n"}},
		{"\r\n\r\nRQ 00\r\n", []string{"RQ 00\r\n"}},
		// a trailing chunk without its delimiter still becomes a frame
		{"RQ 00\r\nRP", []string{"RQ 00\r\n", "RP\r\n"}},
	}

	for _, tc := range cases {
		frames := splitFrames([]byte(tc.in))
		if len(frames) != len(tc.want) {
			t.Errorf("splitFrames(%q) = %d frames, want %d", tc.in, len(frames), len(tc.want))
			continue
		}
		for i := range frames {
			if string(frames[i]) != tc.want[i] {
				t.Errorf("splitFrames(%q)[%d] = %q, want %q", tc.in, i, frames[i], tc.want[i])
			}
		}
	}
}

func TestSplitFramesNoAliasing(t *testing.T) {
	raw := []byte("AA\r\nBB\r\n")
	frames := splitFrames(raw)
	raw[0] = 'Z'
	if string(frames[0]) != "AA\r\n" {
		t.Errorf("frame aliases input buffer: %q", frames[0])
	}
}
