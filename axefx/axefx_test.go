package axefx

import (
	"bytes"
	"errors"
	"testing"
)

func TestTempoFrameVectors(t *testing.T) {
	tests := []struct {
		bpm  uint16
		want []byte
	}{
		{30, []byte{0xF0, 0x00, 0x01, 0x74, 0x03, 0x02, 0x0D, 0x01, 0x20, 0x00, 0x1E, 0x00, 0x00, 0x01, 0x37, 0xF7}},
		{120, []byte{0xF0, 0x00, 0x01, 0x74, 0x03, 0x02, 0x0D, 0x01, 0x20, 0x00, 0x78, 0x00, 0x00, 0x01, 0x51, 0xF7}},
		{140, []byte{0xF0, 0x00, 0x01, 0x74, 0x03, 0x02, 0x0D, 0x01, 0x20, 0x00, 0x0C, 0x01, 0x00, 0x01, 0x24, 0xF7}},
	}
	for _, tt := range tests {
		got := TempoFrame(tt.bpm).Encode()
		if !bytes.Equal(got, tt.want) {
			t.Errorf("TempoFrame(%d) = % X, want % X", tt.bpm, got, tt.want)
		}
		if msg := TempoFrame(tt.bpm).Message(); !bytes.Equal(msg.Bytes(), tt.want) {
			t.Errorf("TempoFrame(%d).Message() = % X", tt.bpm, msg.Bytes())
		}
	}
}

func TestParseFrame(t *testing.T) {
	enc := TempoFrame(120).Encode()
	f, err := ParseFrame(enc)
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if f.Function != FuncSetBlockParam {
		t.Errorf("function = 0x%02X", f.Function)
	}
	if !bytes.Equal(f.Payload, TempoFrame(120).Payload) {
		t.Errorf("payload = % X", f.Payload)
	}

	bad := append([]byte(nil), enc...)
	bad[len(bad)-2] ^= 0x01
	if _, err := ParseFrame(bad); !errors.Is(err, ErrChecksum) {
		t.Errorf("corrupt checksum: err = %v, want ErrChecksum", err)
	}

	errTests := []struct {
		name string
		data []byte
		want error
	}{
		{"not sysex", []byte{0xB2, 0x10, 0x7F}, ErrNotSysEx},
		{"short", []byte{0xF0, 0x00, 0x01, 0xF7}, ErrShortFrame},
		{"other vendor", []byte{0xF0, 0x3E, 0x13, 0x00, 0x00, 0x00, 0x00, 0xF7}, ErrNotAxeFx},
	}
	for _, tt := range errTests {
		if _, err := ParseFrame(tt.data); !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestControlChangeBytes(t *testing.T) {
	if got := ControlChange(GainCC(1), 0x5E).Bytes(); !bytes.Equal(got, []byte{0xB2, 19, 0x5E}) {
		t.Errorf("ControlChange = % X", got)
	}
	if got := ProgramChange(12).Bytes(); !bytes.Equal(got, []byte{0xC2, 12}) {
		t.Errorf("ProgramChange = % X", got)
	}
	if got := TapTempo(true).Bytes(); !bytes.Equal(got, []byte{0xB2, CCTapTempo, 0x7F}) {
		t.Errorf("TapTempo = % X", got)
	}
}

func TestEffectNames(t *testing.T) {
	if got := ShortName(CCBypassPitch1); got != "PIT1" {
		t.Errorf("ShortName(pitch1) = %q", got)
	}
	if got := ShortName(CCBypassDelay2); got != "DLY2" {
		t.Errorf("ShortName(delay2) = %q", got)
	}
	if got := ShortName(5); got != "C005" {
		t.Errorf("ShortName(5) = %q", got)
	}

	for _, name := range []string{"pitch1", "Rotary2", "cc85", "12"} {
		cc, err := ParseEffect(name)
		if err != nil {
			t.Errorf("ParseEffect(%q): %v", name, err)
			continue
		}
		if back, _ := ParseEffect(EffectLabel(cc)); back != cc {
			t.Errorf("EffectLabel(%d) = %q does not parse back", cc, EffectLabel(cc))
		}
	}
	if _, err := ParseEffect("wah"); err == nil {
		t.Error("ParseEffect(wah) should fail")
	}
	if _, err := ParseEffect("cc200"); err == nil {
		t.Error("ParseEffect(cc200) should fail")
	}
}

func TestVolumeDB(t *testing.T) {
	tests := []struct {
		v    uint8
		want float64
	}{
		{0, -99.9},
		{Volume0dB, 0},
		{VolumePlus6dB, 6},
	}
	for _, tt := range tests {
		if got := VolumeDB(tt.v); got != tt.want {
			t.Errorf("VolumeDB(%d) = %v, want %v", tt.v, got, tt.want)
		}
	}
	if VolumeDB(50) >= 0 {
		t.Error("VolumeDB(50) should be negative")
	}
}
