package axefx

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Volume values on the external controller curve.
const (
	Volume0dB     uint8 = 98
	VolumePlus6dB uint8 = 127

	volumeFloorDB = -99.9
)

type effect struct {
	name  string // lowercase, used in song libraries
	short string // three letters, used on the LCD
	cc1   uint8  // bypass CC for the first block; the second block is cc1+1
}

var effects = []effect{
	{"chorus", "CHO", CCBypassChorus1},
	{"compressor", "CMP", CCBypassCompressor1},
	{"delay", "DLY", CCBypassDelay1},
	{"gate", "GAT", CCBypassGate1},
	{"phaser", "PHA", CCBypassPhaser1},
	{"pitch", "PIT", CCBypassPitch1},
	{"rotary", "ROT", CCBypassRotary1},
}

func lookupCC(cc uint8) (effect, int, bool) {
	for _, e := range effects {
		if cc == e.cc1 || cc == e.cc1+1 {
			return e, int(cc-e.cc1) + 1, true
		}
	}
	return effect{}, 0, false
}

// ShortName returns the 4-character LCD label for an effect bypass CC, e.g.
// "PIT1". Unknown CCs render as "C" plus the 3-digit number.
func ShortName(cc uint8) string {
	if e, block, ok := lookupCC(cc); ok {
		return fmt.Sprintf("%s%d", e.short, block)
	}
	return fmt.Sprintf("C%03d", cc)
}

// EffectLabel returns the library name for an effect bypass CC, e.g.
// "pitch1", or "cc85" for unknown CCs.
func EffectLabel(cc uint8) string {
	if e, block, ok := lookupCC(cc); ok {
		return fmt.Sprintf("%s%d", e.name, block)
	}
	return fmt.Sprintf("cc%d", cc)
}

// ParseEffect resolves a library effect name ("pitch1", "delay2", "cc85" or
// a bare number) to its bypass CC.
func ParseEffect(s string) (uint8, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("axefx: empty effect name")
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(s, "cc")); err == nil {
		if n < 0 || n > 127 {
			return 0, fmt.Errorf("axefx: effect CC %d out of range", n)
		}
		return uint8(n), nil
	}
	for _, e := range effects {
		switch s {
		case e.name, e.name + "1":
			return e.cc1, nil
		case e.name + "2":
			return e.cc1 + 1, nil
		}
	}
	return 0, fmt.Errorf("axefx: unknown effect %q", s)
}

// VolumeDB converts an external controller volume value to decibels on the
// curve where 98 is unity and 127 is +6 dB. Zero is reported as the -99.9
// floor.
func VolumeDB(v uint8) float64 {
	if v == 0 {
		return volumeFloorDB
	}
	db := 6 * math.Log(float64(v)/float64(Volume0dB)) / math.Log(float64(VolumePlus6dB)/float64(Volume0dB))
	if db < volumeFloorDB {
		return volumeFloorDB
	}
	return math.Round(db*10) / 10
}
