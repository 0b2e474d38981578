package isp

import "time"

// Board - Board variant, selects the DTR/RTS wiring of BOOT and RESET
type Board int

const (
	MAIXGO Board = iota
	KD233
	Generic
	Unknown
)

// DetectionOrder - Priority in which boards are probed
var DetectionOrder = []Board{MAIXGO, KD233, Generic, Unknown}

func (b Board) String() string {
	switch b {
	case MAIXGO:
		return "MAIXGO"
	case KD233:
		return "KD233"
	case Generic:
		return "Generic"
	default:
		return "Unknown"
	}
}

type pin int

const (
	pinDTR pin = iota
	pinRTS
	pinNone
)

// One step of a pulse sequence: drive a pin or hold for a while
type step struct {
	pin   pin
	level bool
	hold  time.Duration
}

func dtr(level bool) step {
	return step{pin: pinDTR, level: level}
}

func rts(level bool) step {
	return step{pin: pinRTS, level: level}
}

func holdMs(ms time.Duration) step {
	return step{pin: pinNone, hold: ms * time.Millisecond}
}

// Sequences that reset the SoC with BOOT held low (enter ISP mode)
var wakeSequences = map[Board][]step{
	MAIXGO: {
		dtr(true), rts(false), holdMs(50),
		dtr(false), rts(true), holdMs(50),
	},
	KD233: {
		dtr(true), rts(true), holdMs(50),
		dtr(false), holdMs(50),
	},
	Generic: {
		dtr(false), rts(false), holdMs(10),
		dtr(false), rts(true), holdMs(10),
		rts(false), dtr(true), holdMs(10),
	},
}

// Sequences that reset the SoC into the flashed application
var rebootSequences = map[Board][]step{
	MAIXGO: {
		rts(false), dtr(true), holdMs(50),
		rts(true), dtr(true), holdMs(50),
		rts(true), dtr(true),
	},
	KD233: {
		rts(false), dtr(true), holdMs(50),
		dtr(false),
	},
	Generic: {
		dtr(false), rts(false), holdMs(10),
		dtr(false), rts(true), holdMs(10),
		dtr(false), rts(false),
	},
}
