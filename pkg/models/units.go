package models

import "fmt"

// Unit is the axis unit code stored in a waveform header.
type Unit uint32

const (
	UnitUnknown Unit = iota
	UnitVolts
	UnitSeconds
	UnitConstant
	UnitAmps
	UnitDecibel
	UnitHertz
)

var unitNames = map[Unit][2]string{
	UnitUnknown:  {"Unknown", ""},
	UnitVolts:    {"Volts", "V"},
	UnitSeconds:  {"Seconds", "s"},
	UnitConstant: {"Constant", ""},
	UnitAmps:     {"Amps", "A"},
	UnitDecibel:  {"Decibel", "dB"},
	UnitHertz:    {"Hertz", "Hz"},
}

func (u Unit) String() string {
	if n, ok := unitNames[u]; ok {
		return n[0]
	}
	return fmt.Sprintf("Unit(%d)", uint32(u))
}

// Symbol returns the short unit label, empty for dimensionless or unknown units.
func (u Unit) Symbol() string {
	return unitNames[u][1]
}

// WaveformType is the acquisition mode of a waveform.
type WaveformType uint32

const (
	WaveformUnknown WaveformType = iota
	WaveformNormal
	WaveformPeakDetect
	WaveformAverage
	WaveformHorizontalHistogram
	WaveformVerticalHistogram
	WaveformLogic
)

var waveformTypeNames = []string{
	"Unknown",
	"Normal",
	"Peak Detect",
	"Average",
	"Horizontal Histogram",
	"Vertical Histogram",
	"Logic",
}

func (t WaveformType) String() string {
	if int(t) < len(waveformTypeNames) {
		return waveformTypeNames[t]
	}
	return fmt.Sprintf("WaveformType(%d)", uint32(t))
}

// BufferType describes the element kind of a sample buffer.
type BufferType uint16

const (
	BufferUnknown BufferType = iota
	BufferNormal
	BufferMaximum
	BufferMinimum
	BufferTime
	BufferCounts
	BufferDigital
)

var bufferTypeNames = []string{
	"Unknown",
	"Normal (float32)",
	"Maximum (float32)",
	"Minimum (float32)",
	"Time (float32)",
	"Counts (uint32)",
	"Digital (uint8)",
}

func (t BufferType) String() string {
	if int(t) < len(bufferTypeNames) {
		return bufferTypeNames[t]
	}
	return fmt.Sprintf("BufferType(%d)", uint16(t))
}
