// ABOUTME: Core audio types shared across the library
// ABOUTME: Defines playback State, sample Format and position conversions
package audio

import "time"

// State describes the playback state of a voice or stream.
type State int

const (
	Stopped State = iota
	Paused
	Playing
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Paused:
		return "paused"
	case Playing:
		return "playing"
	}
	return "unknown"
}

// Format describes the memory layout of uploaded sample data. All playback
// paths carry interleaved signed 16-bit PCM; the format only encodes the
// channel layout.
type Format int

const (
	FormatUnknown Format = iota
	FormatMono16
	FormatStereo16
)

// FormatFor maps a channel count to a sample format. Channel counts with no
// supported layout map to FormatUnknown.
func FormatFor(channels int) Format {
	switch channels {
	case 1:
		return FormatMono16
	case 2:
		return FormatStereo16
	}
	return FormatUnknown
}

// Channels returns the channel count of the format, 0 for FormatUnknown.
func (f Format) Channels() int {
	switch f {
	case FormatMono16:
		return 1
	case FormatStereo16:
		return 2
	}
	return 0
}

// BitsPerSample returns the sample depth of the format, 0 for FormatUnknown.
func (f Format) BitsPerSample() int {
	if f == FormatMono16 || f == FormatStereo16 {
		return 16
	}
	return 0
}

// String returns a human-readable format name.
func (f Format) String() string {
	switch f {
	case FormatMono16:
		return "mono16"
	case FormatStereo16:
		return "stereo16"
	}
	return "unknown"
}

// Vector3 is a position, velocity or direction in listener space.
type Vector3 struct {
	X, Y, Z float32
}

// SamplesToDuration converts an interleaved sample count to playback time.
// Returns 0 when the rate or channel count is unset.
func SamplesToDuration(samples uint64, sampleRate, channels int) time.Duration {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	return time.Duration(samples) * time.Second / time.Duration(sampleRate*channels)
}

// DurationToSamples converts playback time to an interleaved sample count,
// rounded down to a whole frame.
func DurationToSamples(d time.Duration, sampleRate, channels int) uint64 {
	if d <= 0 || sampleRate <= 0 || channels <= 0 {
		return 0
	}
	frames := uint64(d * time.Duration(sampleRate) / time.Second)
	return frames * uint64(channels)
}
