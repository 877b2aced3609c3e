// ABOUTME: Playback device contracts consumed by the streaming layers
// ABOUTME: Defines Device, Voice and Buffer with hardware queue semantics
package device

import (
	"github.com/AuralKit/aural-go/pkg/audio"
)

// Buffer is one backend-managed block of uploaded PCM samples. A buffer may
// be queued on a voice while a fresh upload is prepared for its next rotation,
// but an upload must never overlap its own enqueue.
type Buffer interface {
	// Upload replaces the buffer contents with interleaved 16-bit samples.
	Upload(format audio.Format, samples []int16, sampleRate int) error

	// Size returns the byte size of the uploaded contents.
	Size() int

	// BitsPerSample returns the sample depth of the uploaded contents.
	// A zero return indicates the buffer holds no coherent format.
	BitsPerSample() int

	Close() error
}

// Voice is a playback channel consuming queued buffers in order.
//
// Queue counting follows hardware conventions: Queued reports every buffer
// still attached to the voice, including consumed ones not yet unqueued;
// Processed reports only the consumed ones. Stop marks all attached buffers
// as processed so they can be unqueued.
type Voice interface {
	// ID identifies the voice in diagnostics.
	ID() string

	// Queue appends a buffer to the playback queue.
	Queue(Buffer) error

	// Unqueue detaches and returns the oldest processed buffer.
	Unqueue() (Buffer, error)

	// Queued returns the number of buffers attached to the voice.
	Queued() int

	// Processed returns the number of attached buffers fully consumed.
	Processed() int

	Play()
	Pause()
	Stop()

	// State reports the playback state. A voice that drains its queue while
	// playing reports Stopped.
	State() audio.State

	// SampleOffset returns the number of frames consumed from the buffers
	// currently attached to the voice. Unqueueing a buffer reduces it.
	SampleOffset() uint64

	SetGain(float64)
	Gain() float64
	SetPitch(float64)
	Pitch() float64
	SetPosition(audio.Vector3)
	Position() audio.Vector3
	SetRelative(bool)
	Relative() bool
	SetMinDistance(float64)
	MinDistance() float64
	SetAttenuation(float64)
	Attenuation() float64

	// SetLoop makes the voice restart its queue when it drains. Used for
	// static single-buffer playback; streamed playback loops above the
	// device instead.
	SetLoop(bool)
	Loop() bool

	Close() error
}

// Listener holds the global listener parameters applied to a device.
type Listener struct {
	Gain     float64
	Position audio.Vector3
	Velocity audio.Vector3
	// At and Up define the listener orientation.
	At audio.Vector3
	Up audio.Vector3
}

// DefaultListener returns the listener state applied to a freshly opened
// device: unity gain at the origin, facing down the negative Z axis.
func DefaultListener() Listener {
	return Listener{
		Gain: 1.0,
		At:   audio.Vector3{X: 0, Y: 0, Z: -1},
		Up:   audio.Vector3{X: 0, Y: 1, Z: 0},
	}
}

// Device owns playback voices and buffers.
type Device interface {
	NewVoice() (Voice, error)
	NewBuffer() (Buffer, error)

	// UpdateListener applies new global listener parameters.
	UpdateListener(Listener)

	// Suspend pauses every playing voice; Resume restarts the voices that
	// Suspend paused.
	Suspend()
	Resume()

	Close() error
}
