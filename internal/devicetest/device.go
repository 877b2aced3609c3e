// ABOUTME: In-memory playback device for tests
// ABOUTME: Voices drain queued buffers on a scaled wall-clock model
package devicetest

import (
	"fmt"
	"sync"
	"time"

	"github.com/AuralKit/aural-go/pkg/audio"
	"github.com/AuralKit/aural-go/pkg/audio/device"
)

// Device is a fake playback device. Voices consume queued buffers in real
// time according to each buffer's sample rate, optionally sped up by a time
// scale so tests covering seconds of audio run in milliseconds.
type Device struct {
	mu        sync.Mutex
	scale     float64
	voices    []*Voice
	buffers   []*Buffer
	nextVoice int
	listener  device.Listener
	slept     map[*Voice]struct{}
	closed    bool
}

// New returns a device that consumes audio in real time.
func New() *Device {
	return NewScaled(1)
}

// NewScaled returns a device that consumes audio scale times faster than
// real time.
func NewScaled(scale float64) *Device {
	if scale <= 0 {
		scale = 1
	}
	return &Device{
		scale:    scale,
		listener: device.DefaultListener(),
	}
}

// Opener adapts the device for device.SetOpener.
func (d *Device) Opener() func() (device.Device, error) {
	return func() (device.Device, error) {
		return d, nil
	}
}

func (d *Device) NewVoice() (device.Voice, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, device.ErrClosed
	}
	d.nextVoice++
	v := &Voice{
		dev:         d,
		id:          fmt.Sprintf("test-voice-%d", d.nextVoice),
		gain:        1.0,
		pitch:       1.0,
		minDistance: 1.0,
		attenuation: 1.0,
	}
	d.voices = append(d.voices, v)
	return v, nil
}

func (d *Device) NewBuffer() (device.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, device.ErrClosed
	}
	b := &Buffer{}
	d.buffers = append(d.buffers, b)
	return b, nil
}

// Buffers returns every buffer created on the device, in creation order.
func (d *Device) Buffers() []*Buffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Buffer(nil), d.buffers...)
}

func (d *Device) UpdateListener(l device.Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listener = l
}

// Listener returns the last applied listener state.
func (d *Device) Listener() device.Listener {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listener
}

func (d *Device) Suspend() {
	d.mu.Lock()
	voices := append([]*Voice(nil), d.voices...)
	if d.slept == nil {
		d.slept = make(map[*Voice]struct{})
	}
	d.mu.Unlock()

	for _, v := range voices {
		if v.State() == audio.Playing {
			v.Pause()
			d.mu.Lock()
			d.slept[v] = struct{}{}
			d.mu.Unlock()
		}
	}
}

func (d *Device) Resume() {
	d.mu.Lock()
	slept := d.slept
	d.slept = nil
	d.mu.Unlock()

	for v := range slept {
		v.Play()
	}
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (d *Device) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Voices returns every voice created on the device, in creation order.
func (d *Device) Voices() []*Voice {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Voice(nil), d.voices...)
}

type entry struct {
	buf    *Buffer
	frames uint64
	rate   int
}

// duration returns the audio time the entry covers.
func (e *entry) duration() time.Duration {
	if e.rate <= 0 {
		return 0
	}
	return time.Duration(e.frames) * time.Second / time.Duration(e.rate)
}

// Voice implements device.Voice with lazily settled wall-clock consumption.
type Voice struct {
	dev *Device
	id  string

	mu        sync.Mutex
	queue     []*entry
	processed []*entry
	state     audio.State
	drained   bool
	underruns int

	// headPlayed is the settled audio time consumed of the head entry;
	// segStart is the wall time the current playing segment began.
	headPlayed time.Duration
	segStart   time.Time

	gain        float64
	pitch       float64
	position    audio.Vector3
	relative    bool
	minDistance float64
	attenuation float64
	loop        bool
	closed      bool
}

func (v *Voice) ID() string { return v.id }

// headElapsed returns audio time consumed of the head entry at now.
func (v *Voice) headElapsed(now time.Time) time.Duration {
	el := v.headPlayed
	if v.state == audio.Playing && !v.drained {
		el += time.Duration(float64(now.Sub(v.segStart)) * v.dev.scale)
	}
	return el
}

// advanceLocked settles fully consumed entries into the processed list.
func (v *Voice) advanceLocked(now time.Time) {
	if v.state != audio.Playing || v.drained {
		return
	}
	for len(v.queue) > 0 {
		e := v.queue[0]
		el := v.headElapsed(now)
		dur := e.duration()
		if el < dur {
			return
		}
		v.queue = v.queue[1:]
		v.processed = append(v.processed, e)
		v.headPlayed = el - dur
		v.segStart = now
	}
	// queue ran dry while playing
	v.drained = true
	v.underruns++
	v.headPlayed = 0
}

func (v *Voice) Queue(b device.Buffer) error {
	tb, ok := b.(*Buffer)
	if !ok {
		return fmt.Errorf("devicetest: foreign buffer on voice %s", v.id)
	}
	frames, rate := tb.frames()

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return device.ErrClosed
	}
	v.advanceLocked(time.Now())
	if v.drained {
		// new data clears the underrun drain
		v.drained = false
		v.segStart = time.Now()
		v.headPlayed = 0
	}
	v.queue = append(v.queue, &entry{buf: tb, frames: frames, rate: rate})
	return nil
}

func (v *Voice) Unqueue() (device.Buffer, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.advanceLocked(time.Now())
	if len(v.processed) == 0 {
		return nil, device.ErrNoProcessed
	}
	e := v.processed[0]
	v.processed = v.processed[1:]
	return e.buf, nil
}

func (v *Voice) Queued() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.advanceLocked(time.Now())
	return len(v.queue) + len(v.processed)
}

func (v *Voice) Processed() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.advanceLocked(time.Now())
	return len(v.processed)
}

func (v *Voice) Play() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	now := time.Now()
	switch v.state {
	case audio.Playing:
		if v.drained {
			// restart after underrun
			v.drained = false
			v.segStart = now
			v.headPlayed = 0
		}
	case audio.Paused:
		v.state = audio.Playing
		v.segStart = now
	default:
		v.state = audio.Playing
		v.drained = false
		v.headPlayed = 0
		v.segStart = now
	}
}

func (v *Voice) Pause() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != audio.Playing {
		return
	}
	now := time.Now()
	v.advanceLocked(now)
	if !v.drained {
		v.headPlayed = v.headElapsed(now)
	}
	v.state = audio.Paused
}

func (v *Voice) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.state = audio.Stopped
	v.drained = false
	v.headPlayed = 0
	for _, e := range v.queue {
		v.processed = append(v.processed, e)
	}
	v.queue = nil
}

func (v *Voice) State() audio.State {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.advanceLocked(time.Now())
	if v.state == audio.Playing && v.drained {
		return audio.Stopped
	}
	return v.state
}

func (v *Voice) SampleOffset() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	now := time.Now()
	v.advanceLocked(now)

	var frames uint64
	for _, e := range v.processed {
		frames += e.frames
	}
	if len(v.queue) > 0 {
		e := v.queue[0]
		consumed := uint64(float64(v.headElapsed(now)) / float64(time.Second) * float64(e.rate))
		if consumed > e.frames {
			consumed = e.frames
		}
		frames += consumed
	}
	return frames
}

// Underruns reports how many times the voice drained its queue while
// playing.
func (v *Voice) Underruns() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.underruns
}

func (v *Voice) SetGain(g float64)            { v.mu.Lock(); v.gain = g; v.mu.Unlock() }
func (v *Voice) Gain() float64                { v.mu.Lock(); defer v.mu.Unlock(); return v.gain }
func (v *Voice) SetPitch(p float64)           { v.mu.Lock(); v.pitch = p; v.mu.Unlock() }
func (v *Voice) Pitch() float64               { v.mu.Lock(); defer v.mu.Unlock(); return v.pitch }
func (v *Voice) SetPosition(p audio.Vector3)  { v.mu.Lock(); v.position = p; v.mu.Unlock() }
func (v *Voice) Position() audio.Vector3      { v.mu.Lock(); defer v.mu.Unlock(); return v.position }
func (v *Voice) SetRelative(r bool)           { v.mu.Lock(); v.relative = r; v.mu.Unlock() }
func (v *Voice) Relative() bool               { v.mu.Lock(); defer v.mu.Unlock(); return v.relative }
func (v *Voice) SetMinDistance(d float64)     { v.mu.Lock(); v.minDistance = d; v.mu.Unlock() }
func (v *Voice) MinDistance() float64         { v.mu.Lock(); defer v.mu.Unlock(); return v.minDistance }
func (v *Voice) SetAttenuation(a float64)     { v.mu.Lock(); v.attenuation = a; v.mu.Unlock() }
func (v *Voice) Attenuation() float64         { v.mu.Lock(); defer v.mu.Unlock(); return v.attenuation }
func (v *Voice) SetLoop(l bool)               { v.mu.Lock(); v.loop = l; v.mu.Unlock() }
func (v *Voice) Loop() bool                   { v.mu.Lock(); defer v.mu.Unlock(); return v.loop }

func (v *Voice) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	v.state = audio.Stopped
	v.queue = nil
	v.processed = nil
	return nil
}

// Buffer implements device.Buffer in memory.
type Buffer struct {
	mu      sync.Mutex
	format  audio.Format
	rate    int
	samples []int16
	uploads int

	// CorruptBits makes BitsPerSample report 0, simulating a buffer whose
	// format query fails.
	CorruptBits bool
}

func (b *Buffer) Upload(format audio.Format, samples []int16, sampleRate int) error {
	channels := format.Channels()
	if channels == 0 || sampleRate <= 0 || len(samples)%channels != 0 {
		return device.ErrBadUpload
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.format = format
	b.rate = sampleRate
	b.samples = append(b.samples[:0], samples...)
	b.uploads++
	return nil
}

func (b *Buffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples) * 2
}

func (b *Buffer) BitsPerSample() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.CorruptBits {
		return 0
	}
	return b.format.BitsPerSample()
}

// Uploads reports how many times the buffer has been refilled.
func (b *Buffer) Uploads() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.uploads
}

func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = nil
	return nil
}

func (b *Buffer) frames() (uint64, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	channels := b.format.Channels()
	if channels == 0 {
		return 0, b.rate
	}
	return uint64(len(b.samples) / channels), b.rate
}

var (
	_ device.Device = (*Device)(nil)
	_ device.Voice  = (*Voice)(nil)
	_ device.Buffer = (*Buffer)(nil)
)
