//go:build portaudio

// ABOUTME: PortAudio playback backend
// ABOUTME: Mixes voice queues into one PortAudio output stream
package device

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gordonklaus/portaudio"

	"github.com/AuralKit/aural-go/pkg/audio"
)

// OpenPortAudio opens a playback device over a single PortAudio output
// stream. Voices queue buffers exactly as with the oto backend; the stream
// callback mixes them.
func OpenPortAudio() (Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}

	d := &paDevice{
		voices:   make(map[*paVoice]struct{}),
		listener: DefaultListener(),
	}
	stream, err := portaudio.OpenDefaultStream(0, mixChannels, float64(mixRate), 0, d.mix)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open portaudio stream: %w", err)
	}
	d.stream = stream
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("start portaudio stream: %w", err)
	}
	return d, nil
}

type paDevice struct {
	stream *portaudio.Stream

	mu        sync.Mutex
	voices    map[*paVoice]struct{}
	listener  Listener
	suspended bool
	closed    bool
}

// mix is the PortAudio stream callback. It sums every playing voice into
// the output frame slice.
func (d *paDevice) mix(out []int16) {
	for i := range out {
		out[i] = 0
	}

	d.mu.Lock()
	if d.suspended {
		d.mu.Unlock()
		return
	}
	voices := make([]*paVoice, 0, len(d.voices))
	for v := range d.voices {
		voices = append(voices, v)
	}
	listener := d.listener
	d.mu.Unlock()

	acc := make([]int32, len(out))
	for _, v := range voices {
		v.mixInto(acc, listener)
	}
	for i, s := range acc {
		if s > 32767 {
			s = 32767
		} else if s < -32768 {
			s = -32768
		}
		out[i] = int16(s)
	}
}

func (d *paDevice) NewVoice() (Voice, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	v := &paVoice{
		dev:         d,
		id:          uuid.NewString(),
		gain:        1.0,
		pitch:       1.0,
		minDistance: 1.0,
		attenuation: 1.0,
	}
	d.voices[v] = struct{}{}
	return v, nil
}

func (d *paDevice) NewBuffer() (Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	return &otoBuffer{}, nil
}

func (d *paDevice) UpdateListener(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listener = l
}

func (d *paDevice) Suspend() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.suspended = true
}

func (d *paDevice) Resume() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.suspended = false
}

func (d *paDevice) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.voices = nil
	d.mu.Unlock()

	if err := d.stream.Stop(); err != nil {
		audio.Warnf("device: stop portaudio stream: %w", err)
	}
	if err := d.stream.Close(); err != nil {
		audio.Warnf("device: close portaudio stream: %w", err)
	}
	return portaudio.Terminate()
}

func (d *paDevice) dropVoice(v *paVoice) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.voices != nil {
		delete(d.voices, v)
	}
}

// paVoice shares the software queue model of the oto backend but is drained
// by the device mix callback instead of a dedicated player.
type paVoice struct {
	dev *paDevice
	id  string

	mu        sync.Mutex
	queue     []*queueEntry
	processed []*queueEntry
	state     audio.State
	underrun  bool
	closed    bool

	gain        float64
	pitch       float64
	position    audio.Vector3
	relative    bool
	minDistance float64
	attenuation float64
	loop        bool
}

// mixInto adds the next frames of the voice into acc, applying gain.
func (v *paVoice) mixInto(acc []int32, listener Listener) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != audio.Playing {
		return
	}

	volume := v.gain * listener.Gain
	if !v.relative {
		volume *= distanceGain(v.position, listener.Position, v.minDistance, v.attenuation)
	}
	volume = clamp01(volume)

	n := 0
	for n < len(acc)*2 && len(v.queue) > 0 {
		e := v.queue[0]
		avail := len(e.data) - e.pos
		want := (len(acc)*2 - n)
		if want > avail {
			want = avail
		}
		for i := 0; i+1 < want; i += 2 {
			s := int16(uint16(e.data[e.pos+i]) | uint16(e.data[e.pos+i+1])<<8)
			acc[(n+i)/2] += int32(float64(s) * volume)
		}
		e.pos += want
		n += want
		if e.pos >= len(e.data) {
			v.queue = v.queue[1:]
			v.processed = append(v.processed, e)
			if v.loop && len(v.queue) == 0 {
				v.queue = append(v.queue, v.processed...)
				v.processed = v.processed[:0]
				for _, q := range v.queue {
					q.pos = 0
				}
			}
		}
	}
	if n < len(acc)*2 {
		v.underrun = true
	}
}

func (v *paVoice) ID() string { return v.id }

func (v *paVoice) Queue(b Buffer) error {
	ob, ok := b.(*otoBuffer)
	if !ok {
		return fmt.Errorf("device: foreign buffer queued on portaudio voice %s", v.id)
	}
	samples, channels, rate, err := ob.snapshot()
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	v.queue = append(v.queue, &queueEntry{
		buf:       ob,
		srcFrames: uint64(len(samples) / channels),
		data:      adaptToMix(samples, channels, rate, v.pitch),
	})
	return nil
}

func (v *paVoice) Unqueue() (Buffer, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.processed) == 0 {
		return nil, ErrNoProcessed
	}
	e := v.processed[0]
	v.processed = v.processed[1:]
	return e.buf, nil
}

func (v *paVoice) Queued() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.queue) + len(v.processed)
}

func (v *paVoice) Processed() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.processed)
}

func (v *paVoice) Play() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.state = audio.Playing
	v.underrun = false
}

func (v *paVoice) Pause() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == audio.Playing {
		v.state = audio.Paused
	}
}

func (v *paVoice) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.state = audio.Stopped
	v.underrun = false
	for _, e := range v.queue {
		e.pos = len(e.data)
		v.processed = append(v.processed, e)
	}
	v.queue = nil
}

func (v *paVoice) State() audio.State {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == audio.Playing && v.underrun {
		return audio.Stopped
	}
	return v.state
}

func (v *paVoice) SampleOffset() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	var frames uint64
	for _, e := range v.processed {
		frames += e.srcFrames
	}
	if len(v.queue) > 0 {
		frames += v.queue[0].consumedFrames()
	}
	return frames
}

func (v *paVoice) SetGain(g float64) {
	if g < 0 {
		g = 0
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gain = g
}

func (v *paVoice) Gain() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.gain
}

func (v *paVoice) SetPitch(p float64) {
	if p <= 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pitch = p
}

func (v *paVoice) Pitch() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pitch
}

func (v *paVoice) SetPosition(pos audio.Vector3) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.position = pos
}

func (v *paVoice) Position() audio.Vector3 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.position
}

func (v *paVoice) SetRelative(rel bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.relative = rel
}

func (v *paVoice) Relative() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.relative
}

func (v *paVoice) SetMinDistance(d float64) {
	if d <= 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.minDistance = d
}

func (v *paVoice) MinDistance() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.minDistance
}

func (v *paVoice) SetAttenuation(a float64) {
	if a < 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.attenuation = a
}

func (v *paVoice) Attenuation() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.attenuation
}

func (v *paVoice) SetLoop(loop bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loop = loop
}

func (v *paVoice) Loop() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loop
}

func (v *paVoice) Close() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.closed = true
	v.state = audio.Stopped
	v.queue = nil
	v.processed = nil
	v.mu.Unlock()

	v.dev.dropVoice(v)
	return nil
}

var (
	_ Device = (*paDevice)(nil)
	_ Voice  = (*paVoice)(nil)
)
