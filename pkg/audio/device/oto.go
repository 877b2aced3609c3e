// ABOUTME: Playback device backed by the oto audio context
// ABOUTME: Emulates per-voice hardware buffer queues over oto players
package device

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/google/uuid"

	"github.com/AuralKit/aural-go/pkg/audio"
)

// The oto context mixes everything at one fixed format; voices adapt their
// uploads to it on queue. 16-bit stereo at 44.1kHz covers every format the
// library produces.
const (
	mixRate     = 44100
	mixChannels = 2
)

// oto allows a single context per process and has no teardown, so the
// context outlives device open/close cycles and is reused.
var (
	otoCtxMu sync.Mutex
	otoCtx   *oto.Context
)

func sharedOtoContext() (*oto.Context, error) {
	otoCtxMu.Lock()
	defer otoCtxMu.Unlock()

	if otoCtx != nil {
		return otoCtx, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   mixRate,
		ChannelCount: mixChannels,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("create oto context: %w", err)
	}
	<-ready

	otoCtx = ctx
	return otoCtx, nil
}

func openDefault() (Device, error) {
	return OpenOto()
}

// OpenOto opens a playback device over the shared oto context.
func OpenOto() (Device, error) {
	ctx, err := sharedOtoContext()
	if err != nil {
		return nil, err
	}
	return &otoDevice{
		ctx:      ctx,
		voices:   make(map[*otoVoice]struct{}),
		listener: DefaultListener(),
	}, nil
}

type otoDevice struct {
	ctx *oto.Context

	mu        sync.Mutex
	voices    map[*otoVoice]struct{}
	listener  Listener
	suspended bool
	closed    bool
}

func (d *otoDevice) NewVoice() (Voice, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}

	v := &otoVoice{
		dev:   d,
		id:    uuid.NewString(),
		gain:  1.0,
		pitch: 1.0,
		// OpenAL defaults: reference distance and rolloff of 1.
		minDistance: 1.0,
		attenuation: 1.0,
	}
	d.voices[v] = struct{}{}
	return v, nil
}

func (d *otoDevice) NewBuffer() (Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	return &otoBuffer{}, nil
}

func (d *otoDevice) UpdateListener(l Listener) {
	d.mu.Lock()
	d.listener = l
	voices := make([]*otoVoice, 0, len(d.voices))
	for v := range d.voices {
		voices = append(voices, v)
	}
	d.mu.Unlock()

	for _, v := range voices {
		v.refreshVolume()
	}
}

func (d *otoDevice) Suspend() {
	d.mu.Lock()
	if d.closed || d.suspended {
		d.mu.Unlock()
		return
	}
	d.suspended = true
	d.mu.Unlock()

	if err := d.ctx.Suspend(); err != nil {
		audio.Warnf("device: suspend: %w", err)
	}
}

func (d *otoDevice) Resume() {
	d.mu.Lock()
	if d.closed || !d.suspended {
		d.mu.Unlock()
		return
	}
	d.suspended = false
	d.mu.Unlock()

	if err := d.ctx.Resume(); err != nil {
		audio.Warnf("device: resume: %w", err)
	}
}

func (d *otoDevice) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	voices := make([]*otoVoice, 0, len(d.voices))
	for v := range d.voices {
		voices = append(voices, v)
	}
	d.voices = nil
	d.mu.Unlock()

	for _, v := range voices {
		if err := v.Close(); err != nil {
			audio.Warnf("device: close voice %s: %w", v.id, err)
		}
	}
	return nil
}

func (d *otoDevice) listenerState() Listener {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listener
}

func (d *otoDevice) dropVoice(v *otoVoice) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.voices != nil {
		delete(d.voices, v)
	}
}

// otoBuffer holds the uploaded source samples. Voices adapt the contents to
// the mix format when the buffer is queued, so Size and BitsPerSample always
// describe the uploaded data, which is what the position accounting of the
// streaming layer relies on.
type otoBuffer struct {
	mu      sync.Mutex
	format  audio.Format
	rate    int
	samples []int16
	closed  bool
}

func (b *otoBuffer) Upload(format audio.Format, samples []int16, sampleRate int) error {
	channels := format.Channels()
	if channels == 0 || sampleRate <= 0 || len(samples)%channels != 0 {
		return ErrBadUpload
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.format = format
	b.rate = sampleRate
	b.samples = append(b.samples[:0], samples...)
	return nil
}

func (b *otoBuffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples) * 2
}

func (b *otoBuffer) BitsPerSample() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.format.BitsPerSample()
}

func (b *otoBuffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.samples = nil
	b.format = audio.FormatUnknown
	return nil
}

// snapshot returns the uploaded contents for queueing.
func (b *otoBuffer) snapshot() (samples []int16, channels, rate int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, 0, 0, ErrClosed
	}
	if len(b.samples) == 0 {
		return nil, 0, 0, ErrEmptyBuffer
	}
	return append([]int16(nil), b.samples...), b.format.Channels(), b.rate, nil
}

// queueEntry is one queued buffer adapted to the mix format.
type queueEntry struct {
	buf       *otoBuffer
	srcFrames uint64
	data      []byte
	pos       int
}

// consumedFrames reports how many source frames of the entry have been fed
// to the player, proportional to the converted bytes consumed.
func (e *queueEntry) consumedFrames() uint64 {
	if len(e.data) == 0 {
		return e.srcFrames
	}
	return e.srcFrames * uint64(e.pos) / uint64(len(e.data))
}

type otoVoice struct {
	dev *otoDevice
	id  string

	mu        sync.Mutex
	queue     []*queueEntry
	processed []*queueEntry
	state     audio.State
	underrun  bool
	player    *oto.Player
	closed    bool

	gain        float64
	pitch       float64
	position    audio.Vector3
	relative    bool
	minDistance float64
	attenuation float64
	loop        bool
}

func (v *otoVoice) ID() string { return v.id }

func (v *otoVoice) Queue(b Buffer) error {
	ob, ok := b.(*otoBuffer)
	if !ok {
		return fmt.Errorf("device: foreign buffer queued on oto voice %s", v.id)
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
	data := adaptToMix(samples, channels, rate, v.pitch)
	v.queue = append(v.queue, &queueEntry{
		buf:       ob,
		srcFrames: uint64(len(samples) / channels),
		data:      data,
	})
	return nil
}

func (v *otoVoice) Unqueue() (Buffer, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.processed) == 0 {
		return nil, ErrNoProcessed
	}
	e := v.processed[0]
	v.processed = v.processed[1:]
	return e.buf, nil
}

func (v *otoVoice) Queued() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.queue) + len(v.processed)
}

func (v *otoVoice) Processed() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.processed)
}

func (v *otoVoice) Play() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.state = audio.Playing
	v.underrun = false
	if v.player == nil {
		// Feed the player through a pull reader so pause and refill never
		// tear the stream down.
		v.player = v.dev.ctx.NewPlayer(&voiceReader{v: v})
		v.player.SetBufferSize(mixRate * mixChannels * 2 / 10)
	}
	player := v.player
	v.mu.Unlock()

	v.refreshVolume()
	player.Play()
}

func (v *otoVoice) Pause() {
	v.mu.Lock()
	if v.closed || v.state != audio.Playing {
		v.mu.Unlock()
		return
	}
	v.state = audio.Paused
	player := v.player
	v.mu.Unlock()

	if player != nil {
		player.Pause()
	}
}

func (v *otoVoice) Stop() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.state = audio.Stopped
	v.underrun = false
	// Hardware semantics: stopping marks every attached buffer processed.
	for _, e := range v.queue {
		e.pos = len(e.data)
		v.processed = append(v.processed, e)
	}
	v.queue = nil
	player := v.player
	v.mu.Unlock()

	if player != nil {
		player.Pause()
	}
}

func (v *otoVoice) State() audio.State {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == audio.Playing && v.underrun {
		return audio.Stopped
	}
	return v.state
}

func (v *otoVoice) SampleOffset() uint64 {
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

func (v *otoVoice) SetGain(g float64) {
	if g < 0 {
		g = 0
	}
	v.mu.Lock()
	v.gain = g
	v.mu.Unlock()
	v.refreshVolume()
}

func (v *otoVoice) Gain() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.gain
}

func (v *otoVoice) SetPitch(p float64) {
	if p <= 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	// Applies to buffers queued from now on.
	v.pitch = p
}

func (v *otoVoice) Pitch() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pitch
}

func (v *otoVoice) SetPosition(pos audio.Vector3) {
	v.mu.Lock()
	v.position = pos
	v.mu.Unlock()
	v.refreshVolume()
}

func (v *otoVoice) Position() audio.Vector3 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.position
}

func (v *otoVoice) SetRelative(rel bool) {
	v.mu.Lock()
	v.relative = rel
	v.mu.Unlock()
	v.refreshVolume()
}

func (v *otoVoice) Relative() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.relative
}

func (v *otoVoice) SetMinDistance(d float64) {
	if d <= 0 {
		return
	}
	v.mu.Lock()
	v.minDistance = d
	v.mu.Unlock()
	v.refreshVolume()
}

func (v *otoVoice) MinDistance() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.minDistance
}

func (v *otoVoice) SetAttenuation(a float64) {
	if a < 0 {
		return
	}
	v.mu.Lock()
	v.attenuation = a
	v.mu.Unlock()
	v.refreshVolume()
}

func (v *otoVoice) Attenuation() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.attenuation
}

func (v *otoVoice) SetLoop(loop bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loop = loop
}

func (v *otoVoice) Loop() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loop
}

func (v *otoVoice) Close() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.closed = true
	v.state = audio.Stopped
	v.queue = nil
	v.processed = nil
	player := v.player
	v.player = nil
	v.mu.Unlock()

	v.dev.dropVoice(v)
	if player != nil {
		return player.Close()
	}
	return nil
}

// refreshVolume recomputes the effective player volume from voice gain,
// listener gain and distance attenuation.
func (v *otoVoice) refreshVolume() {
	l := v.dev.listenerState()

	v.mu.Lock()
	player := v.player
	volume := v.gain * l.Gain
	if !v.relative {
		volume *= distanceGain(v.position, l.Position, v.minDistance, v.attenuation)
	}
	v.mu.Unlock()

	if player != nil {
		player.SetVolume(clamp01(volume))
	}
}

// distanceGain implements the inverse distance clamped attenuation model.
func distanceGain(src, listener audio.Vector3, minDistance, attenuation float64) float64 {
	dx := float64(src.X - listener.X)
	dy := float64(src.Y - listener.Y)
	dz := float64(src.Z - listener.Z)
	dist := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if dist < minDistance {
		dist = minDistance
	}
	return minDistance / (minDistance + attenuation*(dist-minDistance))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// voiceReader feeds the oto player from the voice queue. When the queue is
// empty it emits silence and flags the underrun instead of ending the
// stream, so the voice can be refilled and restarted in place.
type voiceReader struct {
	v *otoVoice
}

func (r *voiceReader) Read(p []byte) (int, error) {
	v := r.v

	v.mu.Lock()
	defer v.mu.Unlock()

	n := 0
	for n < len(p) && len(v.queue) > 0 {
		e := v.queue[0]
		c := copy(p[n:], e.data[e.pos:])
		e.pos += c
		n += c
		if e.pos >= len(e.data) {
			v.queue = v.queue[1:]
			v.processed = append(v.processed, e)
			if v.loop && len(v.queue) == 0 && v.state == audio.Playing {
				// Device-level looping for static playback: requeue in place.
				v.queue = append(v.queue, v.processed...)
				v.processed = v.processed[:0]
				for _, q := range v.queue {
					q.pos = 0
				}
			}
		}
	}

	if n < len(p) {
		if v.state == audio.Playing {
			v.underrun = true
		}
		for i := n; i < len(p); i++ {
			p[i] = 0
		}
		n = len(p)
	}
	return n, nil
}

// adaptToMix converts uploaded samples to the fixed mix format. This is
// playback-side format adaptation owned by the backend; the streaming layer
// above never resamples.
func adaptToMix(samples []int16, channels, srcRate int, pitch float64) []byte {
	srcFrames := len(samples) / channels
	if srcFrames == 0 {
		return nil
	}
	if pitch <= 0 {
		pitch = 1
	}

	step := float64(srcRate) * pitch / float64(mixRate)
	outFrames := int(float64(srcFrames) / step)
	if outFrames < 1 {
		outFrames = 1
	}

	out := make([]byte, outFrames*mixChannels*2)
	pos := 0.0
	for i := 0; i < outFrames; i++ {
		idx := int(pos)
		if idx >= srcFrames {
			idx = srcFrames - 1
		}
		next := idx + 1
		if next >= srcFrames {
			next = srcFrames - 1
		}
		frac := pos - float64(idx)

		var left, right int16
		if channels == 1 {
			s := lerp16(samples[idx], samples[next], frac)
			left, right = s, s
		} else {
			left = lerp16(samples[idx*channels], samples[next*channels], frac)
			right = lerp16(samples[idx*channels+1], samples[next*channels+1], frac)
		}
		binary.LittleEndian.PutUint16(out[i*4:], uint16(left))
		binary.LittleEndian.PutUint16(out[i*4+2:], uint16(right))

		pos += step
	}
	return out
}

func lerp16(a, b int16, frac float64) int16 {
	return int16(float64(a) + (float64(b)-float64(a))*frac)
}

// Interface compliance.
var (
	_ Device = (*otoDevice)(nil)
	_ Voice  = (*otoVoice)(nil)
	_ Buffer = (*otoBuffer)(nil)
)
