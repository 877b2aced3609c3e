// ABOUTME: Static sound playback over a shared SoundBuffer
// ABOUTME: One voice per Sound; looping is delegated to the device queue
package aural

import (
	"fmt"
	"sync"
	"time"

	"github.com/AuralKit/aural-go/pkg/audio"
	"github.com/AuralKit/aural-go/pkg/audio/device"
)

// Sound plays a fully decoded SoundBuffer on its own voice. Many Sounds can
// share one buffer. All methods are safe for concurrent use.
type Sound struct {
	mu     sync.Mutex
	voice  device.Voice
	buffer *SoundBuffer
	devBuf device.Buffer
	// format of the attached buffer, cached so position queries need no
	// buffer lock
	channels int
	rate     int
	closed   bool
}

// NewSound creates a Sound with no buffer attached. The Sound holds one
// device reference until Close.
func NewSound() (*Sound, error) {
	dev, err := device.Acquire()
	if err != nil {
		return nil, err
	}
	voice, err := dev.NewVoice()
	if err != nil {
		device.Release()
		return nil, fmt.Errorf("sound: %w", err)
	}
	return &Sound{voice: voice}, nil
}

// NewSoundWithBuffer creates a Sound already attached to a buffer.
func NewSoundWithBuffer(b *SoundBuffer) (*Sound, error) {
	s, err := NewSound()
	if err != nil {
		return nil, err
	}
	if err := s.SetBuffer(b); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// SetBuffer attaches the Sound to a buffer, stopping any current playback.
func (s *Sound) SetBuffer(b *SoundBuffer) error {
	devBuf, channels, rate, err := b.attach(s)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		b.detach(s)
		return fmt.Errorf("sound: closed")
	}
	old := s.buffer
	s.stopLocked()
	s.buffer = b
	s.devBuf = devBuf
	s.channels = channels
	s.rate = rate
	s.mu.Unlock()

	if old != nil && old != b {
		old.detach(s)
	}
	return nil
}

// Buffer returns the attached SoundBuffer, or nil.
func (s *Sound) Buffer() *SoundBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer
}

// Play starts playback from the beginning, or resumes if the Sound is
// paused. Playing an already playing Sound restarts it.
func (s *Sound) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("sound: closed")
	}
	if s.devBuf == nil {
		return fmt.Errorf("sound: no buffer attached")
	}

	if s.voice.State() == audio.Paused {
		s.voice.Play()
		return nil
	}

	s.stopLocked()
	if err := s.voice.Queue(s.devBuf); err != nil {
		return fmt.Errorf("sound: %w", err)
	}
	s.voice.Play()
	return nil
}

// Pause pauses playback in place.
func (s *Sound) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.voice.Pause()
	}
}

// Stop halts playback and rewinds to the beginning.
func (s *Sound) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.stopLocked()
	}
}

// stopLocked stops the voice and drains its queue so a later Play starts
// from a clean slate.
func (s *Sound) stopLocked() {
	s.voice.Stop()
	for {
		if _, err := s.voice.Unqueue(); err != nil {
			return
		}
	}
}

// stopPlayback is invoked by SoundBuffer.Update while holding the buffer
// lock; it must not call back into the buffer.
func (s *Sound) stopPlayback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.stopLocked()
	}
}

// detachBuffer is invoked by SoundBuffer.Close while holding the buffer
// lock; it must not call back into the buffer.
func (s *Sound) detachBuffer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.stopLocked()
	}
	s.buffer = nil
	s.devBuf = nil
}

// State reports whether the Sound is playing, paused or stopped.
func (s *Sound) State() audio.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return audio.Stopped
	}
	return s.voice.State()
}

// PlayingOffset returns the current playback position.
func (s *Sound) PlayingOffset() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.buffer == nil {
		return 0
	}
	frames := s.voice.SampleOffset()
	return audio.SamplesToDuration(frames*uint64(s.channels), s.rate, s.channels)
}

// SetLoop makes playback restart from the beginning when the buffer ends.
func (s *Sound) SetLoop(loop bool) { s.withVoice(func(v device.Voice) { v.SetLoop(loop) }) }

// Loop reports whether the Sound loops.
func (s *Sound) Loop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	return s.voice.Loop()
}

// SetGain sets the playback gain (1 is unity).
func (s *Sound) SetGain(gain float64) { s.withVoice(func(v device.Voice) { v.SetGain(gain) }) }

// SetPitch sets the playback rate multiplier.
func (s *Sound) SetPitch(pitch float64) { s.withVoice(func(v device.Voice) { v.SetPitch(pitch) }) }

// SetPosition places the Sound in the spatial scene.
func (s *Sound) SetPosition(pos audio.Vector3) {
	s.withVoice(func(v device.Voice) { v.SetPosition(pos) })
}

// SetRelative makes the position relative to the listener.
func (s *Sound) SetRelative(rel bool) { s.withVoice(func(v device.Voice) { v.SetRelative(rel) }) }

// SetMinDistance sets the distance at which attenuation starts.
func (s *Sound) SetMinDistance(d float64) {
	s.withVoice(func(v device.Voice) { v.SetMinDistance(d) })
}

// SetAttenuation sets the distance attenuation factor.
func (s *Sound) SetAttenuation(a float64) {
	s.withVoice(func(v device.Voice) { v.SetAttenuation(a) })
}

// Voice exposes the underlying device voice for uncommon parameter access.
func (s *Sound) Voice() device.Voice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voice
}

func (s *Sound) withVoice(f func(device.Voice)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		f(s.voice)
	}
}

// Close stops playback, detaches the buffer and releases the voice and the
// device reference.
func (s *Sound) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.stopLocked()
	buffer := s.buffer
	s.buffer = nil
	s.devBuf = nil
	voice := s.voice
	s.mu.Unlock()

	if buffer != nil {
		buffer.detach(s)
	}
	err := voice.Close()
	device.Release()
	return err
}
