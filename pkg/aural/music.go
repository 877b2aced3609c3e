// ABOUTME: Streamed playback of encoded audio files
// ABOUTME: Binds a decode.Reader to the streaming engine as its Source
package aural

import (
	"io"
	"sync"
	"time"

	"github.com/AuralKit/aural-go/pkg/audio"
	"github.com/AuralKit/aural-go/pkg/audio/decode"
	"github.com/AuralKit/aural-go/pkg/audio/device"
	"github.com/AuralKit/aural-go/pkg/audio/stream"
)

// musicWindow is how much audio one refill delivers.
const musicWindow = time.Second

// Music streams an encoded audio source, decoding it in bounded chunks as
// playback advances instead of loading it whole. Control methods are safe
// for concurrent use.
type Music struct {
	engine *stream.Engine

	// readerMu guards the decoder, which the engine worker and seeks touch
	// concurrently.
	readerMu sync.Mutex
	reader   decode.Reader
	window   []int16

	duration time.Duration

	closeOnce sync.Once
	closeErr  error
}

// LoadMusicFromFile opens an audio file for streamed playback.
func LoadMusicFromFile(path string) (*Music, error) {
	r, err := decode.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return newMusic(r)
}

// LoadMusicFromReader opens an audio stream for streamed playback. The
// stream belongs to the Music until Close and must not be used elsewhere.
func LoadMusicFromReader(rs io.ReadSeeker) (*Music, error) {
	r, err := decode.Open(rs)
	if err != nil {
		return nil, err
	}
	return newMusic(r)
}

// LoadMusicFromMemory opens an in-memory file image for streamed playback.
// The data must stay alive and unmodified until Close.
func LoadMusicFromMemory(data []byte) (*Music, error) {
	r, err := decode.OpenBytes(data)
	if err != nil {
		return nil, err
	}
	return newMusic(r)
}

// newMusic takes ownership of r; on error it is closed.
func newMusic(r decode.Reader) (*Music, error) {
	dev, err := device.Acquire()
	if err != nil {
		r.Close()
		return nil, err
	}

	m := &Music{
		reader:   r,
		window:   make([]int16, r.SampleRate()*r.ChannelCount()),
		duration: r.Duration(),
	}
	eng, err := stream.New(dev, m)
	if err != nil {
		r.Close()
		device.Release()
		return nil, err
	}
	if err := eng.Initialize(r.ChannelCount(), r.SampleRate()); err != nil {
		eng.Close()
		r.Close()
		device.Release()
		return nil, err
	}
	m.engine = eng
	return m, nil
}

// GetData decodes the next window of samples for the streaming engine. It
// reads until the window is full or the decoder is exhausted.
func (m *Music) GetData() ([]int16, bool) {
	m.readerMu.Lock()
	defer m.readerMu.Unlock()

	filled := 0
	for filled < len(m.window) {
		n, err := m.reader.Read(m.window[filled:])
		filled += n
		if err == io.EOF {
			return m.window[:filled], false
		}
		if err != nil {
			audio.Warnf("music: decode: %w", err)
			return m.window[:filled], false
		}
		if n == 0 {
			break
		}
	}
	return m.window[:filled], true
}

// Seek repositions the decoder. Part of the engine's Source contract.
func (m *Music) Seek(offset time.Duration) {
	m.readerMu.Lock()
	defer m.readerMu.Unlock()
	target := audio.DurationToSamples(offset, m.reader.SampleRate(), m.reader.ChannelCount())
	if err := m.reader.Seek(target); err != nil {
		audio.Warnf("music: seek: %w", err)
	}
}

// Play starts playback, or resumes it if paused.
func (m *Music) Play() error { return m.engine.Play() }

// Pause pauses playback in place.
func (m *Music) Pause() { m.engine.Pause() }

// Stop halts playback and rewinds to the beginning. It does not return
// until streaming has fully stopped.
func (m *Music) Stop() { m.engine.Stop() }

// State reports whether the Music is playing, paused or stopped.
func (m *Music) State() audio.State { return m.engine.State() }

// SetLoop makes playback restart from the beginning when the source ends.
func (m *Music) SetLoop(loop bool) { m.engine.SetLoop(loop) }

// Loop reports whether the Music loops.
func (m *Music) Loop() bool { return m.engine.Loop() }

// PlayingOffset returns the current playback position.
func (m *Music) PlayingOffset() time.Duration { return m.engine.PlayingOffset() }

// SetPlayingOffset jumps playback to the given position.
func (m *Music) SetPlayingOffset(offset time.Duration) { m.engine.SetPlayingOffset(offset) }

// Duration returns the total length of the source.
func (m *Music) Duration() time.Duration { return m.duration }

// ChannelCount returns the number of channels.
func (m *Music) ChannelCount() int { return m.engine.ChannelCount() }

// SampleRate returns the sample rate in Hz.
func (m *Music) SampleRate() int { return m.engine.SampleRate() }

// SetGain sets the playback gain (1 is unity).
func (m *Music) SetGain(gain float64) { m.engine.Voice().SetGain(gain) }

// Gain returns the playback gain.
func (m *Music) Gain() float64 { return m.engine.Voice().Gain() }

// SetPitch sets the playback rate multiplier.
func (m *Music) SetPitch(pitch float64) { m.engine.Voice().SetPitch(pitch) }

// SetPosition places the Music in the spatial scene.
func (m *Music) SetPosition(pos audio.Vector3) { m.engine.Voice().SetPosition(pos) }

// SetRelative makes the position relative to the listener.
func (m *Music) SetRelative(rel bool) { m.engine.Voice().SetRelative(rel) }

// SetMinDistance sets the distance at which attenuation starts.
func (m *Music) SetMinDistance(d float64) { m.engine.Voice().SetMinDistance(d) }

// SetAttenuation sets the distance attenuation factor.
func (m *Music) SetAttenuation(a float64) { m.engine.Voice().SetAttenuation(a) }

// Close stops playback and releases the decoder, the voice and the device
// reference. Close is idempotent.
func (m *Music) Close() error {
	m.closeOnce.Do(func() {
		err := m.engine.Close()
		if cerr := m.reader.Close(); err == nil {
			err = cerr
		}
		device.Release()
		m.closeErr = err
	})
	return m.closeErr
}

var _ stream.Source = (*Music)(nil)
