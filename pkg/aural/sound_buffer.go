// ABOUTME: In-memory sample storage for static sound playback
// ABOUTME: Decodes whole files up front and uploads them to a device buffer
package aural

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/AuralKit/aural-go/pkg/audio"
	"github.com/AuralKit/aural-go/pkg/audio/decode"
	"github.com/AuralKit/aural-go/pkg/audio/device"
	"github.com/AuralKit/aural-go/pkg/audio/encode"
)

// SoundBuffer holds a fully decoded sound in memory, uploaded once to a
// device buffer that any number of Sounds can play. The buffer tracks the
// Sounds attached to it and detaches them before mutating or destroying the
// device data they play from.
type SoundBuffer struct {
	mu       sync.Mutex
	samples  []int16
	channels int
	rate     int
	buf      device.Buffer
	sounds   map[*Sound]struct{}
	closed   bool
}

// LoadSoundBufferFromFile decodes an audio file into a new SoundBuffer.
func LoadSoundBufferFromFile(path string) (*SoundBuffer, error) {
	r, err := decode.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return newSoundBuffer(r)
}

// LoadSoundBufferFromReader decodes an audio stream into a new SoundBuffer.
// The stream is fully consumed; the caller keeps ownership of r.
func LoadSoundBufferFromReader(r io.ReadSeeker) (*SoundBuffer, error) {
	rd, err := decode.Open(r)
	if err != nil {
		return nil, err
	}
	defer rd.Close()
	return newSoundBuffer(rd)
}

// LoadSoundBufferFromMemory decodes an in-memory file image into a new
// SoundBuffer.
func LoadSoundBufferFromMemory(data []byte) (*SoundBuffer, error) {
	rd, err := decode.OpenBytes(data)
	if err != nil {
		return nil, err
	}
	defer rd.Close()
	return newSoundBuffer(rd)
}

// NewSoundBufferFromSamples builds a SoundBuffer directly from interleaved
// 16-bit samples. The slice is copied.
func NewSoundBufferFromSamples(samples []int16, channels, sampleRate int) (*SoundBuffer, error) {
	sb := &SoundBuffer{sounds: make(map[*Sound]struct{})}
	if err := sb.open(append([]int16(nil), samples...), channels, sampleRate); err != nil {
		return nil, err
	}
	return sb, nil
}

func newSoundBuffer(r decode.Reader) (*SoundBuffer, error) {
	samples, err := readAllSamples(r)
	if err != nil {
		return nil, err
	}
	sb := &SoundBuffer{sounds: make(map[*Sound]struct{})}
	if err := sb.open(samples, r.ChannelCount(), r.SampleRate()); err != nil {
		return nil, err
	}
	return sb, nil
}

func readAllSamples(r decode.Reader) ([]int16, error) {
	samples := make([]int16, 0, r.SampleCount())
	chunk := make([]int16, 4096)
	for {
		n, err := r.Read(chunk)
		samples = append(samples, chunk[:n]...)
		if err == io.EOF {
			return samples, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// open acquires the shared device and uploads samples. On success the
// SoundBuffer owns one device reference.
func (sb *SoundBuffer) open(samples []int16, channels, sampleRate int) error {
	format := audio.FormatFor(channels)
	if format == audio.FormatUnknown {
		return fmt.Errorf("sound buffer: unsupported channel count %d", channels)
	}
	if sampleRate <= 0 {
		return fmt.Errorf("sound buffer: invalid sample rate %d", sampleRate)
	}

	dev, err := device.Acquire()
	if err != nil {
		return err
	}
	buf, err := dev.NewBuffer()
	if err != nil {
		device.Release()
		return fmt.Errorf("sound buffer: %w", err)
	}
	if err := buf.Upload(format, samples, sampleRate); err != nil {
		buf.Close()
		device.Release()
		return fmt.Errorf("sound buffer: %w", err)
	}

	sb.samples = samples
	sb.channels = channels
	sb.rate = sampleRate
	sb.buf = buf
	return nil
}

// Samples returns the decoded sample data. The slice is owned by the buffer
// and must not be modified; use Update to change the contents.
func (sb *SoundBuffer) Samples() []int16 {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.samples
}

// SampleCount returns the number of interleaved samples.
func (sb *SoundBuffer) SampleCount() uint64 {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return uint64(len(sb.samples))
}

// ChannelCount returns the number of channels.
func (sb *SoundBuffer) ChannelCount() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.channels
}

// SampleRate returns the sample rate in Hz.
func (sb *SoundBuffer) SampleRate() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.rate
}

// Duration returns the total playback duration.
func (sb *SoundBuffer) Duration() time.Duration {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return audio.SamplesToDuration(uint64(len(sb.samples)), sb.rate, sb.channels)
}

// Update replaces the buffer contents. Sounds playing from the buffer are
// stopped first and must be replayed by the caller.
func (sb *SoundBuffer) Update(samples []int16, channels, sampleRate int) error {
	format := audio.FormatFor(channels)
	if format == audio.FormatUnknown {
		return fmt.Errorf("sound buffer: unsupported channel count %d", channels)
	}
	if sampleRate <= 0 {
		return fmt.Errorf("sound buffer: invalid sample rate %d", sampleRate)
	}

	sb.mu.Lock()
	defer sb.mu.Unlock()
	if sb.closed {
		return fmt.Errorf("sound buffer: closed")
	}

	// the device buffer object survives the re-upload, so attached Sounds
	// only need stopping, not detaching
	for s := range sb.sounds {
		s.stopPlayback()
	}
	data := append([]int16(nil), samples...)
	if err := sb.buf.Upload(format, data, sampleRate); err != nil {
		return fmt.Errorf("sound buffer: %w", err)
	}
	sb.samples = data
	sb.channels = channels
	sb.rate = sampleRate
	return nil
}

// SaveToFile writes the buffer contents as a 16-bit PCM WAV file.
func (sb *SoundBuffer) SaveToFile(path string) error {
	sb.mu.Lock()
	samples, channels, rate := sb.samples, sb.channels, sb.rate
	sb.mu.Unlock()
	return encode.WAVFile(path, samples, channels, rate)
}

// Close stops every Sound still playing from the buffer, frees the device
// buffer and drops the device reference. The buffer must not be used after
// Close.
func (sb *SoundBuffer) Close() error {
	sb.mu.Lock()
	if sb.closed {
		sb.mu.Unlock()
		return nil
	}
	sb.closed = true
	sb.detachAllLocked()
	buf := sb.buf
	sb.buf = nil
	sb.mu.Unlock()

	err := buf.Close()
	device.Release()
	return err
}

// detachAllLocked stops and detaches every attached Sound. Callers hold
// sb.mu; Sound.detachBuffer never calls back into the buffer.
func (sb *SoundBuffer) detachAllLocked() {
	for s := range sb.sounds {
		s.detachBuffer()
	}
	sb.sounds = make(map[*Sound]struct{})
}

func (sb *SoundBuffer) attach(s *Sound) (buf device.Buffer, channels, rate int, err error) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if sb.closed {
		return nil, 0, 0, fmt.Errorf("sound buffer: closed")
	}
	sb.sounds[s] = struct{}{}
	return sb.buf, sb.channels, sb.rate, nil
}

func (sb *SoundBuffer) detach(s *Sound) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	delete(sb.sounds, s)
}
