// ABOUTME: MP3 reader for the decode registry
// ABOUTME: Wraps hajimehoshi/go-mp3, which always yields 16-bit stereo
package decode

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	mp3 "github.com/hajimehoshi/go-mp3"

	"github.com/AuralKit/aural-go/pkg/audio"
)

const mp3Channels = 2

// probeMP3 accepts an ID3v2 tag or a bare MPEG frame sync. Raw MP3 has no
// reliable magic, so this probe is permissive and registered last.
func probeMP3(r io.ReadSeeker) bool {
	if hasMagic(r, 0, "ID3") {
		return true
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return false
	}
	var head [2]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return false
	}
	return head[0] == 0xFF && head[1]&0xE0 == 0xE0
}

func openMP3(rs io.ReadSeeker) (Reader, error) {
	dec, err := mp3.NewDecoder(rs)
	if err != nil {
		return nil, fmt.Errorf("mp3 stream: %w", err)
	}
	return &mp3Reader{dec: dec}, nil
}

type mp3Reader struct {
	dec     *mp3.Decoder
	scratch []byte
}

// Length reports the decoded stream size in bytes of 16-bit stereo PCM.
func (m *mp3Reader) SampleCount() uint64 { return uint64(m.dec.Length()) / 2 }
func (m *mp3Reader) ChannelCount() int   { return mp3Channels }
func (m *mp3Reader) SampleRate() int     { return m.dec.SampleRate() }

func (m *mp3Reader) Duration() time.Duration {
	return audio.SamplesToDuration(m.SampleCount(), m.dec.SampleRate(), mp3Channels)
}

func (m *mp3Reader) Seek(sampleOffset uint64) error {
	offset := int64(sampleOffset) * 2
	if max := m.dec.Length(); offset > max {
		offset = max
	}
	offset -= offset % (mp3Channels * 2)
	if _, err := m.dec.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("mp3 seek: %w", err)
	}
	return nil
}

func (m *mp3Reader) Read(dst []int16) (int, error) {
	want := len(dst) * 2
	if cap(m.scratch) < want {
		m.scratch = make([]byte, want)
	}
	n, err := m.dec.Read(m.scratch[:want])
	if n == 0 {
		if err == io.EOF {
			return 0, io.EOF
		}
		if err != nil {
			return 0, fmt.Errorf("mp3 read: %w", err)
		}
		return 0, nil
	}
	samples := n / 2
	for i := 0; i < samples; i++ {
		dst[i] = int16(binary.LittleEndian.Uint16(m.scratch[2*i:]))
	}
	return samples, nil
}

func (m *mp3Reader) Close() error { return nil }
