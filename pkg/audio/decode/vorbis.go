// ABOUTME: Ogg Vorbis reader for the decode registry
// ABOUTME: Wraps jfreymuth/oggvorbis and converts float samples to int16
package decode

import (
	"fmt"
	"io"
	"time"

	"github.com/jfreymuth/oggvorbis"

	"github.com/AuralKit/aural-go/pkg/audio"
)

func probeVorbis(r io.ReadSeeker) bool {
	return hasMagic(r, 0, "OggS")
}

func openVorbis(rs io.ReadSeeker) (Reader, error) {
	vr, err := oggvorbis.NewReader(rs)
	if err != nil {
		return nil, fmt.Errorf("vorbis stream: %w", err)
	}
	channels := vr.Channels()
	if audio.FormatFor(channels) == audio.FormatUnknown {
		return nil, ErrUnsupportedChannels
	}
	return &vorbisReader{
		r:        vr,
		channels: channels,
		rate:     vr.SampleRate(),
		frames:   uint64(vr.Length()),
	}, nil
}

type vorbisReader struct {
	r        *oggvorbis.Reader
	channels int
	rate     int
	frames   uint64
	scratch  []float32
}

func (v *vorbisReader) SampleCount() uint64 { return v.frames * uint64(v.channels) }
func (v *vorbisReader) ChannelCount() int   { return v.channels }
func (v *vorbisReader) SampleRate() int     { return v.rate }

func (v *vorbisReader) Duration() time.Duration {
	return audio.SamplesToDuration(v.SampleCount(), v.rate, v.channels)
}

func (v *vorbisReader) Seek(sampleOffset uint64) error {
	frame := int64(sampleOffset / uint64(v.channels))
	if frame > int64(v.frames) {
		frame = int64(v.frames)
	}
	if err := v.r.SetPosition(frame); err != nil {
		return fmt.Errorf("vorbis seek: %w", err)
	}
	return nil
}

func (v *vorbisReader) Read(dst []int16) (int, error) {
	if cap(v.scratch) < len(dst) {
		v.scratch = make([]float32, len(dst))
	}
	// oggvorbis only returns whole frames, so keep dst frame-aligned too
	want := len(dst) - len(dst)%v.channels
	n, err := v.r.Read(v.scratch[:want])
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		if err == io.EOF {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("vorbis read: %w", err)
	}
	for i := 0; i < n; i++ {
		dst[i] = floatToInt16(v.scratch[i])
	}
	return n, nil
}

func (v *vorbisReader) Close() error { return nil }

func floatToInt16(s float32) int16 {
	switch {
	case s >= 1:
		return 32767
	case s <= -1:
		return -32768
	default:
		return int16(s * 32767)
	}
}
