// ABOUTME: FLAC reader for the decode registry
// ABOUTME: Decodes frames via mewkiz/flac and interleaves them as int16
package decode

import (
	"fmt"
	"io"
	"time"

	"github.com/mewkiz/flac"

	"github.com/AuralKit/aural-go/pkg/audio"
)

func probeFLAC(r io.ReadSeeker) bool {
	return hasMagic(r, 0, "fLaC")
}

func openFLAC(rs io.ReadSeeker) (Reader, error) {
	stream, err := flac.NewSeek(rs)
	if err != nil {
		return nil, fmt.Errorf("flac stream: %w", err)
	}
	info := stream.Info
	channels := int(info.NChannels)
	if audio.FormatFor(channels) == audio.FormatUnknown {
		stream.Close()
		return nil, ErrUnsupportedChannels
	}
	return &flacReader{
		stream:   stream,
		channels: channels,
		rate:     int(info.SampleRate),
		frames:   info.NSamples,
		shift:    int(info.BitsPerSample) - 16,
	}, nil
}

type flacReader struct {
	stream   *flac.Stream
	channels int
	rate     int
	frames   uint64
	shift    int // source bit depth minus 16

	pending    []int16
	pendingPos int
}

func (f *flacReader) SampleCount() uint64 { return f.frames * uint64(f.channels) }
func (f *flacReader) ChannelCount() int   { return f.channels }
func (f *flacReader) SampleRate() int     { return f.rate }

func (f *flacReader) Duration() time.Duration {
	return audio.SamplesToDuration(f.SampleCount(), f.rate, f.channels)
}

func (f *flacReader) Seek(sampleOffset uint64) error {
	frame := sampleOffset / uint64(f.channels)
	if frame > f.frames {
		frame = f.frames
	}
	actual, err := f.stream.Seek(frame)
	if err != nil {
		return fmt.Errorf("flac seek: %w", err)
	}
	f.pending = f.pending[:0]
	f.pendingPos = 0

	// Seek lands on a frame boundary at or before the target; decode up to
	// the exact sample.
	skip := frame - actual
	for skip > 0 {
		if err := f.decodeFrame(); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		got := uint64(len(f.pending)) / uint64(f.channels)
		if got > skip {
			f.pendingPos = int(skip) * f.channels
			return nil
		}
		skip -= got
		f.pending = f.pending[:0]
	}
	return nil
}

func (f *flacReader) Read(dst []int16) (int, error) {
	if f.pendingPos >= len(f.pending) {
		f.pending = f.pending[:0]
		f.pendingPos = 0
		if err := f.decodeFrame(); err != nil {
			if err == io.EOF {
				return 0, io.EOF
			}
			return 0, err
		}
	}
	n := copy(dst, f.pending[f.pendingPos:])
	f.pendingPos += n
	return n, nil
}

// decodeFrame parses one FLAC frame and appends its interleaved,
// 16-bit-scaled samples to pending.
func (f *flacReader) decodeFrame() error {
	frame, err := f.stream.ParseNext()
	if err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("flac frame: %w", err)
	}
	if len(frame.Subframes) == 0 {
		return io.EOF
	}
	blockSize := len(frame.Subframes[0].Samples)
	for i := 0; i < blockSize; i++ {
		for ch := 0; ch < f.channels; ch++ {
			s := frame.Subframes[ch].Samples[i]
			if f.shift > 0 {
				s >>= uint(f.shift)
			} else if f.shift < 0 {
				s <<= uint(-f.shift)
			}
			f.pending = append(f.pending, int16(s))
		}
	}
	return nil
}

func (f *flacReader) Close() error { return f.stream.Close() }
