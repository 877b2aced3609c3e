// ABOUTME: WAV reader for the decode registry
// ABOUTME: Walks RIFF chunks and streams 16-bit PCM from the data chunk
package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-audio/riff"

	"github.com/AuralKit/aural-go/pkg/audio"
)

var (
	// ErrUnsupportedWAV is returned for WAV files that are not 16-bit PCM.
	ErrUnsupportedWAV = errors.New("decode: unsupported wav encoding (want 16-bit PCM)")

	errNoWAVData = errors.New("decode: wav file has no data chunk")
)

const wavPCMFormat = 1

func probeWAV(r io.ReadSeeker) bool {
	return hasMagic(r, 0, "RIFF") && hasMagic(r, 8, "WAVE")
}

func openWAV(rs io.ReadSeeker) (Reader, error) {
	parser := riff.New(rs)
	if err := parser.ParseHeaders(); err != nil {
		return nil, fmt.Errorf("riff headers: %w", err)
	}

	w := &wavReader{r: rs}
	haveFmt := false
	for {
		chunk, err := parser.NextChunk()
		if err != nil {
			if err == io.EOF {
				return nil, errNoWAVData
			}
			return nil, fmt.Errorf("riff chunk: %w", err)
		}

		switch chunk.ID {
		case riff.FmtID:
			if err := chunk.DecodeWavHeader(parser); err != nil {
				return nil, fmt.Errorf("wav fmt chunk: %w", err)
			}
			if parser.WavAudioFormat != wavPCMFormat || parser.BitsPerSample != 16 {
				return nil, ErrUnsupportedWAV
			}
			if audio.FormatFor(int(parser.NumChannels)) == audio.FormatUnknown {
				return nil, ErrUnsupportedWAV
			}
			w.channels = int(parser.NumChannels)
			w.rate = int(parser.SampleRate)
			haveFmt = true
		case riff.DataFormatID:
			if !haveFmt {
				return nil, errors.New("decode: wav data chunk before fmt chunk")
			}
			// the parser consumed the chunk header, so the stream sits at
			// the first PCM byte
			start, err := rs.Seek(0, io.SeekCurrent)
			if err != nil {
				return nil, fmt.Errorf("locate wav data: %w", err)
			}
			w.dataStart = start
			w.dataBytes = int64(chunk.Size)
			return w, nil
		default:
			chunk.Drain()
		}
	}
}

type wavReader struct {
	r         io.ReadSeeker
	dataStart int64
	dataBytes int64
	channels  int
	rate      int
	pos       int64 // bytes consumed of the data chunk
	scratch   []byte
}

func (w *wavReader) SampleCount() uint64 { return uint64(w.dataBytes / 2) }
func (w *wavReader) ChannelCount() int   { return w.channels }
func (w *wavReader) SampleRate() int     { return w.rate }

func (w *wavReader) Duration() time.Duration {
	return audio.SamplesToDuration(w.SampleCount(), w.rate, w.channels)
}

func (w *wavReader) Seek(sampleOffset uint64) error {
	offset := int64(sampleOffset) * 2
	if offset > w.dataBytes {
		offset = w.dataBytes
	}
	frameBytes := int64(w.channels) * 2
	offset -= offset % frameBytes

	if _, err := w.r.Seek(w.dataStart+offset, io.SeekStart); err != nil {
		return fmt.Errorf("wav seek: %w", err)
	}
	w.pos = offset
	return nil
}

func (w *wavReader) Read(dst []int16) (int, error) {
	remain := w.dataBytes - w.pos
	if remain <= 0 {
		return 0, io.EOF
	}
	want := int64(len(dst)) * 2
	if want > remain {
		want = remain
	}
	if int64(cap(w.scratch)) < want {
		w.scratch = make([]byte, want)
	}
	buf := w.scratch[:want]

	n, err := io.ReadFull(w.r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return 0, fmt.Errorf("wav read: %w", err)
	}
	w.pos += int64(n)

	samples := n / 2
	if samples == 0 {
		return 0, io.EOF
	}
	for i := 0; i < samples; i++ {
		dst[i] = int16(binary.LittleEndian.Uint16(buf[2*i:]))
	}
	return samples, nil
}

func (w *wavReader) Close() error { return nil }
