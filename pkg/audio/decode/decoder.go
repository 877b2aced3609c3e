// ABOUTME: Pluggable audio format registry and reader contract
// ABOUTME: Detects containers by probing registered formats in order
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	// ErrUnknownFormat is returned by Open when no registered format accepts
	// the stream.
	ErrUnknownFormat = errors.New("decode: unknown audio format")

	// ErrUnsupportedChannels is returned for streams that are neither mono
	// nor stereo.
	ErrUnsupportedChannels = errors.New("decode: unsupported channel count")
)

func init() {
	Register("wav", probeWAV, openWAV)
	Register("flac", probeFLAC, openFLAC)
	Register("ogg vorbis", probeVorbis, openVorbis)
	// mp3 has the loosest probe and goes last
	Register("mp3", probeMP3, openMP3)
}

// Reader provides windowed, seekable access to one decoded audio stream.
// Sample counts and offsets are interleaved (frames times channels).
// Readers are not safe for concurrent use.
type Reader interface {
	// SampleCount returns the total number of interleaved samples.
	SampleCount() uint64

	ChannelCount() int
	SampleRate() int
	Duration() time.Duration

	// Seek positions the reader at the given interleaved sample offset.
	Seek(sampleOffset uint64) error

	// Read fills dst with interleaved 16-bit samples, returning how many
	// were written. Returns io.EOF with a count of 0 at end of stream; a
	// short count with a nil error is a valid mid-stream read.
	Read(dst []int16) (int, error)

	Close() error
}

// ProbeFunc reports whether the stream looks like the format. The stream is
// positioned at the start and may be read freely; the registry rewinds it
// between probes.
type ProbeFunc func(r io.ReadSeeker) bool

// OpenFunc constructs a Reader over a stream the probe accepted.
type OpenFunc func(r io.ReadSeeker) (Reader, error)

type format struct {
	name  string
	probe ProbeFunc
	open  OpenFunc
}

var (
	regMu   sync.Mutex
	formats []format
)

// Register adds a format to the registry. Formats are probed in
// registration order, so permissive probes belong last. The built-in
// formats (wav, flac, ogg vorbis, mp3) are registered at init.
func Register(name string, probe ProbeFunc, open OpenFunc) {
	regMu.Lock()
	defer regMu.Unlock()
	formats = append(formats, format{name: name, probe: probe, open: open})
}

func registered() []format {
	regMu.Lock()
	defer regMu.Unlock()
	return append([]format(nil), formats...)
}

// Open finds the first registered format accepting r and returns a Reader
// over it. The Reader takes over r; it must not be used elsewhere afterward.
func Open(r io.ReadSeeker) (Reader, error) {
	for _, f := range registered() {
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("decode: rewind: %w", err)
		}
		if !f.probe(r) {
			continue
		}
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("decode: rewind: %w", err)
		}
		rd, err := f.open(r)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", f.name, err)
		}
		return rd, nil
	}
	return nil, ErrUnknownFormat
}

// OpenBytes decodes an in-memory file image.
func OpenBytes(data []byte) (Reader, error) {
	return Open(bytes.NewReader(data))
}

// OpenFile opens and decodes a file. Closing the returned Reader closes the
// file.
func OpenFile(path string) (Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	r, err := Open(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &fileReader{Reader: r, f: f}, nil
}

type fileReader struct {
	Reader
	f *os.File
}

func (fr *fileReader) Close() error {
	err := fr.Reader.Close()
	if cerr := fr.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// hasMagic reports whether the stream starts with the given bytes at the
// given offset.
func hasMagic(r io.ReadSeeker, offset int64, magic string) bool {
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return false
	}
	buf := make([]byte, len(magic))
	if _, err := io.ReadFull(r, buf); err != nil {
		return false
	}
	return string(buf) == magic
}
