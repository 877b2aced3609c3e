// ABOUTME: Tests for the format registry and the built-in WAV reader
// ABOUTME: Round-trips PCM through encode and exercises probe dispatch
package decode_test

import (
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/AuralKit/aural-go/pkg/audio/decode"
	"github.com/AuralKit/aural-go/pkg/audio/encode"
)

// rampSamples returns a deterministic interleaved test signal.
func rampSamples(n int) []int16 {
	s := make([]int16, n)
	for i := range s {
		s[i] = int16(i*37 - 4000)
	}
	return s
}

func writeWAV(t *testing.T, samples []int16, channels, rate int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.wav")
	if err := encode.WAVFile(path, samples, channels, rate); err != nil {
		t.Fatalf("WAVFile: %v", err)
	}
	return path
}

func readAll(t *testing.T, r decode.Reader) []int16 {
	t.Helper()
	var out []int16
	buf := make([]int16, 512)
	for {
		n, err := r.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
	}
}

func TestOpenUnknownFormat(t *testing.T) {
	_, err := decode.OpenBytes([]byte("definitely not audio data"))
	if !errors.Is(err, decode.ErrUnknownFormat) {
		t.Fatalf("err = %v, want ErrUnknownFormat", err)
	}
}

func TestWAVRoundTrip(t *testing.T) {
	const (
		channels = 2
		rate     = 8000
	)
	want := rampSamples(rate) // half a second of stereo

	r, err := decode.OpenFile(writeWAV(t, want, channels, rate))
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer r.Close()

	if got := r.ChannelCount(); got != channels {
		t.Errorf("ChannelCount() = %d, want %d", got, channels)
	}
	if got := r.SampleRate(); got != rate {
		t.Errorf("SampleRate() = %d, want %d", got, rate)
	}
	if got := r.SampleCount(); got != uint64(len(want)) {
		t.Errorf("SampleCount() = %d, want %d", got, len(want))
	}
	if got := r.Duration(); got != 500*time.Millisecond {
		t.Errorf("Duration() = %v, want 500ms", got)
	}

	got := readAll(t, r)
	if len(got) != len(want) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestWAVSeek(t *testing.T) {
	const rate = 8000
	want := rampSamples(rate)

	r, err := decode.OpenFile(writeWAV(t, want, 2, rate))
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer r.Close()

	// Odd offsets snap down to a frame boundary.
	if err := r.Seek(1001); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	got := readAll(t, r)
	if len(got) != len(want)-1000 {
		t.Fatalf("decoded %d samples after seek, want %d", len(got), len(want)-1000)
	}
	if got[0] != want[1000] {
		t.Errorf("first sample after seek = %d, want %d", got[0], want[1000])
	}

	// Seeking to or past the end leaves nothing to read.
	if err := r.Seek(r.SampleCount() + 500); err != nil {
		t.Fatalf("Seek past end: %v", err)
	}
	if n, err := r.Read(make([]int16, 16)); err != io.EOF || n != 0 {
		t.Errorf("Read after end seek = (%d, %v), want (0, EOF)", n, err)
	}

	// Rewind restores the full stream.
	if err := r.Seek(0); err != nil {
		t.Fatalf("Seek(0): %v", err)
	}
	if got := readAll(t, r); len(got) != len(want) {
		t.Errorf("decoded %d samples after rewind, want %d", len(got), len(want))
	}
}

func TestWAVRejectsFloatPCM(t *testing.T) {
	// Hand-built header claiming IEEE float (format 3).
	data := []byte{
		'R', 'I', 'F', 'F', 36, 0, 0, 0, 'W', 'A', 'V', 'E',
		'f', 'm', 't', ' ', 16, 0, 0, 0,
		3, 0, // IEEE float
		2, 0, // stereo
		0x40, 0x1F, 0, 0, // 8000 Hz
		0, 0xF4, 0, 0, // byte rate
		8, 0, // block align
		32, 0, // bits per sample
		'd', 'a', 't', 'a', 0, 0, 0, 0,
	}
	_, err := decode.OpenBytes(data)
	if !errors.Is(err, decode.ErrUnsupportedWAV) {
		t.Fatalf("err = %v, want ErrUnsupportedWAV", err)
	}
}

func TestMP3ProbeClaimsFrameSync(t *testing.T) {
	// Looks like an MPEG frame header; too short to decode. The registry
	// must hand it to the mp3 opener rather than report an unknown format.
	_, err := decode.OpenBytes([]byte{0xFF, 0xFB})
	if err == nil {
		t.Fatal("expected error for truncated mp3 data")
	}
	if errors.Is(err, decode.ErrUnknownFormat) {
		t.Fatalf("err = %v, want mp3 open failure", err)
	}
}

func TestRegisterCustomFormat(t *testing.T) {
	const magic = "XAU1"
	opened := false
	decode.Register("custom",
		func(r io.ReadSeeker) bool {
			buf := make([]byte, len(magic))
			_, err := io.ReadFull(r, buf)
			return err == nil && string(buf) == magic
		},
		func(r io.ReadSeeker) (decode.Reader, error) {
			opened = true
			return nil, errors.New("custom format is probe-only in this test")
		},
	)

	_, err := decode.OpenBytes([]byte(magic + "payload"))
	if err == nil {
		t.Fatal("expected open error from custom format")
	}
	if !opened {
		t.Fatal("custom opener was not invoked")
	}
}
