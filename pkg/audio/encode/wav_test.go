// ABOUTME: Tests for the WAV writer
// ABOUTME: Validates argument checking and the written container header
package encode_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/AuralKit/aural-go/pkg/audio/encode"
)

func TestWAVFileWritesRIFFContainer(t *testing.T) {
	samples := make([]int16, 800)
	for i := range samples {
		samples[i] = int16(i)
	}
	path := filepath.Join(t.TempDir(), "out.wav")
	if err := encode.WAVFile(path, samples, 1, 8000); err != nil {
		t.Fatalf("WAVFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) < 44+len(samples)*2 {
		t.Fatalf("file is %d bytes, want at least %d", len(data), 44+len(samples)*2)
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		t.Errorf("missing RIFF/WAVE magic: % x", data[:12])
	}
}

func TestWAVRejectsBadArguments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := encode.WAVFile(path, nil, 3, 44100); err == nil {
		t.Error("expected error for 3 channels")
	}
	if err := encode.WAVFile(path, nil, 1, 0); err == nil {
		t.Error("expected error for zero sample rate")
	}
}
