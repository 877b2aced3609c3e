// ABOUTME: Shared test fixtures for the facade package
// ABOUTME: Wires the in-memory fake device and builds WAV fixtures on disk
package aural_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AuralKit/aural-go/internal/devicetest"
	"github.com/AuralKit/aural-go/pkg/audio/device"
	"github.com/AuralKit/aural-go/pkg/audio/encode"
)

// setupDevice routes the shared device handle at the fake for the duration
// of the test. Tests must release every reference they acquire so the next
// test starts with a fresh device.
func setupDevice(t *testing.T, scale float64) *devicetest.Device {
	t.Helper()
	fake := devicetest.NewScaled(scale)
	device.SetOpener(fake.Opener())
	t.Cleanup(func() { device.SetOpener(nil) })
	return fake
}

// rampSamples returns a deterministic interleaved test signal.
func rampSamples(n int) []int16 {
	s := make([]int16, n)
	for i := range s {
		s[i] = int16(i*13 - 900)
	}
	return s
}

// wavFixture writes a WAV file holding d of ramp audio and returns its path.
func wavFixture(t *testing.T, d time.Duration, channels, rate int) string {
	t.Helper()
	frames := int(d * time.Duration(rate) / time.Second)
	path := filepath.Join(t.TempDir(), "fixture.wav")
	if err := encode.WAVFile(path, rampSamples(frames*channels), channels, rate); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return path
}

func wavFixtureBytes(t *testing.T, d time.Duration, channels, rate int) []byte {
	t.Helper()
	data, err := os.ReadFile(wavFixture(t, d, channels, rate))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
