// ABOUTME: Tests for the refcounted process-wide device handle
// ABOUTME: Uses the in-memory fake backend through SetOpener
package device_test

import (
	"errors"
	"testing"

	"github.com/AuralKit/aural-go/internal/devicetest"
	"github.com/AuralKit/aural-go/pkg/audio"
	"github.com/AuralKit/aural-go/pkg/audio/device"
)

func setupDevice(t *testing.T) *devicetest.Device {
	t.Helper()
	fake := devicetest.New()
	device.SetOpener(fake.Opener())
	t.Cleanup(func() { device.SetOpener(nil) })
	return fake
}

func TestAcquireSharesOneDevice(t *testing.T) {
	fake := setupDevice(t)

	d1, err := device.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	d2, err := device.Acquire()
	if err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	if d1 != d2 {
		t.Error("Acquire opened a second device")
	}

	device.Release()
	if fake.Closed() {
		t.Fatal("device closed while a reference remained")
	}
	device.Release()
	if !fake.Closed() {
		t.Fatal("device not closed after last release")
	}
}

func TestAcquireReopensAfterLastRelease(t *testing.T) {
	fake := setupDevice(t)

	if _, err := device.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	device.Release()

	second := devicetest.New()
	device.SetOpener(second.Opener())
	if _, err := device.Acquire(); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer device.Release()

	if second.Closed() {
		t.Error("fresh device reported closed")
	}
	if !fake.Closed() {
		t.Error("first device not closed")
	}
}

func TestAcquireError(t *testing.T) {
	opened := errors.New("no output hardware")
	device.SetOpener(func() (device.Device, error) { return nil, opened })
	t.Cleanup(func() { device.SetOpener(nil) })

	if _, err := device.Acquire(); !errors.Is(err, opened) {
		t.Fatalf("err = %v, want wrapped opener error", err)
	}
}

func TestUnmatchedReleaseWarns(t *testing.T) {
	setupDevice(t)

	var warned error
	audio.SetWarnHandler(func(err error) { warned = err })
	t.Cleanup(func() { audio.SetWarnHandler(nil) })

	device.Release()
	if warned == nil {
		t.Fatal("release without acquire did not warn")
	}
}

func TestListenerStateAppliedOnOpen(t *testing.T) {
	fake := setupDevice(t)
	t.Cleanup(func() {
		device.SetListenerGain(1)
		device.SetListenerPosition(audio.Vector3{})
	})

	// listener state set before the device opens must be applied at open
	device.SetListenerGain(0.7)
	device.SetListenerPosition(audio.Vector3{X: 5})

	if _, err := device.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer device.Release()

	l := fake.Listener()
	if l.Gain != 0.7 {
		t.Errorf("listener gain at open = %v, want 0.7", l.Gain)
	}
	if l.Position != (audio.Vector3{X: 5}) {
		t.Errorf("listener position at open = %v, want {5 0 0}", l.Position)
	}
}

func TestSuspendWithoutDevice(t *testing.T) {
	setupDevice(t)
	// no device open; both must be harmless no-ops
	device.Suspend()
	device.Resume()
}
