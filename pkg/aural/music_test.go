// ABOUTME: Tests for streamed Music playback over the fake device
// ABOUTME: Full decode-to-device integration through the streaming engine
package aural_test

import (
	"testing"
	"time"

	"github.com/AuralKit/aural-go/pkg/audio"
	"github.com/AuralKit/aural-go/pkg/aural"
)

func TestMusicStreamsToEnd(t *testing.T) {
	fake := setupDevice(t, 10)

	m, err := aural.LoadMusicFromMemory(wavFixtureBytes(t, 1250*time.Millisecond, 2, 8000))
	if err != nil {
		t.Fatalf("LoadMusicFromMemory: %v", err)
	}

	if got := m.Duration(); got != 1250*time.Millisecond {
		t.Errorf("Duration() = %v, want 1.25s", got)
	}
	if got := m.ChannelCount(); got != 2 {
		t.Errorf("ChannelCount() = %d, want 2", got)
	}
	if got := m.SampleRate(); got != 8000 {
		t.Errorf("SampleRate() = %d, want 8000", got)
	}

	if err := m.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	waitFor(t, 2*time.Second, "playback start", func() bool {
		return m.State() == audio.Playing
	})
	waitFor(t, 5*time.Second, "natural end", func() bool {
		return m.State() == audio.Stopped
	})
	if got := m.PlayingOffset(); got != 0 {
		t.Errorf("PlayingOffset() after natural end = %v, want 0", got)
	}

	if err := m.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if !fake.Closed() {
		t.Error("device still open after Close")
	}
}

func TestMusicSeekWhileStopped(t *testing.T) {
	setupDevice(t, 1)

	m, err := aural.LoadMusicFromMemory(wavFixtureBytes(t, time.Second, 1, 8000))
	if err != nil {
		t.Fatalf("LoadMusicFromMemory: %v", err)
	}
	defer m.Close()

	m.SetPlayingOffset(250 * time.Millisecond)
	if got := m.State(); got != audio.Stopped {
		t.Errorf("State() = %v, want Stopped", got)
	}
	if got := m.PlayingOffset(); got != 250*time.Millisecond {
		t.Errorf("PlayingOffset() = %v, want 250ms", got)
	}
}

func TestMusicLoopKeepsPlaying(t *testing.T) {
	setupDevice(t, 10)

	m, err := aural.LoadMusicFromMemory(wavFixtureBytes(t, 500*time.Millisecond, 1, 8000))
	if err != nil {
		t.Fatalf("LoadMusicFromMemory: %v", err)
	}
	defer m.Close()

	m.SetLoop(true)
	if !m.Loop() {
		t.Fatal("Loop() = false after SetLoop(true)")
	}
	if err := m.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}

	// wait out two full passes of the source; a looping stream must not stop
	time.Sleep(150 * time.Millisecond)
	if got := m.State(); got != audio.Playing {
		t.Errorf("State() after two loop passes = %v, want Playing", got)
	}
	m.Stop()
	if got := m.State(); got != audio.Stopped {
		t.Errorf("State() after Stop = %v, want Stopped", got)
	}
}

func TestMusicSettersForwardToVoice(t *testing.T) {
	fake := setupDevice(t, 1)

	m, err := aural.LoadMusicFromMemory(wavFixtureBytes(t, time.Second, 1, 8000))
	if err != nil {
		t.Fatalf("LoadMusicFromMemory: %v", err)
	}
	defer m.Close()

	m.SetGain(0.5)
	m.SetPitch(2)
	m.SetPosition(audio.Vector3{X: -1, Z: 4})

	v := fake.Voices()[0]
	if got := v.Gain(); got != 0.5 {
		t.Errorf("gain = %v, want 0.5", got)
	}
	if got := m.Gain(); got != 0.5 {
		t.Errorf("Gain() = %v, want 0.5", got)
	}
	if got := v.Pitch(); got != 2 {
		t.Errorf("pitch = %v, want 2", got)
	}
	if got := v.Position(); got != (audio.Vector3{X: -1, Z: 4}) {
		t.Errorf("position = %v", got)
	}
}

func TestMusicUnknownFormat(t *testing.T) {
	setupDevice(t, 1)

	if _, err := aural.LoadMusicFromMemory([]byte("not audio at all")); err == nil {
		t.Fatal("expected error for undecodable data")
	}
}
