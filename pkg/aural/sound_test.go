// ABOUTME: Tests for SoundBuffer and Sound over the fake device
// ABOUTME: Covers lifecycle, playback control and buffer/sound detachment
package aural_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/AuralKit/aural-go/pkg/audio"
	"github.com/AuralKit/aural-go/pkg/aural"
)

func TestSoundBufferProperties(t *testing.T) {
	fake := setupDevice(t, 1)

	sb, err := aural.LoadSoundBufferFromFile(wavFixture(t, 500*time.Millisecond, 1, 8000))
	if err != nil {
		t.Fatalf("LoadSoundBufferFromFile: %v", err)
	}

	if got := sb.SampleCount(); got != 4000 {
		t.Errorf("SampleCount() = %d, want 4000", got)
	}
	if got := sb.ChannelCount(); got != 1 {
		t.Errorf("ChannelCount() = %d, want 1", got)
	}
	if got := sb.SampleRate(); got != 8000 {
		t.Errorf("SampleRate() = %d, want 8000", got)
	}
	if got := sb.Duration(); got != 500*time.Millisecond {
		t.Errorf("Duration() = %v, want 500ms", got)
	}
	want := rampSamples(4000)
	got := sb.Samples()
	if len(got) != len(want) {
		t.Fatalf("Samples() has %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}

	if err := sb.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if !fake.Closed() {
		t.Error("device still open after last buffer closed")
	}
}

func TestSoundPlayPauseStop(t *testing.T) {
	setupDevice(t, 1)

	sb, err := aural.NewSoundBufferFromSamples(rampSamples(80000), 1, 8000)
	if err != nil {
		t.Fatalf("NewSoundBufferFromSamples: %v", err)
	}
	defer sb.Close()
	s, err := aural.NewSoundWithBuffer(sb)
	if err != nil {
		t.Fatalf("NewSoundWithBuffer: %v", err)
	}
	defer s.Close()

	if got := s.State(); got != audio.Stopped {
		t.Fatalf("initial State() = %v, want Stopped", got)
	}
	if err := s.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if got := s.State(); got != audio.Playing {
		t.Fatalf("State() after Play = %v, want Playing", got)
	}

	s.Pause()
	if got := s.State(); got != audio.Paused {
		t.Fatalf("State() after Pause = %v, want Paused", got)
	}
	if err := s.Play(); err != nil {
		t.Fatalf("resume Play: %v", err)
	}
	if got := s.State(); got != audio.Playing {
		t.Fatalf("State() after resume = %v, want Playing", got)
	}

	s.Stop()
	if got := s.State(); got != audio.Stopped {
		t.Fatalf("State() after Stop = %v, want Stopped", got)
	}
	if got := s.PlayingOffset(); got != 0 {
		t.Errorf("PlayingOffset() after Stop = %v, want 0", got)
	}

	// a stopped sound can be replayed
	if err := s.Play(); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if got := s.State(); got != audio.Playing {
		t.Fatalf("State() after replay = %v, want Playing", got)
	}
}

func TestSoundPlayRestartsQueue(t *testing.T) {
	fake := setupDevice(t, 1)

	sb, err := aural.NewSoundBufferFromSamples(rampSamples(80000), 1, 8000)
	if err != nil {
		t.Fatalf("NewSoundBufferFromSamples: %v", err)
	}
	defer sb.Close()
	s, err := aural.NewSoundWithBuffer(sb)
	if err != nil {
		t.Fatalf("NewSoundWithBuffer: %v", err)
	}
	defer s.Close()

	if err := s.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if err := s.Play(); err != nil {
		t.Fatalf("second Play: %v", err)
	}

	voice := fake.Voices()[0]
	if got := voice.Queued(); got != 1 {
		t.Errorf("Queued() after double Play = %d, want 1", got)
	}
}

func TestSoundWithoutBuffer(t *testing.T) {
	setupDevice(t, 1)

	s, err := aural.NewSound()
	if err != nil {
		t.Fatalf("NewSound: %v", err)
	}
	defer s.Close()

	if err := s.Play(); err == nil {
		t.Error("Play with no buffer attached should fail")
	}
}

func TestSoundBufferCloseDetachesSounds(t *testing.T) {
	setupDevice(t, 1)

	sb, err := aural.NewSoundBufferFromSamples(rampSamples(80000), 1, 8000)
	if err != nil {
		t.Fatalf("NewSoundBufferFromSamples: %v", err)
	}
	s, err := aural.NewSoundWithBuffer(sb)
	if err != nil {
		t.Fatalf("NewSoundWithBuffer: %v", err)
	}
	defer s.Close()

	if err := s.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if err := sb.Close(); err != nil {
		t.Fatalf("buffer Close: %v", err)
	}

	if got := s.State(); got != audio.Stopped {
		t.Errorf("State() after buffer close = %v, want Stopped", got)
	}
	if s.Buffer() != nil {
		t.Error("Buffer() still set after buffer close")
	}
	if err := s.Play(); err == nil {
		t.Error("Play after buffer close should fail")
	}
}

func TestSoundBufferUpdateStopsSounds(t *testing.T) {
	fake := setupDevice(t, 1)

	sb, err := aural.NewSoundBufferFromSamples(rampSamples(80000), 1, 8000)
	if err != nil {
		t.Fatalf("NewSoundBufferFromSamples: %v", err)
	}
	defer sb.Close()
	s, err := aural.NewSoundWithBuffer(sb)
	if err != nil {
		t.Fatalf("NewSoundWithBuffer: %v", err)
	}
	defer s.Close()

	if err := s.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if err := sb.Update(rampSamples(8000), 1, 4000); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if got := s.State(); got != audio.Stopped {
		t.Errorf("State() after Update = %v, want Stopped", got)
	}
	if got := sb.SampleRate(); got != 4000 {
		t.Errorf("SampleRate() after Update = %d, want 4000", got)
	}
	if got := fake.Buffers()[0].Uploads(); got != 2 {
		t.Errorf("device buffer uploads = %d, want 2", got)
	}

	// the sound stays attached and can replay the new contents
	if err := s.Play(); err != nil {
		t.Fatalf("replay after Update: %v", err)
	}
	if got := s.State(); got != audio.Playing {
		t.Errorf("State() after replay = %v, want Playing", got)
	}
}

func TestSoundSettersForwardToVoice(t *testing.T) {
	fake := setupDevice(t, 1)

	sb, err := aural.NewSoundBufferFromSamples(rampSamples(8000), 2, 8000)
	if err != nil {
		t.Fatalf("NewSoundBufferFromSamples: %v", err)
	}
	defer sb.Close()
	s, err := aural.NewSoundWithBuffer(sb)
	if err != nil {
		t.Fatalf("NewSoundWithBuffer: %v", err)
	}
	defer s.Close()

	s.SetGain(0.25)
	s.SetPitch(1.5)
	s.SetPosition(audio.Vector3{X: 1, Y: 2, Z: 3})
	s.SetRelative(true)
	s.SetMinDistance(4)
	s.SetAttenuation(0.5)
	s.SetLoop(true)

	v := fake.Voices()[0]
	if got := v.Gain(); got != 0.25 {
		t.Errorf("gain = %v, want 0.25", got)
	}
	if got := v.Pitch(); got != 1.5 {
		t.Errorf("pitch = %v, want 1.5", got)
	}
	if got := v.Position(); got != (audio.Vector3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("position = %v", got)
	}
	if !v.Relative() {
		t.Error("relative not set")
	}
	if got := v.MinDistance(); got != 4 {
		t.Errorf("min distance = %v, want 4", got)
	}
	if got := v.Attenuation(); got != 0.5 {
		t.Errorf("attenuation = %v, want 0.5", got)
	}
	if !s.Loop() {
		t.Error("Loop() = false after SetLoop(true)")
	}
}

func TestSoundBufferSaveToFile(t *testing.T) {
	setupDevice(t, 1)

	want := rampSamples(4000)
	sb, err := aural.NewSoundBufferFromSamples(want, 2, 8000)
	if err != nil {
		t.Fatalf("NewSoundBufferFromSamples: %v", err)
	}
	defer sb.Close()

	path := filepath.Join(t.TempDir(), "saved.wav")
	if err := sb.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	reloaded, err := aural.LoadSoundBufferFromFile(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	defer reloaded.Close()
	if got := reloaded.ChannelCount(); got != 2 {
		t.Errorf("reloaded ChannelCount() = %d, want 2", got)
	}
	got := reloaded.Samples()
	if len(got) != len(want) {
		t.Fatalf("reloaded %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("reloaded sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestSuspendResume(t *testing.T) {
	setupDevice(t, 1)

	sb, err := aural.NewSoundBufferFromSamples(rampSamples(80000), 1, 8000)
	if err != nil {
		t.Fatalf("NewSoundBufferFromSamples: %v", err)
	}
	defer sb.Close()
	s, err := aural.NewSoundWithBuffer(sb)
	if err != nil {
		t.Fatalf("NewSoundWithBuffer: %v", err)
	}
	defer s.Close()

	if err := s.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}

	aural.Suspend()
	if got := s.State(); got != audio.Paused {
		t.Fatalf("State() after Suspend = %v, want Paused", got)
	}
	aural.Resume()
	if got := s.State(); got != audio.Playing {
		t.Fatalf("State() after Resume = %v, want Playing", got)
	}
}
