// ABOUTME: Process-wide device handle with reference counting
// ABOUTME: Opens the backend on first acquire, closes it on last release
package device

import (
	"fmt"
	"sync"

	"github.com/AuralKit/aural-go/pkg/audio"
)

var (
	handleMu sync.Mutex
	opener   func() (Device, error) = openDefault
	current  Device
	refs     int
	listener = DefaultListener()
)

// SetOpener replaces the backend factory used by Acquire. It only takes
// effect for the next first-use open; an already open device keeps running.
// Passing nil restores the default backend.
func SetOpener(open func() (Device, error)) {
	handleMu.Lock()
	defer handleMu.Unlock()
	if open == nil {
		open = openDefault
	}
	opener = open
}

// Acquire returns the shared process-wide device, opening the backend on
// first use. Every successful Acquire must be paired with a Release.
func Acquire() (Device, error) {
	handleMu.Lock()
	defer handleMu.Unlock()

	if current == nil {
		d, err := opener()
		if err != nil {
			return nil, fmt.Errorf("open playback device: %w", err)
		}
		d.UpdateListener(listener)
		current = d
	}
	refs++
	return current, nil
}

// Release drops one reference. The device closes when no references remain.
func Release() {
	handleMu.Lock()
	defer handleMu.Unlock()

	if refs == 0 {
		audio.Warnf("device: release without matching acquire")
		return
	}
	refs--
	if refs > 0 {
		return
	}
	if err := current.Close(); err != nil {
		audio.Warnf("device: close: %w", err)
	}
	current = nil
}

// Suspend pauses playback on the shared device, if one is open.
func Suspend() {
	handleMu.Lock()
	defer handleMu.Unlock()
	if current != nil {
		current.Suspend()
	}
}

// Resume restarts playback paused by Suspend, if a device is open.
func Resume() {
	handleMu.Lock()
	defer handleMu.Unlock()
	if current != nil {
		current.Resume()
	}
}

// updateListener mutates the stored listener state and forwards it to the
// open device.
func updateListener(mutate func(*Listener)) {
	handleMu.Lock()
	defer handleMu.Unlock()
	mutate(&listener)
	if current != nil {
		current.UpdateListener(listener)
	}
}

// SetListenerGain sets the global playback gain in [0, 1].
func SetListenerGain(gain float64) {
	if gain < 0 || gain > 1 {
		return
	}
	updateListener(func(l *Listener) { l.Gain = gain })
}

// ListenerGain returns the global playback gain.
func ListenerGain() float64 {
	handleMu.Lock()
	defer handleMu.Unlock()
	return listener.Gain
}

// SetListenerPosition moves the listener.
func SetListenerPosition(pos audio.Vector3) {
	updateListener(func(l *Listener) { l.Position = pos })
}

// ListenerPosition returns the listener position.
func ListenerPosition() audio.Vector3 {
	handleMu.Lock()
	defer handleMu.Unlock()
	return listener.Position
}

// SetListenerVelocity sets the listener velocity.
func SetListenerVelocity(vel audio.Vector3) {
	updateListener(func(l *Listener) { l.Velocity = vel })
}

// ListenerVelocity returns the listener velocity.
func ListenerVelocity() audio.Vector3 {
	handleMu.Lock()
	defer handleMu.Unlock()
	return listener.Velocity
}

// SetListenerOrientation sets the listener facing (at) and up vectors.
func SetListenerOrientation(at, up audio.Vector3) {
	updateListener(func(l *Listener) {
		l.At = at
		l.Up = up
	})
}

// ListenerOrientation returns the listener facing and up vectors.
func ListenerOrientation() (at, up audio.Vector3) {
	handleMu.Lock()
	defer handleMu.Unlock()
	return listener.At, listener.Up
}
