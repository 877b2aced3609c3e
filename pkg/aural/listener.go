// ABOUTME: Global listener controls re-exported on the facade package
// ABOUTME: Forwards to the shared device handle
package aural

import (
	"github.com/AuralKit/aural-go/pkg/audio"
	"github.com/AuralKit/aural-go/pkg/audio/device"
)

// SetListenerGain sets the global playback gain. Values outside [0, 1] are
// ignored.
func SetListenerGain(gain float64) { device.SetListenerGain(gain) }

// ListenerGain returns the global playback gain.
func ListenerGain() float64 { return device.ListenerGain() }

// SetListenerPosition moves the listener in the spatial scene.
func SetListenerPosition(pos audio.Vector3) { device.SetListenerPosition(pos) }

// ListenerPosition returns the listener position.
func ListenerPosition() audio.Vector3 { return device.ListenerPosition() }

// SetListenerVelocity sets the listener velocity.
func SetListenerVelocity(vel audio.Vector3) { device.SetListenerVelocity(vel) }

// ListenerVelocity returns the listener velocity.
func ListenerVelocity() audio.Vector3 { return device.ListenerVelocity() }

// SetListenerOrientation sets the listener facing and up vectors.
func SetListenerOrientation(at, up audio.Vector3) { device.SetListenerOrientation(at, up) }

// ListenerOrientation returns the listener facing and up vectors.
func ListenerOrientation() (at, up audio.Vector3) { return device.ListenerOrientation() }

// Suspend pauses all playback on the shared device, for example when the
// application loses focus. Resume restarts what Suspend paused.
func Suspend() { device.Suspend() }

// Resume restarts playback paused by Suspend.
func Resume() { device.Resume() }
