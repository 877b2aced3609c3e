//go:build !portaudio

// ABOUTME: PortAudio stub when the backend is not compiled in
// ABOUTME: Provides a compile-time placeholder behind the portaudio tag
package device

import "errors"

// OpenPortAudio reports that the PortAudio backend is unavailable. Build
// with -tags portaudio (and the PortAudio development headers installed) to
// enable it.
func OpenPortAudio() (Device, error) {
	return nil, errors.New("device: portaudio backend not compiled in (build with -tags portaudio)")
}
