// ABOUTME: Sentinel errors for the device package
// ABOUTME: Shared by all playback backends
package device

import "errors"

var (
	// ErrClosed is returned by operations on a closed device, voice or buffer.
	ErrClosed = errors.New("device: closed")

	// ErrNoProcessed is returned by Unqueue when no processed buffer is
	// available.
	ErrNoProcessed = errors.New("device: no processed buffer to unqueue")

	// ErrBadUpload is returned when uploaded sample data does not match the
	// declared format.
	ErrBadUpload = errors.New("device: sample data does not match format")

	// ErrEmptyBuffer is returned when queueing a buffer with no uploaded
	// contents.
	ErrEmptyBuffer = errors.New("device: buffer has no uploaded contents")
)
