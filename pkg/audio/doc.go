// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines State, Format, Vector3 and position conversions
// Package audio provides fundamental types shared by the aural library.
//
// This package defines the vocabulary used throughout the playback stack:
//   - State: playback state of a voice or stream (Stopped, Paused, Playing)
//   - Format: sample layout of uploaded PCM data (mono or stereo 16-bit)
//   - Vector3: positions and directions in listener space
//
// It also provides conversions between interleaved sample counts and
// playback time, and the process-wide warning handler through which the
// library surfaces non-fatal failures.
//
// Example:
//
//	format := audio.FormatFor(2) // audio.FormatStereo16
//	offset := audio.SamplesToDuration(88200, 44100, 2) // 1s
//
//	audio.SetWarnHandler(func(err error) {
//	    log.Printf("audio warning: %v", err)
//	})
package audio
