// ABOUTME: Playback device abstraction and backends
// ABOUTME: Voices with hardware-style buffer queues over oto or PortAudio
// Package device abstracts the playback hardware consumed by the streaming
// and sound layers.
//
// The central contracts are Device, Voice and Buffer. A Voice behaves like a
// hardware playback channel: buffers are queued in order, the voice reports
// how many it has fully consumed, and consumed buffers are unqueued and may
// be refilled and requeued. This is the rotation the streaming engine is
// built on.
//
// The package owns the process-wide device handle. Sound resources acquire
// it on construction and release it on close; the backend opens on the first
// acquire and closes on the last release:
//
//	dev, err := device.Acquire()
//	defer device.Release()
//
// Global listener state (gain, position, velocity, orientation) lives here
// too and is forwarded to whichever device is open.
//
// Two backends are provided: oto (default, pure Go) and PortAudio (behind
// the portaudio build tag). Both emulate per-voice buffer queues in
// software and adapt uploads to one fixed mix format.
package device
