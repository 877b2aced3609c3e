// ABOUTME: Streamed playback engine package
// ABOUTME: Producer/consumer pipeline between a chunk source and a voice
// Package stream implements streamed audio playback: a background worker
// decodes bounded chunks from a Source on demand and keeps a playback
// voice's buffer queue continuously fed.
//
// An Engine rotates a fixed ring of device buffers through the voice. As the
// voice consumes a buffer the worker unqueues it, refills it from the
// Source and queues it again, sleeping briefly between passes. Play, Pause,
// Stop, SetPlayingOffset and SetLoop may be called from any goroutine; Stop
// is synchronous and guarantees the Source is no longer being read once it
// returns.
//
// Engines never propagate decode or device failures to the caller: they
// surface through the audio package warning handler, and the stream stops.
//
// Most users want the aural.Music type instead, which binds a decoder to an
// Engine. Implement Source directly for procedural audio:
//
//	eng, err := stream.New(dev, mySource)
//	err = eng.Initialize(2, 44100)
//	err = eng.Play()
package stream
