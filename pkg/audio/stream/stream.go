// ABOUTME: Streaming engine feeding a playback voice from a chunk source
// ABOUTME: Owns the worker goroutine, buffer ring and playback state machine
package stream

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AuralKit/aural-go/pkg/audio"
	"github.com/AuralKit/aural-go/pkg/audio/device"
)

const (
	// BufferCount is the size of the rotating device buffer ring.
	BufferCount = 3

	// pollInterval bounds worker CPU usage between refill passes. The queue
	// holds seconds of audio, so this adds no audible latency.
	pollInterval = 10 * time.Millisecond

	// loopRetries bounds refill attempts when a looping source keeps
	// returning no data, so an empty source cannot wedge the worker.
	loopRetries = 1
)

var (
	// ErrNotInitialized is returned by Play before a successful Initialize.
	ErrNotInitialized = errors.New("stream: not initialized")

	// ErrUnsupportedChannelCount is returned by Initialize when the channel
	// count maps to no playback format.
	ErrUnsupportedChannelCount = errors.New("stream: unsupported channel count")
)

// Source supplies decoded audio to an Engine. Both methods are invoked from
// the engine's worker goroutine; implementations that are also touched from
// other goroutines must guard their own state.
type Source interface {
	// GetData returns the next chunk of interleaved 16-bit samples. more is
	// false when this chunk is the last before the end of the source; the
	// chunk itself may then be short or empty. The engine uploads the
	// returned slice before the next GetData call, so implementations may
	// reuse it.
	GetData() (samples []int16, more bool)

	// Seek repositions the source to the given time offset.
	Seek(offset time.Duration)
}

// Engine streams chunks from a Source into a rotating set of device buffers
// queued on a playback voice, keeping the voice fed from a background
// worker. All control methods are safe to call from any goroutine.
//
// At most one worker runs at a time. The worker is cooperative: Stop flags
// it and waits for it to exit, which also bounds how long a caller can race
// the source after Stop returns (it cannot).
type Engine struct {
	src   Source
	voice device.Voice
	dev   device.Device

	// mu guards streaming, requested, loop and done. streaming is true
	// exactly while a worker is active or shutting down; requested is the
	// state the worker should drive the voice to and is only meaningful
	// while streaming.
	mu        sync.Mutex
	streaming bool
	requested audio.State
	loop      bool
	done      chan struct{}

	samplesProcessed atomic.Uint64

	channels int
	rate     int
	format   audio.Format

	buffers     [BufferCount]device.Buffer
	endOfStream [BufferCount]bool
}

// New creates an engine bound to src, with a fresh voice on dev. The engine
// owns the voice until Close.
func New(dev device.Device, src Source) (*Engine, error) {
	voice, err := dev.NewVoice()
	if err != nil {
		return nil, err
	}
	return &Engine{src: src, voice: voice, dev: dev}, nil
}

// Initialize derives the playback format from the channel count. It must be
// called once before the first Play. An unsupported channel count leaves the
// engine unusable: later Play calls warn and fail.
func (e *Engine) Initialize(channels, sampleRate int) error {
	format := audio.FormatFor(channels)
	if format == audio.FormatUnknown {
		e.channels, e.rate, e.format = 0, 0, audio.FormatUnknown
		audio.Warnf("stream: unsupported channel count %d", channels)
		return ErrUnsupportedChannelCount
	}
	e.channels = channels
	e.rate = sampleRate
	e.format = format
	return nil
}

// ChannelCount returns the channel count set by Initialize.
func (e *Engine) ChannelCount() int { return e.channels }

// SampleRate returns the sample rate set by Initialize.
func (e *Engine) SampleRate() int { return e.rate }

// Voice exposes the engine's voice for per-source attributes (gain, pitch,
// position). Queue manipulation is the engine's alone.
func (e *Engine) Voice() device.Voice { return e.voice }

// Play starts playback from the beginning, or resumes it when paused. If
// the stream is already playing it restarts from the beginning.
func (e *Engine) Play() error {
	if e.format == audio.FormatUnknown {
		audio.Warnf("stream: play before successful initialize")
		return ErrNotInitialized
	}

	e.mu.Lock()
	active := e.streaming
	requested := e.requested
	e.mu.Unlock()

	if active {
		if requested == audio.Paused {
			// resume in place, no restart
			e.mu.Lock()
			e.requested = audio.Playing
			e.mu.Unlock()
			e.voice.Play()
			return nil
		}
		e.Stop()
	}

	e.src.Seek(0)
	e.launch(audio.Playing, 0)
	return nil
}

// Pause pauses playback. The voice is paused immediately rather than from
// the worker, keeping pause latency minimal. No-op when not streaming.
func (e *Engine) Pause() {
	e.mu.Lock()
	if !e.streaming {
		e.mu.Unlock()
		return
	}
	e.requested = audio.Paused
	e.mu.Unlock()

	e.voice.Pause()
}

// Stop stops playback and rewinds. It blocks until the worker has exited,
// so once Stop returns the source is no longer being read and has been
// reset to the start.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.streaming = false
	done := e.done
	e.done = nil
	e.mu.Unlock()

	if done != nil {
		<-done
	}

	e.src.Seek(0)
	e.samplesProcessed.Store(0)
}

// SetLoop sets whether the stream restarts from the beginning when the
// source is exhausted.
func (e *Engine) SetLoop(loop bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loop = loop
}

// Loop reports the looping flag.
func (e *Engine) Loop() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loop
}

// State reports the playback state. While a worker is active but the voice
// has not yet caught up with the requested state (scheduling lag between
// launch and the first audible sample), the requested state is reported.
func (e *Engine) State() audio.State {
	state := e.voice.State()
	if state == audio.Stopped {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.streaming {
			return e.requested
		}
	}
	return state
}

// PlayingOffset returns the current playback position.
func (e *Engine) PlayingOffset() time.Duration {
	if e.rate == 0 || e.channels == 0 {
		return 0
	}
	samples := e.samplesProcessed.Load() + e.voice.SampleOffset()*uint64(e.channels)
	return audio.SamplesToDuration(samples, e.rate, e.channels)
}

// SetPlayingOffset seeks to the given position, preserving the prior
// playback state: a playing stream keeps playing from the new position, a
// paused one stays paused there.
func (e *Engine) SetPlayingOffset(offset time.Duration) {
	if e.format == audio.FormatUnknown {
		return
	}

	e.mu.Lock()
	prior := audio.Stopped
	if e.streaming {
		prior = e.requested
	}
	e.mu.Unlock()

	e.Stop()
	e.src.Seek(offset)
	processed := audio.DurationToSamples(offset, e.rate, e.channels)

	if prior == audio.Stopped {
		e.samplesProcessed.Store(processed)
		return
	}
	e.launch(prior, processed)
}

// Close stops the stream and releases the voice.
func (e *Engine) Close() error {
	e.Stop()
	return e.voice.Close()
}

// launch starts the worker in the given state with the given position
// counter. The caller must have ensured no worker is active.
func (e *Engine) launch(state audio.State, processed uint64) {
	e.samplesProcessed.Store(processed)

	e.mu.Lock()
	e.streaming = true
	e.requested = state
	done := make(chan struct{})
	e.done = done
	e.mu.Unlock()

	go e.run(done)
}

func (e *Engine) isStreaming() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.streaming
}

func (e *Engine) stopStreaming() {
	e.mu.Lock()
	e.streaming = false
	e.mu.Unlock()
}

// run is the worker. It fills the buffer ring, keeps the voice fed and
// maintains the playback position counter until stopped or the source is
// exhausted. Errors never propagate out of the worker; they become a
// warning and a stop.
func (e *Engine) run(done chan struct{}) {
	defer close(done)

	e.mu.Lock()
	launchState := e.requested
	e.mu.Unlock()
	if launchState == audio.Stopped {
		// cannot happen through the control surface; bail before touching
		// the device
		e.stopStreaming()
		return
	}

	if err := e.acquireBuffers(); err != nil {
		audio.Warnf("stream: allocate buffers: %w", err)
		e.stopStreaming()
		return
	}
	defer e.releaseBuffers()

	// prime the ring
	requestStop := false
	for i := 0; i < BufferCount && !requestStop; i++ {
		requestStop = e.fillAndPush(i)
	}

	e.voice.Play()
	if launchState == audio.Paused {
		e.voice.Pause()
	}

	for e.isStreaming() {
		if e.voice.State() == audio.Stopped {
			if !requestStop {
				// the voice drained faster than we refilled; restart it
				// where it stopped
				e.voice.Play()
			} else {
				// final buffer finished draining
				e.stopStreaming()
			}
		}

		for e.voice.Processed() > 0 {
			buf, err := e.voice.Unqueue()
			if err != nil {
				audio.Warnf("stream: unqueue: %w", err)
				break
			}
			slot := e.slotOf(buf)
			if slot < 0 {
				audio.Warnf("stream: voice returned unknown buffer")
				continue
			}

			if e.endOfStream[slot] {
				// the terminal buffer of a playthrough just drained; the
				// position counter restarts for the next loop
				e.samplesProcessed.Store(0)
				e.endOfStream[slot] = false
			} else {
				bits := buf.BitsPerSample()
				if bits == 0 {
					audio.Warnf("stream: voice %s returned a buffer with no format, stopping", e.voice.ID())
					e.stopStreaming()
					requestStop = true
					break
				}
				e.samplesProcessed.Add(uint64(buf.Size() / (bits / 8)))
			}

			if !requestStop {
				requestStop = e.fillAndPush(slot)
			}
		}

		if e.voice.State() != audio.Stopped {
			time.Sleep(pollInterval)
		}
	}

	e.voice.Stop()
	for e.voice.Queued() > 0 {
		if _, err := e.voice.Unqueue(); err != nil {
			break
		}
	}
}

// fillAndPush fills the ring slot from the source and queues it on the
// voice. It returns true when streaming must stop once the queued data has
// drained.
//
// The end-of-stream mark travels with the ring slot, not the chunk: the
// slot may be refilled and requeued long before the hardware drains its
// previous contents, so the mark is only acted on at unqueue time.
func (e *Engine) fillAndPush(slot int) bool {
	for attempt := 0; ; attempt++ {
		samples, more := e.src.GetData()
		if more {
			e.push(slot, samples)
			return false
		}

		// this chunk ends the playthrough
		e.endOfStream[slot] = true

		if !e.loopEnabled() {
			if len(samples) > 0 {
				e.push(slot, samples)
			}
			return true
		}

		// rewind for the next pass
		e.src.Seek(0)
		if len(samples) > 0 {
			e.push(slot, samples)
			return false
		}
		if attempt >= loopRetries {
			// the rewound source still produced nothing; give up rather
			// than queue an empty buffer or spin
			return true
		}
	}
}

// push uploads samples into the slot's buffer and queues it. Device
// failures are absorbed into a warning; the voice simply receives less
// data.
func (e *Engine) push(slot int, samples []int16) {
	if err := e.buffers[slot].Upload(e.format, samples, e.rate); err != nil {
		audio.Warnf("stream: upload: %w", err)
		return
	}
	if err := e.voice.Queue(e.buffers[slot]); err != nil {
		audio.Warnf("stream: queue: %w", err)
	}
}

func (e *Engine) loopEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loop
}

func (e *Engine) slotOf(buf device.Buffer) int {
	for i, b := range e.buffers {
		if b == buf {
			return i
		}
	}
	return -1
}

func (e *Engine) acquireBuffers() error {
	for i := range e.buffers {
		buf, err := e.dev.NewBuffer()
		if err != nil {
			for j := 0; j < i; j++ {
				e.buffers[j].Close()
				e.buffers[j] = nil
			}
			return err
		}
		e.buffers[i] = buf
		e.endOfStream[i] = false
	}
	return nil
}

func (e *Engine) releaseBuffers() {
	for i, buf := range e.buffers {
		if buf != nil {
			buf.Close()
			e.buffers[i] = nil
		}
	}
}
