// ABOUTME: WAV writer used to persist captured or generated sample data
// ABOUTME: Thin wrapper over go-audio/wav's encoder
package encode

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/AuralKit/aural-go/pkg/audio"
)

const wavPCMFormat = 1

// WAV writes samples as a 16-bit PCM WAV file image. Samples are
// interleaved; channels must be 1 or 2.
func WAV(w io.WriteSeeker, samples []int16, channels, sampleRate int) error {
	if audio.FormatFor(channels) == audio.FormatUnknown {
		return fmt.Errorf("encode: unsupported channel count %d", channels)
	}
	if sampleRate <= 0 {
		return fmt.Errorf("encode: invalid sample rate %d", sampleRate)
	}

	enc := wav.NewEncoder(w, sampleRate, 16, channels, wavPCMFormat)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// WAVFile writes samples to a 16-bit PCM WAV file at path.
func WAVFile(path string, samples []int16, channels, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := WAV(f, samples, channels, sampleRate); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
