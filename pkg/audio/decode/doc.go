// ABOUTME: Audio format detection and decoding package
// ABOUTME: Registry of probe/open pairs plus the built-in format readers
// Package decode turns encoded audio streams into interleaved 16-bit
// samples. Formats register a probe and an opener; Open walks the registry
// in registration order and returns a Reader for the first format whose
// probe accepts the stream.
//
// WAV, FLAC, Ogg Vorbis and MP3 support is built in. Additional formats can
// be added with Register; probes run in registration order, so a permissive
// probe should be registered after stricter ones.
package decode
