// ABOUTME: Audio encoding package
// ABOUTME: Writes interleaved 16-bit samples back out to container formats
// Package encode writes interleaved 16-bit sample data to audio containers.
// Only WAV output is supported.
package encode
