// ABOUTME: Top-level playback facade package
// ABOUTME: Static Sound/SoundBuffer pairs, streamed Music and the listener
// Package aural is the high-level playback API. It offers two ways to play
// audio over the shared output device:
//
//   - SoundBuffer and Sound for short effects: the file is decoded whole
//     into memory and many Sounds can replay it with zero start latency.
//   - Music for long tracks: the file is decoded in bounded chunks by a
//     background streamer, so memory use stays flat regardless of length.
//
// Both support pause, seek, looping, gain, pitch and spatial positioning.
// The output device opens on first use and closes when the last Sound,
// SoundBuffer or Music is closed. Listener functions control the global
// scene: master gain, position and orientation.
//
//	music, err := aural.LoadMusicFromFile("track.ogg")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer music.Close()
//	music.SetLoop(true)
//	music.Play()
package aural
