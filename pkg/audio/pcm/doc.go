// Package pcm provides mono 16-bit linear PCM formats and the small
// conversions a voice session needs at its edges: PCM16 bytes to samples,
// base64 payloads to normalized floats, and G.711 µ-law for RTP audio.
package pcm
