// Package ffmpeg drives the ffmpeg binary for MP3 to HE-AAC conversion and
// for writing metadata tags into the converted M4A files.
//
// Transcoder encodes with libfdk_aac in the HE-AAC v1 or v2 profile at a VBR
// quality level. Tagger remuxes a file with new metadata into a pending file
// next to it and atomically replaces the original, so an interrupted tag run
// never leaves a truncated file behind.
package ffmpeg
