// Package ffprobe reads stream and container metadata from ffprobe's JSON
// output. Verify is the post-conversion check: an AAC stream must be present
// and the file must have a duration.
package ffprobe
