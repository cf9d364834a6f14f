package acquire

import "radiograb/internal/fileutil"

var removeFile = fileutil.RemoveFile

// SetRemoveFileForTests overrides file removal during tests.
func SetRemoveFileForTests(fn func(string) error) func() {
	previous := removeFile
	removeFile = fn
	return func() {
		removeFile = previous
	}
}
