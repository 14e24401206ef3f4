//go:build !unix

package credentials

// lockFile is a no-op where flock is unavailable; FileStore's mutex still
// serializes writers inside one process.
func lockFile(string, bool) (func(), error) {
	return func() {}, nil
}
