//go:build !unix

package kvstore

import "os"

// Without flock only writers inside one process are serialized.
func lockFile(*os.File) error   { return nil }
func unlockFile(*os.File) error { return nil }
