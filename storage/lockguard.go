package storage

// FileLock is an OS-level advisory lock guarding a database path against
// concurrent opens from another process, wrapping the platform-specific
// fileLock/lockFile/unlock primitives.
type FileLock struct {
	inner *fileLock
}

// LockFile acquires an exclusive advisory lock on path.
func LockFile(path string) (*FileLock, error) {
	inner, err := lockFile(path)
	if err != nil {
		return nil, err
	}
	return &FileLock{inner: inner}, nil
}

// Unlock releases the lock.
func (l *FileLock) Unlock() error {
	return l.inner.unlock()
}
