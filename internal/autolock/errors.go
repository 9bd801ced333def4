package autolock

import "errors"

// ErrShutdownFailed wraps any repository error that aborted a shutdown.
var ErrShutdownFailed = errors.New("autolock: shutdown failed")
