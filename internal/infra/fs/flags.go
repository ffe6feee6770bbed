package fs

import "os"

const (
	osCreateExclusive = os.O_WRONLY | os.O_CREATE | os.O_EXCL
)
