// Package limits holds the compile-time capacity and timing parameters
// shared by every core package.
package limits

import "time"

const (
	MaxMBits  = 200
	MaxIBits  = 100
	MaxQBits  = 100
	MaxDWords = 100

	MaxTimers   = 10
	MaxCounters = 10

	MaxNodes = 100
	MaxLinks = 200

	ScanInterval         = 10 * time.Millisecond
	SnapshotMinInterval  = 200 * time.Millisecond
	P2MaxIterations      = 10
	DWordBits            = 32
)
