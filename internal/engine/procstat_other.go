//go:build !linux

package engine

// procStatus and procIO have no source on non-Linux hosts; every field
// reports zero, matching spec §7's "host-stat unavailable" degrade policy.

type procStatus struct {
	peakKB, rssKB, hwmKB, dataKB, stackKB uint64
}

func readProcStatus() procStatus { return procStatus{} }

type procIO struct {
	readBytes, writeBytes uint64
}

func readProcIO() procIO { return procIO{} }
