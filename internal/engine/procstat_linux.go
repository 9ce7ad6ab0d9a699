//go:build linux

package engine

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

type procStatus struct {
	peakKB, rssKB, hwmKB, dataKB, stackKB uint64
}

// readProcStatus reads VmPeak/VmRSS/VmHWM/VmData/VmStk from
// /proc/self/status. Best-effort: any failure to open or parse leaves the
// corresponding field at zero (spec §7's "host-stat unavailable").
func readProcStatus() procStatus {
	var s procStatus

	f, err := os.Open("/proc/self/status")
	if err != nil {
		return s
	}
	defer f.Close()

	fields := map[string]*uint64{
		"VmPeak:": &s.peakKB,
		"VmRSS:":  &s.rssKB,
		"VmHWM:":  &s.hwmKB,
		"VmData:": &s.dataKB,
		"VmStk:":  &s.stackKB,
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		for prefix, dst := range fields {
			if !strings.HasPrefix(line, prefix) {
				continue
			}
			rest := strings.TrimSpace(strings.TrimPrefix(line, prefix))
			rest = strings.TrimSuffix(rest, " kB")
			v, err := strconv.ParseUint(strings.TrimSpace(rest), 10, 64)
			if err == nil {
				*dst = v
			}
		}
	}
	return s
}

type procIO struct {
	readBytes, writeBytes uint64
}

// readProcIO reads rchar/wchar from /proc/self/io. Best-effort, same
// degrade-to-zero policy as readProcStatus.
func readProcIO() procIO {
	var s procIO

	f, err := os.Open("/proc/self/io")
	if err != nil {
		return s
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "rchar:"):
			if v, err := strconv.ParseUint(strings.TrimSpace(strings.TrimPrefix(line, "rchar:")), 10, 64); err == nil {
				s.readBytes = v
			}
		case strings.HasPrefix(line, "wchar:"):
			if v, err := strconv.ParseUint(strings.TrimSpace(strings.TrimPrefix(line, "wchar:")), 10, 64); err == nil {
				s.writeBytes = v
			}
		}
	}
	return s
}
