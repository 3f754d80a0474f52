// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rawmode

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// TTYName returns the device path of the terminal open on fd, or "" if
// fd is not a terminal or the path cannot be determined.
//
// Linux exposes the path through /proc/self/fd. Elsewhere the device
// number of fd is matched against the terminal nodes under /dev, which
// is how ttyname(3) works on the BSDs.
func TTYName(fd int) string {
	if !term.IsTerminal(fd) {
		return ""
	}

	if target, err := os.Readlink("/proc/self/fd/" + strconv.Itoa(fd)); err == nil && strings.HasPrefix(target, "/dev/") {
		return target
	}

	var descriptorStat unix.Stat_t
	if err := unix.Fstat(fd, &descriptorStat); err != nil {
		return ""
	}
	for _, pattern := range []string{"/dev/pts/*", "/dev/ttys*", "/dev/tty*"} {
		candidates, _ := filepath.Glob(pattern)
		for _, candidate := range candidates {
			var candidateStat unix.Stat_t
			if err := unix.Stat(candidate, &candidateStat); err != nil {
				continue
			}
			if candidateStat.Mode&unix.S_IFMT == unix.S_IFCHR && candidateStat.Rdev == descriptorStat.Rdev {
				return candidate
			}
		}
	}
	return ""
}
