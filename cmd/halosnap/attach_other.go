//go:build !linux && !windows

package main

import (
	"fmt"
	"runtime"

	"halosnap/process"
)

func getProcess(pid int) (process.Process, error) {
	return nil, fmt.Errorf("attaching to a process is not supported on %s", runtime.GOOS)
}
