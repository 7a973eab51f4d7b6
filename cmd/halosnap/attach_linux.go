//go:build linux

package main

import (
	"halosnap/process"
	"halosnap/process_linux"
)

func getProcess(pid int) (process.Process, error) {
	t, err := process_linux.NewWithPID(process.ProcessID(pid))
	if err != nil {
		return nil, err
	}
	return t, nil
}
