//go:build windows

package main

import (
	"halosnap/process"
	"halosnap/process_windows"
)

func getProcess(pid int) (process.Process, error) {
	t, err := process_windows.NewWithPID(process.ProcessID(pid))
	if err != nil {
		return nil, err
	}
	return t, nil
}
