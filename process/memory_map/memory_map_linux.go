//go:build linux

package memory_map

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Read parses /proc/<pid>/maps, sorted by address
func Read(pid int) ([]MemoryMapItem, error) {
	file, err := os.Open(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads maps lines of the form
// "7f0000000000-7f0004000000 rw-s 00000000 00:01 1234 /memfd:xbox-ram (deleted)".
// Malformed lines are skipped.
func Parse(r io.Reader) ([]MemoryMapItem, error) {
	var mm []MemoryMapItem

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		lo, hi, ok := strings.Cut(fields[0], "-")
		if !ok {
			continue
		}
		start, err := strconv.ParseUint(lo, 16, 64)
		if err != nil {
			continue
		}
		end, err := strconv.ParseUint(hi, 16, 64)
		if err != nil || end < start {
			continue
		}

		item := MemoryMapItem{
			Address: start,
			Size:    uint(end - start),
			Perms:   fields[1],
		}
		if len(fields) >= 6 {
			item.Path = strings.Join(fields[5:], " ")
		}
		mm = append(mm, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	Sort(mm)
	return mm, nil
}
