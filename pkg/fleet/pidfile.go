package fleet

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// PIDFileName is the pid file under the work root.
const PIDFileName = "pids.txt"

// PIDFile is the newline-delimited list of pids from the latest launch.
type PIDFile struct {
	Path string
}

// Read returns the pids recorded in the file in order. A missing file holds
// no pids. Lines that are not positive integers are returned in invalid.
func (f PIDFile) Read() (pids []int, invalid []string, err error) {
	file, err := os.Open(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to open pid file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		pid, err := strconv.Atoi(line)
		if err != nil || pid <= 0 {
			invalid = append(invalid, line)
			continue
		}
		pids = append(pids, pid)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read pid file: %w", err)
	}
	return pids, invalid, nil
}

// Append records pid at the end of the file, creating it if needed.
func (f PIDFile) Append(pid int) error {
	file, err := os.OpenFile(f.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open pid file: %w", err)
	}
	if _, err := fmt.Fprintf(file, "%d\n", pid); err != nil {
		file.Close()
		return fmt.Errorf("failed to append pid %d: %w", pid, err)
	}
	return file.Close()
}

// Remove deletes the file. A missing file is not an error.
func (f PIDFile) Remove() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove pid file: %w", err)
	}
	return nil
}
