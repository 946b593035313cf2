//go:build windows

package fleet

import (
	"os"
	"syscall"
)

func detachedProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{}
}

func terminate(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return ErrProcessGone
	}
	return p.Kill()
}
