//go:build !unix

package lifecycle

import "syscall"

// sysProcAttr returns default attributes; sessions are a unix concept.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{}
}
