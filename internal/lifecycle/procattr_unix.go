//go:build unix

package lifecycle

import "syscall"

// sysProcAttr puts the child in a new session so it is not tied to the CLI's
// terminal or process group. Setpgid is left unset: a session leader cannot
// also call setpgid.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setsid: true,
	}
}
