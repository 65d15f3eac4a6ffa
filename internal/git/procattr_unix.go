//go:build unix

package git

import "syscall"

// sysProcAttr puts git in its own process group so a terminal interrupt
// reaches only closest, which then stops between checkouts and restores
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
