//go:build !unix

package git

import "syscall"

func sysProcAttr() *syscall.SysProcAttr {
	return nil
}
