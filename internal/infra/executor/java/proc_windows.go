//go:build windows

package java

import (
	"os/exec"
	"syscall"
)

// hideWindow stops a console window from popping up for every run.
func hideWindow(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
}
