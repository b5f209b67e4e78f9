//go:build unix

package process

import (
	"errors"
	"os/exec"
	"syscall"
)

// configureProcessGroup places the command in its own process group so
// that cancellation kills any helpers it spawned (yt-dlp runs ffmpeg for
// post-processing) instead of only the direct child.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}

		if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
			if errors.Is(err, syscall.ESRCH) {
				return nil
			}

			return cmd.Process.Kill()
		}

		return nil
	}
}
