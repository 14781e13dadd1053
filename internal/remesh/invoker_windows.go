//go:build windows

package remesh

import "os/exec"

// setProcessGroup is a no-op here: CommandContext terminates the child
// via TerminateProcess, and the wait delay unblocks Run if a worker
// holds the pipes open.
func setProcessGroup(cmd *exec.Cmd) {}
