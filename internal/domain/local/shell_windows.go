//go:build windows

package local

// shellExecArgs returns the program and arguments needed to run a command
// string through the system shell: cmd /c "command".
func shellExecArgs(command string) (prog string, args []string) {
	return "cmd", []string{"/c", command}
}
