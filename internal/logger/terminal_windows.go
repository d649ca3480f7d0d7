//go:build windows

package logger

import "golang.org/x/sys/windows"

// isTerminal reports whether fd refers to a console. Virtual terminal
// processing is enabled on success so ANSI colors render.
func isTerminal(fd uintptr) bool {
	var mode uint32
	h := windows.Handle(fd)
	if err := windows.GetConsoleMode(h, &mode); err != nil {
		return false
	}
	_ = windows.SetConsoleMode(h, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING)
	return true
}
