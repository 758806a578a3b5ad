//go:build !linux

package overlay

// positionWindow: на Windows и macOS окно остаётся там, где его открыла система.
func positionWindow(windowTitle string, width, height int) {}
