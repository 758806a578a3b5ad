//go:build linux

package overlay

import (
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// positionWindow переносит окно в правый нижний угол экрана и держит
// его поверх остальных. Нужны xdotool и wmctrl (или xprop).
func positionWindow(windowTitle string, width, height int) {
	// Окну нужно время, чтобы появиться
	time.Sleep(100 * time.Millisecond)

	screenWidth, screenHeight := getScreenSize()
	if screenWidth == 0 || screenHeight == 0 {
		return
	}

	x := screenWidth - width - 20
	y := screenHeight - height - 60 // Панель задач

	output, err := exec.Command("xdotool", "search", "--name", windowTitle).Output()
	if err != nil {
		return
	}
	windowIDs := strings.Fields(string(output))
	if len(windowIDs) == 0 {
		return
	}
	windowID := windowIDs[0]

	_ = exec.Command("xdotool", "windowmove", windowID, strconv.Itoa(x), strconv.Itoa(y)).Run()

	if err := exec.Command("wmctrl", "-i", "-r", windowID, "-b", "add,above").Run(); err != nil {
		_ = exec.Command("xprop", "-id", windowID, "-f", "_NET_WM_STATE", "32a",
			"-set", "_NET_WM_STATE", "_NET_WM_STATE_ABOVE").Run()
	}
}

// getScreenSize возвращает размеры экрана через xdotool.
func getScreenSize() (width, height int) {
	output, err := exec.Command("xdotool", "getdisplaygeometry").Output()
	if err != nil {
		return 0, 0
	}
	parts := strings.Fields(string(output))
	if len(parts) != 2 {
		return 0, 0
	}
	width, _ = strconv.Atoi(parts[0])
	height, _ = strconv.Atoi(parts[1])
	return width, height
}
