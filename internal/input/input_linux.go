//go:build linux

package input

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// linuxTyper вызывает внешнюю утилиту: wtype или ydotool в Wayland, xdotool в X11.
type linuxTyper struct {
	tool string
	args func(text string) []string
}

var errNoTypingTool = errors.New("не найдена утилита ввода: установите xdotool (X11) или wtype/ydotool (Wayland)")

func newTyper() (Typer, error) {
	candidates := []linuxTyper{
		{tool: "xdotool", args: func(s string) []string { return []string{"type", "--clearmodifiers", "--", s} }},
	}
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		candidates = []linuxTyper{
			{tool: "wtype", args: func(s string) []string { return []string{"--", s} }},
			{tool: "ydotool", args: func(s string) []string { return []string{"type", "--", s} }},
		}
	}

	for _, c := range candidates {
		if path, err := exec.LookPath(c.tool); err == nil {
			c.tool = path
			return &c, nil
		}
	}
	return nil, errNoTypingTool
}

func (t *linuxTyper) Type(text string) error {
	out, err := exec.Command(t.tool, t.args(text)...).CombinedOutput()
	if err != nil {
		if len(out) > 0 {
			return fmt.Errorf("%s: %w: %s", t.tool, err, out)
		}
		return fmt.Errorf("%s: %w", t.tool, err)
	}
	return nil
}
