//go:build !vosk

package speech

import "errors"

const voskCompiled = false

func openVosk(string) (Recognizer, error) {
	return nil, errors.New("сборка без поддержки Vosk (тег vosk)")
}
