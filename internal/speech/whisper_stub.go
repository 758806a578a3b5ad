//go:build !whisper_cpp

package speech

import "errors"

const whisperCompiled = false

func openWhisperLib(string, string) (fileTranscriber, error) {
	return nil, errors.New("сборка без whisper.cpp (тег whisper_cpp)")
}
