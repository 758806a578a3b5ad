package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// whisperCLI вызывает whisper-cli для каждого файла.
type whisperCLI struct {
	binary string
	model  string
	lang   string
}

func newWhisperCLI(binary, model, lang string) *whisperCLI {
	if lang == "" {
		lang = "auto"
	}
	return &whisperCLI{binary: binary, model: model, lang: lang}
}

func (w *whisperCLI) Name() string { return "whisper-cli" }

func (w *whisperCLI) Close() error { return nil }

// TranscribeFile запускает whisper-cli и собирает текст из stdout.
func (w *whisperCLI) TranscribeFile(ctx context.Context, path string) (string, error) {
	args := []string{"-m", w.model, "-l", w.lang, "-np", "-nt", path}

	cmd := exec.CommandContext(ctx, w.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("whisper-cli: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return parseWhisperOutput(stdout.String()), nil
}

// parseWhisperOutput убирает метки времени вида [00:00:00.000 --> 00:00:02.000].
func parseWhisperOutput(out string) string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") && strings.Contains(line, "-->") {
			if idx := strings.Index(line, "]"); idx != -1 {
				line = strings.TrimSpace(line[idx+1:])
			}
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, " ")
}
