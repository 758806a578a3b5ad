package speech

import (
	"os"
	"os/exec"
)

// Capabilities - неизменяемый результат проверки доступных движков.
// Вычисляется один раз при старте.
type Capabilities struct {
	Streaming     bool
	WhisperLib    bool
	WhisperCLI    string
	Cloud         bool
	CloudProvider string
}

// Probe проверяет, какие движки доступны в этой сборке и окружении.
func Probe(cloud CloudConfig) Capabilities {
	return Capabilities{
		Streaming:     voskCompiled,
		WhisperLib:    whisperCompiled,
		WhisperCLI:    findWhisperCLI(),
		Cloud:         cloud.Configured(),
		CloudProvider: cloud.provider(),
	}
}

// Has сообщает, доступен ли вариант движка.
func (c Capabilities) Has(k Kind) bool {
	switch k {
	case KindStreaming:
		return c.Streaming
	case KindFile:
		return c.WhisperLib || c.WhisperCLI != ""
	case KindCloud:
		return c.Cloud
	default:
		return false
	}
}

// Kinds возвращает доступные варианты в порядке предпочтения.
func (c Capabilities) Kinds() []Kind {
	var out []Kind
	for _, k := range []Kind{KindStreaming, KindFile, KindCloud} {
		if c.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func findWhisperCLI() string {
	for _, name := range []string{"whisper-cli", "whisper-cpp"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	for _, loc := range []string{
		"/opt/homebrew/bin/whisper-cli",
		"/usr/local/bin/whisper-cli",
	} {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}
