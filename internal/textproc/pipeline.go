package textproc

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

// Stage - этап обработки текста.
type Stage interface {
	Process(ctx context.Context, text string) (string, error)
}

// StageFunc адаптирует функцию к Stage.
type StageFunc func(ctx context.Context, text string) (string, error)

// Process вызывает f.
func (f StageFunc) Process(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

type namedStage struct {
	name  string
	stage Stage
}

// Pipeline последовательно применяет этапы. Ошибка этапа
// пропускает текст дальше без изменений.
type Pipeline struct {
	stages []namedStage
}

// NewPipeline создаёт пустую цепочку.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Use добавляет этап. nil игнорируется.
func (p *Pipeline) Use(name string, s Stage) *Pipeline {
	if s != nil {
		p.stages = append(p.stages, namedStage{name: name, stage: s})
	}
	return p
}

// Len возвращает число этапов.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Run прогоняет текст через все этапы.
// Пустой результат означает, что вводить нечего.
func (p *Pipeline) Run(ctx context.Context, text string) string {
	for _, s := range p.stages {
		if strings.TrimSpace(text) == "" {
			return ""
		}
		out, err := s.stage.Process(ctx, text)
		if err != nil {
			log.Warn().Err(err).Str("stage", s.name).Msg("Этап обработки текста не удался, текст без изменений")
			continue
		}
		if out != text {
			log.Debug().Str("stage", s.name).Str("in", text).Str("out", out).Msg("Текст изменён")
		}
		text = out
	}
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return text
}

// CorrectorStage оборачивает словарь исправлений.
func CorrectorStage(c *Corrector) Stage {
	if c.Len() == 0 {
		return nil
	}
	return StageFunc(func(_ context.Context, text string) (string, error) {
		return c.Apply(text), nil
	})
}

// CommandsStage оборачивает голосовые команды.
func CommandsStage(c *Commands) Stage {
	if c == nil {
		return nil
	}
	return StageFunc(func(_ context.Context, text string) (string, error) {
		return c.Apply(text), nil
	})
}
