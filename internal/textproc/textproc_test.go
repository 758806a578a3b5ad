package textproc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrector(t *testing.T) {
	c := NewCorrector(map[string]string{
		"انتهت الفترة التجريبية المجانية": "",
		"شو":  "ما هو",
		"teh": "the",
		"new york city": "NYC",
		"york":          "Y",
		"":              "ignored",
	})
	assert.Equal(t, 5, c.Len())

	tests := []struct {
		in, want string
	}{
		{"teh cat", "the cat"},
		{"شو هذا", "ما هو هذا"},
		{"مرحبا انتهت الفترة التجريبية المجانية اليوم", "مرحبا اليوم"},
		{"new york city", "NYC"},
		{"york", "Y"},
		{"nothing here", "nothing here"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Apply(tt.in))
		})
	}
}

func TestCorrectorEmpty(t *testing.T) {
	var c *Corrector
	assert.Equal(t, "  as is ", c.Apply("  as is "))
	assert.Nil(t, CorrectorStage(NewCorrector(nil)))
}

func TestCommands(t *testing.T) {
	tests := []struct {
		lang, in, want string
	}{
		{"en", "hello comma world period", "hello, world."},
		{"en", "first line new line second", "first line\nsecond"},
		{"en", "is it Question Mark", "is it?"},
		{"en", "see open parenthesis note close parenthesis", "see (note)"},
		{"en", "periodic table", "periodic table"},
		{"ar", "مرحبا فاصلة منقوطة عالم", "مرحبا؛ عالم"},
		{"ar", "مرحبا فاصلة عالم نقطة", "مرحبا، عالم."},
		{"ar", "سطر جديد تم", "\nتم"},
		{"ar", "هل أنت هنا علامة استفهام", "هل أنت هنا؟"},
		{"fr", "bonjour comma", "bonjour,"},
		{"ru", "привет запятая мир точка", "привет, мир."},
	}
	for _, tt := range tests {
		t.Run(tt.lang+"/"+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NewCommands(tt.lang).Apply(tt.in))
		})
	}
}

func TestPipeline(t *testing.T) {
	upper := StageFunc(func(_ context.Context, s string) (string, error) { return s + "!", nil })
	failing := StageFunc(func(_ context.Context, s string) (string, error) { return "garbage", errors.New("down") })

	p := NewPipeline().
		Use("corrections", CorrectorStage(NewCorrector(map[string]string{"teh": "the"}))).
		Use("nil", nil).
		Use("llm", failing).
		Use("suffix", upper)

	assert.Equal(t, 3, p.Len())
	assert.Equal(t, "the end!", p.Run(context.Background(), "teh end"))
}

func TestPipelineEmptyResult(t *testing.T) {
	called := false
	after := StageFunc(func(_ context.Context, s string) (string, error) {
		called = true
		return s, nil
	})

	p := NewPipeline().
		Use("corrections", CorrectorStage(NewCorrector(map[string]string{"um": ""}))).
		Use("after", after)

	assert.Equal(t, "", p.Run(context.Background(), "um"))
	assert.False(t, called)
}
