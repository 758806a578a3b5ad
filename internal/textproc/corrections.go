// Package textproc обрабатывает распознанный текст перед вводом:
// словарь исправлений, голосовые команды, цепочка этапов.
package textproc

import (
	"sort"
	"strings"
)

// Corrector заменяет частые ошибки распознавания.
// Пустая замена удаляет фразу.
type Corrector struct {
	pairs []pair
}

type pair struct {
	wrong, right string
}

// NewCorrector создаёт корректор из словаря wrong -> right.
func NewCorrector(dict map[string]string) *Corrector {
	c := &Corrector{pairs: make([]pair, 0, len(dict))}
	for wrong, right := range dict {
		if wrong == "" {
			continue
		}
		c.pairs = append(c.pairs, pair{wrong: wrong, right: right})
	}
	// Длинные фразы раньше, чтобы "a b" не съедалось заменой "a"
	sort.Slice(c.pairs, func(i, j int) bool {
		if len(c.pairs[i].wrong) != len(c.pairs[j].wrong) {
			return len(c.pairs[i].wrong) > len(c.pairs[j].wrong)
		}
		return c.pairs[i].wrong < c.pairs[j].wrong
	})
	return c
}

// Len возвращает число записей словаря.
func (c *Corrector) Len() int {
	if c == nil {
		return 0
	}
	return len(c.pairs)
}

// Apply применяет словарь к тексту.
func (c *Corrector) Apply(text string) string {
	if c.Len() == 0 {
		return text
	}
	for _, p := range c.pairs {
		text = strings.ReplaceAll(text, p.wrong, p.right)
	}
	return collapseSpaces(text)
}

// collapseSpaces схлопывает повторные пробелы, оставшиеся после удалений.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
