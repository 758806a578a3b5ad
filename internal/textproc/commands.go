package textproc

import (
	"strings"
)

// Голосовые команды: произнесённая фраза -> вставляемый текст.
var commandSets = map[string]map[string]string{
	"ar": {
		"سطر جديد":     "\n",
		"نقطة":         ".",
		"فاصلة":        "،",
		"فاصلة منقوطة": "؛",
		"نقطتان":       ":",
		"علامة استفهام": "؟",
		"علامة تعجب":   "!",
		"قوس مفتوح":    "(",
		"قوس مغلق":     ")",
		"مسافة":        " ",
		"تاب":          "\t",
	},
	"en": {
		"new line":          "\n",
		"new paragraph":     "\n\n",
		"period":            ".",
		"full stop":         ".",
		"comma":             ",",
		"semicolon":         ";",
		"colon":             ":",
		"question mark":     "?",
		"exclamation mark":  "!",
		"exclamation point": "!",
		"open parenthesis":  "(",
		"close parenthesis": ")",
		"tab key":           "\t",
	},
	"ru": {
		"новая строка":        "\n",
		"точка":               ".",
		"запятая":             ",",
		"двоеточие":           ":",
		"вопросительный знак": "?",
		"восклицательный знак": "!",
	},
}

type command struct {
	words       []string
	replacement string
}

// Commands заменяет голосовые команды пунктуацией и переводами строк.
// Команды распознаются целыми словами без учёта регистра.
type Commands struct {
	list []command
}

// NewCommands собирает команды для языка. Английские команды
// действуют для любого языка.
func NewCommands(lang string) *Commands {
	c := &Commands{}
	seen := make(map[string]bool)
	for _, set := range []string{strings.ToLower(lang), "en"} {
		for phrase, repl := range commandSets[set] {
			if seen[phrase] {
				continue
			}
			seen[phrase] = true
			c.list = append(c.list, command{words: strings.Fields(strings.ToLower(phrase)), replacement: repl})
		}
	}
	return c
}

// Apply заменяет команды в тексте.
func (c *Commands) Apply(text string) string {
	if c == nil || len(c.list) == 0 {
		return text
	}

	words := strings.Fields(text)
	var b strings.Builder
	glue := true // следующий токен пишется без пробела

	for i := 0; i < len(words); {
		if repl, n := c.match(words[i:]); n > 0 {
			writeCommand(&b, repl, &glue)
			i += n
			continue
		}
		if !glue {
			b.WriteByte(' ')
		}
		b.WriteString(words[i])
		glue = false
		i++
	}
	return b.String()
}

// match ищет самую длинную команду в начале words.
func (c *Commands) match(words []string) (string, int) {
	best, bestLen := "", 0
	for _, cmd := range c.list {
		if len(cmd.words) <= bestLen || len(cmd.words) > len(words) {
			continue
		}
		ok := true
		for j, w := range cmd.words {
			if strings.ToLower(words[j]) != w {
				ok = false
				break
			}
		}
		if ok {
			best, bestLen = cmd.replacement, len(cmd.words)
		}
	}
	return best, bestLen
}

func writeCommand(b *strings.Builder, repl string, glue *bool) {
	switch repl {
	case "(":
		if !*glue {
			b.WriteByte(' ')
		}
		b.WriteString(repl)
		*glue = true
	case " ":
		b.WriteString(repl)
		*glue = true
	case "\n", "\n\n", "\t":
		b.WriteString(repl)
		*glue = true
	default:
		// знаки препинания прилипают к предыдущему слову
		b.WriteString(repl)
		*glue = false
	}
}
