// Voicetyper - голосовой ввод текста с непрерывным прослушиванием.
//
// Без подкоманд работает в системном трее: горячая клавиша включает
// прослушивание, каждая фраза после паузы распознаётся и вводится
// в активное окно.
package main

import (
	"fmt"
	"os"
)

// Version устанавливается при сборке через -ldflags.
var Version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}
