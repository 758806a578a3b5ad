package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"voicetyper/internal/audio"
	"voicetyper/internal/llm"
	"voicetyper/internal/speech"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Устройства ввода звука",
	RunE:  runDevices,
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Проверить доступные движки и сервисы",
	RunE:  runProbe,
}

func init() {
	rootCmd.AddCommand(devicesCmd, probeCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	devices, err := audio.Devices()
	if err != nil {
		fmt.Fprintf(out, "PortAudio недоступен: %v\n", err)
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "\tУСТРОЙСТВО\tAPI\tКАНАЛЫ\tЧАСТОТА")
		for _, d := range devices {
			mark := ""
			if d.Default {
				mark = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.0f\n", mark, d.Name, d.HostAPI, d.Channels, d.SampleRate)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if argv := audio.DefaultCaptureCommand(); len(argv) > 0 {
		fmt.Fprintf(out, "\nРезервная запись: %s\n", strings.Join(argv, " "))
	} else {
		fmt.Fprintln(out, "\nРезервная утилита записи не найдена (arecord, parec, sox)")
	}
	return nil
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s := cfg.Snapshot()
	out := cmd.OutOrStdout()

	caps := speech.Probe(s.Cloud)
	fmt.Fprintln(out, "Движки распознавания:")
	fmt.Fprintf(out, "  %-18s %s\n", speech.KindStreaming, yesNo(caps.Streaming, "vosk"))
	file := "нет"
	switch {
	case caps.WhisperLib:
		file = "whisper.cpp"
	case caps.WhisperCLI != "":
		file = caps.WhisperCLI
	}
	fmt.Fprintf(out, "  %-18s %s\n", speech.KindFile, file)
	fmt.Fprintf(out, "  %-18s %s\n", speech.KindCloud, yesNo(caps.Cloud, caps.CloudProvider))

	ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
	defer cancel()

	fmt.Fprintln(out, "\nСервисы постобработки:")
	client := llm.New(llm.Config{URL: s.LLM.URL, Model: s.LLM.Model})
	if client.IsAvailable(ctx) {
		names, err := client.ListModels(ctx)
		if err != nil {
			fmt.Fprintf(out, "  ollama    %s: %v\n", s.LLM.URL, err)
		} else {
			fmt.Fprintf(out, "  ollama    %s: %s\n", s.LLM.URL, strings.Join(names, ", "))
		}
	} else {
		fmt.Fprintf(out, "  ollama    %s: недоступна\n", s.LLM.URL)
	}
	fmt.Fprintf(out, "  translate %s -> %s\n", s.Translate.URL, s.Translate.Target)
	return nil
}

func yesNo(ok bool, what string) string {
	if ok {
		return what
	}
	return "нет"
}
