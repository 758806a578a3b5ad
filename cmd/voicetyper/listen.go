package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"voicetyper/internal/audio"
	"voicetyper/internal/i18n"
	"voicetyper/internal/input"
	"voicetyper/internal/listen"
)

var (
	listenLang   string
	listenEngine string
	listenType   bool
	listenOnce   time.Duration
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Слушать микрофон без трея",
	Long: `Непрерывно слушает микрофон и печатает каждую распознанную фразу
отдельной строкой. С --type вводит текст в активное окно.

Примеры:
  voicetyper listen --lang ar
  voicetyper listen --engine offline-file --type
  voicetyper listen --once 10s`,
	RunE: runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().StringVar(&listenLang, "lang", "", "язык распознавания (по умолчанию из конфигурации)")
	listenCmd.Flags().StringVar(&listenEngine, "engine", "", "движок: offline-streaming, offline-file, cloud")
	listenCmd.Flags().BoolVar(&listenType, "type", false, "вводить текст в активное окно")
	listenCmd.Flags().DurationVar(&listenOnce, "once", 0, "записать одну фразу не дольше заданного времени и выйти")
}

func runListen(cmd *cobra.Command, args []string) error {
	rt, err := newSession()
	if err != nil {
		return err
	}
	defer rt.close()

	if listenLang != "" {
		if err := rt.core.SwitchLanguage(listenLang); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("engine") {
		if err := rt.core.SetEngineKind(listenEngine); err != nil {
			return err
		}
	}

	out := func(text string) { fmt.Fprintln(cmd.OutOrStdout(), text) }
	if listenType {
		typer, err := input.New(rt.config.Typing().Method)
		if err != nil {
			return err
		}
		phrases := input.NewJoiner(typer)
		out = func(text string) {
			if err := phrases.Type(text); err != nil {
				log.Error().Err(err).Msg("Ошибка ввода текста")
			}
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if listenOnce > 0 {
		return recordOnce(ctx, rt, listenOnce, out)
	}

	g, ctx := errgroup.WithContext(ctx)
	serveMetrics(ctx, g, rt.config.Snapshot().Metrics.Addr)

	faults := make(chan error, 1)
	rt.core.Controller().OnFault(func(err error) {
		select {
		case faults <- err:
		default:
		}
	})

	if err := rt.core.Start(out); err != nil {
		return describeStartError(err)
	}
	log.Info().
		Str("lang", rt.config.Language()).
		Str("backend", rt.core.Controller().EngineName()).
		Msg("Слушаю, Ctrl+C для выхода")

	g.Go(func() error {
		select {
		case <-ctx.Done():
			rt.core.Stop()
			return nil
		case err := <-faults:
			return describeStartError(err)
		}
	})

	err = g.Wait()
	stop()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func recordOnce(ctx context.Context, rt *session, limit time.Duration, out func(string)) error {
	log.Info().Dur("limit", limit).Msg("Запись одной фразы, Ctrl+C чтобы закончить раньше")

	text, err := rt.core.RecordOnce(ctx, limit)
	switch {
	case errors.Is(err, listen.ErrNothingRecorded):
		log.Info().Msg("Ничего не записано")
		return nil
	case err != nil:
		return describeStartError(err)
	case text == "":
		log.Info().Msg("Речь не распознана")
		return nil
	}
	out(text)
	return nil
}

// describeStartError добавляет подсказку для ошибок микрофона.
func describeStartError(err error) error {
	var devErr *audio.DeviceError
	if errors.As(err, &devErr) {
		return fmt.Errorf("%w\n%s", err, i18n.T(devErr.Hint()))
	}
	return err
}
