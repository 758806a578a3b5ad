package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"voicetyper/internal/app"
	"voicetyper/internal/config"
	"voicetyper/internal/hotkey"
	"voicetyper/internal/i18n"
	"voicetyper/internal/models"
	"voicetyper/internal/observe"
)

var (
	cfgFile   string
	modelsDir string
	logLevel  string

	loaded *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "voicetyper",
	Short: "Голосовой ввод текста",
	Long: `Voicetyper слушает микрофон, делит речь на фразы по паузам
и вводит распознанный текст в активное окно.

Без подкоманд запускается в системном трее.

Примеры:
  voicetyper                          # трей
  voicetyper listen                   # печать фраз в консоль
  voicetyper models download vosk-ar  # скачать модель`,
	SilenceUsage: true,
	Version:      Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		s := cfg.Snapshot()
		level := s.Log.Level
		if logLevel != "" {
			level = logLevel
		}
		observe.SetupLogger(level, s.Log.Console)
		i18n.SetLanguage(i18n.Parse(s.UILanguage))
		return nil
	},
	RunE: runTray,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "файл конфигурации (по умолчанию config.yaml рядом с бинарником)")
	rootCmd.PersistentFlags().StringVar(&modelsDir, "models-dir", "", "каталог моделей (по умолчанию models/ рядом с бинарником)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "уровень логирования: debug, info, warn, error")
}

// loadConfig читает и проверяет конфигурацию один раз за запуск.
func loadConfig() (*config.Config, error) {
	if loaded != nil {
		return loaded, nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Snapshot().Validate(); err != nil {
		return nil, fmt.Errorf("конфигурация %s: %w", cfg.Path(), err)
	}
	loaded = cfg
	return cfg, nil
}

// session - общие зависимости команд, которым нужен конвейер.
type session struct {
	config   *config.Config
	core     *app.Core
	shutdown func(context.Context) error
}

func newSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	mgr, err := models.NewManager(modelsDir)
	if err != nil {
		return nil, err
	}

	shutdown, err := observe.InitProvider(Version)
	if err != nil {
		return nil, fmt.Errorf("метрики: %w", err)
	}

	core, err := app.NewCore(cfg, mgr, observe.DefaultMetrics())
	if err != nil {
		_ = shutdown(context.Background())
		return nil, err
	}
	return &session{config: cfg, core: core, shutdown: shutdown}, nil
}

func (r *session) close() {
	if err := r.core.Close(); err != nil {
		log.Warn().Err(err).Msg("Ошибка закрытия конвейера")
	}
	if err := r.shutdown(context.Background()); err != nil {
		log.Warn().Err(err).Msg("Ошибка остановки метрик")
	}
}

// serveMetrics запускает HTTP сервер метрик в группе, если задан адрес.
// Ошибка сервера не останавливает остальные задачи группы.
func serveMetrics(ctx context.Context, g *errgroup.Group, addr string) {
	if addr == "" {
		return
	}
	g.Go(func() error {
		if err := observe.ServeMetrics(ctx, addr); err != nil {
			log.Error().Err(err).Str("addr", addr).Msg("Сервер метрик остановлен")
		}
		return nil
	})
}

func runTray(cmd *cobra.Command, args []string) error {
	log.Info().Str("version", Version).Msg("Voicetyper запускается")

	rt, err := newSession()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	serveMetrics(ctx, g, rt.config.Snapshot().Metrics.Addr)

	var runErr error
	// Трей и горячие клавиши требуют главного потока (macOS)
	hotkey.RunOnMainThread(func() {
		application, err := app.New(rt.config, rt.core)
		if err != nil {
			runErr = err
			return
		}
		go func() {
			<-ctx.Done()
			application.Quit()
		}()
		application.Run()
	})

	stop()
	rt.close()
	if err := g.Wait(); err != nil {
		return err
	}
	return runErr
}
