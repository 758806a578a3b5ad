package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"voicetyper/internal/models"
)

var modelsLang string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Модели распознавания",
	Long: `Показывает модели Vosk и Whisper и их состояние.

Примеры:
  voicetyper models
  voicetyper models --lang ar
  voicetyper models download vosk-ar
  voicetyper models delete whisper-base-q5`,
	RunE: runModelsList,
}

var modelsDownloadCmd = &cobra.Command{
	Use:   "download <id>...",
	Short: "Скачать модели",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runModelsDownload,
}

var modelsDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Удалить скачанные модели",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runModelsDelete,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsDownloadCmd, modelsDeleteCmd)

	modelsCmd.Flags().StringVar(&modelsLang, "lang", "", "только модели для языка")
}

func lookupModels(ids []string) ([]models.ModelInfo, error) {
	out := make([]models.ModelInfo, 0, len(ids))
	for _, id := range ids {
		info, ok := models.GetModel(id)
		if !ok {
			return nil, fmt.Errorf("неизвестная модель %q, список: voicetyper models", id)
		}
		out = append(out, info)
	}
	return out, nil
}

func runModelsList(cmd *cobra.Command, args []string) error {
	mgr, err := models.NewManager(modelsDir)
	if err != nil {
		return err
	}

	list := models.Registry
	if modelsLang != "" {
		list = append(models.ForLanguage(modelsLang, models.EngineVosk), models.ForLanguage(modelsLang, models.EngineWhisper)...)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tДВИЖОК\tЯЗЫК\tРАЗМЕР\tСКАЧАНА\tНАЗВАНИЕ")
	for _, m := range list {
		lang := m.Language
		if lang == "" {
			lang = "*"
		}
		state := "-"
		if mgr.IsDownloaded(m) {
			state = "да"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d MB\t%s\t%s\n",
			m.ID, models.EngineName(m.Engine), lang, m.Size>>20, state, m.Name)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nКаталог: %s\n", mgr.ModelsDir())
	return nil
}

func runModelsDownload(cmd *cobra.Command, args []string) error {
	list, err := lookupModels(args)
	if err != nil {
		return err
	}
	mgr, err := models.NewManager(modelsDir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	for _, info := range list {
		if mgr.IsDownloaded(info) {
			fmt.Fprintf(out, "%s: уже скачана\n", info.ID)
			continue
		}

		progress := make(chan models.Progress, 16)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			defer close(progress)
			return mgr.Download(gctx, info, progress)
		})
		g.Go(func() error {
			printProgress(out, progress)
			return nil
		})
		if err := g.Wait(); err != nil {
			return fmt.Errorf("%s: %w", info.ID, err)
		}
		fmt.Fprintf(out, "%s: готово, %s\n", info.ID, mgr.GetModelPath(info))
	}
	return nil
}

func printProgress(out io.Writer, progress <-chan models.Progress) {
	lastPct := -5
	for p := range progress {
		if p.Done || p.Total <= 0 {
			continue
		}
		pct := int(p.Downloaded * 100 / p.Total)
		if pct/5 == lastPct/5 {
			continue
		}
		lastPct = pct
		fmt.Fprintf(out, "\r%s: %3d%% (%d/%d MB)", p.ModelID, pct, p.Downloaded>>20, p.Total>>20)
	}
	if lastPct >= 0 {
		fmt.Fprintln(out)
	}
}

func runModelsDelete(cmd *cobra.Command, args []string) error {
	list, err := lookupModels(args)
	if err != nil {
		return err
	}
	mgr, err := models.NewManager(modelsDir)
	if err != nil {
		return err
	}

	for _, info := range list {
		if !mgr.IsDownloaded(info) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: не скачана\n", info.ID)
			continue
		}
		if err := mgr.Delete(info); err != nil {
			return fmt.Errorf("%s: %w", info.ID, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: удалена\n", info.ID)
	}
	return nil
}
