package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phishlens/phishlens/internal/analytics"
	"github.com/phishlens/phishlens/internal/assess"
	"github.com/phishlens/phishlens/internal/predict"
	"github.com/phishlens/phishlens/internal/presenter"
)

func newAnalyticsCommand(a *app) *cobra.Command {
	var (
		outDir string
		data   string
	)
	cmd := &cobra.Command{
		Use:   "analytics [url]",
		Short: "Render the explanation charts for a URL as PNG files",
		Long: `Render the explanation charts as PNG files. Either check a URL and chart
its explanation, or pass a previously saved explanation with --data.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var explanation predict.Explanation
			switch {
			case data != "":
				if err := json.Unmarshal([]byte(data), &explanation); err != nil {
					return fmt.Errorf("parse --data: %w", err)
				}
			case len(args) == 1:
				pipeline := assess.NewPipeline(a.client(), a.normalizer(), a.logger)
				out, err := pipeline.Check(cmd.Context(), presenter.SurfaceInput, args[0])
				if err != nil {
					return noticeError(err)
				}
				explanation = out.Assessment.Explanation
			default:
				return errors.New("a url or --data is required")
			}

			if explanation.Empty() {
				return errors.New(presenter.NoticeNoAnalytics)
			}

			renderer := analytics.NewRenderer(a.logger, a.cfg.Charts.Width, a.cfg.Charts.Height)
			images := renderer.RenderAll(explanation)
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			for _, kind := range analytics.Kinds {
				img, ok := images[kind]
				if !ok {
					continue
				}
				path := filepath.Join(outDir, string(kind)+".png")
				if err := os.WriteFile(path, img, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "charts", "Directory to write PNG files to")
	cmd.Flags().StringVar(&data, "data", "", "Explanation JSON ({\"top_safe\": [...], \"top_unsafe\": [...]})")
	return cmd
}
