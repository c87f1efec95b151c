package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phishlens/phishlens/internal/assess"
	"github.com/phishlens/phishlens/internal/messaging"
	"github.com/phishlens/phishlens/internal/presenter"
)

func newCheckCommand(a *app) *cobra.Command {
	return newSurfaceCommand(a, presenter.SurfaceInput, "check <url>", "Check a URL as typed into the popup")
}

func newCheckTabCommand(a *app) *cobra.Command {
	return newSurfaceCommand(a, presenter.SurfaceTab, "check-tab <url>", "Check a URL as the active tab's address")
}

func newSurfaceCommand(a *app, surface presenter.Surface, use, short string) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline := assess.NewPipeline(a.client(), a.normalizer(), a.logger)
			out, err := pipeline.Check(cmd.Context(), surface, args[0])
			if err != nil {
				return noticeError(err)
			}
			return printOutcome(cmd.OutOrStdout(), out, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the assessment as JSON")
	return cmd
}

// noticeError turns a pipeline failure into the popup notice text. main
// prefixes "Error: " itself, so the notice's own prefix is dropped.
func noticeError(err error) error {
	return errors.New(strings.TrimPrefix(assess.Notice(err), "Error: "))
}

func printOutcome(w io.Writer, out *assess.Outcome, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	a := out.Assessment
	fmt.Fprintf(w, "[%s] %s\n", a.Tier, a.Message)
	fmt.Fprintf(w, "  %s\n", a.Advice)
	fmt.Fprintf(w, "  checked: %s (probability %.2f)\n", a.CheckedURL, a.Probability)
	if out.AnalyticsURL != "" {
		fmt.Fprintf(w, "  analytics: %s\n", out.AnalyticsURL)
	}
	return nil
}

func newMessageCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "message <url>",
		Short: "Send a checkURL message through the background channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h := messaging.NewHandler(a.client(), a.logger)
			reply := h.Handle(cmd.Context(), messaging.Request{Action: messaging.ActionCheckURL, URL: args[0]})
			fmt.Fprintln(cmd.OutOrStdout(), reply.Result)
			return nil
		},
	}
}
