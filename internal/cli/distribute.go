package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/open-builders/secret-santa-bot/internal/service/distribution"
	"github.com/open-builders/secret-santa-bot/internal/service/notifications"
)

// NewDistributeCommand creates the distribute command.
func NewDistributeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "distribute",
		Short: "Run one distribution now and exit",
		Long: `Draw pairs for all registered participants, store them and send every
giver their recipient. Fails if another distribution holds the lock.

Example:
  santa distribute
  santa distribute --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.cfg
			if cfg.Telegram.Token == "" {
				return errNoToken
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.engine.Run(ctx)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), rootOpts.Format, report)
		},
	}
}

type reportOutput struct {
	RunID        string `json:"run_id"`
	Participants int    `json:"participants"`
	Pairs        int    `json:"pairs"`
	Fallback     bool   `json:"fallback"`
	Delivered    int    `json:"delivered"`
	Blocked      int    `json:"blocked"`
	Exhausted    int    `json:"exhausted"`
	Canceled     int    `json:"canceled"`
	Skipped      int    `json:"skipped"`
}

func printReport(w io.Writer, format string, r *distribution.Report) error {
	out := reportOutput{
		RunID:        r.RunID,
		Participants: r.Participants,
		Pairs:        len(r.Pairs),
		Fallback:     r.Fallback,
		Delivered:    r.Outcomes[notifications.OutcomeDelivered],
		Blocked:      r.Outcomes[notifications.OutcomeBlocked],
		Exhausted:    r.Outcomes[notifications.OutcomeExhausted],
		Canceled:     r.Outcomes[notifications.OutcomeCanceled],
		Skipped:      r.Skipped,
	}
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	if r.Empty() {
		_, err := fmt.Fprintf(w, "not enough participants (%d), nothing to distribute\n", r.Participants)
		return err
	}
	_, err := fmt.Fprintf(w,
		"run %s: %d pairs (fallback=%t), delivered=%d blocked=%d exhausted=%d canceled=%d skipped=%d\n",
		out.RunID, out.Pairs, out.Fallback, out.Delivered, out.Blocked, out.Exhausted, out.Canceled, out.Skipped)
	return err
}
