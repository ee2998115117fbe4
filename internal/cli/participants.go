package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/open-builders/secret-santa-bot/internal/domain/participant"
)

// NewParticipantsCommand creates the participants command.
func NewParticipantsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "participants",
		Short: "List registered participants and their recipients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), rootOpts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			set, err := a.store.LoadParticipants(cmd.Context())
			if err != nil {
				return err
			}
			return printParticipants(cmd.OutOrStdout(), rootOpts.Format, set)
		},
	}
}

func printParticipants(w io.Writer, format string, set participant.Set) error {
	ordered := make([]*participant.Participant, 0, len(set))
	for _, id := range set.IDs() {
		ordered = append(ordered, set[id])
	}

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ordered)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tUSERNAME\tGROUP\tROOM\tRECIPIENT")
	for _, p := range ordered {
		recipient := "-"
		if p.Assigned != nil {
			recipient = fmt.Sprintf("%d", p.Assigned.ID)
		}
		username := "-"
		if p.Username != "" {
			username = "@" + p.Username
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.DisplayName(), username, dash(p.Group), dash(p.Room), recipient)
	}
	fmt.Fprintf(tw, "\n%d participants\n", len(ordered))
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
