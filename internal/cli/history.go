package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"beamdeck/internal/runs"
)

// NewHistoryCmd lists past missions.
func NewHistoryCmd(opts *Options) *cobra.Command {
	var output string
	var deleteID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past missions, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			if deleteID != "" {
				if err := a.backend.DeleteRun(cmd.Context(), deleteID); err != nil {
					return fmt.Errorf("delete %s: %w", deleteID, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", deleteID)
				return nil
			}

			items, err := a.backend.ListHistory(cmd.Context())
			if err != nil {
				return fmt.Errorf("list history: %w", err)
			}
			if items == nil {
				items = []runs.HistorySummary{}
			}
			return writeStructured(cmd.OutOrStdout(), output, items, func(w io.Writer) error {
				if len(items) == 0 {
					_, err := fmt.Fprintln(w, "No missions recorded yet.")
					return err
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "RUN ID\tCREATED\tFILE\tPROBLEM")
				for _, item := range items {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", item.RunID, item.CreatedAt, item.FilePath, oneLine(item.ProblemDescription, 60))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table, json or yaml")
	cmd.Flags().StringVar(&deleteID, "delete", "", "Delete the mission with this run id instead of listing")
	return cmd
}
