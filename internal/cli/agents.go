package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"beamdeck/internal/runs"
)

// NewAgentsCmd prints the swarm roster.
func NewAgentsCmd(opts *Options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Show the agent roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			agents, err := a.backend.ListAgents(cmd.Context())
			if err != nil {
				return fmt.Errorf("list agents: %w", err)
			}
			if agents == nil {
				agents = []runs.AgentProfile{}
			}
			return writeStructured(cmd.OutOrStdout(), output, agents, func(w io.Writer) error {
				tw := newTable(w)
				fmt.Fprintln(tw, "ID\tNAME\tROLE\tTOOLS\tDELEGATES TO")
				for _, agent := range agents {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
						agent.ID,
						strings.TrimSpace(agent.Icon+" "+agent.Name),
						agent.Role,
						oneLine(strings.Join(agent.Tools, ", "), 40),
						strings.Join(agent.Relationships.Outgoing, ", "),
					)
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table, json or yaml")
	return cmd
}
