package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewDoctorCmd checks configuration and probes the backend endpoints the
// client depends on.
func NewDoctorCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration and backend reachability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config OK. Backend: %s, source: %s\n", a.cfg.API.BaseURL, a.cfg.Source.BaseURL)
			fmt.Fprintf(out, "Log file: %s, metrics: %s\n", nullOr(a.cfg.Logging.File, "(disabled)"), nullOr(a.cfg.Metrics.Addr, "(disabled)"))

			ctx := cmd.Context()
			checks := []struct {
				label string
				run   func() (string, error)
			}{
				{"Health: ", func() (string, error) {
					health, err := a.backend.Health(ctx)
					return fmt.Sprintf("%s %s", nullOr(health.Status, "ok"), health.Cwd), err
				}},
				{"History:", func() (string, error) {
					items, err := a.backend.ListHistory(ctx)
					return fmt.Sprintf("%d missions", len(items)), err
				}},
				{"Agents: ", func() (string, error) {
					agents, err := a.backend.ListAgents(ctx)
					return fmt.Sprintf("%d on the roster", len(agents)), err
				}},
			}

			// Each check writes only its own slot; every result is printed
			// even when another check fails.
			lines := make([]string, len(checks))
			var g errgroup.Group
			for i, check := range checks {
				g.Go(func() error {
					detail, err := check.run()
					if err != nil {
						lines[i] = fmt.Sprintf("%s FAIL %v", check.label, err)
						return fmt.Errorf("%s %w", strings.ToLower(strings.TrimSpace(check.label)), err)
					}
					lines[i] = fmt.Sprintf("%s %s", check.label, detail)
					return nil
				})
			}
			err = g.Wait()

			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
			if err != nil {
				return fmt.Errorf("backend checks failed: %w", err)
			}
			return nil
		},
	}
}
