package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"beamdeck/internal/classify"
	"beamdeck/internal/present"
	"beamdeck/internal/runs"
)

// NewRunCmd starts a mission headlessly. When the backend asks for
// clarification, values from --input are submitted once.
func NewRunCmd(opts *Options) *cobra.Command {
	var inputs []string
	var output string

	cmd := &cobra.Command{
		Use:   "run \"<prompt>\"",
		Short: "Start a mission and print its result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := args[0]
			if strings.TrimSpace(prompt) == "" {
				return fmt.Errorf("prompt cannot be empty")
			}
			values, err := parseInputs(inputs)
			if err != nil {
				return err
			}

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if err := a.ctrl.StartMission(ctx, prompt); err != nil {
				return err
			}
			state := a.ctrl.Snapshot()

			if state.Result.AwaitingUser() {
				if len(values) == 0 {
					printMissing(out, state.Result)
					return fmt.Errorf("mission %s needs clarification; rerun with --input name=value", state.Result.RunID)
				}
				for name, value := range values {
					a.ctrl.HandleInputChange(name, value)
				}
				if err := a.ctrl.ContinueMission(ctx); err != nil {
					return err
				}
				state = a.ctrl.Snapshot()
			}

			run := state.SelectedRun
			if run == nil {
				return fmt.Errorf("backend returned no run to display")
			}
			return writeStructured(out, output, run, func(w io.Writer) error {
				printRun(w, run)
				if state.Result.AwaitingUser() {
					fmt.Fprintln(w)
					printMissing(w, state.Result)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVarP(&inputs, "input", "i", nil, "Clarification value as name=value (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json or yaml")
	return cmd
}

func parseInputs(raw []string) (map[string]string, error) {
	values := make(map[string]string, len(raw))
	for _, pair := range raw {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --input %q: want name=value", pair)
		}
		values[name] = value
	}
	return values, nil
}

func printMissing(w io.Writer, res *runs.RunResult) {
	fmt.Fprintf(w, "Clarification needed for %s:\n", res.RunID)
	for _, v := range res.Payload.MissingVars {
		hint := ""
		if def := v.DefaultText(); def != "" {
			hint = fmt.Sprintf(" (e.g. %s)", def)
		}
		fmt.Fprintf(w, "  --input %s=<%s>  %s%s\n", v.Name, nullOr(v.Type, "text"), v.Description, hint)
	}
}

func printRun(w io.Writer, run *runs.SelectedRun) {
	fmt.Fprintf(w, "Mission: %s [%s]\n", nullOr(run.Summary, "Mission Log"), nullOr(string(run.State), "unknown"))
	fmt.Fprintf(w, "ID:      %s\n", run.RunID)
	if run.ProblemDescription != "" {
		fmt.Fprintf(w, "Problem: %s\n", oneLine(run.ProblemDescription, 200))
	}
	if present.HasSource(run) {
		fmt.Fprintf(w, "Source:  %s\n", run.Payload.CodeURL)
	}

	if exec := run.Payload.ExecutionResult; exec != nil {
		fmt.Fprintln(w)
		if solution, ok := classify.DetectPhysics(exec.Stdout); ok {
			printPhysics(w, solution)
		} else if term, ok := present.Terminal(exec); ok {
			fmt.Fprintln(w, "Output:")
			fmt.Fprintln(w, term.Body)
			if term.Stderr != "" {
				fmt.Fprintln(w, "Stderr:")
				fmt.Fprintln(w, term.Stderr)
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trace (newest first):")
	if len(run.Payload.TraceLog) == 0 {
		fmt.Fprintln(w, "  Waiting for agent activity...")
		return
	}
	for _, entry := range present.NewestFirst(run.Payload.TraceLog) {
		fmt.Fprintf(w, "  [%s] %s · %s  %s\n", classify.LogCategory(entry.Step), entry.Agent, entry.Step, entry.Timestamp)
		if content := strings.TrimSpace(entry.Content); content != "" {
			for _, line := range strings.Split(content, "\n") {
				fmt.Fprintf(w, "      %s\n", line)
			}
		}
	}
}

func printPhysics(w io.Writer, s *classify.PhysicsSolution) {
	fmt.Fprintln(w, "Newtonian solver:")
	for _, k := range s.Knowns {
		fmt.Fprintf(w, "  %s = %s\n", k.Name, k.Value)
	}
	if len(s.Unknowns) > 0 {
		fmt.Fprintf(w, "  find: %s\n", strings.Join(s.Unknowns, ", "))
	}
	if len(s.Assumptions) > 0 {
		fmt.Fprintf(w, "  assumed: %s\n", strings.Join(s.Assumptions, ", "))
	}
	for i, step := range s.Steps {
		fmt.Fprintf(w, "  %d. %s\n", i+1, step)
	}
	fmt.Fprintf(w, "Answer: %s = %s\n", nullOr(s.Answer.Variable, "answer"), strings.TrimSpace(s.Answer.Value+" "+s.Answer.Unit))
	if s.Reasoning != "" {
		fmt.Fprintln(w, s.Reasoning)
	}
}

func nullOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
