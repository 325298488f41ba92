package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/queue-sim/sim"
	"github.com/inference-sim/queue-sim/sim/report"
)

// stepCmd advances the simulation one event per input line
var stepCmd = &cobra.Command{
	Use:   "step",
	Short: "Step through the simulation interactively (Enter = next event, q = finish)",
	Run: func(cmd *cobra.Command, args []string) {
		s, err := sim.NewSimulator(resolveConfig(cmd))
		if err != nil {
			logrus.Fatalf("Failed to build simulator: %v", err)
		}
		if err := interactive(s, os.Stdin, os.Stdout); err != nil {
			logrus.Fatalf("Step mode failed: %v", err)
		}
	},
}

// interactive prints the state, then advances one event per line read from in
// until the simulation completes, "q" is entered or in is exhausted. The rest
// of the run completes without output and the report is printed.
func interactive(s *sim.Simulator, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Interactive mode.")
	if err := report.PrintState(out, s); err != nil {
		return err
	}
	scanner := bufio.NewScanner(in)
	for !s.IsCompleted() && scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "q" {
			break
		}
		ev := s.Step()
		fmt.Fprintln(out, ev)
		if err := report.PrintState(out, s); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	s.RunToCompletion()
	r, err := report.Build(s)
	if err != nil {
		return err
	}
	return r.Print(out)
}
