package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/queue-sim/sim"
	"github.com/inference-sim/queue-sim/sim/report"
	"github.com/inference-sim/queue-sim/sim/trace"
)

var (
	logLevel   string // Log verbosity level
	metricsOut string // Prometheus textfile output path
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "queue-sim",
	Short: "Discrete-event simulator for a source/buffer/device queueing system",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		logrus.SetLevel(level)
		return nil
	},
}

// runCmd executes the simulation to completion and prints the report
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulation to completion and print the report",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := resolveConfig(cmd)
		s, err := sim.NewSimulator(cfg)
		if err != nil {
			logrus.Fatalf("Failed to build simulator: %v", err)
		}

		s.RunToCompletion()

		r, err := report.Build(s)
		if err != nil {
			logrus.Fatalf("Failed to build report: %v", err)
		}
		if err := r.Print(os.Stdout); err != nil {
			logrus.Fatalf("Failed to print report: %v", err)
		}
		if s.Trace != nil {
			printTraceSummary(trace.Summarize(s.Trace))
		}
		if metricsOut != "" {
			if err := report.WriteTextfile(metricsOut, r); err != nil {
				logrus.Fatalf("Failed to write metrics: %v", err)
			}
			logrus.Infof("Metrics written to %s", metricsOut)
		}
		logrus.Info("Simulation complete.")
	},
}

func printTraceSummary(ts *trace.TraceSummary) {
	fmt.Println("=== Decision Trace ===")
	fmt.Printf("Services started     : %d\n", ts.Served)
	fmt.Printf("Mean buffer wait     : %.2f ticks (max %d)\n", ts.MeanWait, ts.MaxWait)
	fmt.Printf("Rejections           : %d (%d refused on arrival, %d evicted)\n", ts.Rejected, ts.RefusedOnArrival, ts.Evicted)
	for id, n := range sortedCounts(ts.DeviceDistribution) {
		fmt.Printf("  device %d served %d\n", id, n)
	}
}

// sortedCounts flattens an id → count map into a slice indexed by id.
func sortedCounts(m map[int]int) []int {
	size := 0
	for id := range m {
		size = max(size, id+1)
	}
	out := make([]int, size)
	for id, n := range m {
		out[id] = n
	}
	return out
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	registerConfigFlags(runCmd)
	runCmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write report gauges in Prometheus text format to this file")
	registerConfigFlags(stepCmd)
	registerConfigFlags(tuneCmd)
	registerTuneFlags(tuneCmd)

	rootCmd.AddCommand(runCmd, stepCmd, tuneCmd)
}
