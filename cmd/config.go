package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/queue-sim/sim"
)

var (
	// CLI flags for the simulator configuration
	configPath         string  // YAML or JSON config file
	targetRequests     int64   // Number of requests after which sources stop
	bufferCapacity     int     // Buffer slots
	sourcePeriods      []int64 // One period per source
	deviceCoefficients []int64 // One coefficient per device
	law                string  // Service law
	bufferPolicy       string  // Buffer strategy
	devicePolicy       string  // Device allocation strategy
	seed               int64   // Seed for stochastic service times
	traceLevel         string  // Decision trace level
)

// registerConfigFlags attaches the simulator configuration flags to cmd.
func registerConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML or JSON config file (keys: requests, buffer, sources, devices, ...)")
	cmd.Flags().Int64Var(&targetRequests, "requests", 1000, "Number of requests to generate")
	cmd.Flags().IntVar(&bufferCapacity, "buffer", 10, "Buffer capacity")
	cmd.Flags().Int64SliceVar(&sourcePeriods, "sources", []int64{30, 20, 10}, "Comma-separated source periods")
	cmd.Flags().Int64SliceVar(&deviceCoefficients, "devices", []int64{20, 25, 30, 35, 40}, "Comma-separated device coefficients")
	cmd.Flags().StringVar(&law, "law", sim.LawStochastic, "Service law (deterministic, stochastic)")
	cmd.Flags().StringVar(&bufferPolicy, "buffer-policy", sim.BufferPriority, "Buffer policy (priority, round-robin)")
	cmd.Flags().StringVar(&devicePolicy, "device-policy", sim.DeviceFirstFree, "Device policy (first-free, round-robin)")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Seed for stochastic service times")
	cmd.Flags().StringVar(&traceLevel, "trace", "none", "Decision trace level (none, decisions)")
}

// mergeConfig starts from the config file (when --config is set) or from the
// flag defaults, then applies every flag the user set explicitly.
func mergeConfig(cmd *cobra.Command) (sim.Config, error) {
	flags := cmd.Flags()
	cfg := sim.Config{
		TargetRequests:     targetRequests,
		BufferCapacity:     bufferCapacity,
		SourcePeriods:      sourcePeriods,
		DeviceCoefficients: deviceCoefficients,
		Law:                law,
		BufferPolicy:       bufferPolicy,
		DevicePolicy:       devicePolicy,
		Seed:               seed,
		Trace:              traceLevel,
	}
	if configPath == "" {
		return cfg, cfg.Validate()
	}

	loaded, err := sim.LoadConfig(configPath)
	if err != nil {
		return sim.Config{}, err
	}
	if flags.Changed("requests") {
		loaded.TargetRequests = targetRequests
	}
	if flags.Changed("buffer") {
		loaded.BufferCapacity = bufferCapacity
	}
	if flags.Changed("sources") {
		loaded.SourcePeriods = sourcePeriods
	}
	if flags.Changed("devices") {
		loaded.DeviceCoefficients = deviceCoefficients
	}
	if flags.Changed("law") || loaded.Law == "" {
		loaded.Law = law
	}
	if flags.Changed("buffer-policy") || loaded.BufferPolicy == "" {
		loaded.BufferPolicy = bufferPolicy
	}
	if flags.Changed("device-policy") || loaded.DevicePolicy == "" {
		loaded.DevicePolicy = devicePolicy
	}
	if flags.Changed("seed") {
		loaded.Seed = seed
	}
	if flags.Changed("trace") || loaded.Trace == "" {
		loaded.Trace = traceLevel
	}
	return loaded, loaded.Validate()
}

// resolveConfig is mergeConfig for command handlers: errors are fatal.
func resolveConfig(cmd *cobra.Command) sim.Config {
	cfg, err := mergeConfig(cmd)
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	logrus.Infof("Configuration: requests=%d buffer=%d sources=%v devices=%v law=%s buffer-policy=%s device-policy=%s seed=%d",
		cfg.TargetRequests, cfg.BufferCapacity, cfg.SourcePeriods, cfg.DeviceCoefficients,
		cfg.Law, cfg.BufferPolicy, cfg.DevicePolicy, cfg.Seed)
	return cfg
}
