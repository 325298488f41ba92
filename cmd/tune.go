package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/queue-sim/sim"
	"github.com/inference-sim/queue-sim/sim/report"
	"github.com/inference-sim/queue-sim/sim/tune"
)

var (
	// CLI flags for device tuning
	targetRejection      float64 // Acceptable rejection probability
	newDeviceCoefficient int64   // Coefficient for every added device
	maxRequests          int64   // Sample size cap per estimate
	maxDevices           int     // Device count cap
)

// tuneCmd grows the device pool until the rejection target is met
var tuneCmd = &cobra.Command{
	Use:   "tune",
	Short: "Add devices until the rejection probability is at or under a target",
	Run: func(cmd *cobra.Command, args []string) {
		s, err := sim.NewSimulator(resolveConfig(cmd))
		if err != nil {
			logrus.Fatalf("Failed to build simulator: %v", err)
		}
		res, err := tune.Devices(s, tune.Options{
			TargetRejection:      targetRejection,
			NewDeviceCoefficient: newDeviceCoefficient,
			MaxRequests:          maxRequests,
			MaxDevices:           maxDevices,
		})
		if err != nil && !errors.Is(err, tune.ErrTargetUnreachable) {
			logrus.Fatalf("Tuning failed: %v", err)
		}
		if err != nil {
			logrus.Warnf("%v", err)
		}
		fmt.Printf("Devices: %d (%d added), rejection probability %.6f over %d requests\n",
			res.Devices, res.AddedDevices, res.RejectionProbability, res.Requests)

		r, err := report.Build(s)
		if err != nil {
			logrus.Fatalf("Failed to build report: %v", err)
		}
		if err := r.Print(os.Stdout); err != nil {
			logrus.Fatalf("Failed to print report: %v", err)
		}
	},
}

func registerTuneFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&targetRejection, "target-rejection", 0.05, "Acceptable rejection probability")
	cmd.Flags().Int64Var(&newDeviceCoefficient, "device-coefficient", 100, "Coefficient of each added device")
	cmd.Flags().Int64Var(&maxRequests, "max-requests", 1000, "Maximum requests per rejection estimate")
	cmd.Flags().IntVar(&maxDevices, "max-devices", 64, "Maximum number of devices")
}
