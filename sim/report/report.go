// Package report derives the capacity-planning figures from a finished (or
// paused) simulation and renders them as tables or Prometheus gauges.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/inference-sim/queue-sim/sim"
)

// General holds the run-wide row.
type General struct {
	SimulationTime       int64
	Received             int64
	Processed            int64
	Rejected             int64
	RejectionProbability *float64 // nil when nothing was received
}

// SourceRow holds one source's derived figures. Pointer fields are nil when
// the source generated no requests.
type SourceRow struct {
	ID                   int
	Generated            int64
	Rejected             int64
	RejectionProbability *float64
	TotalDelay           *float64
	MeanWait             *float64
	MeanService          *float64
	WaitVariance         *float64
	ServiceVariance      *float64
}

// DeviceRow holds one device's utilization; nil before time has advanced.
type DeviceRow struct {
	ID          int
	TimeInUsage int64
	Utilization *float64
}

// Report is a snapshot of derived statistics.
type Report struct {
	RunID   string
	Law     string
	General General
	Sources []SourceRow
	Devices []DeviceRow
}

// Build derives a report from the simulator's current snapshots.
// Undefined figures (division by zero) are left nil; any other error from the
// statistics is returned.
func Build(s *sim.Simulator) (*Report, error) {
	r := &Report{
		RunID: uuid.NewString(),
		Law:   s.Law(),
		General: General{
			SimulationTime: s.Clock(),
			Received:       s.Received(),
			Processed:      s.Received() - s.Rejected(),
			Rejected:       s.Rejected(),
		},
	}
	var err error
	if r.General.RejectionProbability, err = defined(s.RejectionProbability()); err != nil {
		return nil, fmt.Errorf("rejection probability: %w", err)
	}

	for i, src := range s.Sources() {
		row := SourceRow{ID: i, Generated: src.Generated, Rejected: src.Rejected}
		fields := []struct {
			name string
			dst  **float64
			fn   func() (float64, error)
		}{
			{"rejection probability", &row.RejectionProbability, src.RejectionProbability},
			{"total delay", &row.TotalDelay, src.TotalDelay},
			{"mean wait", &row.MeanWait, src.MeanWait},
			{"mean service", &row.MeanService, src.MeanService},
			{"wait variance", &row.WaitVariance, src.WaitVariance},
			{"service variance", &row.ServiceVariance, src.ServiceVariance},
		}
		for _, f := range fields {
			if *f.dst, err = defined(f.fn()); err != nil {
				return nil, fmt.Errorf("source[%d] %s: %w", i, f.name, err)
			}
		}
		r.Sources = append(r.Sources, row)
	}

	for i, dev := range s.Devices() {
		row := DeviceRow{ID: i, TimeInUsage: dev.TimeInUsage}
		if row.Utilization, err = defined(dev.Utilization(s.Clock())); err != nil {
			return nil, fmt.Errorf("device[%d] utilization: %w", i, err)
		}
		r.Devices = append(r.Devices, row)
	}
	return r, nil
}

// defined maps the statistics' "undefined" errors to a nil value.
func defined(v float64, err error) (*float64, error) {
	if errors.Is(err, sim.ErrNoSamples) || errors.Is(err, sim.ErrZeroElapsed) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Print renders the general, source and device tables.
func (r *Report) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	lines := []string{
		fmt.Sprintf("=== Simulation Report (run %s, %s) ===", r.RunID, r.Law),
		"General report:",
		"Total time\tReceived\tProcessed\tRejected\tRejection probability",
		fmt.Sprintf("%d\t%d\t%d\t%d\t%s", r.General.SimulationTime, r.General.Received,
			r.General.Processed, r.General.Rejected, format(r.General.RejectionProbability)),
		"",
		"Source report:",
		"i\tRequests\tRejection probability\tTime full\tTime buffer\tTime processing\tVariance buffer\tVariance processing",
	}
	for _, s := range r.Sources {
		lines = append(lines, fmt.Sprintf("%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s", s.ID, s.Generated,
			format(s.RejectionProbability), format(s.TotalDelay), format(s.MeanWait),
			format(s.MeanService), format(s.WaitVariance), format(s.ServiceVariance)))
	}
	lines = append(lines, "", "Device report:", "i\tUsage coefficient")
	for _, d := range r.Devices {
		lines = append(lines, fmt.Sprintf("%d\t%s", d.ID, format(d.Utilization)))
	}
	if _, err := io.WriteString(tw, strings.Join(lines, "\n")+"\n"); err != nil {
		return err
	}
	return tw.Flush()
}

func format(v *float64) string {
	if v == nil {
		return "undefined"
	}
	return fmt.Sprintf("%.4f", *v)
}
