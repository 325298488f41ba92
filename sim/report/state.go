package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/inference-sim/queue-sim/sim"
)

// PrintState renders the sources calendar, devices calendar and buffer of s.
// A pending time of sim.Never is shown blank with sign 1.
func PrintState(w io.Writer, s *sim.Simulator) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	lines := []string{
		fmt.Sprintf("Time: %d  Received: %d/%d  Rejected: %d", s.Clock(), s.Received(), s.Target(), s.Rejected()),
		"Sources calendar:",
		"i\tNext event\tSign\tGenerated\tRejected",
	}
	for i, src := range s.Sources() {
		time, sign := timeAndSign(src.NextEventTime)
		lines = append(lines, fmt.Sprintf("%d\t%s\t%d\t%d\t%d", i, time, sign, src.Generated, src.Rejected))
	}

	lines = append(lines, "Devices calendar:", "i\tNext event\tSign\tRequest")
	for i, dev := range s.Devices() {
		time, sign := timeAndSign(dev.NextEventTime)
		req := ""
		if dev.CurrentRequest != nil {
			req = dev.CurrentRequest.String()
		}
		lines = append(lines, fmt.Sprintf("%d\t%s\t%d\t%s", i, time, sign, req))
	}

	buffered := s.Buffered()
	index := []string{"i:"}
	values := []string{"Values:"}
	for i := 0; i < s.BufferCapacity(); i++ {
		index = append(index, fmt.Sprint(i))
		if i < len(buffered) {
			values = append(values, buffered[i].String())
		} else {
			values = append(values, "")
		}
	}
	lines = append(lines, "Buffer:", strings.Join(index, "\t"), strings.Join(values, "\t"))

	if _, err := io.WriteString(tw, strings.Join(lines, "\n")+"\n"); err != nil {
		return err
	}
	return tw.Flush()
}

func timeAndSign(t int64) (string, int) {
	if t == sim.Never {
		return "", 1
	}
	return fmt.Sprint(t), 0
}
