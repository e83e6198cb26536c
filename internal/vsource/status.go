// internal/vsource/status.go
package vsource

import (
	"fmt"
	"strconv"
	"strings"
)

// ChannelStatus is one row of the instrument's batched status table.
type ChannelStatus struct {
	Voltage      float64
	VoltageRange int    // full-scale volts: 10 or 1
	CurrentRange string // "pA" or "nA"
}

// The status reply opens with a software version line, then a
// tab-separated header, then one line per channel in arbitrary order.
const statusVersionPrefix = "Software Version: "

// voltage range as printed in the status table -> full-scale volts
var statusVoltageRanges = map[string]int{
	"X 1":   10,
	"X 0.1": 1,
}

// parseStatusHeader validates the table header line.
func parseStatusHeader(line string) error {
	got := strings.Split(strings.ToLower(strings.TrimRight(line, "\r\n")), "\t")
	want := []string{"channel", "out v", "", "voltage range", "current range"}
	if len(got) != len(want) {
		return fmt.Errorf("vsource: unrecognized status header %q", line)
	}
	for i := range want {
		if strings.TrimSpace(got[i]) != want[i] {
			return fmt.Errorf("vsource: unrecognized status header %q", line)
		}
	}
	return nil
}

// parseStatusRow parses one channel line:
//
//	<chan>\t<volts>\t\t<vrange>\t<irange>
func parseStatusRow(line string) (int, ChannelStatus, error) {
	fields := strings.Split(strings.TrimSpace(line), "\t")
	if len(fields) != 5 {
		return 0, ChannelStatus{}, fmt.Errorf("vsource: bad status row %q", line)
	}

	ch, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return 0, ChannelStatus{}, fmt.Errorf("vsource: bad channel in row %q: %w", line, err)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return 0, ChannelStatus{}, fmt.Errorf("vsource: bad voltage in row %q: %w", line, err)
	}

	vrange, ok := statusVoltageRanges[strings.TrimSpace(fields[3])]
	if !ok {
		return 0, ChannelStatus{}, fmt.Errorf("vsource: bad voltage range in row %q", line)
	}

	return ch, ChannelStatus{
		Voltage:      v,
		VoltageRange: vrange,
		CurrentRange: strings.TrimSpace(fields[4]),
	}, nil
}
