// internal/vsource/driver_test.go
package vsource

import (
	"errors"
	"testing"
	"time"
)

// fakeLink scripts the instrument side: one reply per query command and
// a line queue for the batched status reply.
type fakeLink struct {
	t       *testing.T
	replies map[string]string
	lines   []string
	writes  []string

	statusReads int
}

func (f *fakeLink) Query(cmd string) (string, error) {
	if cmd == "status" {
		f.statusReads++
		f.lines = statusLines(f.t)
		return "Software Version: 0.170202", nil
	}
	reply, ok := f.replies[cmd]
	if !ok {
		f.t.Fatalf("unexpected query %q", cmd)
	}
	return reply, nil
}

func (f *fakeLink) Send(cmd string) error {
	f.writes = append(f.writes, cmd)
	return nil
}

func (f *fakeLink) ReadLine() (string, error) {
	if len(f.lines) == 0 {
		return "", errors.New("fake: read past end of reply")
	}
	line := f.lines[0]
	f.lines = f.lines[1:]
	return line, nil
}

// statusLines is a 4-channel table in the instrument's peculiar order,
// with a blank spacer line.
func statusLines(t *testing.T) []string {
	t.Helper()
	return []string{
		"Channel\tOut V\t\tVoltage range\tCurrent range",
		"",
		"4\t  0.000000\t\tX 1\tpA",
		"3\t  0.125000\t\tX 0.1\tnA",
		"1\t -2.500000\t\tX 1\tpA",
		"2\t  0.000000\t\tX 1\tpA",
	}
}

func testSource(t *testing.T, link Link, maxAge time.Duration) *Driver {
	t.Helper()
	d, err := New(link, Config{Channels: 4, StatusMaxAge: maxAge})
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	return d
}

func TestRefreshStatus(t *testing.T) {
	link := &fakeLink{t: t}
	d := testSource(t, link, time.Hour)

	if err := d.RefreshStatus(); err != nil {
		t.Fatalf("RefreshStatus err=%v", err)
	}
	if d.Version() != "0.170202" {
		t.Fatalf("version = %q", d.Version())
	}
	if d.StatusObserved().IsZero() {
		t.Fatalf("observed timestamp not set")
	}

	v, err := d.Voltage(1)
	if err != nil {
		t.Fatalf("Voltage err=%v", err)
	}
	if v != -2.5 {
		t.Fatalf("chan 1 voltage = %g, want -2.5", v)
	}

	vr, err := d.VoltageRange(3)
	if err != nil {
		t.Fatalf("VoltageRange err=%v", err)
	}
	if vr != 1 {
		t.Fatalf("chan 3 range = %d, want 1", vr)
	}
}

func TestVoltage_ServedFromFreshCache(t *testing.T) {
	link := &fakeLink{t: t}
	d := testSource(t, link, time.Hour)

	for i := 0; i < 3; i++ {
		if _, err := d.Voltage(2); err != nil {
			t.Fatalf("Voltage err=%v", err)
		}
	}
	if link.statusReads != 1 {
		t.Fatalf("status read %d times, want 1", link.statusReads)
	}
}

func TestVoltage_ZeroMaxAgeNeverCaches(t *testing.T) {
	link := &fakeLink{t: t}
	d := testSource(t, link, 0)

	for i := 0; i < 3; i++ {
		if _, err := d.Voltage(2); err != nil {
			t.Fatalf("Voltage err=%v", err)
		}
	}
	if link.statusReads != 3 {
		t.Fatalf("status read %d times, want 3", link.statusReads)
	}
}

func TestSetVoltage(t *testing.T) {
	link := &fakeLink{t: t}
	d := testSource(t, link, time.Hour)

	if err := d.SetVoltage(2, 0.25); err != nil {
		t.Fatalf("SetVoltage err=%v", err)
	}
	if len(link.writes) != 1 || link.writes[0] != "set 2 0.250000" {
		t.Fatalf("writes = %v", link.writes)
	}

	if err := d.SetVoltage(5, 0.25); err == nil {
		t.Fatalf("channel 5 accepted on 4-channel source")
	}
	if err := d.SetVoltage(1, 12); err == nil {
		t.Fatalf("voltage 12 V accepted")
	}
}

func TestSetRanges(t *testing.T) {
	link := &fakeLink{t: t}
	d := testSource(t, link, time.Hour)

	if err := d.SetVoltageRange(1, 1); err != nil {
		t.Fatalf("SetVoltageRange err=%v", err)
	}
	if err := d.SetCurrentRange(1, "nA"); err != nil {
		t.Fatalf("SetCurrentRange err=%v", err)
	}
	want := []string{"vol 1 1", "cur 1 1"}
	if len(link.writes) != 2 || link.writes[0] != want[0] || link.writes[1] != want[1] {
		t.Fatalf("writes = %v, want %v", link.writes, want)
	}

	if err := d.SetVoltageRange(1, 5); err == nil {
		t.Fatalf("5 V range accepted")
	}
	if err := d.SetCurrentRange(1, "mA"); err == nil {
		t.Fatalf("mA range accepted")
	}
}

func TestCurrentAndTemperature(t *testing.T) {
	link := &fakeLink{t: t, replies: map[string]string{
		"get 3":   "1.2e-9",
		"tem 0 1": "24.5",
	}}
	d := testSource(t, link, time.Hour)

	i, err := d.Current(3)
	if err != nil || i != 1.2e-9 {
		t.Fatalf("Current = %g, %v", i, err)
	}
	temp, err := d.Temperature(0, 1)
	if err != nil || temp != 24.5 {
		t.Fatalf("Temperature = %g, %v", temp, err)
	}

	if _, err := d.Temperature(6, 0); err == nil {
		t.Fatalf("board 6 accepted")
	}
}

func TestRefreshStatus_BadVersionLine(t *testing.T) {
	link := &badVersionLink{}
	d := testSource(t, link, time.Hour)

	if err := d.RefreshStatus(); err == nil {
		t.Fatalf("bad version line accepted")
	}
}

type badVersionLink struct{}

func (badVersionLink) Query(string) (string, error) { return "garbage", nil }
func (badVersionLink) Send(string) error            { return nil }
func (badVersionLink) ReadLine() (string, error)    { return "", errors.New("no more") }
