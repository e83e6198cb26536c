// internal/magnet/state_test.go
package magnet

import "testing"

func TestDecodeState(t *testing.T) {
	cases := []struct {
		reply string
		want  RampState
	}{
		{"1", StateRamping},
		{"2", StateHolding},
		{"3", StatePaused},
		{"6", StateZeroingCurrent},
		{"7", StateQuenchDetected},
		{"10\n", StateCoolingSwitch},
		{" 9 ", StateHeatingSwitch},
	}
	for _, c := range cases {
		got, err := decodeState(c.reply)
		if err != nil {
			t.Fatalf("decodeState(%q) err=%v", c.reply, err)
		}
		if got != c.want {
			t.Fatalf("decodeState(%q) = %v, want %v", c.reply, got, c.want)
		}
	}
}

func TestDecodeState_Rejects(t *testing.T) {
	for _, reply := range []string{"", "0", "11", "-1", "holding", "2.0"} {
		if _, err := decodeState(reply); err == nil {
			t.Fatalf("decodeState(%q) accepted", reply)
		}
	}
}

func TestDecodeFlag(t *testing.T) {
	if v, err := decodeFlag("0\n"); err != nil || v {
		t.Fatalf("decodeFlag(0) = %t, %v", v, err)
	}
	if v, err := decodeFlag(" 1"); err != nil || !v {
		t.Fatalf("decodeFlag(1) = %t, %v", v, err)
	}
	if _, err := decodeFlag("2"); err == nil {
		t.Fatalf("decodeFlag(2) accepted")
	}
	if _, err := decodeFlag("true"); err == nil {
		t.Fatalf("decodeFlag(true) accepted")
	}
}
