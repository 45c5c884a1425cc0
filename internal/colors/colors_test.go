package colors

import "testing"

func TestColorToggle(t *testing.T) {
	prev := IsColorEnabled()
	defer SetColorEnabled(prev)

	SetColorEnabled(false)
	if got := Tip("3-abcd"); got != "3-abcd" {
		t.Errorf("plain Tip = %q", got)
	}

	SetColorEnabled(true)
	if got := Orphan("x"); got != ColorYellow+"x"+ColorReset {
		t.Errorf("Orphan = %q", got)
	}
	if got := Root("r"); got != ColorBold+ColorCyan+"r"+ColorReset+ColorReset {
		t.Errorf("Root = %q", got)
	}
}
