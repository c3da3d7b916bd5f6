package color

import (
	"strings"
	"testing"
)

func withState(t *testing.T, enabled bool) {
	t.Helper()
	origEnabled := state.enabled.Load()
	origOverridden := state.overridden.Load()
	if enabled {
		Enable()
	} else {
		Disable()
	}
	t.Cleanup(func() {
		state.enabled.Store(origEnabled)
		state.overridden.Store(origOverridden)
	})
}

func TestEnableDisable(t *testing.T) {
	withState(t, true)
	if !Enabled() {
		t.Error("expected colors to be enabled after Enable()")
	}
	Disable()
	if Enabled() {
		t.Error("expected colors to be disabled after Disable()")
	}
}

func TestFormattersEnabled(t *testing.T) {
	withState(t, true)
	if got := Error("boom"); got != Red+"boom"+Reset {
		t.Errorf("unexpected Error output: %q", got)
	}
	if got := Successf("%d done", 2); got != Green+"2 done"+Reset {
		t.Errorf("unexpected Successf output: %q", got)
	}
	if got := Warningf("%s", "careful"); !strings.HasPrefix(got, Yellow) {
		t.Errorf("unexpected Warningf output: %q", got)
	}
	if got := Header("H"); got != Bold+"H"+Reset {
		t.Errorf("unexpected Header output: %q", got)
	}
}

func TestFormattersDisabled(t *testing.T) {
	withState(t, false)
	for _, got := range []string{Error("x"), Success("x"), Warning("x"), Dim("x"), Status("notified", "x")} {
		if got != "x" {
			t.Errorf("expected plain text, got %q", got)
		}
	}
}

func TestStatus(t *testing.T) {
	withState(t, true)
	if got := Status("notified", "Notified"); got != Red+"Notified"+Reset {
		t.Errorf("unexpected status color: %q", got)
	}
	if got := Status("archived", "Unknown"); got != "Unknown" {
		t.Errorf("unknown status should stay plain, got %q", got)
	}
}
