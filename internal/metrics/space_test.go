package metrics

import "testing"

func TestParseDf(t *testing.T) {
	raw := "Filesystem     1K-blocks    Used Available Use% Mounted on\n" +
		"/dev/sda1       20514332 8214332  11238000  43% /\n"

	m := parseDf(raw)
	if m.Total != 20514332 {
		t.Errorf("total = %v, want 20514332", m.Total)
	}
	wantUsed := uint64(20514332 - 11238000)
	if m.Used != wantUsed {
		t.Errorf("used = %v, want %v", m.Used, wantUsed)
	}
}

func TestParseDfEmpty(t *testing.T) {
	if m := parseDf("   \n\n"); m != (SpaceMetrics{}) {
		t.Fatalf("expected zero value for blank input, got %+v", m)
	}
}
