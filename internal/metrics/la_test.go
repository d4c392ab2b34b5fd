package metrics

import "testing"

func TestParseLoadAverage(t *testing.T) {
	got := parseLoadAverage("53.99 24.51 14.20 51/9958 41299")
	if got != 53.99 {
		t.Errorf("load_average = %v, want 53.99", got)
	}
}

func TestParseLoadAverageEmpty(t *testing.T) {
	if got := parseLoadAverage(""); got != 0 {
		t.Errorf("load_average = %v, want 0 for empty input", got)
	}
}
