package metrics

import (
	"encoding/json"
	"fmt"
)

// View is a subscription resolution: the buffered/broadcast cadence a
// WebSocket client has asked to receive.
type View int

const (
	ViewOneSecond View = iota
	ViewFiveSeconds
	ViewFifteenSeconds
)

func (v View) String() string {
	switch v {
	case ViewFiveSeconds:
		return "OverviewFiveSeconds"
	case ViewFifteenSeconds:
		return "OverviewFifteenSeconds"
	default:
		return "OverviewOneSecond"
	}
}

// MarshalJSON implements json.Marshaler.
func (v View) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *View) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseView(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseView parses one of the three wire strings.
func ParseView(s string) (View, error) {
	switch s {
	case "OverviewOneSecond":
		return ViewOneSecond, nil
	case "OverviewFiveSeconds":
		return ViewFiveSeconds, nil
	case "OverviewFifteenSeconds":
		return ViewFifteenSeconds, nil
	default:
		return 0, fmt.Errorf("unknown subscribe_to view: %q", s)
	}
}

// Seconds returns the broadcast/rollup interval this view represents.
func (v View) Seconds() int {
	switch v {
	case ViewFiveSeconds:
		return 5
	case ViewFifteenSeconds:
		return 15
	default:
		return 1
	}
}
