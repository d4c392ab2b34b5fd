package metrics

import (
	"encoding/json"
	"testing"
)

func TestViewJSONRoundTrip(t *testing.T) {
	for _, v := range []View{ViewOneSecond, ViewFiveSeconds, ViewFifteenSeconds} {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal %v: %v", v, err)
		}
		var got View
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if got != v {
			t.Errorf("round trip mismatch: %v -> %s -> %v", v, data, got)
		}
	}
}

func TestParseViewUnknown(t *testing.T) {
	if _, err := ParseView("bogus"); err == nil {
		t.Fatal("expected an error for an unknown view string")
	}
}

type subscribeCommand struct {
	SubscribeTo View `json:"subscribe_to"`
}

func TestSubscribeCommandJSON(t *testing.T) {
	var cmd subscribeCommand
	if err := json.Unmarshal([]byte(`{"subscribe_to":"OverviewFiveSeconds"}`), &cmd); err != nil {
		t.Fatal(err)
	}
	if cmd.SubscribeTo != ViewFiveSeconds {
		t.Fatalf("got %v, want ViewFiveSeconds", cmd.SubscribeTo)
	}
}
