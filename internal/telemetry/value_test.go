package telemetry

import (
	"encoding/json"
	"testing"
)

func TestSnapshotAccessorsFailSoft(t *testing.T) {
	snap := Snapshot{
		"Speed": Number(25),
		"Name":  Text("Class 323"),
	}

	if got := snap.Num("Speed"); got != 25 {
		t.Errorf("Num(Speed) = %v, want 25", got)
	}
	if got := snap.Num("Missing"); got != 0 {
		t.Errorf("Num(Missing) = %v, want 0", got)
	}
	if got := snap.Num("Name"); got != 0 {
		t.Errorf("Num on text field = %v, want 0", got)
	}
	if got := snap.NumOr("Missing", 0.2); got != 0.2 {
		t.Errorf("NumOr(Missing, 0.2) = %v, want 0.2", got)
	}
	if got := snap.NumOr("Name", -1); got != -1 {
		t.Errorf("NumOr on text field = %v, want -1", got)
	}
	if got := snap.Str("Name"); got != "Class 323" {
		t.Errorf("Str(Name) = %q", got)
	}
	if got := snap.Str("Speed"); got != "" {
		t.Errorf("Str on numeric field = %q, want empty", got)
	}
}

func TestValueJSON(t *testing.T) {
	snap := Snapshot{"Speed": Number(60.5), "Name": Text("unit 323-223")}
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}

	var back Snapshot
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Num("Speed") != 60.5 || back.Str("Name") != "unit 323-223" {
		t.Errorf("round trip mismatch: %v", back)
	}
}
