package portwatch

import (
	"reflect"
	"testing"
)

func TestHistoryRoundTrip(t *testing.T) {
	history := NewHistory(INMEMORY_DATABASE)

	snap := sampleSnapshot()
	if err := history.SaveSnapshot(snap); err != nil {
		t.Fatalf("failed to save snapshot: %v", err)
	}

	records, err := history.Snapshots(10)
	if err != nil {
		t.Fatalf("failed to list snapshots: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.SnapshotID != snap.ID {
		t.Errorf("expected id %s, got %s", snap.ID, rec.SnapshotID)
	}
	if rec.StartPort != snap.Spec.Start || rec.EndPort != snap.Spec.End {
		t.Errorf("stored range %d-%d does not match %v", rec.StartPort, rec.EndPort, snap.Spec)
	}
	if rec.OpenPorts != snap.Count(PortOpen) {
		t.Errorf("expected %d open ports, got %d", snap.Count(PortOpen), rec.OpenPorts)
	}

	loaded, err := history.Snapshot(snap.ID)
	if err != nil {
		t.Fatalf("failed to load snapshot: %v", err)
	}
	if !reflect.DeepEqual(loaded.Results, snap.Results) {
		t.Errorf("results changed through storage:\n%+v\nvs\n%+v", snap.Results, loaded.Results)
	}
}

func TestHistoryUnknownSnapshot(t *testing.T) {
	history := NewHistory(INMEMORY_DATABASE)

	if _, err := history.Snapshot("no-such-id"); err == nil {
		t.Fatal("expected an error for an unknown snapshot id")
	}
}

func TestHistoryLimit(t *testing.T) {
	history := NewHistory(INMEMORY_DATABASE)

	for i := 0; i < 5; i++ {
		if err := history.SaveSnapshot(sampleSnapshot()); err != nil {
			t.Fatalf("failed to save snapshot: %v", err)
		}
	}

	records, err := history.Snapshots(3)
	if err != nil {
		t.Fatalf("failed to list snapshots: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
}
