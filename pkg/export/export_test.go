package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fleetroster/rosterd/core/model"
)

func sampleSet() model.AssignmentSet {
	start := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)
	return model.AssignmentSet{
		{
			DriverID:  "D1",
			Day:       1,
			BlockKind: model.BlockPairedRegular,
			Tour:      model.TourInstance{ID: "T1", Day: 1, Start: start, End: start.Add(4 * time.Hour)},
		},
		{
			DriverID:  "D1",
			Day:       1,
			BlockKind: model.BlockPairedRegular,
			Tour:      model.TourInstance{ID: "T2", Day: 1, Start: start.Add(270 * time.Minute), End: start.Add(510 * time.Minute)},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleSet()); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "driver_id,tour_id,day,start,end,block_kind" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "D1,T1,1,2026-03-02T06:00:00Z") {
		t.Fatalf("unexpected first row %q", lines[1])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleSet()); err != nil {
		t.Fatalf("write json: %v", err)
	}
	var out model.AssignmentSet
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 || out[0].DriverID != "D1" {
		t.Fatalf("unexpected decode: %+v", out)
	}
}
