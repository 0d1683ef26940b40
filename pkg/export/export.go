// Package export renders an assignment set for downstream consumers: JSON
// for tooling, CSV for the depot planning sheets.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/fleetroster/rosterd/core/model"
)

// WriteJSON writes the assignment set to w in JSON format.
func WriteJSON(w io.Writer, set model.AssignmentSet) error {
	enc := json.NewEncoder(w)
	return enc.Encode(set)
}

// WriteCSV writes the assignment set to w with the planning sheet headers.
// Rows follow the set order, so a canonically sorted set round-trips stably.
func WriteCSV(w io.Writer, set model.AssignmentSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"driver_id", "tour_id", "day", "start", "end", "block_kind"}); err != nil {
		return err
	}
	for _, a := range set {
		rec := []string{
			a.DriverID,
			a.Tour.ID,
			strconv.Itoa(a.Day),
			a.Tour.Start.Format(time.RFC3339),
			a.Tour.End.Format(time.RFC3339),
			a.BlockKind.String(),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
