package report

import (
	"time"

	"weatherreport/internal/models"
)

// MaxAlignedHours is the number of hour rows in a combined grid.
const MaxAlignedHours = 12

// Cell is one provider's reading for a grid hour. OK is false when the
// provider has no item for exactly that hour.
type Cell struct {
	Time      time.Time
	Kind      models.Kind
	Temp      int
	Wind      float64
	WindLevel int
	OK        bool
}

// Row is one grid hour across all providers. Time is the hour in the first
// response's local zone; Cells is parallel to the responses passed to Align.
type Row struct {
	Time  time.Time
	Cells []Cell
}

// Align merges several providers' hourly forecasts into a grid of up to
// maxHours rows starting at the current local hour of the first response.
// Each provider is walked with a forward-only cursor: items earlier than the
// row's hour are skipped, an exact match fills the cell, a later item leaves
// it empty without moving the cursor. Providers with gaps or coarser steps
// simply produce empty cells.
func Align(responses []*models.Response, now time.Time, maxHours int) []Row {
	if len(responses) == 0 || maxHours <= 0 {
		return nil
	}

	local := responses[0].Local(now)
	start := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, local.Location())

	cursors := make([]int, len(responses))
	rows := make([]Row, 0, maxHours)
	for idx := 0; idx < maxHours; idx++ {
		target := start.Add(time.Duration(idx) * time.Hour)
		row := Row{Time: target, Cells: make([]Cell, len(responses))}

		for i, resp := range responses {
			cur := &cursors[i]
			for *cur < len(resp.Items) && resp.Items[*cur].Time.Before(target) {
				*cur++
			}
			if *cur >= len(resp.Items) || !resp.Items[*cur].Time.Equal(target) {
				continue
			}
			item := &resp.Items[*cur]
			wind := item.PrimaryWind()
			row.Cells[i] = Cell{
				Time:      item.Time,
				Kind:      item.Kind,
				Temp:      roundTemp(item.PrimaryTemperature()),
				Wind:      wind,
				WindLevel: models.WindLevel(wind),
				OK:        true,
			}
			*cur++
		}
		rows = append(rows, row)
	}
	return rows
}
