package report

import (
	"testing"
	"time"

	"weatherreport/internal/models"
)

func alignedResponse(offset time.Duration, times ...time.Time) *models.Response {
	items := make([]models.Item, 0, len(times))
	for i, ts := range times {
		items = append(items, item(ts, 20+float64(i), 3, 5))
	}
	return &models.Response{Items: items, UTCOffset: offset}
}

func TestAlignExactHours(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	a := alignedResponse(2*time.Hour, base, base.Add(time.Hour), base.Add(2*time.Hour))
	now := base.Add(20 * time.Minute)

	rows := Align([]*models.Response{a}, now, 3)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	// Grid hours are in the first response's local zone.
	if h := rows[0].Time.Hour(); h != 12 {
		t.Errorf("row 0 local hour = %d, want 12", h)
	}
	for i, row := range rows {
		cell := row.Cells[0]
		if !cell.OK {
			t.Fatalf("row %d cell empty", i)
		}
		if cell.Temp != 20+i {
			t.Errorf("row %d temp = %d, want %d", i, cell.Temp, 20+i)
		}
	}
}

func TestAlignOffGridItemsSkipped(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	onGrid := alignedResponse(0, base, base.Add(time.Hour), base.Add(2*time.Hour))
	// Items at :15 and :45 never match a grid hour.
	offGrid := alignedResponse(0, base.Add(15*time.Minute), base.Add(45*time.Minute))

	rows := Align([]*models.Response{onGrid, offGrid}, base, 3)
	for i, row := range rows {
		if !row.Cells[0].OK {
			t.Errorf("row %d: on-grid provider missing", i)
		}
		if row.Cells[1].OK {
			t.Errorf("row %d: off-grid item matched hour %v", i, row.Time)
		}
	}
}

func TestAlignCursorNeverRegresses(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	primary := alignedResponse(0, base, base.Add(time.Hour), base.Add(2*time.Hour))
	// Sparse provider: an early off-grid item, then an exact match later.
	sparse := alignedResponse(0, base.Add(30*time.Minute), base.Add(2*time.Hour))

	rows := Align([]*models.Response{primary, sparse}, base, 3)
	if rows[0].Cells[1].OK || rows[1].Cells[1].OK {
		t.Errorf("sparse provider matched too early: %+v", rows)
	}
	if !rows[2].Cells[1].OK {
		t.Errorf("sparse provider's exact match at +2h was lost")
	}
}

func TestAlignCoarserStep(t *testing.T) {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	hourly := alignedResponse(0,
		base, base.Add(time.Hour), base.Add(2*time.Hour), base.Add(3*time.Hour))
	// Three-hour steps fill every third row only.
	threeHourly := alignedResponse(0, base, base.Add(3*time.Hour), base.Add(6*time.Hour))

	rows := Align([]*models.Response{hourly, threeHourly}, base, 4)
	wantOK := []bool{true, false, false, true}
	for i, row := range rows {
		if row.Cells[1].OK != wantOK[i] {
			t.Errorf("row %d three-hourly ok = %v, want %v", i, row.Cells[1].OK, wantOK[i])
		}
	}
}

func TestAlignEmpty(t *testing.T) {
	if rows := Align(nil, time.Now(), 12); rows != nil {
		t.Errorf("rows = %v, want nil", rows)
	}
	if rows := Align([]*models.Response{{}}, time.Now(), 0); rows != nil {
		t.Errorf("rows = %v, want nil", rows)
	}
}
