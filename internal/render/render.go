// Package render draws an aligned multi-provider forecast grid as a PNG.
package render

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"weatherreport/internal/i18n"
	"weatherreport/internal/report"
)

const (
	timeColWidth = 100.0
	colWidth     = 190.0
	rowHeight    = 30.0
	padSide      = 5.0
	textBaseline = 21.0
)

var (
	backgroundColor = color.RGBA{245, 245, 245, 255}
	textColor       = color.RGBA{100, 100, 100, 255}
	rowColorOdd     = color.RGBA{255, 255, 255, 255}
	rowColorEven    = color.RGBA{230, 230, 230, 255}
)

// Renderer draws report grids, resolving labels through the catalog. The
// bitmap font only carries ASCII glyphs, so the combined.* catalog entries
// must stay ASCII.
type Renderer struct {
	catalog *i18n.Catalog
}

// New returns a Renderer over the given catalog.
func New(catalog *i18n.Catalog) *Renderer {
	return &Renderer{catalog: catalog}
}

// Grid renders the aligned rows as a PNG table: a time column plus one column
// per provider, named by columns. columns must be parallel to the cells in
// each row.
func (rd *Renderer) Grid(rows []report.Row, columns []string, lang string) ([]byte, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("render: no rows")
	}
	if len(columns) != len(rows[0].Cells) {
		return nil, fmt.Errorf("render: %d column names for %d columns", len(columns), len(rows[0].Cells))
	}

	rowWidth := timeColWidth + colWidth*float64(len(columns))
	dc := gg.NewContext(int(rowWidth+padSide), int(rowHeight*float64(len(rows)+1)+padSide))
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(backgroundColor)
	dc.Clear()

	// Header row.
	dc.SetColor(textColor)
	dc.DrawString(rd.catalog.Get(lang, "combined.time_header"), padSide*2, 20)
	for i, name := range columns {
		dc.DrawString(name, timeColWidth+colWidth*float64(i), 20)
	}

	for idx, row := range rows {
		top := rowHeight + float64(idx)*rowHeight

		if idx%2 == 0 {
			dc.SetColor(rowColorEven)
		} else {
			dc.SetColor(rowColorOdd)
		}
		dc.DrawRectangle(padSide, top, rowWidth-padSide, rowHeight)
		dc.Fill()

		dc.SetColor(textColor)
		dc.DrawString(rd.catalog.Get(lang, "combined.time", row.Time.Hour()), padSide*2, top+textBaseline)

		for i, cell := range row.Cells {
			if !cell.OK {
				continue
			}
			left := timeColWidth + colWidth*float64(i)
			dc.DrawString(rd.catalog.Get(lang, "combined.temp", cell.Temp), left, top+textBaseline)
			dc.DrawString(rd.catalog.Get(lang, "combined.wind", cell.Wind, cell.WindLevel), left+60, top+textBaseline)
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("render: encode: %w", err)
	}
	return buf.Bytes(), nil
}
