// Package report renders the complaints appended during a run as a PNG
// table for the Telegram run summary.
package report

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"os"
	"runtime"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"github.com/rotisserie/eris"

	"complaintsync/internal/complaint"
)

// Rendered at 2x scale so the image stays readable after Telegram
// recompresses it.
const (
	cellPaddingX  = 20
	cellPaddingY  = 16
	minRowHeight  = 76
	headerHeight  = 88
	fontSize      = 26
	headerFontSz  = 26
	titleFontSz   = 40
	titlePadding  = 110
	footerPadding = 80
	minColWidth   = 110
	maxCellRunes  = 400
)

var (
	bgColor         = color.RGBA{R: 245, G: 247, B: 250, A: 255}
	titleColor      = color.RGBA{R: 30, G: 41, B: 59, A: 255}
	headerBgColor   = color.RGBA{R: 234, G: 88, B: 12, A: 255}
	headerTextColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	rowEvenColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	rowOddColor     = color.RGBA{R: 255, G: 247, B: 237, A: 255}
	textColor       = color.RGBA{R: 30, G: 41, B: 59, A: 255}
	borderColor     = color.RGBA{R: 203, G: 213, B: 225, A: 255}
	footerColor     = color.RGBA{R: 100, G: 116, B: 139, A: 255}
)

type column struct {
	header   string
	field    func(r *complaint.Record) string
	maxWidth float64 // 0 means auto
}

var columns = []column{
	{"Outlet", func(r *complaint.Record) string { return r.OutletID }, 0},
	{"Complaint ID", func(r *complaint.Record) string { return r.ComplaintID }, 0},
	{"Reason", func(r *complaint.Record) string { return r.Reason }, 320},
	{"Time", func(r *complaint.Record) string { return r.Timestamp }, 300},
	{"Refund", func(r *complaint.Record) string { return r.RefundAmount }, 0},
	{"Customer", func(r *complaint.Record) string { return r.CustomerName }, 240},
	{"Description", func(r *complaint.Record) string { return r.Description }, 520},
}

// findFont returns the first DejaVu (or Arial on Windows) font present, or
// "" when none is installed.
func findFont(bold bool) string {
	var candidates []string
	if runtime.GOOS == "windows" {
		winRoot := os.Getenv("WINDIR")
		if winRoot == "" {
			winRoot = `C:\Windows`
		}
		if bold {
			candidates = []string{winRoot + `\Fonts\arialbd.ttf`}
		} else {
			candidates = []string{winRoot + `\Fonts\arial.ttf`}
		}
	} else if bold {
		candidates = []string{
			"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
			"/usr/share/fonts/TTF/DejaVuSans-Bold.ttf",
			"/usr/share/fonts/dejavu/DejaVuSans-Bold.ttf",
		}
	} else {
		candidates = []string{
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/TTF/DejaVuSans.ttf",
			"/usr/share/fonts/dejavu/DejaVuSans.ttf",
		}
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// useFont loads the font at path, keeping the current face when the file
// is missing or unreadable. gg starts with a built-in bitmap face.
func useFont(dc *gg.Context, path string, size float64) {
	if path == "" {
		return
	}
	_ = dc.LoadFontFace(path, size)
}

// wrapText splits text into lines no wider than maxWidth.
func wrapText(dc *gg.Context, text string, maxWidth float64) []string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))

	if maxWidth <= 0 {
		return []string{text}
	}
	if w, _ := dc.MeasureString(text); w <= maxWidth {
		return []string{text}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if w, _ := dc.MeasureString(candidate); w > maxWidth {
			lines = append(lines, current)
			current = word
		} else {
			current = candidate
		}
	}
	return append(lines, current)
}

func computeRowHeights(dc *gg.Context, records []complaint.Record, colWidths []float64) []float64 {
	_, lineH := dc.MeasureString("Ay")
	lineSpacing := lineH + 4

	heights := make([]float64, len(records))
	for rowIdx := range records {
		maxLines := 1
		for i, col := range columns {
			wrapped := wrapText(dc, cell(&records[rowIdx], col), colWidths[i]-cellPaddingX*2)
			if len(wrapped) > maxLines {
				maxLines = len(wrapped)
			}
		}
		heights[rowIdx] = max(float64(maxLines)*lineSpacing+cellPaddingY*2, minRowHeight)
	}
	return heights
}

func cell(r *complaint.Record, col column) string {
	return truncate(col.field(r), maxCellRunes)
}

// RenderTable draws records as a table under title and returns PNG bytes.
// Rows are grouped by outlet, keeping their order within an outlet. The
// caller's slice is not modified.
func RenderTable(records []complaint.Record, title string) ([]byte, error) {
	if len(records) == 0 {
		return nil, eris.New("no complaints to render")
	}

	rows := make([]complaint.Record, len(records))
	copy(rows, records)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].OutletID < rows[j].OutletID
	})

	boldFont := findFont(true)
	regularFont := findFont(false)

	// Measure column widths.
	tmpDC := gg.NewContext(1, 1)
	useFont(tmpDC, boldFont, headerFontSz)

	colWidths := make([]float64, len(columns))
	for i, col := range columns {
		w, _ := tmpDC.MeasureString(col.header)
		colWidths[i] = max(w+cellPaddingX*2+4, minColWidth)
	}

	useFont(tmpDC, regularFont, fontSize)
	for r := range rows {
		for i, col := range columns {
			w, _ := tmpDC.MeasureString(cell(&rows[r], col))
			colWidths[i] = max(colWidths[i], w+cellPaddingX*2+4)
		}
	}
	for i, col := range columns {
		if col.maxWidth > 0 && colWidths[i] > col.maxWidth {
			colWidths[i] = col.maxWidth
		}
	}

	rowHeights := computeRowHeights(tmpDC, rows, colWidths)

	var totalWidth, totalRowHeight float64
	for _, w := range colWidths {
		totalWidth += w
	}
	for _, h := range rowHeights {
		totalRowHeight += h
	}

	canvasWidth := totalWidth + 80
	canvasHeight := titlePadding + headerHeight + totalRowHeight + footerPadding

	dc := gg.NewContext(int(canvasWidth), int(canvasHeight))
	dc.SetColor(bgColor)
	dc.Clear()

	useFont(dc, boldFont, titleFontSz)
	dc.SetColor(titleColor)
	dc.DrawStringAnchored(title, canvasWidth/2, titlePadding/2+2, 0.5, 0.5)

	tableX := 40.0
	tableY := float64(titlePadding)

	dc.SetColor(headerBgColor)
	dc.DrawRoundedRectangle(tableX, tableY, totalWidth, headerHeight, 16)
	dc.Fill()

	useFont(dc, boldFont, headerFontSz)
	dc.SetColor(headerTextColor)
	x := tableX
	for i, col := range columns {
		dc.DrawStringAnchored(col.header, x+colWidths[i]/2, tableY+headerHeight/2, 0.5, 0.5)
		x += colWidths[i]
	}

	useFont(dc, regularFont, fontSize)
	_, lineH := dc.MeasureString("Ay")
	lineSpacing := lineH + 4
	curY := tableY + headerHeight

	for rowIdx := range rows {
		rh := rowHeights[rowIdx]

		if rowIdx%2 == 0 {
			dc.SetColor(rowEvenColor)
		} else {
			dc.SetColor(rowOddColor)
		}
		dc.DrawRectangle(tableX, curY, totalWidth, rh)
		dc.Fill()

		dc.SetColor(borderColor)
		dc.SetLineWidth(0.5)
		dc.DrawLine(tableX, curY+rh, tableX+totalWidth, curY+rh)
		dc.Stroke()

		dc.SetColor(textColor)
		x := tableX
		for i, col := range columns {
			wrapped := wrapText(dc, cell(&rows[rowIdx], col), colWidths[i]-cellPaddingX*2)
			startY := curY + (rh-float64(len(wrapped))*lineSpacing)/2 + lineH
			for lineIdx, line := range wrapped {
				dc.DrawString(line, x+cellPaddingX, startY+float64(lineIdx)*lineSpacing)
			}
			x += colWidths[i]
		}
		curY += rh
	}

	dc.SetColor(borderColor)
	dc.SetLineWidth(1)
	totalTableH := headerHeight + totalRowHeight
	dc.DrawRoundedRectangle(tableX, tableY, totalWidth, totalTableH, 16)
	dc.Stroke()

	dc.SetLineWidth(0.5)
	x = tableX
	for i := 0; i < len(columns)-1; i++ {
		x += colWidths[i]
		dc.DrawLine(x, tableY+headerHeight, x, tableY+totalTableH)
		dc.Stroke()
	}

	useFont(dc, regularFont, 24)
	dc.SetColor(footerColor)
	footer := fmt.Sprintf("Total: %d new open complaints", len(rows))
	dc.DrawStringAnchored(footer, canvasWidth/2, canvasHeight-30, 0.5, 0.5)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, eris.Wrap(err, "encode png")
	}
	return buf.Bytes(), nil
}

func truncate(s string, maxLen int) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if utf8.RuneCountInString(s) > maxLen {
		return string([]rune(s)[:maxLen]) + "…"
	}
	return s
}
