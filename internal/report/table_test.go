package report

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/fogleman/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaintsync/internal/complaint"
)

func TestRenderTable_ProducesPNG(t *testing.T) {
	records := []complaint.Record{
		{OutletID: "57750", ComplaintID: "2", Reason: "Missing item", Status: "OPEN", Timestamp: "09:12 PM | Friday, Jul 19"},
		{OutletID: "19595894", ComplaintID: "1", Reason: "Order was delivered late", Status: "OPEN",
			Description: strings.Repeat("Food arrived cold and the packaging was damaged. ", 8), RefundAmount: "₹250"},
	}
	before := append([]complaint.Record(nil), records...)

	data, err := RenderTable(records, "New complaints")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	b := img.Bounds()
	assert.Greater(t, b.Dx(), 80)
	assert.GreaterOrEqual(t, b.Dy(), titlePadding+headerHeight+2*minRowHeight+footerPadding)

	assert.Equal(t, before, records, "input must not be reordered")
}

func TestRenderTable_Empty(t *testing.T) {
	_, err := RenderTable(nil, "x")
	assert.Error(t, err)
}

func TestWrapText(t *testing.T) {
	dc := gg.NewContext(1, 1)

	assert.Equal(t, []string{"short"}, wrapText(dc, "short", 1000))
	assert.Equal(t, []string{"no limit at all"}, wrapText(dc, "no\nlimit at all", 0))

	lines := wrapText(dc, "one two three four five six seven eight", 60)
	assert.Greater(t, len(lines), 1)
	assert.Equal(t, "one two three four five six seven eight", strings.Join(lines, " "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "a b", truncate(" a\nb ", 10))
	assert.Equal(t, "héll…", truncate("héllo world", 4))
}
