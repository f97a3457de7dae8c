package portal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSString(t *testing.T) {
	assert.Equal(t, `"ID: 19595894"`, jsString("ID: 19595894"))
	assert.Equal(t, `"it's \"quoted\""`, jsString(`it's "quoted"`))
	assert.Equal(t, `"a\nb"`, jsString("a\nb"))
	assert.Equal(t, `"\u003c/script\u003e"`, jsString("</script>"))
}

func TestScripts_AreSelfContained(t *testing.T) {
	scripts := map[string]string{
		"count":   countEntriesScript(DefaultSelectors.ComplaintEntry, "View details"),
		"visible": listVisibleScript(DefaultSelectors.ComplaintEntry, "View details"),
		"click":   clickEntryScript(DefaultSelectors.ComplaintEntry, "View details", 2),
		"text":    clickTextScript("ID: 57750"),
		"first":   clickFirstVisibleScript(DefaultSelectors.CloseControl),
		"exists":  existsVisibleScript(DefaultSelectors.OutletDropdown),
		"inner":   innerTextScript("body"),
	}

	for name, s := range scripts {
		t.Run(name, func(t *testing.T) {
			assert.True(t, strings.HasPrefix(s, "(() => {"))
			assert.True(t, strings.HasSuffix(s, "})()"))
			assert.Contains(t, s, "const find = ")
		})
	}
}

func TestClickEntryScript_EmbedsIndexAndSelector(t *testing.T) {
	s := clickEntryScript(".entry", "View details", 7)

	assert.Contains(t, s, `find(".entry").filter(el => textOf(el).includes("View details"))`)
	assert.Contains(t, s, "const i = 7;")
	assert.Contains(t, s, "return -1;")
}

func TestXPathSelectorsPassThroughAsStrings(t *testing.T) {
	s := existsVisibleScript(DefaultSelectors.OutletDropdown)
	assert.Contains(t, s, jsString(DefaultSelectors.OutletDropdown))
	assert.True(t, strings.HasPrefix(DefaultSelectors.OutletDropdown, "/html/body"))
}
