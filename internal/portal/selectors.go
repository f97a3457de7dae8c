package portal

// Selectors locates portal elements. A value starting with "/" or "(" is
// XPath, anything else CSS.
type Selectors struct {
	OutletDropdown string
	OutletInput    string
	ApplyButton    string
	ComplaintEntry string
	EntryText      string // entries are ComplaintEntry matches containing this text
	OrderDetails   string
	DetailRoot     string
	CloseControl   string
	DetailPane     string // optional; visible once a detail has opened
}

const filterPanel = "/html/body/div[1]/div/div[2]/div/div/div/div/div[2]/div/div[2]/div[2]/div/div[2]/div/div[1]/div/div[2]/div[2]/div/div/div[3]"

// DefaultSelectors match the customer-issues inbox layout.
var DefaultSelectors = Selectors{
	OutletDropdown: filterPanel + "/div[1]/div/div[2]/span",
	OutletInput:    filterPanel + "/div[2]/div[1]/div/div/div/div/div/div/div/input",
	ApplyButton:    filterPanel + "/div[2]/div[4]/div[2]",
	ComplaintEntry: ".css-1ttmdgu > .css-c4te0e > .css-19i1v5i",
	EntryText:      "View details",
	OrderDetails:   "/html/body/div[1]/div/div[2]/div/div/div/div/div[2]/div/div[2]/div[2]/div/div[2]/div/div[2]/div[2]/div/div[1]/div[3]/div[1]/div/div[2]/div/div[2]",
	DetailRoot:     "body",
	CloseControl:   "[aria-label*='close'], .close, [data-testid*='close']",
}

// WithDefaults fills empty fields from DefaultSelectors.
func (s Selectors) WithDefaults() Selectors {
	d := DefaultSelectors
	pick := func(v, def string) string {
		if v != "" {
			return v
		}
		return def
	}
	return Selectors{
		OutletDropdown: pick(s.OutletDropdown, d.OutletDropdown),
		OutletInput:    pick(s.OutletInput, d.OutletInput),
		ApplyButton:    pick(s.ApplyButton, d.ApplyButton),
		ComplaintEntry: pick(s.ComplaintEntry, d.ComplaintEntry),
		EntryText:      pick(s.EntryText, d.EntryText),
		OrderDetails:   pick(s.OrderDetails, d.OrderDetails),
		DetailRoot:     pick(s.DetailRoot, d.DetailRoot),
		CloseControl:   pick(s.CloseControl, d.CloseControl),
		DetailPane:     pick(s.DetailPane, d.DetailPane),
	}
}

// outletOption is the dropdown label of an outlet.
func outletOption(outletID string) string {
	return "ID: " + outletID
}
