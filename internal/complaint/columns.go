package complaint

// Column describes one worksheet column.
type Column struct {
	Title string
	get   func(r *Record) string
	set   func(r *Record, v string)
}

// Columns is the single authoritative worksheet layout. Row writes it and
// FromRow reads it, so the fingerprint recomputed at preload always matches
// the one computed before the append.
var Columns = []Column{
	{"Outlet ID", func(r *Record) string { return r.OutletID }, func(r *Record, v string) { r.OutletID = v }},
	{"Reason", func(r *Record) string { return r.Reason }, func(r *Record, v string) { r.Reason = v }},
	{"Status", func(r *Record) string { return r.Status }, func(r *Record, v string) { r.Status = v }},
	{"Complaint ID", func(r *Record) string { return r.ComplaintID }, func(r *Record, v string) { r.ComplaintID = v }},
	{"Timestamp", func(r *Record) string { return r.Timestamp }, func(r *Record, v string) { r.Timestamp = v }},
	{"Refund Amount", func(r *Record) string { return r.RefundAmount }, func(r *Record, v string) { r.RefundAmount = v }},
	{"Description", func(r *Record) string { return r.Description }, func(r *Record, v string) { r.Description = v }},
	{"Customer History", func(r *Record) string { return r.CustomerHistory }, func(r *Record, v string) { r.CustomerHistory = v }},
	{"Customer Name", func(r *Record) string { return r.CustomerName }, func(r *Record, v string) { r.CustomerName = v }},
}

// Header returns the column titles in worksheet order.
func Header() []string {
	h := make([]string, len(Columns))
	for i, c := range Columns {
		h[i] = c.Title
	}
	return h
}

// Row lays the record out in worksheet order.
func Row(r Record) []string {
	row := make([]string, len(Columns))
	for i, c := range Columns {
		row[i] = c.get(&r)
	}
	return row
}

// FromRow is the inverse of Row. Missing trailing cells read as empty
// strings and cells past the last column are ignored.
func FromRow(row []string) Record {
	var r Record
	for i, c := range Columns {
		if i >= len(row) {
			break
		}
		c.set(&r, row[i])
	}
	return r
}

// ColumnIndex returns the zero-based position of the titled column, or -1.
func ColumnIndex(title string) int {
	for i, c := range Columns {
		if c.Title == title {
			return i
		}
	}
	return -1
}
