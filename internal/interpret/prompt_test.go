package interpret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaintsync/internal/complaint"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"bare object", `{"a":"b"}`, `{"a":"b"}`},
		{"json fence", "```json\n{\"a\":\"b\"}\n```", `{"a":"b"}`},
		{"plain fence", "```\n{\"a\":\"b\"}\n```", `{"a":"b"}`},
		{"fence on one line", "```{\"a\":\"b\"}```", `{"a":"b"}`},
		{"surrounding prose", "Here you go:\n{\"a\":{\"c\":1}}\nHope that helps", `{"a":{"c":1}}`},
		{"whitespace", "  \n{\"a\":\"b\"}\n\n", `{"a":"b"}`},
		{"no object", "nothing here", "nothing here"},
		{"object then garbage is kept whole", `{"a":"b"} trailing }`, `{"a":"b"} trailing }`},
		{"array is kept whole", `[{"a":"b"}]`, `[{"a":"b"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripFences(tt.in))
		})
	}
}

func TestDecodeRecord(t *testing.T) {
	rec, err := DecodeRecord(`{
		"Reason": " Missing item ",
		"Status": "resolved",
		"Complaint ID": 98765432101234567,
		"Timestamp": "9:15 PM | Friday, Aug 2",
		"Description": null,
		"Customer History": "",
		"Refund Amount": "₹100",
		"Customer Name": "Priya",
		"Confidence": 0.9
	}`)
	require.NoError(t, err)

	assert.Equal(t, complaint.Record{
		Reason:       "Missing item",
		Status:       "RESOLVED",
		ComplaintID:  "98765432101234567",
		Timestamp:    "9:15 PM | Friday, Aug 2",
		RefundAmount: "₹100",
		CustomerName: "Priya",
	}, rec)
}

func TestDecodeRecord_Rejects(t *testing.T) {
	for _, in := range []string{
		"", "null", `"OPEN"`, `[1,2]`, `{"Status":`,
		`[{"Status":"OPEN","Complaint ID":"1"}]`,
		`{"Status":"OPEN","Complaint ID":"1"} trailing }`,
		`{"Status":"OPEN"}{"Status":"OPEN"}`,
	} {
		_, err := DecodeRecord(in)
		assert.Error(t, err, in)
	}
}

func TestDecodeRecord_AfterStripFences(t *testing.T) {
	for _, reply := range []string{
		`{"Status":"OPEN","Complaint ID":"1"} trailing }`,
		`[{"Status":"OPEN","Complaint ID":"1"}]`,
		"```json\n[{\"Status\":\"OPEN\"}]\n```",
	} {
		_, err := DecodeRecord(StripFences(reply))
		assert.Error(t, err, reply)
	}

	rec, err := DecodeRecord(StripFences("Sure:\n{\"Status\":\"open\",\"Complaint ID\":\"1\"}\nDone."))
	require.NoError(t, err)
	assert.Equal(t, "OPEN", rec.Status)
	assert.Equal(t, "1", rec.ComplaintID)
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("some text")

	assert.Zero(t, p.Temperature)
	assert.Contains(t, p.User, "some text")
	for _, key := range []string{"Reason", "Status", "Complaint ID", "Timestamp", "Description", "Customer History", "Refund Amount", "Customer Name"} {
		assert.Contains(t, p.System, key)
	}
	assert.Contains(t, p.System, "Do NOT use markdown")
}
