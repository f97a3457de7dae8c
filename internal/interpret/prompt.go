package interpret

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"complaintsync/internal/complaint"
)

const systemPrompt = `You are an expert at parsing complaint details from a food delivery partner portal.
Extract the following fields from the provided raw text.
Focus only on the details of the currently displayed complaint.

Required Fields (must always be present):
- Reason: The primary reason for the complaint (e.g., "Order was delivered late").
- Status: The current status of the complaint (e.g., "OPEN", "RESOLVED", "DISMISSED").
- Complaint ID: The unique identifier for the complaint (e.g., "Complaint ID: 1234567890").
- Timestamp: The full date and time of the complaint (e.g., "11:04 AM | Monday, Jul 22").
- Description: The detailed description of the customer's issue, usually found just before "Order details".
- Customer History: The section detailing the customer's past order behavior (e.g., "Good customer history").

Optional Fields (include only if found):
- Refund Amount: The amount of refund requested or processed (e.g., "Refund requested: ₹100").
- Customer Name: The name of the customer.

Instructions:
- Return the result as a compact JSON object. Do NOT use markdown or code block wrappers.
- Use exactly these keys: "Reason", "Status", "Complaint ID", "Timestamp", "Description", "Customer History", "Refund Amount", "Customer Name".
- If a required field is missing, use an empty string ("").
- Omit optional fields that are not found.
- For "Refund Amount", extract only the value (e.g., "₹100" or "requested").
- For "Complaint ID", extract only the ID number, not the "Complaint ID:" prefix.
- For "Timestamp", extract the full date and time string as displayed.
- For "Description", capture the main text describing the complaint.
- For "Customer History", capture the relevant lines describing the customer's history.`

var (
	errNotObject    = eris.New("reply is not a JSON object")
	errTrailingData = eris.New("reply has data after the JSON object")
)

// BuildPrompt returns the extraction prompt for one complaint's raw text.
// Temperature is always zero.
func BuildPrompt(rawText string) Prompt {
	return Prompt{
		System:      systemPrompt,
		User:        "Raw Complaint Text:\n" + rawText,
		Temperature: 0,
	}
}

// StripFences removes a markdown code fence. A reply that does not start
// with a JSON value is cut down to its outermost {...} span, so a sentence
// wrapped around the object is dropped; a reply that already starts with
// "{" or "[" is returned unchanged for DecodeRecord to judge.
func StripFences(reply string) string {
	s := strings.TrimSpace(reply)

	if strings.HasPrefix(s, "```") {
		// drop the opening fence line, e.g. ```json
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		return s
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// DecodeRecord parses a single JSON object into a record. Anything after
// the object is an error. Unknown keys are ignored, null becomes "",
// numbers and booleans are stringified and Status is upper-cased.
func DecodeRecord(text string) (complaint.Record, error) {
	text = strings.TrimSpace(text)
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return complaint.Record{}, eris.Wrap(err, "parse json")
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return complaint.Record{}, errNotObject
	}
	if dec.InputOffset() != int64(len(text)) {
		return complaint.Record{}, errTrailingData
	}

	field := func(key string) string {
		return strings.TrimSpace(stringify(obj[key]))
	}

	return complaint.Record{
		Reason:          field("Reason"),
		Status:          strings.ToUpper(field("Status")),
		ComplaintID:     field("Complaint ID"),
		Timestamp:       field("Timestamp"),
		Description:     field("Description"),
		CustomerHistory: field("Customer History"),
		RefundAmount:    field("Refund Amount"),
		CustomerName:    field("Customer Name"),
	}, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
