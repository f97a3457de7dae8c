package complaint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Fingerprint returns the deduplication key for a record.
//
// Precedence:
//  1. Complaint ID, when non-empty
//  2. Timestamp, when non-empty
//  3. Canonical JSON of the whole record (sorted keys)
//
// The result is a 64 character lowercase hex SHA-256 digest. It depends on
// nothing but the record, so identical records always share a fingerprint.
func Fingerprint(r Record) string {
	if id := strings.TrimSpace(r.ComplaintID); id != "" {
		return digest(id)
	}
	if ts := strings.TrimSpace(r.Timestamp); ts != "" {
		return digest(ts)
	}
	return digest(CanonicalJSON(r))
}

// CanonicalJSON encodes the record as a JSON object with lexicographically
// sorted keys. Required keys are always present; optional keys only when set.
func CanonicalJSON(r Record) string {
	fields := map[string]string{
		"Outlet ID":        r.OutletID,
		"Reason":           r.Reason,
		"Status":           r.Status,
		"Complaint ID":     r.ComplaintID,
		"Timestamp":        r.Timestamp,
		"Description":      r.Description,
		"Customer History": r.CustomerHistory,
	}
	if r.RefundAmount != "" {
		fields["Refund Amount"] = r.RefundAmount
	}
	if r.CustomerName != "" {
		fields["Customer Name"] = r.CustomerName
	}

	// encoding/json writes map keys in sorted order.
	b, err := json.Marshal(fields)
	if err != nil {
		// map[string]string always marshals
		panic(err)
	}
	return string(b)
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
