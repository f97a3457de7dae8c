package complaint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRow_Order(t *testing.T) {
	r := Record{
		OutletID:        "19595894",
		Reason:          "Order was delivered late",
		Status:          "OPEN",
		ComplaintID:     "1234567890",
		Timestamp:       "11:04 AM | Monday, Jul 22",
		RefundAmount:    "₹100",
		Description:     "Food arrived cold",
		CustomerHistory: "Good customer history",
		CustomerName:    "Ravi",
	}

	row := Row(r)
	require.Len(t, row, 9)
	assert.Equal(t, []string{
		"19595894",
		"Order was delivered late",
		"OPEN",
		"1234567890",
		"11:04 AM | Monday, Jul 22",
		"₹100",
		"Food arrived cold",
		"Good customer history",
		"Ravi",
	}, row)
}

func TestHeader(t *testing.T) {
	assert.Equal(t, []string{
		"Outlet ID", "Reason", "Status", "Complaint ID", "Timestamp",
		"Refund Amount", "Description", "Customer History", "Customer Name",
	}, Header())
}

func TestFromRow_RoundTripKeepsFingerprint(t *testing.T) {
	records := []Record{
		{OutletID: "1", Status: "OPEN", ComplaintID: "1234567890", Timestamp: "t"},
		{OutletID: "1", Status: "OPEN", Timestamp: "11:04 AM | Monday, Jul 22"},
		{OutletID: "2", Status: "OPEN", Reason: "missing item", Description: "no fries"},
		{OutletID: "3", Status: "OPEN", RefundAmount: "requested", CustomerName: "A"},
		{},
	}

	for _, r := range records {
		back := FromRow(Row(r))
		assert.Equal(t, r, back)
		assert.Equal(t, Fingerprint(r), Fingerprint(back))
	}
}

func TestFromRow_ShortAndLongRows(t *testing.T) {
	short := FromRow([]string{"19595894", "late", "OPEN", "42"})
	assert.Equal(t, Record{OutletID: "19595894", Reason: "late", Status: "OPEN", ComplaintID: "42"}, short)

	long := FromRow(append(Row(Record{ComplaintID: "7"}), "extra", "cells"))
	assert.Equal(t, "7", long.ComplaintID)

	assert.Equal(t, Record{}, FromRow(nil))
}

func TestFromRow_ReadsIDAndTimestampColumns(t *testing.T) {
	// Outlet and Reason sit in the first two columns; they must never be
	// mistaken for the complaint ID or timestamp.
	row := []string{"19595894", "Order was delivered late", "OPEN", "1234567890", "11:04 AM"}
	r := FromRow(row)

	assert.Equal(t, "1234567890", r.ComplaintID)
	assert.Equal(t, "11:04 AM", r.Timestamp)
	assert.Equal(t, Fingerprint(Record{ComplaintID: "1234567890"}), Fingerprint(r))
}

func TestColumnIndex(t *testing.T) {
	assert.Equal(t, 0, ColumnIndex("Outlet ID"))
	assert.Equal(t, 3, ColumnIndex("Complaint ID"))
	assert.Equal(t, 4, ColumnIndex("Timestamp"))
	assert.Equal(t, -1, ColumnIndex("Expiry Date"))
}
