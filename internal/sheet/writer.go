// Package sheet persists complaint records as worksheet rows.
//
// Table is the raw row store (Google Sheets in production, a slice in
// tests). Writer maps records to rows through complaint.Columns, so the
// rows read back at startup decode with the same layout they were written
// with.
package sheet

import (
	"context"

	"go.uber.org/zap"

	"complaintsync/internal/complaint"
	apperrors "complaintsync/internal/errors"
)

// Table is an append-only sequence of string rows.
type Table interface {
	// ReadRows returns all data rows, header excluded.
	ReadRows(ctx context.Context) ([][]string, error)
	// AppendRow adds one row at the end.
	AppendRow(ctx context.Context, row []string) error
}

// Writer is the record-level view of a Table.
type Writer struct {
	table  Table
	dryRun bool
	log    *zap.Logger
}

// NewWriter creates a Writer. In dry-run mode Append only logs.
func NewWriter(table Table, dryRun bool, log *zap.Logger) *Writer {
	if log == nil {
		log = zap.L()
	}
	return &Writer{table: table, dryRun: dryRun, log: log}
}

// Existing decodes every stored row into a record. Blank rows come back
// as zero records; the caller decides what to do with them.
func (w *Writer) Existing(ctx context.Context) ([]complaint.Record, error) {
	rows, err := w.table.ReadRows(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]complaint.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, complaint.FromRow(row))
	}
	return records, nil
}

// Append writes exactly one row for r. A failure is returned as
// *errors.WriteError and is not retried.
func (w *Writer) Append(ctx context.Context, r complaint.Record) error {
	row := complaint.Row(r)

	if w.dryRun {
		w.log.Info("dry run, row not written",
			zap.String("outlet", r.OutletID),
			zap.String("complaint_id", r.ComplaintID),
			zap.Strings("row", row),
		)
		return nil
	}

	if err := w.table.AppendRow(ctx, row); err != nil {
		return apperrors.NewWriteError(r.ComplaintID, err)
	}
	return nil
}
