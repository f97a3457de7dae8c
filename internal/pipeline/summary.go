package pipeline

import (
	"fmt"
	"strings"
	"time"

	"complaintsync/internal/complaint"
	apperrors "complaintsync/internal/errors"
)

// Failure is one skipped outlet or complaint. Index is -1 for outlets.
type Failure struct {
	OutletID string
	Index    int
	Stage    Stage
	Err      string
}

// Summary counts what happened during a run.
type Summary struct {
	Outlets          int
	OutletsProcessed int
	OutletsFailed    int
	Preloaded        int

	ComplaintsSeen    int
	Duplicates        int
	Filtered          int
	ComplaintFailures int
	InterpretFailures int
	WriteFailures     int
	CloseFailures     int

	// Appended holds the records written this run, in order.
	Appended []complaint.Record
	Failures []Failure
	Duration time.Duration
}

func (s *Summary) add(outletID string, index int, res StageResult) {
	s.ComplaintsSeen++
	if res.CloseErr != nil {
		s.CloseFailures++
	}

	switch res.Outcome {
	case OutcomeAppended:
		s.Appended = append(s.Appended, res.Record)
		return
	case OutcomeDuplicate:
		s.Duplicates++
		return
	case OutcomeFiltered:
		s.Filtered++
		return
	case OutcomeWriteFailed:
		s.WriteFailures++
	case OutcomeFailed:
		if apperrors.IsInterpret(res.Err) {
			s.InterpretFailures++
		} else {
			s.ComplaintFailures++
		}
	}

	msg := ""
	if res.Err != nil {
		msg = res.Err.Error()
	}
	s.Failures = append(s.Failures, Failure{OutletID: outletID, Index: index, Stage: res.Stage, Err: msg})
}

// Failed reports whether anything was skipped because of an error.
func (s *Summary) Failed() bool {
	return len(s.Failures) > 0
}

// Text renders the summary as a short plain-text report.
func (s *Summary) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Outlets: %d/%d processed", s.OutletsProcessed, s.Outlets)
	if s.OutletsFailed > 0 {
		fmt.Fprintf(&b, " (%d failed)", s.OutletsFailed)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Complaints: %d seen, %d appended, %d duplicate, %d not open\n",
		s.ComplaintsSeen, len(s.Appended), s.Duplicates, s.Filtered)
	if n := s.ComplaintFailures + s.InterpretFailures + s.WriteFailures; n > 0 {
		fmt.Fprintf(&b, "Errors: %d extract, %d interpret, %d write\n",
			s.ComplaintFailures, s.InterpretFailures, s.WriteFailures)
	}
	if s.CloseFailures > 0 {
		fmt.Fprintf(&b, "Close failures: %d\n", s.CloseFailures)
	}
	fmt.Fprintf(&b, "Duration: %s", s.Duration.Round(time.Second))
	return b.String()
}
