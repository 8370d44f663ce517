// Package reports reshapes document requests already fetched for a period
// into the counts the reports page shows.
package reports

import (
	"errors"
	"sort"
	"time"

	"barangay/internal/domain/documents"
	"barangay/internal/review"
)

const (
	dayLayout = "2006-01-02"
	// MaxRange keeps a single report from scanning years of rows.
	MaxRange = 366 * 24 * time.Hour
)

var ErrBadRange = errors.New("report range must have from before to and span at most a year")

type Day struct {
	Date  string `json:"date"`
	Total int    `json:"total"`
}

type DocumentSummary struct {
	From     time.Time                     `json:"from"`
	To       time.Time                     `json:"to"`
	Total    int                           `json:"total"`
	ByStatus map[review.DocumentStatus]int `json:"by_status"`
	ByType   map[documents.Type]int        `json:"by_type"`
	Daily    []Day                         `json:"daily"`
	// CompletionRate is completed over approved plus completed, 0 when
	// nothing was approved.
	CompletionRate float64 `json:"completion_rate"`
}

// Range validates and normalizes a report window to UTC.
func Range(from, to time.Time) (time.Time, time.Time, error) {
	from, to = from.UTC(), to.UTC()
	if !from.Before(to) || to.Sub(from) > MaxRange {
		return time.Time{}, time.Time{}, ErrBadRange
	}
	return from, to, nil
}

// Summarize counts rows submitted in [from, to). Rows outside the window are
// ignored. Every status and type appears in the maps, zero or not, and every
// day of the window appears in Daily.
func Summarize(rows []documents.Request, from, to time.Time) DocumentSummary {
	s := DocumentSummary{
		From:     from,
		To:       to,
		ByStatus: map[review.DocumentStatus]int{},
		ByType:   map[documents.Type]int{},
	}
	for _, st := range []review.DocumentStatus{
		review.DocumentPending, review.DocumentApproved, review.DocumentDenied, review.DocumentCompleted,
	} {
		s.ByStatus[st] = 0
	}
	for _, t := range documents.Types() {
		s.ByType[t] = 0
	}

	daily := map[string]int{}
	for _, r := range rows {
		if r.SubmittedAt.Before(from) || !r.SubmittedAt.Before(to) {
			continue
		}
		s.Total++
		s.ByStatus[r.Status]++
		s.ByType[r.Type]++
		daily[r.SubmittedAt.UTC().Format(dayLayout)]++
	}

	for d := truncateDay(from); d.Before(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(dayLayout)
		s.Daily = append(s.Daily, Day{Date: key, Total: daily[key]})
		delete(daily, key)
	}
	// Rows stamped on a day the loop did not reach, which only happens with
	// non-UTC inputs.
	if len(daily) > 0 {
		for k, v := range daily {
			s.Daily = append(s.Daily, Day{Date: k, Total: v})
		}
		sort.Slice(s.Daily, func(i, j int) bool { return s.Daily[i].Date < s.Daily[j].Date })
	}

	done := s.ByStatus[review.DocumentCompleted]
	if base := done + s.ByStatus[review.DocumentApproved]; base > 0 {
		s.CompletionRate = float64(done) / float64(base)
	}
	return s
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
