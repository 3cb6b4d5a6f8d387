package feed

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/scavenger/constants"
	"github.com/joseph-ayodele/scavenger/internal/entity"
)

var reClock = regexp.MustCompile(`^\d{2}:\d{2}$`)

// ParseLimit reads the upcoming limit: missing, unparseable or non-positive
// values mean the default; larger values are capped.
func ParseLimit(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return constants.UpcomingDefaultLimit
	}
	return ClampLimit(n)
}

func ClampLimit(n int) int {
	if n <= 0 {
		return constants.UpcomingDefaultLimit
	}
	if n > constants.UpcomingMaxLimit {
		return constants.UpcomingMaxLimit
	}
	return n
}

// StartOf computes a record's local start time. A startTime that is not HH:MM
// counts as midnight; a missing or invalid date (or an HH:MM that is not a
// real time) yields false.
func StartOf(rec entity.ExtractionRecord, loc *time.Location) (time.Time, bool) {
	if rec.Event.Date == nil {
		return time.Time{}, false
	}
	clock := "00:00"
	if st := rec.Event.StartTime; st != nil && reClock.MatchString(*st) {
		clock = *st
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", *rec.Event.Date+" "+clock, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Upcoming returns records starting at or after now, soonest first, at most limit.
func (s *Service) Upcoming(ctx context.Context, now time.Time, limit int) ([]entity.ExtractionRecord, error) {
	recs, err := s.records.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	return SelectUpcoming(recs, now, ClampLimit(limit), s.loc), nil
}

// SelectUpcoming is the pure part of Upcoming.
func SelectUpcoming(recs []entity.ExtractionRecord, now time.Time, limit int, loc *time.Location) []entity.ExtractionRecord {
	type dated struct {
		rec   entity.ExtractionRecord
		start time.Time
	}
	candidates := make([]dated, 0, len(recs))
	for _, r := range recs {
		start, ok := StartOf(r, loc)
		if !ok || start.Before(now) {
			continue
		}
		candidates = append(candidates, dated{rec: r, start: start})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].start.Before(candidates[j].start)
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]entity.ExtractionRecord, len(candidates))
	for i, c := range candidates {
		out[i] = c.rec
	}
	return out
}
