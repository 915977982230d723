package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DayRebuilder recomputes every daily summary of a calendar day.
type DayRebuilder interface {
	RebuildAllForDay(ctx context.Context, date time.Time) (int, error)
}

type AttendanceJobs struct {
	rebuilder DayRebuilder
	loc       *time.Location
	now       func() time.Time
}

func NewAttendanceJobs(rebuilder DayRebuilder, loc *time.Location) *AttendanceJobs {
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceJobs{
		rebuilder: rebuilder,
		loc:       loc,
		now:       time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler, hour int) {
	scheduler.AddDailyJob("rebuild_previous_day", hour, j.RebuildPreviousDay)
}

// RebuildPreviousDay recomputes yesterday's summaries from their punches,
// so late corrections and out-of-order device uploads settle overnight.
func (j *AttendanceJobs) RebuildPreviousDay(ctx context.Context) error {
	local := j.now().In(j.loc)
	yesterday := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, j.loc).AddDate(0, 0, -1)

	slog.Info("Cron: Starting daily attendance rebuild", "date", yesterday.Format("2006-01-02"))

	count, err := j.rebuilder.RebuildAllForDay(ctx, yesterday)
	if err != nil {
		return fmt.Errorf("rebuild daily attendance for %s: %w", yesterday.Format("2006-01-02"), err)
	}

	slog.Info("Cron: Daily attendance rebuild completed", "date", yesterday.Format("2006-01-02"), "rebuilt_count", count)
	return nil
}
