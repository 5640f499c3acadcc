package scheduler

import (
	"fmt"
	"time"

	"github.com/wasilibs/go-re2"
)

var endTimePattern = re2.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9])$`)

// OneShotExpr renders target as a cron expression pinned to its minute,
// hour, day-of-month, and month. Cron has no year field, so the entry
// logically refires on the same date in later years if it is never removed;
// that limitation is inherited from the table's format and deliberately not
// papered over here.
func OneShotExpr(target time.Time) string {
	return fmt.Sprintf("%d %d %d %d *", target.Minute(), target.Hour(), target.Day(), int(target.Month()))
}

// ResolveEndTime converts an "HH:MM" wall-clock string into the next
// occurrence of that time: today if the minute is still ahead, tomorrow
// otherwise. The current minute also rolls to tomorrow: its fire point
// (second zero) has already passed by the time the entry lands in the
// table, so pinning it today would install a job that never fires. Day
// arithmetic goes through time.Time so month and year boundaries roll
// over correctly.
func ResolveEndTime(now time.Time, endTime string) (time.Time, error) {
	m := endTimePattern.FindStringSubmatch(endTime)
	if m == nil {
		return time.Time{}, &InvalidFormatError{Input: endTime}
	}

	// Pattern guarantees numeric fields.
	var hour, minute int
	fmt.Sscanf(endTime, "%d:%d", &hour, &minute)

	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if hour*60+minute <= now.Hour()*60+now.Minute() {
		target = target.AddDate(0, 0, 1)
	}
	return target, nil
}
