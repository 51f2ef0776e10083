package normalize

import (
	"strings"
	"time"

	// Guarantees the US/Eastern zone resolves on hosts without a system
	// timezone database.
	_ "time/tzdata"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
	utcStampLayout = "2006-01-02 15:04:05 MST-0700"
)

var eastern = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic("tzdata is linked in, America/New_York must resolve: " + err.Error())
	}
	return loc
}()

// FormatDate renders a Unix timestamp as a UTC calendar date.
func FormatDate(epoch int64) string {
	return time.Unix(epoch, 0).UTC().Format(dateLayout)
}

// ParseDate converts a calendar date back to its Unix timestamp at
// midnight UTC.
func ParseDate(date string) (int64, error) {
	t, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

// FormatTime renders a Unix timestamp as a UTC timestamp string. The
// epoch is first expressed as US/Eastern wall-clock time; a bare-midnight
// hour is read as noon so the round trip through the wall-clock form
// never produces an ambiguous time.
func FormatTime(epoch int64) string {
	wall := fixMidnight(time.Unix(epoch, 0).In(eastern).Format(dateTimeLayout))
	t, err := time.ParseInLocation(dateTimeLayout, wall, eastern)
	if err != nil {
		return wall
	}
	return t.UTC().Format(utcStampLayout)
}

// fixMidnight rewrites a bare-midnight hour in a wall-clock string as noon.
func fixMidnight(wall string) string {
	return strings.Replace(wall, " 0:", " 12:", 1)
}
