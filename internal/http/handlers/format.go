package handlers

import (
	"time"

	"gorm.io/datatypes"
)

const dateLayout = "2006-01-02"

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(d datatypes.Date) string {
	return time.Time(d).UTC().Format(dateLayout)
}

func derefOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}
