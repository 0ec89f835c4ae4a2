package model

import (
	"time"

	"gorm.io/datatypes"

	"calibration-backend/internal/parse"
)

// DateOf converts t into a date column value for its calendar day.
func DateOf(t time.Time) datatypes.Date {
	return datatypes.Date(parse.Day(t))
}

// TimeOf converts a date column value back into midnight UTC.
func TimeOf(d datatypes.Date) time.Time {
	return parse.Day(time.Time(d))
}
