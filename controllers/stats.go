package controllers

import (
	"time"

	"gorm.io/gorm"
)

// recentWindowDays is the trailing window for the recent-activity snapshot.
const recentWindowDays = 30

// monthBucket is one month of the trailing trend.
type monthBucket struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// groupCount is one grouped aggregate row.
type groupCount struct {
	Key   string `json:"key" gorm:"column:group_key"`
	Count int64  `json:"count"`
}

// countGrouped returns record counts grouped by the given column. The
// column name is always a compile-time constant supplied by the caller,
// never user input.
func countGrouped(db *gorm.DB, model interface{}, column string) ([]groupCount, error) {
	var rows []groupCount
	err := db.Model(model).
		Select(column + " AS group_key, COUNT(*) AS count").
		Group(column).
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

// monthlyTrend returns per-month creation counts over a trailing 12-month
// window, oldest first. Months with no records are absent from the result.
func monthlyTrend(db *gorm.DB, model interface{}) ([]monthBucket, error) {
	now := time.Now().UTC()
	windowStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, -11, 0)

	var rows []monthBucket
	err := db.Model(model).
		Select("strftime('%Y-%m', created_at) AS month, COUNT(*) AS count").
		Where("created_at >= ?", windowStart).
		Group("month").
		Order("month ASC").
		Scan(&rows).Error
	return rows, err
}

// recentCount returns the number of records created in the last N days.
func recentCount(db *gorm.DB, model interface{}, days int) (int64, error) {
	since := time.Now().UTC().AddDate(0, 0, -days)
	var count int64
	err := db.Model(model).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}
