package models

import "time"

type HolisticReport struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	ReportType string    `json:"reportType"`
	FileName   string    `json:"fileName"`
	CreatedAt  time.Time `json:"createdAt"`
}
