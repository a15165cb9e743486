package entity

import (
	"time"

	"github.com/lib/pq"
)

type Profile struct {
	UserID          int64          `json:"user_id" db:"user_id"`
	Name            string         `json:"name" db:"name"`
	Interests       pq.StringArray `json:"interests" db:"interests"`
	CustomInterests pq.StringArray `json:"custom_interests" db:"custom_interests"`
	ExperienceLevel string         `json:"experience_level" db:"experience_level"`
	Location        string         `json:"location" db:"location"`
	TelegramID      string         `json:"telegram_id" db:"telegram_id"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}
