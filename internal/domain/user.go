package domain

import "time"

// User пользователь бота
type User struct {
	ID            int64
	Username      string
	FullName      string
	CreatedAt     time.Time
	LastActivity  time.Time
	IsActive      bool
	TotalExports  int64
	TotalRequests int64
}
