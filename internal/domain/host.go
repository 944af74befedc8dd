package domain

// UserInfo владелец токена в Вебмастере
type UserInfo struct {
	UserID string
}

// Host сайт, добавленный в Вебмастер
type Host struct {
	HostID            string         `json:"host_id"`
	URL               string         `json:"url"`
	Verified          bool           `json:"verified"`
	VerificationState string         `json:"verification_state,omitempty"`
	MainMirror        string         `json:"main_mirror,omitempty"`
	Raw               map[string]any `json:"raw,omitempty"`
}

// DisplayName url сайта, а если его нет, то идентификатор
func (h Host) DisplayName() string {
	if h.URL != "" {
		return h.URL
	}
	return h.HostID
}

// HostSummary сводка по сайту
type HostSummary struct {
	SQI                  int64          `json:"sqi"`
	SearchablePagesCount int64          `json:"searchable_pages_count"`
	ExcludedPagesCount   int64          `json:"excluded_pages_count"`
	SiteProblems         map[string]int `json:"site_problems,omitempty"`
}
