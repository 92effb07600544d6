package models

// Statistics aggregates conversation activity over a time window.
type Statistics struct {
	TotalUsers         int             `json:"total_users"`
	TotalConversations int             `json:"total_conversations"`
	PerDay             []DailyCount    `json:"per_day"`
	Categories         []CategoryCount `json:"categories"`
	Keywords           []KeywordCount  `json:"keywords"`
	TopUsers           []UserActivity  `json:"top_users"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

type UserActivity struct {
	FullName string `json:"full_name"`
	Messages int    `json:"messages"`
}
