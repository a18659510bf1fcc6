package domain

import "time"

// UserStats backs GET /users/stats on the admin dashboard.
type UserStats struct {
	TotalUsers    int `json:"totalUsers"`
	ActiveUsers   int `json:"activeUsers"`
	InactiveUsers int `json:"inactiveUsers"`
	Admins        int `json:"admins"`
	Customers     int `json:"customers"`
}

// DeclarationStats backs GET /declarations/stats.
type DeclarationStats struct {
	TotalDeclarations int `json:"totalDeclarations"`
	Pending           int `json:"pending"`
	Completed         int `json:"completed"`
	CurrentYear       int `json:"currentYear"`
}

// ActivityEntry is one row of GET /declarations/recent-activity: the latest
// declarations touched, newest first.
type ActivityEntry struct {
	DeclarationID string            `json:"declarationId"`
	UserID        string            `json:"userId"`
	UserFullName  string            `json:"userFullName"`
	TaxableYear   int               `json:"taxableYear"`
	Status        DeclarationStatus `json:"status"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// CustomerOverview is the combined customer-detail view: the user record and
// their declarations, fetched concurrently.
type CustomerOverview struct {
	User         *User
	Declarations []Declaration
}

// DashboardSummary is the combined admin dashboard view.
type DashboardSummary struct {
	Users        UserStats
	Declarations DeclarationStats
	Recent       []ActivityEntry
}
