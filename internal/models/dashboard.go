package models

// MonthlySummary is the per-employee dashboard payload for one month.
type MonthlySummary struct {
	Present int     `json:"present"`
	Late    int     `json:"late"`
	Hours   float64 `json:"hours"`
	Leaves  int     `json:"leaves"`
}

// CompanySnapshot is the admin dashboard payload for one date.
type CompanySnapshot struct {
	TotalEmployees int `json:"totalEmployees"`
	PresentToday   int `json:"presentToday"`
	LateToday      int `json:"lateToday"`
	PendingLeaves  int `json:"pendingLeaves"`
}
