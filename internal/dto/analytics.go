package dto

import "time"

// ── 统计分析模块响应 ──

// DashboardStats 仪表盘总数
type DashboardStats struct {
	TotalUsers       int64     `json:"total_users"`
	TotalColleges    int64     `json:"total_colleges"`
	TotalProjects    int64     `json:"total_projects"`
	TotalSubmissions int64     `json:"total_submissions"`
	TotalSensors     int64     `json:"total_sensors"`
	Timestamp        time.Time `json:"timestamp"`
	Cached           bool      `json:"cached"`
}

// GroupCount 分组计数（角色、状态等）
type GroupCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// ActivityItem 近期动态
type ActivityItem struct {
	Type      string    `json:"type"` // project | submission
	Title     string    `json:"title"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// MonthlyCount 月度增长
type MonthlyCount struct {
	Month time.Time `json:"month"`
	Count int64     `json:"count"`
}
