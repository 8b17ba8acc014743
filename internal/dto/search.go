package dto

// ── 搜索模块 DTO ──

// SearchRequest 全局搜索参数
type SearchRequest struct {
	Q    string `form:"q"`
	Type string `form:"type"`
}

// SearchResponse 按实体类型分组的搜索结果
// 未请求的类型字段为 nil，不输出
type SearchResponse struct {
	Users       interface{} `json:"users,omitempty"`
	Projects    interface{} `json:"projects,omitempty"`
	Colleges    interface{} `json:"colleges,omitempty"`
	Discussions interface{} `json:"discussions,omitempty"`
	Submissions interface{} `json:"submissions,omitempty"`
}
