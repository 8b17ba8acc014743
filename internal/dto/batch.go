package dto

// ── 批量导入导出 DTO ──

// ImportDataResponse CSV 批量导入结果
type ImportDataResponse struct {
	Total    int              `json:"total"`
	Imported int              `json:"imported"`
	Failed   int              `json:"failed"`
	Errors   []ImportRowError `json:"errors,omitempty"`
}

// ImportRowError 导入失败的行（行号从 1 开始，不含表头）
type ImportRowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ExportDataRequest 导出格式
type ExportDataRequest struct {
	Format string `form:"format" binding:"omitempty,oneof=csv xlsx"`
}
