package dto

// ── 导入模块 DTO ──

// ImportFileResult 单个文件的导入结果
type ImportFileResult struct {
	File  string `json:"file"`
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

// ImportResponse 导入汇总
type ImportResponse struct {
	Files      []ImportFileResult `json:"files"`
	TotalFiles int                `json:"total_files"`
	TotalRows  int                `json:"total_rows"`
}

// BackfillResponse 回填教室结果
type BackfillResponse struct {
	IndexedRows int `json:"indexed_rows"`
	Updated     int `json:"updated"`
}
