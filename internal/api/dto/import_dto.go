package dto

// ==================== 响应 DTO ====================

// ImportJobResp 导入任务响应
type ImportJobResp struct {
	ID               string `json:"id"`
	OriginalFilename string `json:"original_filename"`
	Status           string `json:"status"`
	TotalRows        int    `json:"total_rows"`
	ProcessedRows    int    `json:"processed_rows"`
	Progress         int    `json:"progress"`
	ErrorMessage     string `json:"error_message"`
	UploadedAt       string `json:"uploaded_at"`
}

// ImportStatusResp 进度轮询响应
type ImportStatusResp struct {
	Status        string `json:"status"`
	TotalRows     int    `json:"total_rows"`
	ProcessedRows int    `json:"processed_rows"`
	Progress      int    `json:"progress"` // 0-100 整数
	ErrorMessage  string `json:"error_message"`
}
