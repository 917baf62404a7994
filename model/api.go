package model

// ExtractRequest 提取任务请求
type ExtractRequest struct {
	JobID  string `json:"job_id,omitempty"`
	Buffer []byte `json:"buffer"`
}

// ExtractedPiece 提取结果中的单个版片
type ExtractedPiece struct {
	Name    string  `json:"name"`
	Data    []byte  `json:"data"`
	Polygon Polygon `json:"polygon"`
}

// ExtractResponse 提取任务的唯一结果消息
type ExtractResponse struct {
	JobID   string           `json:"job_id,omitempty"`
	Success bool             `json:"success"`
	Pieces  []ExtractedPiece `json:"pieces"`
	Error   string           `json:"error,omitempty"`
}

// ExtractSuccess 构造成功消息，pieces 为空时也返回空数组
func ExtractSuccess(jobID string, pieces []Piece) ExtractResponse {
	out := make([]ExtractedPiece, len(pieces))
	for i, p := range pieces {
		out[i] = ExtractedPiece{Name: p.Name, Data: p.Data, Polygon: p.Polygon}
	}
	return ExtractResponse{JobID: jobID, Success: true, Pieces: out}
}

// ExtractFailure 构造失败消息
func ExtractFailure(jobID string, err error) ExtractResponse {
	return ExtractResponse{JobID: jobID, Success: false, Error: err.Error()}
}

// ComposeRequest 合成请求
type ComposeRequest struct {
	Piece        PiecePlacement    `json:"piece"`
	Overlay      *OverlayPlacement `json:"overlay"`
	Texts        []TextPlacement   `json:"texts"`
	CanvasWidth  int               `json:"canvas_width,omitempty"`
	CanvasHeight int               `json:"canvas_height,omitempty"`
	Filename     string            `json:"filename,omitempty"`
}

// ComposeResponse 合成结果
type ComposeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	DataURL string `json:"data_url"`
	Saved   string `json:"saved,omitempty"`
}

// PatternSetResponse 模板响应
type PatternSetResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Data    *PatternSet   `json:"data,omitempty"`
	List    []*PatternSet `json:"list,omitempty"`
}

// SuccessResponse 通用成功响应
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      int64  `json:"id,omitempty"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// ExtractAPIResponse 提取接口响应
type ExtractAPIResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	MD5     string           `json:"md5,omitempty"`
	Data    *ExtractResponse `json:"data,omitempty"`
}

// FontListResponse 已注册字体
type FontListResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Names   []string `json:"names"`
}
