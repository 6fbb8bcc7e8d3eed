package api

// TranscribeRequest - transcribe method input in JSON
type TranscribeRequest struct {
	URL   string `json:"url"`
	Mode  string `json:"mode,omitempty"`
	Lang  string `json:"lang,omitempty"`
	Email string `json:"email,omitempty"`
}

// TranscribeResponse - transcribe method response in JSON
type TranscribeResponse struct {
	ID          string `json:"id"`
	Fingerprint string `json:"fingerprint"`
	Status      string `json:"status"`
	Cached      bool   `json:"cached"`
}

// TranscriptionResult - status method response in JSON
type TranscriptionResult struct {
	ID        string   `json:"id"`
	Status    string   `json:"status"`
	Progress  int32    `json:"progress"`
	ErrorCode string   `json:"errorCode,omitempty"`
	Error     string   `json:"error,omitempty"`
	Formats   []string `json:"formats,omitempty"`
}

// BatchRequest - batch method input in JSON
type BatchRequest struct {
	URLs []string `json:"urls"`
	Mode string   `json:"mode,omitempty"`
	Lang string   `json:"lang,omitempty"`
}

// RequestData is a submission record for persistence
type RequestData struct {
	ID      string
	URL     string
	VideoID string
	Mode    string
	Lang    string
	Email   string
}
