package transport

// DispatchRequest triggers a batch of outbound calls.
type DispatchRequest struct {
	NumberOfCalls int `json:"numberOfCalls" validate:"required,min=1"`
}

// SingleCallRequest places one ad-hoc call outside the lead sheet.
type SingleCallRequest struct {
	PhoneNumberID string             `json:"phoneNumberId" validate:"required"`
	Customer      SingleCallCustomer `json:"customer" validate:"required"`
}

// SingleCallCustomer mirrors the provider customer record.
type SingleCallCustomer struct {
	Name      string `json:"name" validate:"required"`
	Number    string `json:"number" validate:"required"`
	Extension string `json:"extension,omitempty"`
}

// EndOfCallReportRequest is the provider's webhook payload. The nested
// pointers let the handler distinguish absent sections from empty ones;
// missing required fields make the report malformed.
type EndOfCallReportRequest struct {
	Message *ReportMessage `json:"message"`
}

// ReportMessage is the body of an end-of-call report.
type ReportMessage struct {
	Call        *ReportCall     `json:"call"`
	EndedReason string          `json:"endedReason"`
	Artifact    *ReportArtifact `json:"artifact"`
	Cost        float64         `json:"cost"`
}

// ReportCall carries the correlation id assigned at call placement.
type ReportCall struct {
	PhoneCallProviderID string `json:"phoneCallProviderId"`
}

// ReportArtifact carries post-call artifacts.
type ReportArtifact struct {
	RecordingURL string `json:"recordingUrl"`
}

// ToolCallRequest is the provider's tool-invocation webhook payload.
type ToolCallRequest struct {
	Message *ToolCallMessage `json:"message"`
}

// ToolCallMessage is the body of a tool-invocation webhook.
type ToolCallMessage struct {
	Call         *ReportCall `json:"call"`
	ToolCallList []ToolCall  `json:"toolCallList"`
}

// ToolCall is one in-call tool invocation.
type ToolCall struct {
	Function *ToolCallFunction `json:"function"`
}

// ToolCallFunction carries the tool name and its arguments.
type ToolCallFunction struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// DispatchResponse wraps the per-lead outcomes of one dispatch batch.
type DispatchResponse struct {
	Message string `json:"message"`
	Results any    `json:"results"`
}

// LeadsResponse returns the raw sheet snapshot, header row included.
type LeadsResponse struct {
	Rows [][]string `json:"rows"`
}

// ToolCallResponse echoes the argument the sheet holds after the webhook,
// matching the legacy contract consumed by the fill-missing variants.
type ToolCallResponse struct {
	Message         string `json:"message"`
	UpdatedArgument string `json:"updatedArgument"`
}
