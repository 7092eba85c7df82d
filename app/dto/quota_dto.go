package dto

// QuotaPeriodDTO reports usage against one quota ceiling
type QuotaPeriodDTO struct {
	Limit       int    `json:"limit"`
	Used        int    `json:"used"`
	Reserved    int    `json:"reserved"`
	Remaining   int    `json:"remaining"`
	PeriodStart string `json:"period_start"`
}

// GetQuotaResponse represents the current quota state of the caller's workspace
type GetQuotaResponse struct {
	Message   string         `json:"message"`
	Daily     QuotaPeriodDTO `json:"daily"`
	Monthly   QuotaPeriodDTO `json:"monthly"`
	Exhausted bool           `json:"exhausted"`
}
