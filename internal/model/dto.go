package model

// Request/response shapes for the cron trigger endpoints.

// SalesTriggerRequest accepts explicit dates, date templates
// ({{YESTERDAY}}, {{LAST_WEEK_START}}, ...) passed through verbatim by the
// scheduler, or nothing at all (defaults to yesterday).
type SalesTriggerRequest struct {
	StartDate   string `json:"startDate" form:"startDate"`
	EndDate     string `json:"endDate" form:"endDate"`
	Granularity string `json:"granularity" form:"granularity"`
}

type AdsTriggerRequest struct {
	StartDate    string `json:"startDate" form:"startDate"`
	EndDate      string `json:"endDate" form:"endDate"`
	CampaignType string `json:"campaignType" form:"campaignType"`
	ProfileID    string `json:"profileId" form:"profileId"`
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type SalesRunCounts struct {
	Sales  int `json:"sales"`
	Orders int `json:"orders"`
	Total  int `json:"total"`
}

type SalesRunSummary struct {
	Success          bool           `json:"success"`
	RecordsProcessed SalesRunCounts `json:"recordsProcessed"`
	DateRange        DateRange      `json:"dateRange"`
	DurationMs       int64          `json:"duration"`
	LogID            string         `json:"logId"`
}

type AdsAggregates struct {
	TotalImpressions int64   `json:"totalImpressions"`
	TotalClicks      int64   `json:"totalClicks"`
	TotalSpend       float64 `json:"totalSpend"`
	TotalSales       float64 `json:"totalSales"`
	AverageCTR       float64 `json:"averageCTR"`
	AverageROAS      float64 `json:"averageROAS"`
}

type AdsRunSummary struct {
	Success          bool          `json:"success"`
	RecordsProcessed int           `json:"recordsProcessed"`
	Summary          AdsAggregates `json:"summary"`
	DateRange        DateRange     `json:"dateRange"`
	ProfileID        string        `json:"profileId"`
	DurationMs       int64         `json:"duration"`
	LogID            string        `json:"logId"`
}
