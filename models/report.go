package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReportFilter string

const (
	ReportDaily   ReportFilter = "daily"
	ReportWeekly  ReportFilter = "weekly"
	ReportMonthly ReportFilter = "monthly"
	ReportYearly  ReportFilter = "yearly"
	ReportCustom  ReportFilter = "custom"
)

type SalesReportQuery struct {
	Filter    ReportFilter
	StartDate string
	EndDate   string
}

func (q SalesReportQuery) Validate() error {
	f := FieldErrors{}
	switch q.Filter {
	case ReportDaily, ReportWeekly, ReportMonthly, ReportYearly:
	case ReportCustom:
		start, errStart := time.Parse(dateLayout, q.StartDate)
		end, errEnd := time.Parse(dateLayout, q.EndDate)
		if errStart != nil {
			f["startDate"] = "Start date is required for a custom range"
		}
		if errEnd != nil {
			f["endDate"] = "End date is required for a custom range"
		}
		if errStart == nil && errEnd == nil && start.After(end) {
			f["endDate"] = "End date must not be before start date"
		}
	default:
		f["filter"] = "Unknown report filter"
	}
	return f.Err()
}

type SalesChart struct {
	Labels []string          `json:"labels"`
	Data   []decimal.Decimal `json:"data"`
}

type SalesReport struct {
	Chart              SalesChart      `json:"chart"`
	OverallSalesCount  int             `json:"overallSalesCount"`
	OverallOrderAmount decimal.Decimal `json:"overallOrderAmount"`
	OverallDiscount    decimal.Decimal `json:"overallDiscount"`
}

type TopProduct struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	ProductName string `json:"productName,omitempty"`
	Image       string `json:"image,omitempty"`
	Category    string `json:"category,omitempty"`
	Sales       int    `json:"sales"`
}

type TopCategory struct {
	CategoryName string `json:"categoryName"`
	Sales        int    `json:"sales"`
}

type TopSelling struct {
	TopProducts   []TopProduct  `json:"topProducts"`
	TopCategories []TopCategory `json:"topCategories"`
}
