package dashboard

// MonthlySales is the six month revenue series, oldest month first.
type MonthlySales struct {
	Months []string  `json:"months"`
	Sales  []float64 `json:"sales"`
}

// RevenueTrend is the seven day revenue series, oldest day first.
type RevenueTrend struct {
	Days    []string  `json:"days"`
	Revenue []float64 `json:"revenue"`
}

// TypeRevenue is the revenue attributed to one product type.
type TypeRevenue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Summary is the full dashboard payload.
type Summary struct {
	TotalProducts      int64         `json:"totalProducts"`
	TotalCustomers     int64         `json:"totalCustomers"`
	TodaysSalesRevenue float64       `json:"todaysSalesRevenue"`
	MonthlySales       MonthlySales  `json:"monthlySales"`
	SalesByProductType []TypeRevenue `json:"salesByProductType"`
	RevenueTrend       RevenueTrend  `json:"revenueTrend"`
}
