package model

// Report responses carry parallel comma-joined lists, one element per
// calendar day in range. The presentation layer splits them back apart, so
// the encoding is part of the contract, not a convenience.

type TurnoverReport struct {
	DateList     string `json:"dateList"`
	TurnoverList string `json:"turnoverList"`
}

type UserReport struct {
	DateList      string `json:"dateList"`
	NewUserList   string `json:"newUserList"`
	TotalUserList string `json:"totalUserList"`
}

type OrderReport struct {
	DateList            string  `json:"dateList"`
	OrderCountList      string  `json:"orderCountList"`
	ValidOrderCountList string  `json:"validOrderCountList"`
	TotalOrderCount     int     `json:"totalOrderCount"`
	ValidOrderCount     int     `json:"validOrderCount"`
	OrderCompletionRate float64 `json:"orderCompletionRate"`
}

type TopSellersReport struct {
	NameList   string `json:"nameList"`
	NumberList string `json:"numberList"`
}

// BusinessSnapshot is the point-in-time dashboard view over one window.
type BusinessSnapshot struct {
	Turnover            float64 `json:"turnover"`
	ValidOrderCount     int     `json:"validOrderCount"`
	OrderCompletionRate float64 `json:"orderCompletionRate"`
	UnitPrice           float64 `json:"unitPrice"`
	NewUsers            int     `json:"newUsers"`
}

// OrderOverview buckets today's orders by status.
type OrderOverview struct {
	WaitingOrders   int `json:"waitingOrders"`
	DeliveredOrders int `json:"deliveredOrders"`
	CompletedOrders int `json:"completedOrders"`
	CancelledOrders int `json:"cancelledOrders"`
	AllOrders       int `json:"allOrders"`
}
