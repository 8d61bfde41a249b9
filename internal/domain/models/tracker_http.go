package models

// Requests for tracker HTTP endpoints. Defined in domain for consistency and reuse.

type RSIRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	TF     string `query:"tf" json:"tf" default:"1h" validate:"oneof=1m 5m 15m 1h 4h 1d"`
}

type AgreementRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

type PointsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	TF     string `query:"tf" json:"tf" default:"1h" validate:"oneof=1m 5m 15m 1h 4h 1d"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=10000"`
}

type WatchRequest struct {
	Symbol     string  `json:"symbol" validate:"required"`
	TF         string  `json:"tf" default:"1h" validate:"oneof=1m 5m 15m 1h 4h 1d"`
	Period     int     `json:"period" default:"14" validate:"gte=2,lte=200"`
	Overbought float64 `json:"overbought" default:"70" validate:"gt=0,lte=100"`
	Oversold   float64 `json:"oversold" default:"30" validate:"gte=0,lt=100"`
	Hysteresis float64 `json:"hysteresis" default:"2" validate:"gte=0,lte=50"`
	Debounce   string  `json:"debounce" default:"5m"`
}

type UnwatchRequest struct {
	Symbol string `json:"symbol" validate:"required"`
	TF     string `json:"tf" default:"1h" validate:"oneof=1m 5m 15m 1h 4h 1d"`
}
