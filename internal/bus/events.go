package bus

// PriceEvent is a price update for a single symbol. The symbol routes the
// event to its partition so per-symbol ordering holds.
type PriceEvent struct {
	Symbol           string  `json:"symbol"`
	Price            float64 `json:"price"`
	MarketCap        float64 `json:"marketCap,omitempty"`
	Volume24h        float64 `json:"volume24h,omitempty"`
	Change24h        float64 `json:"change24h,omitempty"`
	ChangePercent24h float64 `json:"changePercent24h,omitempty"`
	Timestamp        string  `json:"timestamp"`
}

// SentimentEvent carries a sentiment score for a symbol. Score range [-1,1]
// and confidence range [0,1] are the producer's responsibility.
type SentimentEvent struct {
	Symbol     string  `json:"symbol"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
	Title      string  `json:"title,omitempty"`
	Content    string  `json:"content,omitempty"`
	Timestamp  string  `json:"timestamp"`
}

// AlertEvent notifies a user about a triggered alert. Keyed by user id so
// one user's alerts stay ordered.
type AlertEvent struct {
	UserID    string `json:"userId"`
	AlertID   string `json:"alertId"`
	Symbol    string `json:"symbol"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// PortfolioEvent reflects a change to a user's portfolio holdings.
type PortfolioEvent struct {
	UserID     string  `json:"userId"`
	Symbol     string  `json:"symbol"`
	Amount     float64 `json:"amount"`
	TotalValue float64 `json:"totalValue"`
	Timestamp  string  `json:"timestamp"`
}

// PredictionEvent is a model- or heuristic-produced price prediction.
type PredictionEvent struct {
	Symbol         string  `json:"symbol"`
	CurrentPrice   float64 `json:"currentPrice"`
	PredictedPrice float64 `json:"predictedPrice"`
	Confidence     float64 `json:"confidence"`
	Timeframe      string  `json:"timeframe"`
	Timestamp      string  `json:"timestamp"`
}

// event is satisfied by every record the publisher can append: each one
// names its partition key and carries its own ISO-8601 timestamp.
type event interface {
	key() string
	timestamp() string
}

func (e PriceEvent) key() string      { return e.Symbol }
func (e SentimentEvent) key() string  { return e.Symbol }
func (e AlertEvent) key() string      { return e.UserID }
func (e PortfolioEvent) key() string  { return e.UserID }
func (e PredictionEvent) key() string { return e.Symbol }

func (e PriceEvent) timestamp() string      { return e.Timestamp }
func (e SentimentEvent) timestamp() string  { return e.Timestamp }
func (e AlertEvent) timestamp() string      { return e.Timestamp }
func (e PortfolioEvent) timestamp() string  { return e.Timestamp }
func (e PredictionEvent) timestamp() string { return e.Timestamp }
