package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"tradebot/internal/types"
)

const binanceBaseURL = "https://api.binance.com"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Binance implements Exchange against Binance's spot REST API, signing
// private endpoints the way bybit.go signs v5 requests: build the query
// string, HMAC-SHA256 it with the API secret, and send the signature back
// as a query parameter rather than a header (Binance's own convention).
type Binance struct {
	apiKey    string
	apiSecret string

	httpClient *http.Client
}

// NewBinance builds an adapter reusing the package's pooled HTTP client.
func NewBinance(apiKey, apiSecret string) *Binance {
	return &Binance{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		httpClient: GetGlobalHTTPClient().GetClient(),
	}
}

func (b *Binance) Name() string { return "binance" }

// sign computes the hex HMAC-SHA256 signature Binance expects over the
// exact query string being sent.
func (b *Binance) sign(query string) string {
	h := hmac.New(sha256.New, []byte(b.apiSecret))
	h.Write([]byte(query))
	return hex.EncodeToString(h.Sum(nil))
}

// doRequest issues a request against endpoint with the given query params.
// When signed is true, a timestamp and signature are appended per Binance's
// USER_DATA/TRADE endpoint convention.
func (b *Binance) doRequest(ctx context.Context, method, endpoint string, params url.Values, signed bool) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}

	if signed {
		params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
		params.Set("recvWindow", "5000")
	}

	query := params.Encode()
	if signed {
		query += "&signature=" + b.sign(query)
	}

	reqURL := binanceBaseURL + endpoint
	if query != "" {
		reqURL += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, &ExchangeError{Exchange: "binance", Message: "build request", Original: err}
	}
	req.Header.Set("X-MBX-APIKEY", b.apiKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, &ExchangeError{Exchange: "binance", Message: "request failed", Original: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ExchangeError{Exchange: "binance", Message: "read response", Original: err}
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		_ = json.Unmarshal(body, &apiErr)
		return nil, &ExchangeError{
			Exchange: "binance",
			Code:     strconv.Itoa(apiErr.Code),
			Message:  apiErr.Msg,
		}
	}

	return body, nil
}

func (b *Binance) FetchTicker(ctx context.Context, symbol string) (*types.Ticker, error) {
	params := url.Values{"symbol": {symbol}}
	body, err := b.doRequest(ctx, http.MethodGet, "/api/v3/ticker/24hr", params, false)
	if err != nil {
		return nil, err
	}

	var resp struct {
		LastPrice          string `json:"lastPrice"`
		Volume             string `json:"volume"`
		PriceChangePercent string `json:"priceChangePercent"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ExchangeError{Exchange: "binance", Message: "decode ticker", Original: err}
	}

	price, err := decimal.NewFromString(resp.LastPrice)
	if err != nil {
		return nil, &ExchangeError{Exchange: "binance", Message: "parse lastPrice", Original: err}
	}
	volume, err := decimal.NewFromString(resp.Volume)
	if err != nil {
		return nil, &ExchangeError{Exchange: "binance", Message: "parse volume", Original: err}
	}
	change, err := decimal.NewFromString(resp.PriceChangePercent)
	if err != nil {
		return nil, &ExchangeError{Exchange: "binance", Message: "parse priceChangePercent", Original: err}
	}

	return &types.Ticker{
		Symbol:    symbol,
		Price:     price,
		Volume24h: volume,
		Change24h: change,
	}, nil
}

var binanceIntervals = map[types.Timeframe]string{
	types.OneMinute: "1m", types.ThreeMinutes: "3m", types.FiveMinutes: "5m",
	types.FifteenMin: "15m", types.ThirtyMinutes: "30m", types.OneHour: "1h",
	types.TwoHours: "2h", types.FourHours: "4h", types.SixHours: "6h",
	types.EightHours: "8h", types.TwelveHours: "12h", types.OneDay: "1d",
	types.ThreeDays: "3d", types.OneWeek: "1w", types.OneMonth: "1M",
}

func (b *Binance) FetchOHLCV(ctx context.Context, symbol string, timeframe types.Timeframe, limit int) ([]types.Candle, error) {
	interval, ok := binanceIntervals[timeframe]
	if !ok {
		return nil, &ExchangeError{Exchange: "binance", Message: fmt.Sprintf("unsupported timeframe %q", timeframe)}
	}

	params := url.Values{
		"symbol":   {symbol},
		"interval": {interval},
		"limit":    {strconv.Itoa(limit)},
	}
	body, err := b.doRequest(ctx, http.MethodGet, "/api/v3/klines", params, false)
	if err != nil {
		return nil, err
	}

	// Each kline is Binance's own array-of-arrays shape:
	// [openTime, open, high, low, close, volume, closeTime, ...]
	var raw [][]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &ExchangeError{Exchange: "binance", Message: "decode klines", Original: err}
	}

	candles := make([]types.Candle, 0, len(raw))
	for _, k := range raw {
		if len(k) < 6 {
			continue
		}
		openTimeMs, ok := k[0].(float64)
		if !ok {
			return nil, &ExchangeError{Exchange: "binance", Message: "malformed kline open time"}
		}
		open, err := decimalFromAny(k[1])
		if err != nil {
			return nil, &ExchangeError{Exchange: "binance", Message: "parse open", Original: err}
		}
		high, err := decimalFromAny(k[2])
		if err != nil {
			return nil, &ExchangeError{Exchange: "binance", Message: "parse high", Original: err}
		}
		low, err := decimalFromAny(k[3])
		if err != nil {
			return nil, &ExchangeError{Exchange: "binance", Message: "parse low", Original: err}
		}
		closePrice, err := decimalFromAny(k[4])
		if err != nil {
			return nil, &ExchangeError{Exchange: "binance", Message: "parse close", Original: err}
		}
		volume, err := decimalFromAny(k[5])
		if err != nil {
			return nil, &ExchangeError{Exchange: "binance", Message: "parse volume", Original: err}
		}

		candles = append(candles, types.Candle{
			Timestamp: time.UnixMilli(int64(openTimeMs)).UTC(),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
		})
	}

	return candles, nil
}

func decimalFromAny(v interface{}) (decimal.Decimal, error) {
	s, ok := v.(string)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("expected string, got %T", v)
	}
	return decimal.NewFromString(s)
}

func (b *Binance) FetchBalance(ctx context.Context) ([]types.Balance, error) {
	body, err := b.doRequest(ctx, http.MethodGet, "/api/v3/account", nil, true)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Balances []struct {
			Asset  string `json:"asset"`
			Free   string `json:"free"`
			Locked string `json:"locked"`
		} `json:"balances"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ExchangeError{Exchange: "binance", Message: "decode account", Original: err}
	}

	balances := make([]types.Balance, 0, len(resp.Balances))
	for _, a := range resp.Balances {
		free, err := decimal.NewFromString(a.Free)
		if err != nil {
			return nil, &ExchangeError{Exchange: "binance", Message: "parse free balance", Original: err}
		}
		locked, err := decimal.NewFromString(a.Locked)
		if err != nil {
			return nil, &ExchangeError{Exchange: "binance", Message: "parse locked balance", Original: err}
		}
		if free.IsZero() && locked.IsZero() {
			continue
		}
		balances = append(balances, types.Balance{
			Currency: a.Asset,
			Total:    free.Add(locked),
			Free:     free,
			Used:     locked,
		})
	}

	return balances, nil
}

// FetchPositions always returns an empty slice: the spot adapter carries
// no leveraged positions. A futures adapter would populate this from
// /fapi/v2/positionRisk.
func (b *Binance) FetchPositions(ctx context.Context) ([]types.Position, error) {
	return nil, nil
}

func (b *Binance) CreateOrder(ctx context.Context, req types.OrderRequest) (*types.Order, error) {
	params := url.Values{
		"symbol":   {req.Symbol},
		"side":     {strings.ToUpper(string(req.Side))},
		"type":     {binanceOrderType(req.OrderType)},
		"quantity": {req.Amount.String()},
	}
	if req.Price != nil {
		params.Set("price", req.Price.String())
		params.Set("timeInForce", "GTC")
	}

	body, err := b.doRequest(ctx, http.MethodPost, "/api/v3/order", params, true)
	if err != nil {
		return nil, err
	}

	return decodeBinanceOrder(body)
}

func binanceOrderType(t types.OrderType) string {
	switch t {
	case types.OrderTypeLimit:
		return "LIMIT"
	case types.OrderTypeStopLimit:
		return "STOP_LOSS_LIMIT"
	case types.OrderTypeStopMarket:
		return "STOP_LOSS"
	default:
		return "MARKET"
	}
}

func (b *Binance) CancelOrder(ctx context.Context, symbol, orderID string) error {
	params := url.Values{"symbol": {symbol}, "orderId": {orderID}}
	_, err := b.doRequest(ctx, http.MethodDelete, "/api/v3/order", params, true)
	return err
}

func (b *Binance) FetchOrder(ctx context.Context, symbol, orderID string) (*types.Order, error) {
	params := url.Values{"symbol": {symbol}, "orderId": {orderID}}
	body, err := b.doRequest(ctx, http.MethodGet, "/api/v3/order", params, true)
	if err != nil {
		return nil, err
	}
	return decodeBinanceOrder(body)
}

func (b *Binance) FetchOrders(ctx context.Context, symbol string) ([]types.Order, error) {
	params := url.Values{"symbol": {symbol}}
	body, err := b.doRequest(ctx, http.MethodGet, "/api/v3/allOrders", params, true)
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &ExchangeError{Exchange: "binance", Message: "decode orders", Original: err}
	}

	orders := make([]types.Order, 0, len(raw))
	for _, r := range raw {
		o, err := decodeBinanceOrder(r)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

type binanceOrderResponse struct {
	OrderID             int64  `json:"orderId"`
	Symbol              string `json:"symbol"`
	Side                string `json:"side"`
	Type                string `json:"type"`
	Status              string `json:"status"`
	Price               string `json:"price"`
	OrigQty             string `json:"origQty"`
	ExecutedQty         string `json:"executedQty"`
	CummulativeQuoteQty string `json:"cummulativeQuoteQty"`
	Time                int64  `json:"time"`
	UpdateTime          int64  `json:"updateTime"`
}

func decodeBinanceOrder(body []byte) (*types.Order, error) {
	var resp binanceOrderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ExchangeError{Exchange: "binance", Message: "decode order", Original: err}
	}

	amount, err := decimal.NewFromString(resp.OrigQty)
	if err != nil {
		return nil, &ExchangeError{Exchange: "binance", Message: "parse origQty", Original: err}
	}
	filled, err := decimal.NewFromString(resp.ExecutedQty)
	if err != nil {
		return nil, &ExchangeError{Exchange: "binance", Message: "parse executedQty", Original: err}
	}

	var price *decimal.Decimal
	if resp.Price != "" && resp.Price != "0.00000000" {
		p, err := decimal.NewFromString(resp.Price)
		if err != nil {
			return nil, &ExchangeError{Exchange: "binance", Message: "parse price", Original: err}
		}
		price = &p
	}

	createdAt := time.UnixMilli(resp.Time).UTC()
	updatedAt := time.UnixMilli(resp.UpdateTime).UTC()
	if resp.UpdateTime == 0 {
		updatedAt = createdAt
	}

	return &types.Order{
		ID:        strconv.FormatInt(resp.OrderID, 10),
		Symbol:    resp.Symbol,
		Side:      types.TradeSide(strings.ToLower(resp.Side)),
		OrderType: binanceOrderTypeFromString(resp.Type),
		Status:    binanceOrderStatus(resp.Status),
		Price:     price,
		Amount:    amount,
		Filled:    filled,
		Remaining: amount.Sub(filled),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func binanceOrderTypeFromString(s string) types.OrderType {
	switch s {
	case "LIMIT":
		return types.OrderTypeLimit
	case "STOP_LOSS_LIMIT":
		return types.OrderTypeStopLimit
	case "STOP_LOSS":
		return types.OrderTypeStopMarket
	default:
		return types.OrderTypeMarket
	}
}

func binanceOrderStatus(s string) types.OrderStatus {
	switch s {
	case "NEW":
		return types.OrderNew
	case "PARTIALLY_FILLED":
		return types.OrderPartiallyFilled
	case "FILLED":
		return types.OrderFilled
	case "CANCELED":
		return types.OrderCanceled
	case "REJECTED":
		return types.OrderRejected
	case "EXPIRED":
		return types.OrderExpired
	default:
		return types.OrderNew
	}
}
