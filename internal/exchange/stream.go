package exchange

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"tradebot/internal/types"
	"tradebot/pkg/utils"
)

// StreamEventKind tags the variant carried by a StreamEvent.
type StreamEventKind string

const (
	StreamBalanceUpdate StreamEventKind = "balance"
	StreamOrderUpdate   StreamEventKind = "order"
	StreamTickerUpdate  StreamEventKind = "ticker"
	StreamStateChanged  StreamEventKind = "state"
	StreamError         StreamEventKind = "error"
)

// StreamEvent is the tagged union emitted on a Stream's channel: exactly one
// of the typed fields is populated, matching Kind.
type StreamEvent struct {
	Kind    StreamEventKind
	Balance *types.Balance
	Order   *types.Order
	Ticker  *types.Ticker
	State   WSConnectionState
	Err     error
}

// streamBufferSize bounds the backlog a slow consumer can build up. Once it
// is full, order updates block the read pump until there is room, and every
// other event kind is dropped with a warning log; the coordinator drains
// faster than one tick interval, so this only needs to absorb one burst, not
// a firehose.
const streamBufferSize = 100

// Stream is the market/account data channel for one Binance user stream,
// built on top of the reconnecting WebSocket manager.
type Stream struct {
	manager *WSReconnectManager
	events  chan StreamEvent
	log     *utils.Logger
}

// NewStream builds a Stream against a combined-streams Binance WS endpoint
// subscribing to the ticker channel of each given symbol plus the
// account/order user-data stream when listenKey is non-empty.
func NewStream(symbols []string, listenKey string) *Stream {
	s := &Stream{
		events: make(chan StreamEvent, streamBufferSize),
		log:    utils.GetGlobalLogger().WithComponent("exchange_stream"),
	}

	url := buildBinanceStreamURL(symbols, listenKey)
	s.manager = NewWSReconnectManager("binance", url, DefaultWSReconnectConfig())
	s.manager.SetOnMessage(s.handleMessage)
	s.manager.SetOnConnect(func() {
		s.emit(StreamEvent{Kind: StreamStateChanged, State: WSStateConnected})
	})
	s.manager.SetOnDisconnect(func(err error) {
		s.emit(StreamEvent{Kind: StreamStateChanged, State: WSStateReconnecting, Err: err})
	})

	return s
}

func buildBinanceStreamURL(symbols []string, listenKey string) string {
	streams := make([]string, 0, len(symbols)+1)
	for _, sym := range symbols {
		streams = append(streams, strings.ToLower(sym)+"@ticker")
	}
	if listenKey != "" {
		streams = append(streams, listenKey)
	}
	return fmt.Sprintf("wss://stream.binance.com:9443/stream?streams=%s", strings.Join(streams, "/"))
}

// Start connects the underlying WebSocket and begins streaming. The
// returned channel is closed when Close is called.
func (s *Stream) Start() (<-chan StreamEvent, error) {
	if err := s.manager.Connect(); err != nil {
		return nil, &ExchangeError{Exchange: "binance", Message: "stream connect", Original: err}
	}
	return s.events, nil
}

// Close shuts down the WebSocket connection and the event channel.
func (s *Stream) Close() error {
	err := s.manager.Close()
	close(s.events)
	return err
}

func (s *Stream) emit(evt StreamEvent) {
	if evt.Kind == StreamOrderUpdate {
		s.events <- evt
		return
	}
	select {
	case s.events <- evt:
	default:
		s.log.Warn("stream event dropped: consumer too slow", utils.String("kind", string(evt.Kind)))
	}
}

// handleMessage unwraps Binance's combined-stream envelope
// ({"stream":"...","data":{...}}) when present, then dispatches on the
// inner payload's "e" event-type tag.
func (s *Stream) handleMessage(raw []byte) {
	payload := raw

	var wrapped struct {
		Stream string               `json:"stream"`
		Data   jsoniter.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Stream != "" && len(wrapped.Data) > 0 {
		payload = wrapped.Data
	}

	var tagged struct {
		EventType string `json:"e"`
	}
	if err := json.Unmarshal(payload, &tagged); err != nil {
		s.emit(StreamEvent{Kind: StreamError, Err: fmt.Errorf("decode stream envelope: %w", err)})
		return
	}

	switch tagged.EventType {
	case "outboundAccountPosition":
		s.handleAccountUpdate(payload)
	case "executionReport":
		s.handleOrderUpdate(payload)
	case "24hrTicker":
		s.handleTickerUpdate(payload)
	case "ping":
		// liveness only, nothing to emit
	default:
		// unrecognized event types (trade, depth, ...) are ignored by design;
		// this adapter only tracks account/order/ticker state
	}
}

func (s *Stream) handleAccountUpdate(payload []byte) {
	var msg struct {
		Balances []struct {
			Asset  string `json:"a"`
			Free   string `json:"f"`
			Locked string `json:"l"`
		} `json:"B"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.emit(StreamEvent{Kind: StreamError, Err: fmt.Errorf("decode account update: %w", err)})
		return
	}

	for _, b := range msg.Balances {
		free, err := decimal.NewFromString(b.Free)
		if err != nil {
			continue
		}
		locked, err := decimal.NewFromString(b.Locked)
		if err != nil {
			continue
		}
		bal := &types.Balance{
			Currency: b.Asset,
			Free:     free,
			Used:     locked,
			Total:    free.Add(locked),
		}
		s.emit(StreamEvent{Kind: StreamBalanceUpdate, Balance: bal})
	}
}

func (s *Stream) handleOrderUpdate(payload []byte) {
	var msg struct {
		Symbol      string `json:"s"`
		Side        string `json:"S"`
		OrderType   string `json:"o"`
		Status      string `json:"X"`
		Price       string `json:"p"`
		Quantity    string `json:"q"`
		FilledQty   string `json:"z"`
		OrderID     int64  `json:"i"`
		TradeTime   int64  `json:"T"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.emit(StreamEvent{Kind: StreamError, Err: fmt.Errorf("decode order update: %w", err)})
		return
	}

	amount, _ := decimal.NewFromString(msg.Quantity)
	filled, _ := decimal.NewFromString(msg.FilledQty)

	var price *decimal.Decimal
	if p, err := decimal.NewFromString(msg.Price); err == nil && !p.IsZero() {
		price = &p
	}

	order := &types.Order{
		ID:        strconv.FormatInt(msg.OrderID, 10),
		Symbol:    msg.Symbol,
		Side:      types.TradeSide(strings.ToLower(msg.Side)),
		OrderType: binanceOrderTypeFromString(msg.OrderType),
		Status:    binanceOrderStatus(msg.Status),
		Price:     price,
		Amount:    amount,
		Filled:    filled,
		Remaining: amount.Sub(filled),
		UpdatedAt: time.UnixMilli(msg.TradeTime).UTC(),
	}

	s.emit(StreamEvent{Kind: StreamOrderUpdate, Order: order})
}

func (s *Stream) handleTickerUpdate(payload []byte) {
	var msg struct {
		Symbol             string `json:"s"`
		LastPrice          string `json:"c"`
		Volume             string `json:"v"`
		PriceChangePercent string `json:"P"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.emit(StreamEvent{Kind: StreamError, Err: fmt.Errorf("decode ticker update: %w", err)})
		return
	}

	price, err := decimal.NewFromString(msg.LastPrice)
	if err != nil {
		return
	}
	volume, _ := decimal.NewFromString(msg.Volume)
	change, _ := decimal.NewFromString(msg.PriceChangePercent)

	s.emit(StreamEvent{Kind: StreamTickerUpdate, Ticker: &types.Ticker{
		Symbol:    msg.Symbol,
		Price:     price,
		Volume24h: volume,
		Change24h: change,
	}})
}
