package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/amirphl/signal-trader/internal/utils"
	"github.com/gorilla/websocket"
)

// WallexSocketURL is the Socket.IO endpoint of the Wallex broadcaster.
var WallexSocketURL = (&url.URL{
	Scheme:   "wss",
	Host:     "api.wallex.ir",
	Path:     "/socket.io/",
	RawQuery: url.Values{"EIO": {"4"}, "transport": {"websocket"}}.Encode(),
}).String()

// WallexTrade represents a trade message from Wallex
type WallexTrade struct {
	IsBuyOrder bool      `json:"isBuyOrder"`
	Quantity   string    `json:"quantity"`
	Price      string    `json:"price"`
	Timestamp  time.Time `json:"timestamp"`
}

// ConnectionState represents the state of the websocket connection
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
	Reconnecting
)

func (s ConnectionState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// TradeFeed keeps the last trade of one symbol from the Wallex trade channel.
// Only the latest trade is stored.
type TradeFeed struct {
	url    string
	symbol string

	mu        sync.RWMutex
	state     ConnectionState
	healthErr error
	lastTrade *WallexTrade
	lastSeen  time.Time
}

// NewTradeFeed creates a feed for symbol; an empty socketURL selects WallexSocketURL.
func NewTradeFeed(socketURL, symbol string) *TradeFeed {
	if socketURL == "" {
		socketURL = WallexSocketURL
	}
	return &TradeFeed{
		url:    socketURL,
		symbol: NormalizeSymbol(symbol),
		state:  Disconnected,
	}
}

func (f *TradeFeed) channel() string {
	return f.symbol + "@trade"
}

// Start connects in the background and reconnects with backoff until ctx is done.
func (f *TradeFeed) Start(ctx context.Context) {
	go func() {
		retryDelay := time.Second
		for {
			err := f.connectAndStream(ctx)
			if ctx.Err() != nil {
				f.setState(Disconnected, nil)
				return
			}
			f.setState(Reconnecting, err)
			utils.GetLogger().Printf("WallexWebsocket | [%s] Disconnected, retrying in %v: %v", f.symbol, retryDelay, err)
			select {
			case <-ctx.Done():
				f.setState(Disconnected, nil)
				return
			case <-time.After(retryDelay):
			}
			if retryDelay < 60*time.Second {
				retryDelay *= 2
			}
		}
	}()
}

// connectAndStream handles a single websocket connection session
func (f *TradeFeed) connectAndStream(ctx context.Context) error {
	f.setState(Connecting, nil)

	c, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	f.setState(Connected, nil)
	utils.GetLogger().Printf("WallexWebsocket | [%s] Connection established", f.symbol)

	// unblock ReadMessage on shutdown
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	// Socket.IO connect
	if err := c.WriteMessage(websocket.TextMessage, []byte("40")); err != nil {
		return err
	}

	subscribed := false
	for {
		c.SetReadDeadline(time.Now().Add(30 * time.Second))
		_, message, err := c.ReadMessage()
		if err != nil {
			return err
		}
		msg := string(message)

		switch {
		case msg == "2":
			// Socket.IO ping
			if err := c.WriteMessage(websocket.TextMessage, []byte("3")); err != nil {
				return err
			}
		case strings.HasPrefix(msg, "40") && !subscribed:
			if err := c.WriteMessage(websocket.TextMessage, subscribeMessage(f.channel())); err != nil {
				return err
			}
			subscribed = true
			utils.GetLogger().Printf("WallexWebsocket | Subscribed to %s channel", f.channel())
		case strings.HasPrefix(msg, "42"):
			if trade, ok := parseTradeMessage(msg, f.channel()); ok {
				f.update(trade)
			}
		}
	}
}

// subscribeMessage builds 42["subscribe",{"channel":"..."}]
func subscribeMessage(channel string) []byte {
	payload, _ := json.Marshal(struct {
		Channel string `json:"channel"`
	}{Channel: channel})
	return []byte(fmt.Sprintf(`42["subscribe",%s]`, payload))
}

// parseTradeMessage decodes 42["Broadcaster","<channel>",{trade}].
func parseTradeMessage(msg, channel string) (WallexTrade, bool) {
	if !strings.HasPrefix(msg, "42") {
		return WallexTrade{}, false
	}
	var event []json.RawMessage
	if err := json.Unmarshal([]byte(msg[2:]), &event); err != nil || len(event) < 3 {
		return WallexTrade{}, false
	}
	var name, ch string
	if json.Unmarshal(event[0], &name) != nil || name != "Broadcaster" {
		return WallexTrade{}, false
	}
	if json.Unmarshal(event[1], &ch) != nil || ch != channel {
		return WallexTrade{}, false
	}
	var trade WallexTrade
	if err := json.Unmarshal(event[2], &trade); err != nil {
		return WallexTrade{}, false
	}
	if p, err := strconv.ParseFloat(trade.Price, 64); err != nil || p <= 0 {
		return WallexTrade{}, false
	}
	return trade, true
}

func (f *TradeFeed) update(trade WallexTrade) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastTrade = &trade
	f.lastSeen = time.Now()
}

func (f *TradeFeed) setState(state ConnectionState, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
	f.healthErr = err
}

func (f *TradeFeed) State() ConnectionState {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

func (f *TradeFeed) Health() error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.healthErr
}

// LastPrice returns the price of the latest trade if it was received within maxAge.
func (f *TradeFeed) LastPrice(maxAge time.Duration) (float64, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.lastTrade == nil || time.Since(f.lastSeen) > maxAge {
		return 0, false
	}
	p, err := strconv.ParseFloat(f.lastTrade.Price, 64)
	if err != nil {
		return 0, false
	}
	return p, true
}
