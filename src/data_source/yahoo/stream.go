package yahoo

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"benchmark-server/src/helpers"
	"benchmark-server/src/interfaces"
	"benchmark-server/src/models"
)

// Compile-time interface check.
var _ interfaces.IStreamConnection = (*StreamConn)(nil)

// -----------------------------------------------------------------------------

// StreamConn is one live websocket connection to the Yahoo streamer.
type StreamConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// -----------------------------------------------------------------------------

// streamEnvelope is the outer JSON frame of a v2 streamer message.
type streamEnvelope struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// subscribeCommand is the frame sent to register symbols.
type subscribeCommand struct {
	Subscribe []string `json:"subscribe"`
}

// -----------------------------------------------------------------------------

// ConnectStream dials the streamer websocket, going through the configured
// proxy when one is set.
func (p *YahooProvider) ConnectStream() (interfaces.IStreamConnection, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: time.Duration(p.Config.Network.RequestTimeout) * time.Second,
	}

	if p.Config.Network.Proxy != "" {
		proxyURL, err := url.Parse(p.Config.Network.Proxy)
		if err == nil {
			dialer.Proxy = http.ProxyURL(proxyURL)
		}
	}

	conn, _, err := dialer.Dial(p.Config.Provider.StreamURL, nil)
	if err != nil {
		return nil, helpers.NewConnectionError("websocket dial failed", err)
	}

	p.Logger.Info("Connected to streamer at %s", p.Config.Provider.StreamURL)
	return &StreamConn{conn: conn}, nil
}

// -----------------------------------------------------------------------------

// Subscribe registers the symbols on the live connection. The streamer
// expects lowercase identifiers.
func (c *StreamConn) Subscribe(symbols []string) error {
	if len(symbols) == 0 {
		return nil
	}

	lower := make([]string, 0, len(symbols))
	for _, s := range symbols {
		lower = append(lower, strings.ToLower(s))
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.WriteJSON(subscribeCommand{Subscribe: lower}); err != nil {
		return helpers.NewConnectionError("subscribe write failed", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// Listen blocks reading streamer frames and delivers each decoded tick to
// onTick until the connection errors or closes.
func (c *StreamConn) Listen(onTick func(models.MTick)) error {
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return helpers.NewConnectionError("stream read failed", err)
		}

		payload := message

		// v2 frames wrap the payload in a JSON envelope; v1 frames are the
		// bare base64 text.
		var env streamEnvelope
		if err := json.Unmarshal(message, &env); err == nil && env.Message != "" {
			if env.Type != "" && env.Type != "pricing" {
				continue
			}
			payload = []byte(env.Message)
		}

		decoded, err := base64.StdEncoding.DecodeString(string(payload))
		if err != nil {
			// Heartbeats and control frames are not base64 pricing data.
			continue
		}

		tick, err := DecodePricingData(decoded)
		if err != nil {
			continue
		}

		tick.ReceivedAt = time.Now().UTC()
		if json.Valid(message) {
			tick.Raw = json.RawMessage(message)
		} else {
			// v1 frames are bare base64 text; quote them so Raw stays valid JSON.
			quoted, _ := json.Marshal(string(message))
			tick.Raw = quoted
		}

		onTick(tick)
	}
}

// -----------------------------------------------------------------------------

func (c *StreamConn) Close() error {
	return c.conn.Close()
}
