package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Manager tracks the WebSocket clients watching each auction
type Manager struct {
	// auctionID -> *sync.Map of *Client
	subscribers sync.Map

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	direct     chan *directMessage

	log logrus.FieldLogger
}

type directMessage struct {
	client  *Client
	payload []byte
}

// Client is one WebSocket connection watching an auction
type Client struct {
	ID        string
	AuctionID string
	Conn      *websocket.Conn
	Send      chan []byte
	// Limiter bounds inbound messages; a client that floods is disconnected
	Limiter *rate.Limiter
}

// BroadcastMessage is an event for everybody watching an auction
type BroadcastMessage struct {
	AuctionID string
	Payload   []byte
}

// NewManager creates a manager; call Run to start it
func NewManager(log logrus.FieldLogger) *Manager {
	return &Manager{
		register:   make(chan *Client),
		unregister: make(chan *Client, 64),
		broadcast:  make(chan *BroadcastMessage, 256),
		direct:     make(chan *directMessage, 64),
		log:        log,
	}
}

// Run serialises registration and fan-out until stop is closed
func (m *Manager) Run(stop <-chan struct{}) {
	for {
		select {
		case client := <-m.register:
			m.registerClient(client)
		case client := <-m.unregister:
			m.unregisterClient(client)
		case message := <-m.broadcast:
			m.broadcastToAuction(message.AuctionID, message.Payload)
		case message := <-m.direct:
			m.sendTo(message.client, message.payload)
		case <-stop:
			return
		}
	}
}

// RegisterClient adds a client and starts its write pump
func (m *Manager) RegisterClient(client *Client) {
	m.register <- client
}

// Broadcast queues payload for every client of auctionID
func (m *Manager) Broadcast(auctionID string, payload []byte) {
	m.broadcast <- &BroadcastMessage{AuctionID: auctionID, Payload: payload}
}

// Send queues payload for a single client
func (m *Manager) Send(client *Client, payload []byte) {
	m.direct <- &directMessage{client: client, payload: payload}
}

func (m *Manager) registerClient(client *Client) {
	subscribers, _ := m.subscribers.LoadOrStore(client.AuctionID, &sync.Map{})
	subscribers.(*sync.Map).Store(client, true)

	m.log.WithFields(logrus.Fields{"client_id": client.ID, "auction_id": client.AuctionID}).Debug("client subscribed")

	go client.writePump()
}

// unregisterClient is idempotent: only the call that removes the client
// closes its channel
func (m *Manager) unregisterClient(client *Client) {
	subscribers, ok := m.subscribers.Load(client.AuctionID)
	if !ok {
		return
	}
	if _, loaded := subscribers.(*sync.Map).LoadAndDelete(client); !loaded {
		return
	}

	close(client.Send)
	client.Conn.Close()

	m.log.WithFields(logrus.Fields{"client_id": client.ID, "auction_id": client.AuctionID}).Debug("client unsubscribed")
}

func (m *Manager) broadcastToAuction(auctionID string, payload []byte) {
	subscribers, ok := m.subscribers.Load(auctionID)
	if !ok {
		return
	}

	count := 0
	subscribers.(*sync.Map).Range(func(key, _ any) bool {
		client := key.(*Client)
		select {
		case client.Send <- payload:
			count++
		default:
			// slow client; drop it rather than block the others
			m.unregisterClient(client)
		}
		return true
	})

	m.log.WithFields(logrus.Fields{"auction_id": auctionID, "clients": count}).Debug("event broadcast")
}

func (m *Manager) sendTo(client *Client, payload []byte) {
	subscribers, ok := m.subscribers.Load(client.AuctionID)
	if !ok {
		return
	}
	if _, registered := subscribers.(*sync.Map).Load(client); !registered {
		return
	}
	select {
	case client.Send <- payload:
	default:
		m.unregisterClient(client)
	}
}

// SubscriberCount returns the number of clients watching an auction
func (m *Manager) SubscriberCount(auctionID string) int {
	subscribers, ok := m.subscribers.Load(auctionID)
	if !ok {
		return 0
	}
	count := 0
	subscribers.(*sync.Map).Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only keeps the connection alive; clients have nothing to say
// beyond pongs, so anything over the rate limit ends the session
func (c *Client) readPump(unregister chan<- *Client, log logrus.FieldLogger) {
	defer func() {
		unregister <- c
	}()

	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).WithField("client_id", c.ID).Warn("websocket read failed")
			}
			return
		}
		if c.Limiter != nil && !c.Limiter.Allow() {
			log.WithField("client_id", c.ID).Warn("client exceeded message rate, disconnecting")
			return
		}
	}
}

// StartReadPump starts the read pump for this client
func (m *Manager) StartReadPump(c *Client) {
	go c.readPump(m.unregister, m.log)
}
