// Package chathub pushes committed trade room events to connected
// WebSocket clients. The feed is best effort; clients still poll the API
// for the authoritative room state.
package chathub

import (
	"context"
	"seogaeum/backend/internal/metrics"
	"seogaeum/backend/internal/models"
	"sync"

	"go.uber.org/zap"
)

type ManagerService struct {
	clients map[string]Client
	mu      sync.RWMutex

	RegisterCh   chan Client
	UnregisterCh chan Client
	PubSubCh     chan models.TradeEvent

	done   chan struct{}
	logger *zap.Logger
}

func NewManagerService(logger *zap.Logger) *ManagerService {
	return &ManagerService{
		clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		PubSubCh:     make(chan models.TradeEvent, 64),
		done:         make(chan struct{}),
		logger:       logger,
	}
}

// Done is closed when Run returns.
func (m *ManagerService) Done() <-chan struct{} {
	return m.done
}

// Register hands c to the hub. It reports false if the hub has stopped.
func (m *ManagerService) Register(c Client) bool {
	select {
	case m.RegisterCh <- c:
		return true
	case <-m.done:
		return false
	}
}

// Unregister removes c from the hub, if the hub is still running.
func (m *ManagerService) Unregister(c Client) {
	select {
	case m.UnregisterCh <- c:
	case <-m.done:
	}
}

// ClientCount returns the number of connected clients.
func (m *ManagerService) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// HasClient reports whether a connection with the given id is registered.
func (m *ManagerService) HasClient(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.clients[id]
	return ok
}

// Run owns the client set until ctx is cancelled, then closes every client.
func (m *ManagerService) Run(ctx context.Context) {
	defer close(m.done)

	for {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			for id, c := range m.clients {
				c.Close()
				delete(m.clients, id)
			}
			m.mu.Unlock()
			metrics.HubClients.Set(0)
			return

		case c := <-m.RegisterCh:
			m.mu.Lock()
			m.clients[c.GetID()] = c
			m.mu.Unlock()
			m.updateGauge()
			m.logger.Debug("feed client registered",
				zap.String("client_id", c.GetID()),
				zap.String("user_id", c.GetUserID()),
				zap.String("room_id", c.GetRoomID()))

		case c := <-m.UnregisterCh:
			m.remove(c)

		case ev := <-m.PubSubCh:
			m.broadcast(ev)
		}
	}
}

func (m *ManagerService) broadcast(ev models.TradeEvent) {
	var slow []Client

	m.mu.RLock()
	for _, c := range m.clients {
		if c.GetRoomID() != ev.RoomID {
			continue
		}
		select {
		case c.GetSendChannel() <- ev:
		default:
			slow = append(slow, c)
		}
	}
	m.mu.RUnlock()

	for _, c := range slow {
		m.logger.Warn("dropping slow feed client",
			zap.String("client_id", c.GetID()),
			zap.String("room_id", c.GetRoomID()))
		m.remove(c)
	}
}

func (m *ManagerService) remove(c Client) {
	m.mu.Lock()
	_, ok := m.clients[c.GetID()]
	delete(m.clients, c.GetID())
	m.mu.Unlock()

	if ok {
		c.Close()
		m.updateGauge()
	}
}

func (m *ManagerService) updateGauge() {
	metrics.HubClients.Set(float64(m.ClientCount()))
}
