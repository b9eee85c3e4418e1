package chathub

import (
	"context"

	"devmatch/backend/internal/models"

	"go.uber.org/zap"
)

type joinRequest struct {
	client Client
	roomID string
}

type directFrame struct {
	client Client
	frame  models.ServerFrame
}

// ManagerService is the hub. A single goroutine (Run) owns the session set
// and the room membership, so room fan-out needs no locking and frames for
// one room leave the hub in the order they arrived.
type ManagerService struct {
	clients map[Client]struct{}
	rooms   map[string]map[Client]struct{}

	RegisterCh   chan Client
	UnregisterCh chan Client
	JoinCh       chan joinRequest
	BroadcastCh  chan models.ChatMessage
	DirectCh     chan directFrame

	Logger *zap.Logger

	done chan struct{}
}

// NewManagerService Constructor
func NewManagerService(logger *zap.Logger) *ManagerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ManagerService{
		clients:      make(map[Client]struct{}),
		rooms:        make(map[string]map[Client]struct{}),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		JoinCh:       make(chan joinRequest),
		BroadcastCh:  make(chan models.ChatMessage, 256),
		DirectCh:     make(chan directFrame, 64),
		Logger:       logger,
		done:         make(chan struct{}),
	}
}

// Run processes hub events until ctx is cancelled, then closes every session.
func (m *ManagerService) Run(ctx context.Context) {
	m.Logger.Info("chat hub started")
	defer func() {
		for client := range m.clients {
			m.drop(client)
		}
		close(m.done)
		m.Logger.Info("chat hub stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-m.RegisterCh:
			m.clients[client] = struct{}{}
			m.Logger.Debug("client registered", zap.String("user_id", client.GetUserID()))

		case client := <-m.UnregisterCh:
			if _, ok := m.clients[client]; ok {
				m.drop(client)
				m.Logger.Debug("client unregistered", zap.String("user_id", client.GetUserID()))
			}

		case req := <-m.JoinCh:
			if _, ok := m.clients[req.client]; !ok {
				continue
			}
			m.leaveRoom(req.client)
			if m.rooms[req.roomID] == nil {
				m.rooms[req.roomID] = make(map[Client]struct{})
			}
			m.rooms[req.roomID][req.client] = struct{}{}
			req.client.SetRoomID(req.roomID)
			m.push(req.client, models.ServerFrame{Type: models.FrameJoined, RoomID: req.roomID})

		case msg := <-m.BroadcastCh:
			frame := models.MessageFrame(msg)
			for client := range m.rooms[msg.RoomID] {
				m.push(client, frame)
			}

		case direct := <-m.DirectCh:
			if _, ok := m.clients[direct.client]; ok {
				m.push(direct.client, direct.frame)
			}
		}
	}
}

// Register adds a session to the hub.
func (m *ManagerService) Register(client Client) {
	select {
	case m.RegisterCh <- client:
	case <-m.done:
	}
}

// Unregister removes a session and closes it.
func (m *ManagerService) Unregister(client Client) {
	select {
	case m.UnregisterCh <- client:
	case <-m.done:
	}
}

// Join moves a session into roomID. The session receives a joined frame
// before any message broadcast to the room afterwards.
func (m *ManagerService) Join(client Client, roomID string) {
	select {
	case m.JoinCh <- joinRequest{client: client, roomID: roomID}:
	case <-m.done:
	}
}

// Broadcast delivers msg to every session joined to msg.RoomID.
func (m *ManagerService) Broadcast(msg models.ChatMessage) {
	select {
	case m.BroadcastCh <- msg:
	case <-m.done:
	}
}

// Deliver pushes a frame to one session if it is still registered.
func (m *ManagerService) Deliver(client Client, frame models.ServerFrame) {
	select {
	case m.DirectCh <- directFrame{client: client, frame: frame}:
	case <-m.done:
	}
}

// Done is closed once Run has returned.
func (m *ManagerService) Done() <-chan struct{} {
	return m.done
}

// push never blocks the hub; a session that cannot keep up is dropped.
func (m *ManagerService) push(client Client, frame models.ServerFrame) {
	select {
	case client.GetSendChannel() <- frame:
	default:
		m.Logger.Warn("dropping slow client",
			zap.String("user_id", client.GetUserID()),
			zap.String("room_id", client.GetRoomID()))
		m.drop(client)
	}
}

func (m *ManagerService) drop(client Client) {
	m.leaveRoom(client)
	delete(m.clients, client)
	client.Close()
}

func (m *ManagerService) leaveRoom(client Client) {
	roomID := client.GetRoomID()
	if roomID == "" {
		return
	}
	if members := m.rooms[roomID]; members != nil {
		delete(members, client)
		if len(members) == 0 {
			delete(m.rooms, roomID)
		}
	}
	client.SetRoomID("")
}
