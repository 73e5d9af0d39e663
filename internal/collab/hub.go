package collab

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Room groups the clients currently watching one scene.
type Room struct {
	sceneID  string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
}

func NewRoom(sceneID string) *Room {
	return &Room{
		sceneID:  sceneID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
	}
}

// Hub fans out presence and scene-damage messages to every client watching
// the same scene. One Hub serves every scene in the process; a Room is
// created lazily on first join and torn down once empty.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // sceneID -> room
	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SceneID]
	if !ok {
		room = NewRoom(client.SceneID)
		h.rooms[client.SceneID] = room
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg := &Message{
		Type:    TypePresenceJoin,
		UserID:  client.UserID,
		Payload: joinPayload,
	}
	h.broadcastToRoom(client.SceneID, joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "scene", client.SceneID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SceneID]
	if !ok {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	close(client.send)
	room.presence.Remove(client.UserID)

	if len(room.clients) == 0 {
		delete(h.rooms, client.SceneID)
	}
	h.mu.Unlock()

	leavePayload, _ := json.Marshal(PresenceLeavePayload{
		UserID: client.UserID,
	})
	leaveMsg := &Message{
		Type:    TypePresenceLeave,
		UserID:  client.UserID,
		Payload: leavePayload,
	}
	h.broadcastToRoom(client.SceneID, leaveMsg, "")

	slog.Info("client left", "user", client.UserID, "scene", client.SceneID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName

	h.mu.RLock()
	room, ok := h.rooms[sender.SceneID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	room.presence.Update(sender.UserID, &presence)

	outPayload, _ := json.Marshal(presence)
	outMsg := &Message{
		Type:    TypePresenceUpdate,
		UserID:  sender.UserID,
		Payload: outPayload,
	}
	h.broadcastToRoom(sender.SceneID, outMsg, sender.ClientID)
}

// BroadcastDamage sends a scene.damage message to every client watching
// sceneID, called by the scene's owner after Scene.Commit.
func (h *Hub) BroadcastDamage(sceneID string, damage DamagePayload) {
	payload, err := json.Marshal(damage)
	if err != nil {
		slog.Error("marshal damage payload", "error", err)
		return
	}
	msg := &Message{
		Type:    TypeSceneDamage,
		SceneID: sceneID,
		Payload: payload,
	}
	h.broadcastToRoom(sceneID, msg, "")
}

func (h *Hub) broadcastToRoom(sceneID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[sceneID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}
