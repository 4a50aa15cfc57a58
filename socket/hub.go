package socket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"propdesk/pkg/logger"
	"propdesk/store"

	"github.com/gorilla/websocket"
)

const (
	SnapshotType       = "SNAPSHOT"        // Full session state for the collection
	UpsertType         = "UPSERT"          // Record created or updated
	RemoveType         = "REMOVE"          // Record deleted
	RefreshType        = "REFRESH"         // Client asks for a fresh snapshot
	PresenceUpdateType = "PRESENCE_UPDATE" // A user joined or left the collection view
)

const snapshotTimeout = 10 * time.Second

type WSMessage struct {
	Type       string          `json:"type"`
	Collection string          `json:"collection"`
	UserID     string          `json:"user_id,omitempty"`
	ID         string          `json:"id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

type UserStatus struct {
	UserID   string    `json:"user_id"`
	LastSeen time.Time `json:"last_seen"`
}

// Loader fetches the current records of a collection from the source of truth.
type Loader interface {
	Snapshot(ctx context.Context, collection string) ([]store.Record, error)
}

// Publisher is what services need to announce changes.
type Publisher interface {
	Publish(msg WSMessage)
}

type Hub struct {
	Rooms      map[string]map[*Client]bool // collection -> clients
	Broadcast  chan WSMessage
	Register   chan *Client
	Unregister chan *Client
	refresh    chan *Client
	loaded     chan snapshotResult
	done       chan struct{}
	loads      sync.WaitGroup
	loader     Loader
	sessions   *store.Sessions
	mu         sync.Mutex
	Presence   map[string]map[string]UserStatus // collection -> userID -> status
}

type snapshotResult struct {
	client  *Client
	records []store.Record
	err     error
}

type Client struct {
	Hub        *Hub
	Conn       *websocket.Conn
	Collection string
	UserID     string
	SessionID  string
	Send       chan []byte
}

func NewHub(loader Loader, sessions *store.Sessions) *Hub {
	if sessions == nil {
		sessions = store.NewSessions()
	}
	return &Hub{
		Rooms:      make(map[string]map[*Client]bool),
		Broadcast:  make(chan WSMessage),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		refresh:    make(chan *Client),
		loaded:     make(chan snapshotResult),
		done:       make(chan struct{}),
		loader:     loader,
		sessions:   sessions,
		Presence:   make(map[string]map[string]UserStatus),
	}
}

// Run processes hub events until ctx is cancelled, then closes every client's
// send channel.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.Register:
			h.register(ctx, client)
		case client := <-h.Unregister:
			h.unregister(client)
		case client := <-h.refresh:
			if h.member(client) {
				h.loadSnapshot(ctx, client)
			}
		case res := <-h.loaded:
			h.sendSnapshot(res)
		case msg := <-h.Broadcast:
			h.broadcast(msg)
		}
	}
}

// Publish hands msg to the event loop. It returns immediately once the hub has stopped.
func (h *Hub) Publish(msg WSMessage) {
	select {
	case h.Broadcast <- msg:
	case <-h.done:
	}
}

// SessionState returns the state held for a client session.
func (h *Hub) SessionState(sessionID, collection string) (store.State, bool) {
	return h.sessions.Get(sessionID, collection)
}

func (h *Hub) register(ctx context.Context, client *Client) {
	h.mu.Lock()
	if h.Rooms[client.Collection] == nil {
		h.Rooms[client.Collection] = make(map[*Client]bool)
		h.Presence[client.Collection] = make(map[string]UserStatus)
		logger.Sugar.Infof("Opened room: %s", client.Collection)
	}
	h.Rooms[client.Collection][client] = true
	h.Presence[client.Collection][client.UserID] = UserStatus{UserID: client.UserID, LastSeen: time.Now()}
	h.mu.Unlock()

	h.loadSnapshot(ctx, client)
	h.broadcastPresenceUpdate(client.Collection)
}

func (h *Hub) member(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Rooms[client.Collection][client]
}

// loadSnapshot marks the client's session as loading and reads the collection
// in the background so the event loop keeps serving broadcasts.
func (h *Hub) loadSnapshot(ctx context.Context, client *Client) {
	h.sessions.Dispatch(client.SessionID, client.Collection, store.Requested())

	h.loads.Add(1)
	go func() {
		defer h.loads.Done()
		loadCtx, cancel := context.WithTimeout(ctx, snapshotTimeout)
		records, err := h.loader.Snapshot(loadCtx, client.Collection)
		cancel()

		select {
		case h.loaded <- snapshotResult{client: client, records: records, err: err}:
		case <-h.done:
		}
	}()
}

// sendSnapshot reduces a finished load into the client's session state and
// sends the resulting state. A failed load keeps the previous records. Clients
// that left while the load was running are ignored.
func (h *Hub) sendSnapshot(res snapshotResult) {
	client := res.client
	if !h.member(client) {
		return
	}

	var state store.State
	if res.err != nil {
		logger.Sugar.Errorf("Failed to load snapshot for %s: %v", client.Collection, res.err)
		state = h.sessions.Dispatch(client.SessionID, client.Collection, store.Failed(res.err))
	} else {
		state = h.sessions.Dispatch(client.SessionID, client.Collection, store.Loaded(res.records))
	}

	payload, err := json.Marshal(state)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling snapshot: %v", err)
		return
	}
	msg, _ := json.Marshal(WSMessage{Type: SnapshotType, Collection: client.Collection, UserID: client.UserID, Payload: payload})
	h.trySend(client, msg)
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	collection := client.Collection
	_, ok := h.Rooms[collection][client]
	if ok {
		delete(h.Rooms[collection], client)
		delete(h.Presence[collection], client.UserID)
		close(client.Send)
		if len(h.Rooms[collection]) == 0 {
			delete(h.Rooms, collection)
			delete(h.Presence, collection)
			logger.Sugar.Infof("Closed and cleaned up empty room: %s", collection)
		}
	}
	roomLeft := h.Rooms[collection] != nil
	h.mu.Unlock()

	if ok {
		h.sessions.Drop(client.SessionID)
	}
	if roomLeft {
		h.broadcastPresenceUpdate(collection)
	}
}

// broadcast applies a change event to every session viewing the collection and
// forwards it to everyone except the user who caused it.
func (h *Hub) broadcast(msg WSMessage) {
	var action store.Action
	switch msg.Type {
	case UpsertType:
		action = store.Upserted(store.Record{ID: msg.ID, Data: msg.Payload})
	case RemoveType:
		action = store.Removed(msg.ID)
	default:
		logger.Sugar.Warnf("Ignoring broadcast of unknown type %q", msg.Type)
		return
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
		return
	}

	h.mu.Lock()
	clients := make([]*Client, 0, len(h.Rooms[msg.Collection]))
	for client := range h.Rooms[msg.Collection] {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		h.sessions.Dispatch(client.SessionID, client.Collection, action)
		if client.UserID == msg.UserID {
			continue
		}
		if !h.trySend(client, payload) {
			logger.Sugar.Warnf("Client %s's send buffer is full. Unregistering.", client.UserID)
			h.unregister(client)
		}
	}
}

func (h *Hub) trySend(client *Client, payload []byte) bool {
	select {
	case client.Send <- payload:
		return true
	default:
		return false
	}
}

func (h *Hub) broadcastPresenceUpdate(collection string) {
	var statuses []UserStatus
	var clients []*Client

	h.mu.Lock()
	if presence, ok := h.Presence[collection]; ok {
		statuses = make([]UserStatus, 0, len(presence))
		for _, status := range presence {
			statuses = append(statuses, status)
		}
		clients = make([]*Client, 0, len(h.Rooms[collection]))
		for client := range h.Rooms[collection] {
			clients = append(clients, client)
		}
	}
	h.mu.Unlock()

	if len(clients) == 0 {
		return
	}

	payload, err := json.Marshal(statuses)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling presence broadcast: %v", err)
		return
	}
	msg, _ := json.Marshal(WSMessage{Type: PresenceUpdateType, Collection: collection, Payload: payload})

	for _, client := range clients {
		if !h.trySend(client, msg) {
			// The pumps deal with unresponsive clients.
			logger.Sugar.Warnf("Client %s's send buffer was full during presence update.", client.UserID)
		}
	}
}

func (h *Hub) shutdown() {
	close(h.done)
	h.loads.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	for collection, clients := range h.Rooms {
		for client := range clients {
			close(client.Send)
			h.sessions.Drop(client.SessionID)
		}
		delete(h.Rooms, collection)
		delete(h.Presence, collection)
	}
}

// UpsertEvent builds the broadcast for a created or updated record.
func UpsertEvent(collection, userID, id string, record any) (WSMessage, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return WSMessage{}, err
	}
	return WSMessage{Type: UpsertType, Collection: collection, UserID: userID, ID: id, Payload: payload}, nil
}

func RemoveEvent(collection, userID, id string) WSMessage {
	return WSMessage{Type: RemoveType, Collection: collection, UserID: userID, ID: id}
}
