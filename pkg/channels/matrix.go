package channels

import (
	"context"
	"fmt"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/id"
)

// Matrix sends messages into Matrix rooms bridged to a third-party
// messenger. Each recipient handle maps to the room that reaches it.
type Matrix struct {
	client  *mautrix.Client
	rooms   map[string]id.RoomID
	timeout time.Duration
}

// NewMatrix creates a Matrix composer. rooms maps recipient handles to
// room ids.
func NewMatrix(homeserver, userID, accessToken string, rooms map[string]string) (*Matrix, error) {
	client, err := mautrix.NewClient(homeserver, id.UserID(userID), accessToken)
	if err != nil {
		return nil, fmt.Errorf("create matrix client: %w", err)
	}

	m := &Matrix{
		client:  client,
		rooms:   make(map[string]id.RoomID, len(rooms)),
		timeout: 10 * time.Second,
	}
	for handle, room := range rooms {
		m.rooms[handle] = id.RoomID(room)
	}
	return m, nil
}

func (m *Matrix) Name() string { return "matrix" }

func (m *Matrix) CanSend() bool { return len(m.rooms) > 0 }

func (m *Matrix) Send(ctx context.Context, handle, body string) error {
	room, ok := m.rooms[handle]
	if !ok {
		return fmt.Errorf("no matrix room for %q: %w", handle, ErrNotConfigured)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if _, err := m.client.SendText(ctx, room, body); err != nil {
		return fmt.Errorf("send matrix message: %w", err)
	}
	return nil
}
