package duel_test

import (
	"context"
	"fmt"
	"sync"

	"reflexduel/backend/internal/models"
	"reflexduel/backend/internal/storage"
)

// fakeDirectory is an in-memory LobbyDirectory honoring the same contract
// as the gorm-backed one: joins are serialized, so concurrent callers can
// never overcommit seats.
type fakeDirectory struct {
	mu      sync.Mutex
	lobbies map[string]*models.Lobby
	byCode  map[string]string
	seq     int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		lobbies: make(map[string]*models.Lobby),
		byCode:  make(map[string]string),
	}
}

// seed installs a lobby without seating anyone, for join-contention tests.
func (d *fakeDirectory) seed(lobby *models.Lobby) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if lobby.ID == "" {
		lobby.ID = fmt.Sprintf("lobby-%d", d.seq)
	}
	d.lobbies[lobby.ID] = lobby
	d.byCode[lobby.Code] = lobby.ID
}

func (d *fakeDirectory) CreateLobby(ctx context.Context, p storage.CreateLobbyParams) (*models.Lobby, error) {
	if p.MaxPlayers < 2 {
		return nil, storage.ErrInvalidLobby
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	lobby := &models.Lobby{
		ID:         fmt.Sprintf("lobby-%d", d.seq),
		Code:       fmt.Sprintf("CODE%d", d.seq),
		Name:       p.Name,
		HostID:     p.Host.ID,
		GameType:   p.GameType,
		MaxPlayers: p.MaxPlayers,
		Locked:     p.Locked,
		Private:    p.Private,
		Players: []models.LobbyPlayer{
			{LobbyID: fmt.Sprintf("lobby-%d", d.seq), PlayerID: p.Host.ID, DisplayName: p.Host.DisplayName},
		},
	}
	d.lobbies[lobby.ID] = lobby
	d.byCode[lobby.Code] = lobby.ID
	return copyLobby(lobby), nil
}

func (d *fakeDirectory) JoinByCode(ctx context.Context, code string, p models.PlayerProfile) (*models.Lobby, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, ok := d.byCode[code]
	if !ok {
		return nil, storage.ErrLobbyNotFound
	}
	return d.join(id, p)
}

func (d *fakeDirectory) JoinByID(ctx context.Context, id string, p models.PlayerProfile) (*models.Lobby, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.join(id, p)
}

func (d *fakeDirectory) join(id string, p models.PlayerProfile) (*models.Lobby, error) {
	lobby, ok := d.lobbies[id]
	if !ok {
		return nil, storage.ErrLobbyNotFound
	}
	for _, seat := range lobby.Players {
		if seat.PlayerID == p.ID {
			return copyLobby(lobby), nil
		}
	}
	if lobby.Locked {
		return nil, storage.ErrLobbyLocked
	}
	if len(lobby.Players) >= lobby.MaxPlayers {
		return nil, storage.ErrLobbyFull
	}
	lobby.Players = append(lobby.Players, models.LobbyPlayer{
		LobbyID: lobby.ID, PlayerID: p.ID, DisplayName: p.DisplayName,
	})
	return copyLobby(lobby), nil
}

// JoinGlobal finds or creates the shared waiting room under one lock, the
// same at-most-one guarantee the unique code index gives the real directory.
func (d *fakeDirectory) JoinGlobal(ctx context.Context, name string, capacity int, p models.PlayerProfile) (*models.Lobby, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if id, ok := d.byCode[storage.GlobalLobbyCode]; ok {
		return d.join(id, p)
	}

	d.seq++
	lobby := &models.Lobby{
		ID:         fmt.Sprintf("lobby-%d", d.seq),
		Code:       storage.GlobalLobbyCode,
		Name:       name,
		HostID:     p.ID,
		GameType:   models.GameTypeReflex,
		MaxPlayers: capacity,
		Players: []models.LobbyPlayer{
			{LobbyID: fmt.Sprintf("lobby-%d", d.seq), PlayerID: p.ID, DisplayName: p.DisplayName},
		},
	}
	d.lobbies[lobby.ID] = lobby
	d.byCode[lobby.Code] = lobby.ID
	return copyLobby(lobby), nil
}

func (d *fakeDirectory) GetByCode(ctx context.Context, code string) (*models.Lobby, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, ok := d.byCode[code]
	if !ok {
		return nil, storage.ErrLobbyNotFound
	}
	return copyLobby(d.lobbies[id]), nil
}

// Query returns open public lobbies for the game type, oldest first.
func (d *fakeDirectory) Query(ctx context.Context, f storage.LobbyFilter) ([]models.Lobby, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []models.Lobby
	for i := 1; i <= d.seq; i++ {
		lobby, ok := d.lobbies[fmt.Sprintf("lobby-%d", i)]
		if !ok {
			continue
		}
		if lobby.Locked || lobby.Private || len(lobby.Players) >= lobby.MaxPlayers {
			continue
		}
		if f.GameType != "" && lobby.GameType != f.GameType {
			continue
		}
		out = append(out, *copyLobby(lobby))
	}
	return out, nil
}

func (d *fakeDirectory) RemovePlayer(ctx context.Context, lobbyID, playerID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	lobby, ok := d.lobbies[lobbyID]
	if !ok {
		return nil
	}
	seats := lobby.Players[:0]
	for _, s := range lobby.Players {
		if s.PlayerID != playerID {
			seats = append(seats, s)
		}
	}
	lobby.Players = seats
	return nil
}

func (d *fakeDirectory) playerCount(lobbyID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if lobby, ok := d.lobbies[lobbyID]; ok {
		return len(lobby.Players)
	}
	return 0
}

func copyLobby(l *models.Lobby) *models.Lobby {
	out := *l
	out.Players = append([]models.LobbyPlayer(nil), l.Players...)
	return &out
}

// fakeSessionStore keeps sessions in memory with updates serialized under
// a mutex, matching the CAS guarantee of the redis-backed store.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.MatchSession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]models.MatchSession)}
}

func (s *fakeSessionStore) Get(ctx context.Context, key string) (*models.MatchSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[key]
	if !ok {
		return nil, storage.ErrSessionNotFound
	}
	return &sess, nil
}

func (s *fakeSessionStore) Set(ctx context.Context, key string, sess *models.MatchSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = *sess
	return nil
}

func (s *fakeSessionStore) Update(ctx context.Context, key string, mutate func(*models.MatchSession) error) (*models.MatchSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[key]
	if !ok {
		return nil, storage.ErrSessionNotFound
	}
	if err := mutate(&sess); err != nil {
		return nil, err
	}
	s.sessions[key] = sess
	return &sess, nil
}

// flakySessionStore wraps the in-memory store with a one-shot Get failure,
// standing in for a transient store outage.
type flakySessionStore struct {
	*fakeSessionStore
	mu      sync.Mutex
	getErrs []error
}

func newFlakySessionStore() *flakySessionStore {
	return &flakySessionStore{fakeSessionStore: newFakeSessionStore()}
}

func (s *flakySessionStore) failNextGet(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getErrs = append(s.getErrs, err)
}

func (s *flakySessionStore) Get(ctx context.Context, key string) (*models.MatchSession, error) {
	s.mu.Lock()
	if len(s.getErrs) > 0 {
		err := s.getErrs[0]
		s.getErrs = s.getErrs[1:]
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()
	return s.fakeSessionStore.Get(ctx, key)
}

// recordingDispatcher captures pushes per player and can be told to fail
// for specific recipients.
type recordingDispatcher struct {
	mu      sync.Mutex
	sent    map[string][]models.PushMessage
	failFor map[string]error
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{
		sent:    make(map[string][]models.PushMessage),
		failFor: make(map[string]error),
	}
}

func (d *recordingDispatcher) SendToPlayer(ctx context.Context, playerID string, msg models.PushMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err, ok := d.failFor[playerID]; ok {
		return err
	}
	d.sent[playerID] = append(d.sent[playerID], msg)
	return nil
}

func (d *recordingDispatcher) messagesFor(playerID string) []models.PushMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.PushMessage(nil), d.sent[playerID]...)
}
