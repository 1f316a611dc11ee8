// Package memory provides process local repositories for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/manorfm/identity-server/internal/domain"
	"github.com/oklog/ulid/v2"
)

var (
	_ domain.EntityRepository = (*EntityRepository)(nil)
	_ domain.ClientRepository = (*ClientRepository)(nil)
	_ domain.TokenRepository  = (*TokenRepository)(nil)
)

// EntityRepository keeps entities in a map keyed by ID
type EntityRepository struct {
	mu       sync.RWMutex
	entities map[ulid.ULID]domain.Entity
}

func NewEntityRepository() *EntityRepository {
	return &EntityRepository{entities: make(map[ulid.ULID]domain.Entity)}
}

func (r *EntityRepository) Create(ctx context.Context, entity *domain.Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entities {
		if e.Username == entity.Username {
			return domain.ErrEntityAlreadyExists
		}
	}
	r.entities[entity.ID] = *entity
	return nil
}

func (r *EntityRepository) FindByID(ctx context.Context, id ulid.ULID) (*domain.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entities[id]
	if !ok {
		return nil, domain.ErrEntityNotFound
	}
	return &e, nil
}

func (r *EntityRepository) FindByUsername(ctx context.Context, username string) (*domain.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entities {
		if e.Username == username {
			found := e
			return &found, nil
		}
	}
	return nil, domain.ErrEntityNotFound
}

// ClientRepository keeps clients in a map keyed by ID
type ClientRepository struct {
	mu      sync.RWMutex
	clients map[ulid.ULID]domain.Client
}

func NewClientRepository() *ClientRepository {
	return &ClientRepository{clients: make(map[ulid.ULID]domain.Client)}
}

func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clients {
		if c.ClientID == client.ClientID {
			return domain.ErrClientAlreadyExists
		}
	}
	r.clients[client.ID] = copyClient(client)
	return nil
}

func (r *ClientRepository) Update(ctx context.Context, client *domain.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.clients[client.ID]
	if !ok {
		return domain.ErrClientNotFound
	}
	updated := copyClient(client)
	updated.ClientID = existing.ClientID
	updated.CreatedAt = existing.CreatedAt
	r.clients[client.ID] = updated
	return nil
}

func (r *ClientRepository) Delete(ctx context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[id]; !ok {
		return domain.ErrClientNotFound
	}
	delete(r.clients, id)
	return nil
}

func (r *ClientRepository) FindByID(ctx context.Context, id ulid.ULID) (*domain.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	if !ok {
		return nil, domain.ErrClientNotFound
	}
	found := copyClient(&c)
	return &found, nil
}

func (r *ClientRepository) FindByClientID(ctx context.Context, clientID string) (*domain.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.clients {
		if c.ClientID == clientID {
			found := copyClient(&c)
			return &found, nil
		}
	}
	return nil, domain.ErrClientNotFound
}

func (r *ClientRepository) List(ctx context.Context, limit, offset int) ([]*domain.Client, error) {
	r.mu.RLock()
	all := make([]*domain.Client, 0, len(r.clients))
	for _, c := range r.clients {
		found := copyClient(&c)
		all = append(all, &found)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].ID.Compare(all[j].ID) > 0
	})
	return page(all, limit, offset), nil
}

func copyClient(c *domain.Client) domain.Client {
	out := *c
	out.GrantTypes = append([]string(nil), c.GrantTypes...)
	return out
}

// TokenRepository keeps tokens in maps keyed by ID and by token string
type TokenRepository struct {
	mu      sync.RWMutex
	byID    map[ulid.ULID]domain.AccessToken
	byToken map[string]ulid.ULID
}

func NewTokenRepository() *TokenRepository {
	return &TokenRepository{
		byID:    make(map[ulid.ULID]domain.AccessToken),
		byToken: make(map[string]ulid.ULID),
	}
}

// Create stores all tokens or, when one collides with an existing token
// string, none of them.
func (r *TokenRepository) Create(ctx context.Context, tokens ...*domain.AccessToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range tokens {
		if _, exists := r.byToken[t.Token]; exists {
			return domain.ErrDatabaseQuery
		}
	}
	for _, t := range tokens {
		r.byID[t.ID] = *t
		r.byToken[t.Token] = t.ID
	}
	return nil
}

func (r *TokenRepository) FindByID(ctx context.Context, id ulid.ULID) (*domain.AccessToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	return &t, nil
}

func (r *TokenRepository) FindByToken(ctx context.Context, token string, tokenType domain.TokenType) (*domain.AccessToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byToken[token]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	t := r.byID[id]
	if t.Type != tokenType {
		return nil, domain.ErrTokenNotFound
	}
	return &t, nil
}

func (r *TokenRepository) FindActiveForEntityAndClient(ctx context.Context, entityID, clientID ulid.ULID, now time.Time) (*domain.AccessToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var newest *domain.AccessToken
	for _, t := range r.byID {
		if t.Type != domain.TokenTypeAccess || t.ClientID != clientID || t.EntityID == nil || *t.EntityID != entityID {
			continue
		}
		if t.Expired(now) {
			continue
		}
		if newest == nil || t.CreatedAt.After(newest.CreatedAt) {
			found := t
			newest = &found
		}
	}
	if newest == nil {
		return nil, domain.ErrTokenNotFound
	}
	return newest, nil
}

func (r *TokenRepository) ListByClient(ctx context.Context, clientID ulid.ULID) ([]*domain.AccessToken, error) {
	r.mu.RLock()
	tokens := []*domain.AccessToken{}
	for _, t := range r.byID {
		if t.ClientID == clientID {
			found := t
			tokens = append(tokens, &found)
		}
	}
	r.mu.RUnlock()

	sort.Slice(tokens, func(i, j int) bool {
		return tokens[i].CreatedAt.After(tokens[j].CreatedAt)
	})
	return tokens, nil
}

func (r *TokenRepository) Delete(ctx context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return domain.ErrTokenNotFound
	}
	delete(r.byID, id)
	delete(r.byToken, t.Token)
	return nil
}

func (r *TokenRepository) DeleteByClient(ctx context.Context, clientID ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.byID {
		if t.ClientID == clientID {
			delete(r.byID, id)
			delete(r.byToken, t.Token)
		}
	}
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
