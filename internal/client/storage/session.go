package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/feedpulse/internal/client/models"
	"github.com/dmitrijs2005/feedpulse/internal/client/repositories/kv"
	"github.com/dmitrijs2005/feedpulse/internal/common"
	"github.com/dmitrijs2005/feedpulse/internal/dbx"
)

// Session persists the token/user pair. Writers touching both keys do so in
// a single transaction so the pair is never left half-written.
type Session struct {
	db *sql.DB
}

func NewSession(db *sql.DB) *Session {
	return &Session{db: db}
}

func (s *Session) repo(tx dbx.DBTX) kv.Repository {
	return kv.NewSQLiteRepository(tx)
}

// Load returns the persisted token and user, read together in one query. A
// missing pair yields ("", nil, nil). A user record that no longer decodes is
// reported as nil.
func (s *Session) Load(ctx context.Context) (string, *models.User, error) {
	m, err := s.repo(s.db).List(ctx)
	if err != nil {
		return "", nil, err
	}

	var user *models.User
	if raw := m[common.SessionUserKey]; len(raw) > 0 {
		var u models.User
		if json.Unmarshal(raw, &u) == nil {
			user = &u
		}
	}
	return string(m[common.SessionTokenKey]), user, nil
}

// AccessToken returns the persisted token or "".
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	token, err := s.repo(s.db).Get(ctx, common.SessionTokenKey)
	if err != nil {
		return "", err
	}
	return string(token), nil
}

// Save writes token and user together.
func (s *Session) Save(ctx context.Context, token string, user *models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := s.repo(tx)
		if err := r.Set(ctx, common.SessionTokenKey, []byte(token)); err != nil {
			return err
		}
		return r.Set(ctx, common.SessionUserKey, raw)
	})
}

// SaveUser refreshes the cached user record next to an existing token. With
// no token stored it writes nothing, so a user never outlives its token.
func (s *Session) SaveUser(ctx context.Context, user *models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := s.repo(tx)
		token, err := r.Get(ctx, common.SessionTokenKey)
		if err != nil {
			return err
		}
		if len(token) == 0 {
			return nil
		}
		return r.Set(ctx, common.SessionUserKey, raw)
	})
}

// Clear drops everything in the session table.
func (s *Session) Clear(ctx context.Context) error {
	return s.repo(s.db).Clear(ctx)
}
