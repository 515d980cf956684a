package session

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Store persists sessions in a keyed SQLite table with per-identity
// read-modify-write. Safe for concurrent use across identities; the flow
// engine serializes events per identity.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Session{}); err != nil {
		return nil, fmt.Errorf("migrate session table: %w", err)
	}
	return &Store{db: db}, nil
}

// Open opens (or creates) the session database at path.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	return NewStore(db)
}

// Get loads the session for identity, creating a default one when absent.
func (s *Store) Get(ctx context.Context, identity int64) (*Session, error) {
	var sess Session
	err := s.db.WithContext(ctx).First(&sess, "identity = ?", identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		sess = Session{Identity: identity}
		if err := s.db.WithContext(ctx).Create(&sess).Error; err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		return &sess, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	sess.normalize()
	return &sess, nil
}

// Save overwrites the whole session row.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	return s.db.WithContext(ctx).Save(sess).Error
}

// ClearCredentials wipes the stored token pair for identity.
func (s *Store) ClearCredentials(ctx context.Context, identity int64) error {
	return s.db.WithContext(ctx).Model(&Session{}).
		Where("identity = ?", identity).
		Updates(map[string]interface{}{
			"access_token":  "",
			"refresh_token": "",
		}).Error
}
