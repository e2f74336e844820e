package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"short-link-registry/model"
)

var (
	// ErrDuplicateCode is returned by InsertEntry when the short code is taken.
	ErrDuplicateCode = errors.New("short code already exists")
	// ErrNotFound is returned when no row matches the given code or token.
	ErrNotFound = errors.New("not found")
	// ErrAdminExists is returned by CreateAdmin once the singleton row is in
	// place.
	ErrAdminExists = errors.New("admin account already exists")
)

// Store owns all persistent state: the items, admin and sessions tables in a
// single embedded database file. No other package touches the database.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if necessary) the database file and migrates the
// schema. The connection pool is capped at one open connection: sqlite
// permits a single writer and this keeps concurrent handlers serialized
// without a long-lived exclusive connection.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.Entry{}, &model.AdminAccount{}, &model.Session{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	log.Info().Str("path", path).Msg("Mapping store opened")
	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping verifies database connectivity (used by the health endpoint).
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// isDuplicate recognizes a unique-constraint violation regardless of whether
// the driver translated it to gorm's sentinel.
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// InsertEntry persists a new mapping. Returns ErrDuplicateCode if the code
// is already taken; the caller owns the retry policy.
func (s *Store) InsertEntry(ctx context.Context, entry model.Entry) error {
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicateCode
		}
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// GetEntry loads the mapping for a code.
func (s *Store) GetEntry(ctx context.Context, code string) (model.Entry, error) {
	var entry model.Entry
	err := s.db.WithContext(ctx).First(&entry, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Entry{}, ErrNotFound
	}
	if err != nil {
		return model.Entry{}, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

// DeleteEntry removes the row for a code. Returns ErrNotFound if no row
// existed. Removal of any backing file is the caller's concern.
func (s *Store) DeleteEntry(ctx context.Context, code string) error {
	res := s.db.WithContext(ctx).Delete(&model.Entry{}, "code = ?", code)
	if res.Error != nil {
		return fmt.Errorf("delete entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListEntries returns up to limit entries, newest first.
func (s *Store) ListEntries(ctx context.Context, limit int) ([]model.Entry, error) {
	var entries []model.Entry
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// AdminCount reports how many admin rows exist (zero or one).
func (s *Store) AdminCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.AdminAccount{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count admin: %w", err)
	}
	return count, nil
}

// CreateAdmin inserts the singleton admin account. The primary key is
// pinned, so once a row exists every further insert fails with
// ErrAdminExists regardless of who raced whom.
func (s *Store) CreateAdmin(ctx context.Context, account model.AdminAccount) error {
	account.ID = model.AdminAccountID
	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		if isDuplicate(err) {
			return ErrAdminExists
		}
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

// GetAdmin looks up the admin account by username.
func (s *Store) GetAdmin(ctx context.Context, username string) (model.AdminAccount, error) {
	var account model.AdminAccount
	err := s.db.WithContext(ctx).First(&account, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.AdminAccount{}, ErrNotFound
	}
	if err != nil {
		return model.AdminAccount{}, fmt.Errorf("get admin: %w", err)
	}
	return account, nil
}

// CreateSession persists a freshly issued session token.
func (s *Store) CreateSession(ctx context.Context, session model.Session) error {
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// SessionExists reports whether a session row with this token exists.
func (s *Store) SessionExists(ctx context.Context, token string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Session{}).Where("token = ?", token).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("lookup session: %w", err)
	}
	return count > 0, nil
}

// DeleteSession removes a session row. Deleting an absent token is not an
// error, so logout stays idempotent.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	if err := s.db.WithContext(ctx).Delete(&model.Session{}, "token = ?", token).Error; err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
