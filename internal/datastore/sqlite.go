// sqlite.go implements the datastore interface on SQLite via GORM.
package datastore

import (
	"log/slog"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fennecbyte/covercache/internal/errors"
	"github.com/fennecbyte/covercache/internal/logging"
)

// SQLiteStore implements Interface using a GORM-managed SQLite database.
type SQLiteStore struct {
	Path string // database file path, ":memory:" for tests
	DB   *gorm.DB
	log  *slog.Logger
}

// New creates a SQLiteStore for the given database file. Open must be called
// before use.
func New(path string) *SQLiteStore {
	return &SQLiteStore{
		Path: path,
		log:  logging.ForService("datastore"),
	}
}

// Open connects to the database and migrates the schema.
func (s *SQLiteStore) Open() error {
	db, err := gorm.Open(sqlite.Open(s.Path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "open").
			Context("path", s.Path).
			Build()
	}

	if err := db.AutoMigrate(&Identity{}, &NotFound{}); err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "migrate").
			Build()
	}

	s.DB = db
	s.log.Info("Database opened", "path", s.Path)
	return nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s.DB == nil {
		return nil
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetIdentity returns the identity record for key, or nil if absent.
func (s *SQLiteStore) GetIdentity(key string) (*Identity, error) {
	var identity Identity
	err := s.DB.First(&identity, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, s.dbError(err, "get_identity", key)
	}
	return &identity, nil
}

// SaveIdentity inserts or updates an identity record.
func (s *SQLiteStore) SaveIdentity(identity *Identity) error {
	identity.UpdatedAt = time.Now()
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = identity.UpdatedAt
	}
	if err := s.DB.Save(identity).Error; err != nil {
		return s.dbError(err, "save_identity", identity.Key)
	}
	return nil
}

// DeleteIdentity removes the identity record for key, if any.
func (s *SQLiteStore) DeleteIdentity(key string) error {
	if err := s.DB.Delete(&Identity{}, "key = ?", key).Error; err != nil {
		return s.dbError(err, "delete_identity", key)
	}
	return nil
}

// ClearIdentities removes all identity records.
func (s *SQLiteStore) ClearIdentities() error {
	if err := s.DB.Exec("DELETE FROM identities").Error; err != nil {
		return s.dbError(err, "clear_identities", "")
	}
	return nil
}

// GetNotFound returns the negative-cache record for key, or nil if absent.
func (s *SQLiteStore) GetNotFound(key string) (*NotFound, error) {
	var record NotFound
	err := s.DB.First(&record, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, s.dbError(err, "get_not_found", key)
	}
	return &record, nil
}

// SaveNotFound inserts or overwrites a negative-cache record.
func (s *SQLiteStore) SaveNotFound(record *NotFound) error {
	if err := s.DB.Save(record).Error; err != nil {
		return s.dbError(err, "save_not_found", record.Key)
	}
	return nil
}

// DeleteNotFound removes the negative-cache record for key, if any.
func (s *SQLiteStore) DeleteNotFound(key string) error {
	if err := s.DB.Delete(&NotFound{}, "key = ?", key).Error; err != nil {
		return s.dbError(err, "delete_not_found", key)
	}
	return nil
}

// GetAllNotFound returns every negative-cache record, for the expiry sweep.
func (s *SQLiteStore) GetAllNotFound() ([]NotFound, error) {
	var records []NotFound
	if err := s.DB.Find(&records).Error; err != nil {
		return nil, s.dbError(err, "get_all_not_found", "")
	}
	return records, nil
}

// ClearNotFound removes all negative-cache records.
func (s *SQLiteStore) ClearNotFound() error {
	if err := s.DB.Exec("DELETE FROM not_founds").Error; err != nil {
		return s.dbError(err, "clear_not_found", "")
	}
	return nil
}

func (s *SQLiteStore) dbError(err error, operation, key string) error {
	eb := errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation)
	if key != "" {
		eb = eb.Context("key", key)
	}
	return eb.Build()
}
