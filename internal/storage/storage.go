package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	KeySession = "user"
	KeyCart    = "cart"
)

var ErrNotFound = errors.New("not found")

type Item struct {
	Scope     string    `gorm:"primaryKey;size:128"`
	Key       string    `gorm:"column:item_key;primaryKey;size:128"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Item) TableName() string {
	return "local_storage"
}

// Local is a durable key/value store scoped by origin. Writes are last-write-wins.
type Local struct {
	DB    *gorm.DB
	Scope string
}

func configurePool(sqlDB *sql.DB) {
	const (
		maxOpenConns    = 20
		maxIdleConns    = 10
		connMaxLifetime = 30 * time.Minute
		connMaxIdleTime = 5 * time.Minute
	)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Open connects to the backing database and migrates the storage table.
// Postgres DSNs use the pooled postgres driver, anything else is a SQLite path.
func Open(ctx context.Context, dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("STORAGE_DSN is empty")
	}

	cfg := &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger:  logger.Default.LogMode(logger.Silent),
	}

	var dialector gorm.Dialector
	if isPostgres(dsn) {
		cfg.PrepareStmt = true
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if isPostgres(dsn) {
		configurePool(sqlDB)
	} else {
		// one connection keeps ":memory:" databases shared and serializes sqlite writers
		sqlDB.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping storage: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&Item{}); err != nil {
		return nil, fmt.Errorf("migrate storage: %w", err)
	}
	return db, nil
}

func New(db *gorm.DB, scope string) *Local {
	return &Local{DB: db, Scope: scope}
}

func (s *Local) Get(ctx context.Context, key string) (string, error) {
	var item Item
	err := s.DB.WithContext(ctx).
		Where("scope = ? AND item_key = ?", s.Scope, key).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return item.Value, nil
}

func (s *Local) Set(ctx context.Context, key, value string) error {
	item := Item{Scope: s.Scope, Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "scope"}, {Name: "item_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&item).Error
}

func (s *Local) Remove(ctx context.Context, key string) error {
	return s.DB.WithContext(ctx).
		Where("scope = ? AND item_key = ?", s.Scope, key).
		Delete(&Item{}).Error
}
