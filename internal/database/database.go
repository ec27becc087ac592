package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ammar1510/inbox/internal/models"
)

type DBInterface interface {
	// User methods
	CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastSeen(ctx context.Context, userID uuid.UUID) error
	UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarKey *string) (*models.User, error)
	GetAllUsers(ctx context.Context, excludeUserID uuid.UUID, page Page) ([]*models.User, error)

	// Message methods
	CreateMessage(ctx context.Context, senderID, receiverID uuid.UUID, content string, imageKey *string) (*models.Message, error)
	GetMessageByID(ctx context.Context, messageID int64) (*models.Message, error)
	GetMessagesByUser(ctx context.Context, userID uuid.UUID, page Page) ([]*models.Message, error)
	GetReceivedMessages(ctx context.Context, userID uuid.UUID, page Page) ([]*models.Message, error)
	GetSentMessages(ctx context.Context, userID uuid.UUID, page Page) ([]*models.Message, error)

	// Common methods
	Ping(ctx context.Context) error
	Close() error
}

// Page bounds a list query
type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// Normalize clamps the page into the supported range
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

type DatabaseType string

const (
	PostgreSQL DatabaseType = "postgres"
	Pgx        DatabaseType = "pgx"
)

// NewDatabase opens a Postgres connection through the driver selected by
// dbType and applies the embedded migrations.
func NewDatabase(ctx context.Context, dbType DatabaseType, connStr string) (DBInterface, error) {
	var (
		db  *PostgresDB
		err error
	)

	switch dbType {
	case PostgreSQL:
		db, err = NewPostgresDB(ctx, connStr)
	case Pgx:
		db, err = NewPgxDB(ctx, connStr)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
	if err != nil {
		return nil, err
	}

	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return db, nil
}
