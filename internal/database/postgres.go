package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	"github.com/pressly/goose/v3"

	"github.com/ammar1510/inbox/internal/database/migrations"
	"github.com/ammar1510/inbox/internal/models"
)

type PostgresDB struct {
	*sql.DB
}

const userColumns = `id, username, email, password_hash, avatar_key, is_system, created_at, last_seen`

const messageSelect = `
	SELECT m.id, m.sender_id, m.receiver_id, m.content, m.image_key, m.sent_at,
	       s.username, s.avatar_key, r.username, r.avatar_key
	FROM messages m
	JOIN users s ON s.id = m.sender_id
	JOIN users r ON r.id = m.receiver_id`

// Newest first; the serial id breaks ties between equal timestamps.
const messageOrder = ` ORDER BY m.sent_at DESC, m.id DESC LIMIT $2 OFFSET $3`

// NewPostgresDB connects through lib/pq
func NewPostgresDB(ctx context.Context, connStr string) (*PostgresDB, error) {
	return open(ctx, "postgres", connStr)
}

// NewPgxDB connects through the pgx stdlib driver
func NewPgxDB(ctx context.Context, connStr string) (*PostgresDB, error) {
	return open(ctx, "pgx", connStr)
}

// NewPostgresDBFromConn wraps an already opened handle
func NewPostgresDBFromConn(db *sql.DB) *PostgresDB {
	return &PostgresDB{db}
}

func open(ctx context.Context, driver, connStr string) (*PostgresDB, error) {
	db, err := sql.Open(driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	return &PostgresDB{db}, nil
}

// gooseUp is a seam for testing goose.UpContext.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

// RunMigrations applies the embedded goose migrations
func (db *PostgresDB) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return gooseUp(ctx, db.DB, ".")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var avatarKey sql.NullString

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&avatarKey,
		&user.IsSystem,
		&user.CreatedAt,
		&user.LastSeen,
	)
	if err != nil {
		return nil, err
	}

	user.AvatarKey = stringPtr(avatarKey)
	return &user, nil
}

func scanMessage(row rowScanner) (*models.Message, error) {
	var msg models.Message
	var imageKey, senderAvatar, receiverAvatar sql.NullString

	err := row.Scan(
		&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &imageKey, &msg.SentAt,
		&msg.SenderUsername, &senderAvatar, &msg.ReceiverUsername, &receiverAvatar,
	)
	if err != nil {
		return nil, err
	}

	msg.ImageKey = stringPtr(imageKey)
	msg.SenderAvatarKey = stringPtr(senderAvatar)
	msg.ReceiverAvatarKey = stringPtr(receiverAvatar)
	return &msg, nil
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func (db *PostgresDB) CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	var usernameTaken, emailTaken bool
	err := db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE username = $1), EXISTS(SELECT 1 FROM users WHERE email = $2)",
		username, email).Scan(&usernameTaken, &emailTaken)
	if err != nil {
		return nil, err
	}

	if usernameTaken || emailTaken {
		dup := &DuplicateUserError{}
		if usernameTaken {
			dup.Fields = append(dup.Fields, "username")
		}
		if emailTaken {
			dup.Fields = append(dup.Fields, "email")
		}
		return nil, dup
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		LastSeen:     now,
	}

	// The unique constraints still guard against a concurrent registration
	// slipping in between the check above and this insert.
	_, err = db.ExecContext(ctx,
		"INSERT INTO users (id, username, email, password_hash, created_at, last_seen) VALUES ($1, $2, $3, $4, $5, $6)",
		user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt, user.LastSeen,
	)
	if err != nil {
		return nil, translateUserError(err)
	}

	return user, nil
}

func (db *PostgresDB) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	user, err := scanUser(db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (db *PostgresDB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return db.getUser(ctx, "username = $1", username)
}

func (db *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.getUser(ctx, "email = $1", email)
}

func (db *PostgresDB) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return db.getUser(ctx, "id = $1", id)
}

func (db *PostgresDB) UpdateLastSeen(ctx context.Context, userID uuid.UUID) error {
	result, err := db.ExecContext(ctx, "UPDATE users SET last_seen = $1 WHERE id = $2",
		time.Now().UTC(), userID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// UpdateAvatar points the user's avatar at avatarKey (nil clears it) and
// returns the updated row
func (db *PostgresDB) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarKey *string) (*models.User, error) {
	user, err := scanUser(db.QueryRowContext(ctx,
		"UPDATE users SET avatar_key = $1 WHERE id = $2 RETURNING "+userColumns,
		avatarKey, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetAllUsers lists every non-system user except excludeUserID
func (db *PostgresDB) GetAllUsers(ctx context.Context, excludeUserID uuid.UUID, page Page) ([]*models.User, error) {
	page = page.Normalize()

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id != $1 AND NOT is_system
		ORDER BY username
		LIMIT $2 OFFSET $3
	`

	rows, err := db.QueryContext(ctx, query, excludeUserID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

// CreateMessage inserts a message and returns it joined with sender and
// receiver details. sent_at and id are assigned by the database; an unknown
// sender or receiver yields ErrUserNotFound.
func (db *PostgresDB) CreateMessage(ctx context.Context, senderID, receiverID uuid.UUID, content string, imageKey *string) (*models.Message, error) {
	query := `
		WITH m AS (
			INSERT INTO messages (sender_id, receiver_id, content, image_key)
			VALUES ($1, $2, $3, $4)
			RETURNING id, sender_id, receiver_id, content, image_key, sent_at
		)
		SELECT m.id, m.sender_id, m.receiver_id, m.content, m.image_key, m.sent_at,
		       s.username, s.avatar_key, r.username, r.avatar_key
		FROM m
		JOIN users s ON s.id = m.sender_id
		JOIN users r ON r.id = m.receiver_id`

	message, err := scanMessage(db.QueryRowContext(ctx, query, senderID, receiverID, content, imageKey))
	if err != nil {
		return nil, translateMessageError(err)
	}

	return message, nil
}

func (db *PostgresDB) GetMessageByID(ctx context.Context, messageID int64) (*models.Message, error) {
	message, err := scanMessage(db.QueryRowContext(ctx, messageSelect+" WHERE m.id = $1", messageID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	return message, nil
}

// GetMessagesByUser returns messages the user sent or received
func (db *PostgresDB) GetMessagesByUser(ctx context.Context, userID uuid.UUID, page Page) ([]*models.Message, error) {
	return db.listMessages(ctx, " WHERE m.sender_id = $1 OR m.receiver_id = $1", userID, page)
}

func (db *PostgresDB) GetReceivedMessages(ctx context.Context, userID uuid.UUID, page Page) ([]*models.Message, error) {
	return db.listMessages(ctx, " WHERE m.receiver_id = $1", userID, page)
}

func (db *PostgresDB) GetSentMessages(ctx context.Context, userID uuid.UUID, page Page) ([]*models.Message, error) {
	return db.listMessages(ctx, " WHERE m.sender_id = $1", userID, page)
}

func (db *PostgresDB) listMessages(ctx context.Context, where string, userID uuid.UUID, page Page) ([]*models.Message, error) {
	page = page.Normalize()

	rows, err := db.QueryContext(ctx, messageSelect+where+messageOrder, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []*models.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	return messages, nil
}

func (db *PostgresDB) Ping(ctx context.Context) error {
	return db.DB.PingContext(ctx)
}

func (db *PostgresDB) Close() error {
	return db.DB.Close()
}
