// Package databasetest provides an in-memory database.DBInterface that
// follows the same ordering and constraint rules as the Postgres schema.
package databasetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ammar1510/inbox/internal/database"
	"github.com/ammar1510/inbox/internal/models"
)

type MemoryDB struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*models.User
	messages []*models.Message
	nextID   int64

	// Now supplies sent_at for new messages; defaults to time.Now.
	Now func() time.Time
	// Errors injected per method name, e.g. "UpdateAvatar".
	Fail map[string]error
}

var _ database.DBInterface = (*MemoryDB)(nil)

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		users: make(map[uuid.UUID]*models.User),
		Now:   func() time.Time { return time.Now().UTC() },
		Fail:  make(map[string]error),
	}
}

// AddSystemUser inserts an account flagged as a system account
func (db *MemoryDB) AddSystemUser(username, email string) *models.User {
	db.mu.Lock()
	defer db.mu.Unlock()

	now := db.Now()
	u := &models.User{
		ID: uuid.New(), Username: username, Email: email,
		IsSystem: true, CreatedAt: now, LastSeen: now,
	}
	db.users[u.ID] = u
	return copyUser(u)
}

// MessageCount returns the number of stored messages
func (db *MemoryDB) MessageCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.messages)
}

// UserCount returns the number of stored users
func (db *MemoryDB) UserCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users)
}

func (db *MemoryDB) fail(method string) error {
	return db.Fail[method]
}

func copyUser(u *models.User) *models.User {
	c := *u
	if u.AvatarKey != nil {
		k := *u.AvatarKey
		c.AvatarKey = &k
	}
	return &c
}

func (db *MemoryDB) CreateUser(_ context.Context, username, email, passwordHash string) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.fail("CreateUser"); err != nil {
		return nil, err
	}

	dup := &database.DuplicateUserError{}
	for _, u := range db.users {
		if u.Username == username {
			dup.Fields = append(dup.Fields, "username")
			break
		}
	}
	for _, u := range db.users {
		if u.Email == email {
			dup.Fields = append(dup.Fields, "email")
			break
		}
	}
	if len(dup.Fields) > 0 {
		return nil, dup
	}

	now := db.Now()
	u := &models.User{
		ID: uuid.New(), Username: username, Email: email, PasswordHash: passwordHash,
		CreatedAt: now, LastSeen: now,
	}
	db.users[u.ID] = u
	return copyUser(u), nil
}

func (db *MemoryDB) findUser(match func(*models.User) bool) (*models.User, error) {
	for _, u := range db.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, database.ErrUserNotFound
}

func (db *MemoryDB) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.findUser(func(u *models.User) bool { return u.Username == username })
}

func (db *MemoryDB) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.findUser(func(u *models.User) bool { return u.Email == email })
}

func (db *MemoryDB) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.fail("GetUserByID"); err != nil {
		return nil, err
	}
	u, ok := db.users[id]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (db *MemoryDB) UpdateLastSeen(_ context.Context, userID uuid.UUID) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.fail("UpdateLastSeen"); err != nil {
		return err
	}
	u, ok := db.users[userID]
	if !ok {
		return database.ErrUserNotFound
	}
	u.LastSeen = db.Now()
	return nil
}

func (db *MemoryDB) UpdateAvatar(_ context.Context, userID uuid.UUID, avatarKey *string) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.fail("UpdateAvatar"); err != nil {
		return nil, err
	}
	u, ok := db.users[userID]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	if avatarKey == nil {
		u.AvatarKey = nil
	} else {
		k := *avatarKey
		u.AvatarKey = &k
	}
	return copyUser(u), nil
}

func (db *MemoryDB) GetAllUsers(_ context.Context, excludeUserID uuid.UUID, page database.Page) ([]*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.fail("GetAllUsers"); err != nil {
		return nil, err
	}

	users := []*models.User{}
	for _, u := range db.users {
		if u.ID == excludeUserID || u.IsSystem {
			continue
		}
		users = append(users, copyUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return paginate(users, page), nil
}

func (db *MemoryDB) CreateMessage(_ context.Context, senderID, receiverID uuid.UUID, content string, imageKey *string) (*models.Message, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.fail("CreateMessage"); err != nil {
		return nil, err
	}
	if _, ok := db.users[senderID]; !ok {
		return nil, database.ErrUserNotFound
	}
	if _, ok := db.users[receiverID]; !ok {
		return nil, database.ErrUserNotFound
	}

	db.nextID++
	msg := &models.Message{
		ID:         db.nextID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		SentAt:     db.Now(),
	}
	if imageKey != nil {
		k := *imageKey
		msg.ImageKey = &k
	}
	db.messages = append(db.messages, msg)
	return db.join(msg), nil
}

// join fills the sender and receiver columns from the current user rows
func (db *MemoryDB) join(m *models.Message) *models.Message {
	c := *m
	if s, ok := db.users[m.SenderID]; ok {
		c.SenderUsername = s.Username
		c.SenderAvatarKey = copyUser(s).AvatarKey
	}
	if r, ok := db.users[m.ReceiverID]; ok {
		c.ReceiverUsername = r.Username
		c.ReceiverAvatarKey = copyUser(r).AvatarKey
	}
	return &c
}

func (db *MemoryDB) GetMessageByID(_ context.Context, messageID int64) (*models.Message, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, m := range db.messages {
		if m.ID == messageID {
			return db.join(m), nil
		}
	}
	return nil, database.ErrMessageNotFound
}

func (db *MemoryDB) GetMessagesByUser(_ context.Context, userID uuid.UUID, page database.Page) ([]*models.Message, error) {
	return db.list("GetMessagesByUser", page, func(m *models.Message) bool {
		return m.SenderID == userID || m.ReceiverID == userID
	})
}

func (db *MemoryDB) GetReceivedMessages(_ context.Context, userID uuid.UUID, page database.Page) ([]*models.Message, error) {
	return db.list("GetReceivedMessages", page, func(m *models.Message) bool { return m.ReceiverID == userID })
}

func (db *MemoryDB) GetSentMessages(_ context.Context, userID uuid.UUID, page database.Page) ([]*models.Message, error) {
	return db.list("GetSentMessages", page, func(m *models.Message) bool { return m.SenderID == userID })
}

func (db *MemoryDB) list(method string, page database.Page, match func(*models.Message) bool) ([]*models.Message, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.fail(method); err != nil {
		return nil, err
	}

	messages := []*models.Message{}
	for _, m := range db.messages {
		if match(m) {
			messages = append(messages, db.join(m))
		}
	}
	sort.Slice(messages, func(i, j int) bool {
		if !messages[i].SentAt.Equal(messages[j].SentAt) {
			return messages[i].SentAt.After(messages[j].SentAt)
		}
		return messages[i].ID > messages[j].ID
	})
	return paginate(messages, page), nil
}

func paginate[T any](items []T, page database.Page) []T {
	page = page.Normalize()
	if page.Offset >= len(items) {
		return items[:0]
	}
	end := page.Offset + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[page.Offset:end]
}

func (db *MemoryDB) Ping(context.Context) error {
	return db.fail("Ping")
}

func (db *MemoryDB) Close() error {
	return nil
}
