package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Table names double as change-notification channel names.
const (
	TableUsers              = "users"
	TableThreads            = "threads"
	TableConnectionRequests = "connection_requests"
	TableChats              = "chats"
)

// RequestStatus is the lifecycle state of a ConnectionRequest.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusRejected RequestStatus = "rejected"
)

// User is a profile. Email is unique; ID never changes after creation.
// PasswordHash belongs to the identity provider and is never serialized.
type User struct {
	ID           string                      `gorm:"primaryKey;size:36" json:"id"`
	Name         string                      `gorm:"size:128;not null" json:"name"`
	Email        string                      `gorm:"uniqueIndex;size:191;not null" json:"email"`
	PasswordHash string                      `gorm:"size:255;not null" json:"-"`
	Age          *int                        `json:"age,omitempty"`
	City         *string                     `gorm:"size:128;index" json:"city,omitempty"`
	Bio          *string                     `gorm:"type:text" json:"bio,omitempty"`
	Avatar       *string                     `gorm:"size:512" json:"avatar,omitempty"`
	Interests    datatypes.JSONSlice[string] `json:"interests"`
	IsVerified   bool                        `gorm:"not null;default:false" json:"is_verified"`
	CreatedAt    time.Time                   `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Thread is a post describing a planned activity. Only InterestedCount changes
// after creation.
type Thread struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	AuthorID        string    `gorm:"size:36;not null;index" json:"author_id"`
	Author          *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	InterestedCount int       `gorm:"not null;default:0" json:"interested_count"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *Thread) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// ConnectionRequest is an approach from Sender to Receiver.
//
// Indexes:
//   - idx_receiver_status_created(receiver_id, status, created_at DESC)
//     Serves the incoming-requests list and badge count.
//   - idx_sender_receiver_status(sender_id, receiver_id, status)
//     Serves the duplicate-pending check.
type ConnectionRequest struct {
	ID          string        `gorm:"primaryKey;size:36" json:"id"`
	SenderID    string        `gorm:"size:36;not null;index:idx_sender_receiver_status,priority:1" json:"sender_id"`
	ReceiverID  string        `gorm:"size:36;not null;index:idx_receiver_status_created,priority:1;index:idx_sender_receiver_status,priority:2" json:"receiver_id"`
	Message     string        `gorm:"type:text;not null" json:"message"`
	Status      RequestStatus `gorm:"size:16;not null;default:'pending';index:idx_receiver_status_created,priority:2;index:idx_sender_receiver_status,priority:3" json:"status"`
	CreatedAt   time.Time     `gorm:"autoCreateTime;index:idx_receiver_status_created,priority:3,sort:desc" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
	RespondedAt *time.Time    `json:"responded_at,omitempty"`
	// PendingKey is "<sender>:<receiver>" while pending and NULL once resolved,
	// so the unique index admits one pending request per direction.
	PendingKey *string `gorm:"size:80;uniqueIndex" json:"-"`

	Sender   *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver *User `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
}

func (r *ConnectionRequest) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if (r.Status == "" || r.Status == StatusPending) && r.PendingKey == nil {
		key := r.SenderID + ":" + r.ReceiverID
		r.PendingKey = &key
	}
	return nil
}

// Chat is the channel unlocked by an accepted request. PairKey holds the
// unordered pair so the unique index allows one Chat per pair.
type Chat struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	User1ID       string     `gorm:"size:36;not null;index" json:"user1_id"`
	User2ID       string     `gorm:"size:36;not null;index" json:"user2_id"`
	PairKey       string     `gorm:"size:80;not null;uniqueIndex" json:"-"`
	RequestID     string     `gorm:"size:36;not null" json:"request_id"`
	LastMessage   *string    `gorm:"type:text" json:"last_message,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Chat) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.PairKey == "" {
		c.PairKey = PairKey(c.User1ID, c.User2ID)
	}
	return nil
}

// Has reports whether userID is one of the two members.
func (c *Chat) Has(userID string) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// PairKey is order-independent: PairKey(a, b) == PairKey(b, a).
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

// VerificationToken is a single-use email confirmation token.
type VerificationToken struct {
	Token     string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:36;not null;index"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{&User{}, &Thread{}, &ConnectionRequest{}, &Chat{}, &VerificationToken{}}
}
