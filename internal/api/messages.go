package api

import (
	"github.com/oggyb/approach/internal/auth"
	"github.com/oggyb/approach/internal/db"
	"github.com/oggyb/approach/internal/storage"
	"github.com/oggyb/approach/internal/store"
)

// ---- auth ----

type SignUpRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Name            string `json:"name"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ResendVerificationRequest struct {
	Email string `json:"email"`
}

type VerifyEmailRequest struct {
	Token string `json:"token"`
}

type SessionResponse struct {
	Session *auth.Session `json:"session"`
}

// ---- users ----

type ListUsersRequest struct {
	// Query narrows by name or interest, case-insensitively.
	Query string `json:"query,omitempty"`
}

type UsersResponse struct {
	Users []db.User `json:"users"`
}

type GetUserRequest struct {
	ID string `json:"id"`
}

type UserResponse struct {
	User *db.User `json:"user"`
}

type UpdateProfileRequest struct {
	store.ProfileUpdate
}

type AvatarUploadRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

type AvatarUploadResponse struct {
	Upload *storage.Upload `json:"upload"`
}

// ---- threads ----

type ListThreadsRequest struct {
	// Limit 0 returns every thread.
	Limit     int     `json:"limit,omitempty"`
	PageToken *string `json:"page_token,omitempty"`
}

type ThreadsResponse struct {
	Threads       []db.Thread `json:"threads"`
	NextPageToken *string     `json:"next_page_token,omitempty"`
}

type CreateThreadRequest struct {
	Content string `json:"content"`
}

type SetInterestRequest struct {
	ThreadID   string `json:"thread_id"`
	Interested bool   `json:"interested"`
}

type ThreadResponse struct {
	Thread *db.Thread `json:"thread"`
}

// ---- connection requests ----

type SendRequestRequest struct {
	ReceiverID string `json:"receiver_id"`
	Message    string `json:"message"`
}

type RequestResponse struct {
	Request *db.ConnectionRequest `json:"request"`
}

type RequestsResponse struct {
	Requests []db.ConnectionRequest `json:"requests"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type RespondRequest struct {
	RequestID string           `json:"request_id"`
	Status    db.RequestStatus `json:"status"`
}

type RespondResponse struct {
	Request *db.ConnectionRequest `json:"request"`
	// Chat is set when the request was accepted.
	Chat *db.Chat `json:"chat,omitempty"`
}

// ---- chats ----

type ChatsResponse struct {
	Chats []db.Chat `json:"chats"`
}

type RecordMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type ChatResponse struct {
	Chat *db.Chat `json:"chat"`
}

// ---- changes ----

type SubscribeRequest struct {
	Table string `json:"table"`
}
