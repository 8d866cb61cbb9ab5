package models

import "time"

// Rating is one user's score for one account; at most one row per pair.
type Rating struct {
	ID        int `json:"id" db:"id"`
	AccountID int `json:"account_id" db:"account_id"`
	UsersID   int `json:"users_id" db:"users_id"`
	Rate      int `json:"rate" db:"rate"`
}

func (Rating) TableName() string {
	return "rating"
}

// Favorite bookmarks an account for a user with an optional note.
type Favorite struct {
	ID         int     `json:"id" db:"id"`
	AccountsID int     `json:"accounts_id" db:"accounts_id"`
	UsersID    int     `json:"users_id" db:"users_id"`
	Comment    *string `json:"comment,omitempty" db:"comment"`
}

func (Favorite) TableName() string {
	return "favorites"
}

// FavoriteAccount is a favorites listing row: the account plus the note.
type FavoriteAccount struct {
	Account
	Comment *string `json:"comment,omitempty" db:"comment"`
}

// AddFavoriteRequest bookmarks an account, optionally with a note.
type AddFavoriteRequest struct {
	AccountID int     `json:"account_id" validate:"required"`
	Comment   *string `json:"comment"`
}

// SetRateRequest records the caller's score for an account.
type SetRateRequest struct {
	AccountID int `json:"account_id" validate:"required"`
	Rate      int `json:"rate" validate:"required,min=1,max=5"`
}

// CheckRateRequest asks for the caller's existing score.
type CheckRateRequest struct {
	AccountID int `json:"account_id" validate:"required"`
}

// Message is a private message between users. Deletion is per-recipient
// hiding via messages_deleted, never a hard delete.
type Message struct {
	ID           int       `json:"id" db:"id"`
	DateMessages time.Time `json:"date_messages" db:"date_messages"`
	TimeMessages string    `json:"time_messages" db:"time_messages"`
	TextMessages string    `json:"text_messages" db:"text_messages"`
	UserFromID   int       `json:"user_from_id" db:"user_from_id"`
	UserToID     int       `json:"user_to_id" db:"user_to_id"`
	Sender       string    `json:"sender,omitempty" db:"sender"`
	Receiver     string    `json:"receiver,omitempty" db:"receiver"`
}

func (Message) TableName() string {
	return "messages"
}

// SendMessageRequest delivers a private message to another user.
type SendMessageRequest struct {
	UserToID int    `json:"user_to_id" validate:"required"`
	Text     string `json:"text" validate:"required"`
}

// HideMessagesRequest hides the listed messages for the caller only.
type HideMessagesRequest struct {
	IDs []int `json:"ids" validate:"required,min=1"`
}

// Order is a user request handled by moderators. Status 1 is "new".
type Order struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Text      string    `json:"text" db:"text"`
	Status    int       `json:"status" db:"status"`
	Type      *string   `json:"type,omitempty" db:"type"`
}

func (Order) TableName() string {
	return "orders"
}

// AddOrderRequest files a new request with the moderators.
type AddOrderRequest struct {
	Text string  `json:"text" validate:"required"`
	Type *string `json:"type"`
}

// UpdateOrderRequest moves an order to a new status.
type UpdateOrderRequest struct {
	ID     int `json:"id" validate:"required"`
	Status int `json:"status" validate:"required"`
}

// HideOrdersRequest hides the listed orders for the calling admin only.
type HideOrdersRequest struct {
	IDs []int `json:"ids" validate:"required,min=1"`
}

// Section is a CMS block for a static page.
type Section struct {
	ID           int    `json:"id" db:"id"`
	PageName     string `json:"page_name" db:"page_name"`
	SectionOrder int    `json:"section_order" db:"section_order"`
	LayoutID     int    `json:"layout_id" db:"layout_id"`
	Content      string `json:"content" db:"content"`
}

func (Section) TableName() string {
	return "sections"
}

// SaveSectionsRequest replaces the blocks of one static page.
type SaveSectionsRequest struct {
	PageName string    `json:"page_name" validate:"required"`
	Sections []Section `json:"sections" validate:"required,dive"`
}
