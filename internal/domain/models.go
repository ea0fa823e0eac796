// Package domain defines the persistence models for users, subscription
// entitlements, conversations, and messages. These types are mapped with GORM
// and form the core data layer of the chat backend.
package domain

import "time"

// Sender types for Message.SenderType.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// Payment statuses for Transaction.PaymentStatus. Only PaymentPaid
// transactions grant an entitlement.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// DateLayout is the storage format of User.LastResetDate. A fixed-width
// ISO date compares correctly as a plain string.
const DateLayout = "2006-01-02"

// User is a registered account. Only the fields the chat core needs are
// mapped; profile data lives elsewhere.
//
// Fields:
//   - ID: opaque identifier supplied by the identity layer.
//   - MessagesSentToday: messages admitted on LastResetDate.
//   - LastResetDate: UTC calendar date (YYYY-MM-DD) the counter belongs to.
type User struct {
	ID                string    `json:"id"                  gorm:"type:varchar(64);primaryKey"`
	DisplayName       string    `json:"display_name"        gorm:"type:varchar(255)"`
	MessagesSentToday int       `json:"messages_sent_today" gorm:"not null;default:0"`
	LastResetDate     string    `json:"last_reset_date"     gorm:"type:char(10);not null;default:''"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// SubscriptionPlan is a purchasable plan. DailyMessageLimit is added on top
// of the base allowance while a paid transaction for the plan is active.
type SubscriptionPlan struct {
	ID                string    `json:"id"                  gorm:"type:char(36);primaryKey"`
	Name              string    `json:"name"                gorm:"type:varchar(128);not null"`
	DailyMessageLimit int       `json:"daily_message_limit" gorm:"not null;default:0"`
	DurationDays      int       `json:"duration_days"       gorm:"not null;default:30"`
	CreatedAt         time.Time `json:"created_at"`
}

// TableName returns the database table name for SubscriptionPlan.
func (SubscriptionPlan) TableName() string { return "subscription_plans" }

// Transaction records a plan purchase. The entitlement is valid while
// PaymentStatus is PaymentPaid and StartDate <= now <= EndDate.
type Transaction struct {
	ID            string    `json:"id"             gorm:"type:char(36);primaryKey"`
	UserID        string    `json:"user_id"        gorm:"type:varchar(64);not null;index:idx_user_tx"`
	PlanID        string    `json:"plan_id"        gorm:"type:char(36);not null"`
	PaymentStatus string    `json:"payment_status" gorm:"type:varchar(16);not null;default:'pending';index:idx_user_tx"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Plan SubscriptionPlan `json:"-" gorm:"foreignKey:PlanID;references:ID"`
}

// TableName returns the database table name for Transaction.
func (Transaction) TableName() string { return "transactions" }

// ActiveAt reports whether the transaction grants its plan's allowance at t.
func (tx Transaction) ActiveAt(t time.Time) bool {
	if tx.PaymentStatus != PaymentPaid {
		return false
	}
	return !t.Before(tx.StartDate) && !t.After(tx.EndDate)
}

// Conversation is a named thread owned by one user. Deletion only sets
// IsDeleted; rows are never removed.
type Conversation struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_user_convs,priority:1"`
	Title     string    `json:"title"      gorm:"type:varchar(255);not null"`
	IsDeleted bool      `json:"-"          gorm:"not null;default:false;index:idx_user_convs,priority:2"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"index"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// Message is a single turn persisted within a conversation. Apart from the
// IsCrisis and IsDeleted flags a message is never updated.
type Message struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	ConversationID string    `json:"conversation_id" gorm:"type:char(36);not null;index:idx_conv_msgs,priority:1"`
	SenderType     string    `json:"sender_type"     gorm:"type:varchar(16);not null;check:sender_type IN ('user','assistant')"`
	Content        string    `json:"content"         gorm:"type:text;not null"`
	IsCrisis       bool      `json:"is_crisis"       gorm:"not null;default:false"`
	IsDeleted      bool      `json:"-"               gorm:"not null;default:false"`
	SentAt         time.Time `json:"sent_at"         gorm:"not null;index:idx_conv_msgs,priority:2"`

	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }
