package models

import (
	"context"
	"time"
)

// User is a row in the Postgres users table. College and Phone are optional
// and stored as NULL when empty. Profiles are immutable after registration.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	FullName  string    `json:"fullName"`
	College   string    `json:"college,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Event is a catalog document in Mongo. ID is a UUID string shared with the
// SQL tables (registrations.event_id, discussions.event_id).
type Event struct {
	ID              string    `json:"id" bson:"id"`
	Title           string    `json:"title" bson:"title"`
	Description     string    `json:"description" bson:"description"`
	Location        string    `json:"location" bson:"location"`
	Date            string    `json:"date" bson:"date"` // 2006-01-02
	Time            string    `json:"time" bson:"time"` // 15:04
	IsPaid          bool      `json:"is_paid" bson:"is_paid"`
	Price           float64   `json:"price" bson:"price"`
	MaxParticipants *int      `json:"max_participants" bson:"max_participants,omitempty"`
	ImageURL        string    `json:"image_url,omitempty" bson:"image_url,omitempty"`
	CreatorID       int64     `json:"creator_id" bson:"creator_id"`
	Category        string    `json:"category" bson:"category"`
	ContactEmail    string    `json:"contact_email,omitempty" bson:"contact_email,omitempty"`
	ContactPhone    string    `json:"contact_phone,omitempty" bson:"contact_phone,omitempty"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
}

// EventView annotates an Event with attributes derived at read time:
// creator identity from Postgres users and the registration count.
type EventView struct {
	Event
	CreatorName      string `json:"creator_name"`
	CreatorFullName  string `json:"creator_full_name"`
	ParticipantCount int    `json:"participant_count"`
}

// CreatedEventView is the owner's dashboard shape: the event plus its full
// participant username list.
type CreatedEventView struct {
	Event
	ParticipantCount int      `json:"participant_count"`
	Participants     []string `json:"participants"`
}

// RegisteredEventView is an event a user registered for, annotated with the
// registration row.
type RegisteredEventView struct {
	Event
	RegisteredAt  time.Time `json:"registered_at"`
	PaymentStatus string    `json:"payment_status"`
}

// Registration links a user to an event. At most one row may exist per
// (user, event) pair.
type Registration struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	EventID       string    `json:"event_id"`
	PaymentStatus string    `json:"payment_status"`
	RegisteredAt  time.Time `json:"registered_at"`
}

// Participant is one entry in an event's roster.
type Participant struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Discussion is an append-only per-event message. Username and FullName are
// joined in from users on reads.
type Discussion struct {
	ID        int64     `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    int64     `json:"user_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	Username  string    `json:"username,omitempty"`
	FullName  string    `json:"full_name,omitempty"`
}

// Notification is a per-user message. This system only reads them.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	// ValidateCredentials looks the user up by username or email and checks
	// the password. ErrNotFound and ErrInvalidCredentials are distinct.
	ValidateCredentials(ctx context.Context, identifier, plain string) (User, error)
	ByID(ctx context.Context, id int64) (User, error)
	ByIDs(ctx context.Context, ids []int64) (map[int64]User, error)
}

type EventRepository interface {
	// List filters by case-insensitive substring match over
	// title/description/location and exact category, sorted by date ascending.
	// Empty arguments disable the corresponding filter.
	List(ctx context.Context, search, category string) ([]Event, error)
	ByID(ctx context.Context, id string) (Event, error)
	ByIDs(ctx context.Context, ids []string) (map[string]Event, error)
	ByCreator(ctx context.Context, creatorID int64) ([]Event, error)
	Create(ctx context.Context, e *Event) error
	Update(ctx context.Context, e *Event) error
	Delete(ctx context.Context, id string) error
}

type RegistrationRepository interface {
	Register(ctx context.Context, userID int64, eventID string) error
	Cancel(ctx context.Context, userID int64, eventID string) error
	CountByEvent(ctx context.Context, eventIDs []string) (map[string]int, error)
	ParticipantsByEvent(ctx context.Context, eventID string) ([]Participant, error)
	ByUser(ctx context.Context, userID int64) ([]Registration, error)
	DeleteByEvent(ctx context.Context, eventID string) error
}

type DiscussionRepository interface {
	Post(ctx context.Context, d *Discussion) error
	ListByEvent(ctx context.Context, eventID string) ([]Discussion, error)
	DeleteByEvent(ctx context.Context, eventID string) error
}

type NotificationRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]Notification, error)
}
