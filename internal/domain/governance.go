package domain

import "time"

// Poll Model
type Poll struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Question  string       `gorm:"size:255;not null" json:"question"`
	EndDate   time.Time    `gorm:"index;not null" json:"end_date"` // Votes rejected after this
	Options   []PollOption `gorm:"foreignKey:PollID" json:"options"`
	CreatedAt time.Time    `json:"created_at"`
}

// PollOption Model
type PollOption struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	PollID    uint   `gorm:"index;not null" json:"poll_id"`
	Text      string `gorm:"size:255;not null" json:"text"`
	VoteCount int    `gorm:"not null;default:0" json:"votes"` // Moves with vote inserts
}

// Vote Model, at most one per (poll, member)
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PollID    uint      `gorm:"uniqueIndex:idx_vote_poll_user;not null" json:"poll_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_vote_poll_user;not null" json:"user_id"`
	OptionID  uint      `gorm:"not null" json:"option_id"`
	CreatedAt time.Time `json:"created_at"`
}

// RsvpStatus of an event attendance reply
type RsvpStatus string

const (
	RsvpGoing    RsvpStatus = "GOING"
	RsvpNotGoing RsvpStatus = "NOT_GOING"
	RsvpMaybe    RsvpStatus = "MAYBE"
)

// Valid reports whether the status is one of the known replies.
func (s RsvpStatus) Valid() bool {
	return s == RsvpGoing || s == RsvpNotGoing || s == RsvpMaybe
}

// Event Model
type Event struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:191;not null" json:"title"`
	Date      time.Time `gorm:"index;not null" json:"date"`
	Location  string    `gorm:"size:255" json:"location"`
	ImageURL  string    `gorm:"size:255" json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EventRsvp Model, one reply per (event, member)
type EventRsvp struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	EventID   uint       `gorm:"uniqueIndex:idx_rsvp_event_user;not null" json:"event_id"`
	UserID    uint       `gorm:"uniqueIndex:idx_rsvp_event_user;not null" json:"user_id"`
	Status    RsvpStatus `gorm:"size:16;not null" json:"status"`
	UpdatedAt time.Time  `json:"updated_at"`
}
