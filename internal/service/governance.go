package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"digicoop/internal/domain"
	"digicoop/internal/ledger"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GovernanceService runs member polls and events
type GovernanceService struct {
	db     *gorm.DB
	ledger *ledger.Engine
}

func NewGovernanceService(db *gorm.DB, engine *ledger.Engine) *GovernanceService {
	return &GovernanceService{db: db, ledger: engine}
}

// CreatePoll opens a poll with at least two options.
func (s *GovernanceService) CreatePoll(ctx context.Context, question string, endDate time.Time, options []string) (*domain.Poll, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}
	poll := domain.Poll{Question: strings.TrimSpace(question), EndDate: endDate.UTC()}
	for _, text := range options {
		if text = strings.TrimSpace(text); text != "" {
			poll.Options = append(poll.Options, domain.PollOption{Text: text})
		}
	}
	if len(poll.Options) < 2 {
		return nil, fmt.Errorf("%w: a poll needs at least two options", domain.ErrInvalidInput)
	}
	if err := s.db.WithContext(ctx).Create(&poll).Error; err != nil {
		return nil, fmt.Errorf("create poll: %w", err)
	}
	return &poll, nil
}

// ActivePolls lists polls still open for voting, closing soonest first.
func (s *GovernanceService) ActivePolls(ctx context.Context) ([]domain.Poll, error) {
	polls := []domain.Poll{}
	if err := s.db.WithContext(ctx).Preload("Options").Where("end_date >= ?", s.ledger.Now()).
		Order("end_date asc").Find(&polls).Error; err != nil {
		return nil, fmt.Errorf("list polls: %w", err)
	}
	return polls, nil
}

// OptionResult is one option's tally
type OptionResult struct {
	ID    uint   `json:"id"`
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

// Results tallies the poll's options.
func (s *GovernanceService) Results(ctx context.Context, pollID uint) ([]OptionResult, error) {
	var poll domain.Poll
	err := s.db.WithContext(ctx).Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("id asc")
	}).First(&poll, pollID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: poll %d", domain.ErrNotFound, pollID)
	}
	if err != nil {
		return nil, err
	}
	results := make([]OptionResult, 0, len(poll.Options))
	for _, opt := range poll.Options {
		results = append(results, OptionResult{ID: opt.ID, Text: opt.Text, Votes: opt.VoteCount})
	}
	return results, nil
}

// Vote records the member's single vote on an open poll and bumps the option tally
// in the same unit. A second vote on the same poll fails with ErrAlreadyVoted.
func (s *GovernanceService) Vote(ctx context.Context, memberID, pollID, optionID uint) (*domain.Vote, error) {
	var vote domain.Vote
	err := s.ledger.Atomic(ctx, func(tx *gorm.DB) error {
		var poll domain.Poll
		if err := ledger.LockRow(tx, &poll, pollID); err != nil {
			return fmt.Errorf("poll %d: %w", pollID, err)
		}
		if s.ledger.Now().After(poll.EndDate) {
			return domain.Precondition(domain.ReasonWindowClosed, "poll is closed")
		}
		var option domain.PollOption
		err := tx.Where("id = ? AND poll_id = ?", optionID, pollID).First(&option).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrInvalidOption
		}
		if err != nil {
			return err
		}
		var existing int64
		if err := tx.Model(&domain.Vote{}).Where("poll_id = ? AND user_id = ?", pollID, memberID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return domain.ErrAlreadyVoted
		}
		vote = domain.Vote{PollID: pollID, UserID: memberID, OptionID: option.ID}
		if err := tx.Create(&vote).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrAlreadyVoted
			}
			return err
		}
		return ledger.Increment(&domain.PollOption{}, option.ID, "vote_count", 1).Apply(tx)
	})
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func (s *GovernanceService) CreateEvent(ctx context.Context, title string, date time.Time, location, imageURL string) (*domain.Event, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	event := domain.Event{Title: strings.TrimSpace(title), Date: date.UTC(), Location: location, ImageURL: imageURL}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return &event, nil
}

// Events lists events by date.
func (s *GovernanceService) Events(ctx context.Context) ([]domain.Event, error) {
	events := []domain.Event{}
	if err := s.db.WithContext(ctx).Order("date asc").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Rsvp stores or replaces the member's reply to an event.
func (s *GovernanceService) Rsvp(ctx context.Context, memberID, eventID uint, status domain.RsvpStatus) (*domain.EventRsvp, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown rsvp status %q", domain.ErrInvalidInput, status)
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.Event{}).Where("id = ?", eventID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: event %d", domain.ErrNotFound, eventID)
	}
	rsvp := domain.EventRsvp{EventID: eventID, UserID: memberID, Status: status, UpdatedAt: s.ledger.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&rsvp).Error
	if err != nil {
		return nil, fmt.Errorf("save rsvp: %w", err)
	}
	var saved domain.EventRsvp
	if err := s.db.WithContext(ctx).Where("event_id = ? AND user_id = ?", eventID, memberID).First(&saved).Error; err != nil {
		return nil, err
	}
	return &saved, nil
}
