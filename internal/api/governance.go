package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Poll and event dates

	"digicoop/internal/domain"   // Importing domain models
	"digicoop/internal/response" // JSON envelope
	"digicoop/internal/service"  // Use cases

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// CreatePollRequest opens a poll
type CreatePollRequest struct {
	Question string    `json:"question" binding:"required"` // Poll question
	EndDate  time.Time `json:"end_date" binding:"required"` // Votes rejected after this
	Options  []string  `json:"options" binding:"required"`  // At least two choices
}

// VoteRequest casts a vote
type VoteRequest struct {
	OptionID uint `json:"option_id" binding:"required"` // Chosen option
}

// CreateEventRequest announces an event
type CreateEventRequest struct {
	Title    string    `json:"title" binding:"required"` // Event title
	Date     time.Time `json:"date" binding:"required"`  // Event date
	Location string    `json:"location"`                 // Venue
	ImageURL string    `json:"image_url"`                // Banner
}

// RsvpRequest replies to an event
type RsvpRequest struct {
	Status domain.RsvpStatus `json:"status" binding:"required"` // GOING, NOT_GOING or MAYBE
}

// pollResultsKey caches the tally of one poll
func pollResultsKey(pollID uint) string {
	return "poll:results:" + strconv.FormatUint(uint64(pollID), 10)
}

// ListPollsHandler returns the polls still open for voting
func ListPollsHandler(svc *service.GovernanceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		polls, err := svc.ActivePolls(c.Request.Context())
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.OK(c, polls)
	}
}

// CreatePollHandler opens a new poll
func CreatePollHandler(svc *service.GovernanceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreatePollRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid request")
			return
		}
		poll, err := svc.CreatePoll(c.Request.Context(), req.Question, req.EndDate, req.Options)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.Created(c, poll)
	}
}

// VoteHandler records the member's single vote on a poll
func VoteHandler(svc *service.GovernanceService, cache CacheConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := memberID(c) // Get member ID from context
		if !ok {
			return
		}
		pollID, ok := idParam(c, "id") // Poll ID from path
		if !ok {
			return
		}
		var req VoteRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid request")
			return
		}
		vote, err := svc.Vote(c.Request.Context(), userID, pollID, req.OptionID)
		if err != nil {
			response.FromError(c, err)
			return
		}
		_ = cache.Cache.Delete(c.Request.Context(), pollResultsKey(pollID)) // Tally changed
		response.OK(c, vote)
	}
}

// PollResultsHandler returns the vote tally of a poll
func PollResultsHandler(svc *service.GovernanceService, cache CacheConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		pollID, ok := idParam(c, "id") // Poll ID from path
		if !ok {
			return
		}
		ctx := c.Request.Context()
		cacheKey := pollResultsKey(pollID)
		var cached []service.OptionResult
		// If found in cache, return it
		if found, err := cache.Cache.Get(ctx, cacheKey, &cached); err == nil && found {
			response.OK(c, gin.H{"poll_id": pollID, "results": cached, "cached": true})
			return
		}
		results, err := svc.Results(ctx, pollID)
		if err != nil {
			response.FromError(c, err)
			return
		}
		// Cache the tally
		if err := cache.Cache.Set(ctx, cacheKey, results, cache.TTL); err != nil {
			logrus.WithError(err).Warn("Failed to cache poll results")
		}
		response.OK(c, gin.H{"poll_id": pollID, "results": results, "cached": false})
	}
}

// ListEventsHandler returns the events by date
func ListEventsHandler(svc *service.GovernanceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := svc.Events(c.Request.Context())
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.OK(c, events)
	}
}

// CreateEventHandler announces a new event
func CreateEventHandler(svc *service.GovernanceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateEventRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid request")
			return
		}
		event, err := svc.CreateEvent(c.Request.Context(), req.Title, req.Date, req.Location, req.ImageURL)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.Created(c, event)
	}
}

// RsvpHandler stores the member's reply to an event
func RsvpHandler(svc *service.GovernanceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := memberID(c) // Get member ID from context
		if !ok {
			return
		}
		eventID, ok := idParam(c, "id") // Event ID from path
		if !ok {
			return
		}
		var req RsvpRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid request")
			return
		}
		rsvp, err := svc.Rsvp(c.Request.Context(), userID, eventID, req.Status)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.OK(c, rsvp)
	}
}
