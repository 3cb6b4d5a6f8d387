package feed

import (
	"context"
	"strings"
	"time"

	"github.com/joseph-ayodele/scavenger/constants"
	"github.com/joseph-ayodele/scavenger/internal/common"
	"github.com/joseph-ayodele/scavenger/internal/entity"
)

// PublishRequest confirms an event for the public feed.
type PublishRequest struct {
	Title             string   `json:"title"`
	Building          *string  `json:"building"`
	Room              *string  `json:"room"`
	StartISO          string   `json:"startIso"`
	EndISO            *string  `json:"endIso"`
	Timezone          *string  `json:"timezone"`
	FoodDescription   *string  `json:"foodDescription"`
	EstimatedPortions *float64 `json:"estimatedPortions"`
	FlyerID           *string  `json:"flyerId"`
	ExtractionID      *string  `json:"extractionId"`
}

func (r PublishRequest) Validate() error {
	v := common.NewValidator()
	v.Field("title", r.Title, common.Required, common.MaxLength(200))
	v.Field("startIso", r.StartISO, common.Required, common.ISODateTime)
	v.Field("endIso", r.EndISO, common.ISODateTime)
	return v.Err()
}

// Publish stores a scheduled event. Events tied to an extraction are marked
// ai+confirm, everything else manual.
func (s *Service) Publish(ctx context.Context, req PublishRequest) (entity.PublishedEvent, error) {
	if err := req.Validate(); err != nil {
		return entity.PublishedEvent{}, err
	}
	start, _ := time.Parse(time.RFC3339, req.StartISO)

	var end *time.Time
	if req.EndISO != nil && *req.EndISO != "" {
		e, _ := time.Parse(time.RFC3339, *req.EndISO)
		if e.Before(start) {
			return entity.PublishedEvent{}, common.InvalidInputError("endIso must be after startIso")
		}
		e = e.UTC()
		end = &e
	}

	tz := constants.DefaultCampusTimezone
	if req.Timezone != nil && strings.TrimSpace(*req.Timezone) != "" {
		tz = *req.Timezone
	}
	method := constants.SourceMethodManual
	if req.ExtractionID != nil && *req.ExtractionID != "" {
		method = constants.SourceMethodAIConfirm
	}

	ev, err := s.events.CreateEvent(ctx, entity.PublishedEvent{
		Title:    req.Title,
		Location: entity.EventLocation{Building: req.Building, Room: req.Room},
		StartAt:  start.UTC(),
		EndAt:    end,
		Timezone: tz,
		Food: entity.EventFood{
			Description:       req.FoodDescription,
			EstimatedPortions: req.EstimatedPortions,
		},
		Source: entity.EventSource{
			FlyerID:      req.FlyerID,
			ExtractionID: req.ExtractionID,
			Method:       method,
		},
		Status: constants.EventStatusScheduled,
	})
	if err != nil {
		s.logger.Error("feed.publish_error", "req_id", common.RequestIDFromContext(ctx), "error", err)
		return entity.PublishedEvent{}, err
	}
	s.logger.Info("feed.published", "req_id", common.RequestIDFromContext(ctx), "event_id", ev.ID, "method", method)
	return ev, nil
}

// Range lists published events; nil bounds default to now and now+7 days.
func (s *Service) Range(ctx context.Context, from, to *time.Time) ([]entity.PublishedEvent, error) {
	now := s.now()
	f := now
	if from != nil {
		f = *from
	}
	t := now.Add(constants.PublishedRangeDefaultDays * 24 * time.Hour)
	if to != nil {
		t = *to
	}
	return s.events.ListEvents(ctx, f, t)
}
