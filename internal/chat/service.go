package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/retailgenie/orchestrator/internal/catalog"
	"github.com/retailgenie/orchestrator/internal/intent"
	"github.com/retailgenie/orchestrator/internal/location"
	"github.com/retailgenie/orchestrator/internal/offers"
	"github.com/retailgenie/orchestrator/internal/recommender"
	"github.com/retailgenie/orchestrator/internal/sessions"
	pkgerrors "github.com/retailgenie/orchestrator/pkg/errors"
	"github.com/retailgenie/orchestrator/pkg/logger"
	"github.com/retailgenie/orchestrator/pkg/metrics"
	"github.com/retailgenie/orchestrator/pkg/types"
)

type recommendGateway interface {
	Recommend(ctx context.Context, query string, filters recommender.Filters) ([]catalog.Product, error)
}

type nearbyFinder interface {
	FindNearbyStores(loc types.Coordinates, radiusKm float64) (*location.NearbyStoresResult, error)
}

type profileSource interface {
	// StoredLocation returns the user's last GPS fix and preferred search
	// radius, or a NOT_FOUND error when neither is available.
	StoredLocation(ctx context.Context, userID string) (*types.Coordinates, float64, error)
}

// MessageInput is one inbound chat turn.
type MessageInput struct {
	SessionID string
	Message   string
	// UserID is set when the caller presented a valid bearer token.
	UserID string
}

// MessageReply is the structured response for one chat turn.
type MessageReply struct {
	SessionID    string            `json:"session_id"`
	Response     string            `json:"response"`
	Intent       intent.Intent     `json:"intent"`
	Cards        []catalog.Product `json:"cards"`
	Offers       []offers.Offer    `json:"offers"`
	NearbyStores int               `json:"nearby_stores,omitempty"`
}

// Service orchestrates a chat turn end to end.
type Service interface {
	HandleMessage(ctx context.Context, input MessageInput) (*MessageReply, error)
	GetSession(ctx context.Context, id string) (*sessions.Session, error)
}

type service struct {
	repo     sessions.Repository
	gateway  recommendGateway
	nearby   nearbyFinder
	profiles profileSource
	logg     *logger.Logger
	metrics  *metrics.ChatMetrics
}

// ServiceParams collects the orchestrator dependencies. Nearby, Profiles and
// Metrics are optional.
type ServiceParams struct {
	Sessions sessions.Repository
	Gateway  recommendGateway
	Nearby   nearbyFinder
	Profiles profileSource
	Logger   *logger.Logger
	Metrics  *metrics.ChatMetrics
}

// NewService builds the message orchestrator.
func NewService(params ServiceParams) (Service, error) {
	if params.Sessions == nil {
		return nil, fmt.Errorf("session repository required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("recommend gateway required")
	}
	return &service{
		repo:     params.Sessions,
		gateway:  params.Gateway,
		nearby:   params.Nearby,
		profiles: params.Profiles,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

func (s *service) HandleMessage(ctx context.Context, input MessageInput) (*MessageReply, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message cannot be empty")
	}

	sid, err := s.resolveSession(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		ctx = s.logg.WithSessionID(ctx, sid)
	}

	if err := s.repo.AppendHistory(ctx, sid, sessions.RoleUser, message); err != nil {
		return nil, err
	}

	label := intent.Classify(message)
	if s.logg != nil {
		ctx = s.logg.WithIntent(ctx, string(label))
		s.logg.Info(ctx, "chat.turn")
	}
	s.metrics.IncTurn(string(label))

	maxPrice := ExtractPriceCeiling(message)

	reply := &MessageReply{
		SessionID: sid,
		Intent:    label,
		Cards:     []catalog.Product{},
		Offers:    []offers.Offer{},
	}

	switch {
	case label == intent.Offers:
		reply.Offers = offers.Applicable(nil)
		reply.Response = offersReply
	case label == intent.Browse, label == intent.Recommend:
		cards, healthy := s.fetchCards(ctx, message, recommender.Filters{MaxPrice: maxPrice})
		reply.Cards = cards
		switch {
		case !healthy:
			reply.Response = degradedReply
		case len(cards) == 0:
			reply.Response = guidanceReply
		case label == intent.Browse:
			reply.Response = browseReply
		default:
			reply.Response = recommendReply
		}
		s.enrichWithNearby(ctx, input.UserID, reply)
	default:
		canned, _ := cannedReply(label)
		reply.Response = canned
	}

	if err := s.repo.AppendHistory(ctx, sid, sessions.RoleBot, reply.Response); err != nil {
		return nil, err
	}

	return reply, nil
}

func (s *service) GetSession(ctx context.Context, id string) (*sessions.Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return s.repo.Get(ctx, id)
}

// resolveSession returns an existing session id or creates a fresh one. An
// unknown id means "start fresh" on the chat path, never an error.
func (s *service) resolveSession(ctx context.Context, id string) (string, error) {
	if id != "" {
		if _, err := s.repo.Get(ctx, id); err == nil {
			return id, nil
		} else if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return "", err
		}
	}
	return s.repo.Create(ctx)
}

// fetchCards calls the recommender and absorbs its failures: a gateway
// outage degrades to zero cards so the turn still completes. The second
// return reports whether the gateway answered at all.
func (s *service) fetchCards(ctx context.Context, query string, filters recommender.Filters) ([]catalog.Product, bool) {
	start := time.Now()
	cards, err := s.gateway.Recommend(ctx, query, filters)
	if err != nil {
		s.metrics.ObserveRecommender("error", time.Since(start))
		if s.logg != nil {
			s.logg.Error(ctx, "recommender.unavailable", err)
		}
		return []catalog.Product{}, false
	}
	s.metrics.ObserveRecommender("ok", time.Since(start))
	if cards == nil {
		cards = []catalog.Product{}
	}
	return cards, true
}

// enrichWithNearby annotates the reply with the count of stores around the
// user's stored GPS location, when one is on file.
func (s *service) enrichWithNearby(ctx context.Context, userID string, reply *MessageReply) {
	if s.nearby == nil || s.profiles == nil || userID == "" || len(reply.Cards) == 0 {
		return
	}
	loc, radius, err := s.profiles.StoredLocation(ctx, userID)
	if err != nil || loc == nil {
		if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) && s.logg != nil {
			s.logg.Warn(ctx, "chat.profile_location_unavailable")
		}
		return
	}
	result, err := s.nearby.FindNearbyStores(*loc, radius)
	if err != nil {
		var typed *pkgerrors.Error
		if !errors.As(err, &typed) || typed.Code() != pkgerrors.CodeValidation {
			if s.logg != nil {
				s.logg.Warn(ctx, "chat.nearby_lookup_failed")
			}
		}
		return
	}
	if result.StoresFound > 0 {
		reply.NearbyStores = result.StoresFound
		reply.Response = fmt.Sprintf("%s %d nearby store(s) may carry these in stock.", reply.Response, result.StoresFound)
	}
}
