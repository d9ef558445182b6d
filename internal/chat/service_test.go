package chat

import (
	"context"
	"testing"

	"github.com/retailgenie/orchestrator/internal/catalog"
	"github.com/retailgenie/orchestrator/internal/intent"
	"github.com/retailgenie/orchestrator/internal/location"
	"github.com/retailgenie/orchestrator/internal/recommender"
	"github.com/retailgenie/orchestrator/internal/sessions"
	pkgerrors "github.com/retailgenie/orchestrator/pkg/errors"
	"github.com/retailgenie/orchestrator/pkg/types"
)

type stubGateway struct {
	calls    int
	query    string
	filters  recommender.Filters
	products []catalog.Product
	err      error
}

func (g *stubGateway) Recommend(_ context.Context, query string, filters recommender.Filters) ([]catalog.Product, error) {
	g.calls++
	g.query = query
	g.filters = filters
	return g.products, g.err
}

type stubNearby struct {
	result *location.NearbyStoresResult
	err    error
}

func (n *stubNearby) FindNearbyStores(types.Coordinates, float64) (*location.NearbyStoresResult, error) {
	return n.result, n.err
}

type stubProfiles struct {
	coords *types.Coordinates
	radius float64
	err    error
}

func (p *stubProfiles) StoredLocation(context.Context, string) (*types.Coordinates, float64, error) {
	return p.coords, p.radius, p.err
}

func newTestService(t *testing.T, gateway *stubGateway, nearby *stubNearby, profiles *stubProfiles) (Service, *sessions.MemoryRepository) {
	t.Helper()
	repo := sessions.NewMemoryRepository(50)
	params := ServiceParams{Sessions: repo, Gateway: gateway}
	if nearby != nil {
		params.Nearby = nearby
	}
	if profiles != nil {
		params.Profiles = profiles
	}
	svc, err := NewService(params)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo
}

func TestNewServiceRequiresDeps(t *testing.T) {
	if _, err := NewService(ServiceParams{Gateway: &stubGateway{}}); err == nil {
		t.Fatal("expected error without session repository")
	}
	if _, err := NewService(ServiceParams{Sessions: sessions.NewMemoryRepository(0)}); err == nil {
		t.Fatal("expected error without gateway")
	}
}

func TestHandleMessageRejectsEmpty(t *testing.T) {
	svc, _ := newTestService(t, &stubGateway{}, nil, nil)

	_, err := svc.HandleMessage(context.Background(), MessageInput{Message: "   "})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHandleMessageGreetingSkipsGateway(t *testing.T) {
	gateway := &stubGateway{}
	svc, repo := newTestService(t, gateway, nil, nil)

	reply, err := svc.HandleMessage(context.Background(), MessageInput{Message: "Hello"})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if reply.Intent != intent.Greeting {
		t.Fatalf("expected greeting intent, got %q", reply.Intent)
	}
	if gateway.calls != 0 {
		t.Fatalf("expected no gateway calls, got %d", gateway.calls)
	}
	if reply.Response == "" {
		t.Fatal("expected a canned response")
	}

	session, err := repo.Get(context.Background(), reply.SessionID)
	if err != nil {
		t.Fatalf("Get session: %v", err)
	}
	if len(session.History) != 2 {
		t.Fatalf("expected 2 history turns, got %d", len(session.History))
	}
	if session.History[0].Role != sessions.RoleUser || session.History[1].Role != sessions.RoleBot {
		t.Fatalf("unexpected turn roles: %+v", session.History)
	}
}

func TestHandleMessagePassesPriceCeiling(t *testing.T) {
	gateway := &stubGateway{products: []catalog.Product{{ID: "p105", Name: "Sequin Party Dress"}}}
	svc, _ := newTestService(t, gateway, nil, nil)

	reply, err := svc.HandleMessage(context.Background(), MessageInput{Message: "red dress under 2000"})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if reply.Intent != intent.Recommend {
		t.Fatalf("expected recommend intent, got %q", reply.Intent)
	}
	if gateway.calls != 1 {
		t.Fatalf("expected 1 gateway call, got %d", gateway.calls)
	}
	if gateway.filters.MaxPrice == nil || *gateway.filters.MaxPrice != 2000 {
		t.Fatalf("expected max price 2000, got %v", gateway.filters.MaxPrice)
	}
	if gateway.query != "red dress under 2000" {
		t.Fatalf("unexpected query %q", gateway.query)
	}
	if len(reply.Cards) != 1 {
		t.Fatalf("expected 1 card, got %d", len(reply.Cards))
	}
}

func TestHandleMessageZeroResultsGuides(t *testing.T) {
	gateway := &stubGateway{products: []catalog.Product{}}
	svc, _ := newTestService(t, gateway, nil, nil)

	reply, err := svc.HandleMessage(context.Background(), MessageInput{Message: "unicorn costume under 100"})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(reply.Cards) != 0 {
		t.Fatalf("expected no cards, got %d", len(reply.Cards))
	}
	if reply.Response != guidanceReply {
		t.Fatalf("expected guidance response, got %q", reply.Response)
	}
}

func TestHandleMessageGatewayOutageDegrades(t *testing.T) {
	gateway := &stubGateway{err: pkgerrors.New(pkgerrors.CodeDependency, "recommender down")}
	svc, _ := newTestService(t, gateway, nil, nil)

	reply, err := svc.HandleMessage(context.Background(), MessageInput{Message: "red dress under 2000"})
	if err != nil {
		t.Fatalf("expected degraded reply, got error %v", err)
	}
	if len(reply.Cards) != 0 {
		t.Fatalf("expected no cards, got %d", len(reply.Cards))
	}
	if reply.Response != degradedReply {
		t.Fatalf("expected degraded response, got %q", reply.Response)
	}
}

func TestHandleMessageOffers(t *testing.T) {
	gateway := &stubGateway{}
	svc, _ := newTestService(t, gateway, nil, nil)

	reply, err := svc.HandleMessage(context.Background(), MessageInput{Message: "any discounts going on?"})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if reply.Intent != intent.Offers {
		t.Fatalf("expected offers intent, got %q", reply.Intent)
	}
	if len(reply.Offers) == 0 {
		t.Fatal("expected offers in reply")
	}
	if gateway.calls != 0 {
		t.Fatalf("expected no gateway calls, got %d", gateway.calls)
	}
}

func TestHandleMessageReusesSession(t *testing.T) {
	svc, _ := newTestService(t, &stubGateway{}, nil, nil)

	first, err := svc.HandleMessage(context.Background(), MessageInput{Message: "Hello"})
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}
	second, err := svc.HandleMessage(context.Background(), MessageInput{SessionID: first.SessionID, Message: "hi again"})
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Fatalf("expected session %s to be reused, got %s", first.SessionID, second.SessionID)
	}
}

func TestHandleMessageUnknownSessionStartsFresh(t *testing.T) {
	svc, _ := newTestService(t, &stubGateway{}, nil, nil)

	reply, err := svc.HandleMessage(context.Background(), MessageInput{SessionID: "gone", Message: "Hello"})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if reply.SessionID == "gone" || reply.SessionID == "" {
		t.Fatalf("expected a fresh session id, got %q", reply.SessionID)
	}
}

func TestHandleMessageEnrichesWithNearbyStores(t *testing.T) {
	coords := types.Coordinates{Latitude: 28.6139, Longitude: 77.209}
	gateway := &stubGateway{products: []catalog.Product{{ID: "p101", Name: "Slim Fit Blue Jeans"}}}
	nearby := &stubNearby{result: &location.NearbyStoresResult{StoresFound: 3}}
	profiles := &stubProfiles{coords: &coords, radius: 10}
	svc, _ := newTestService(t, gateway, nearby, profiles)

	reply, err := svc.HandleMessage(context.Background(), MessageInput{Message: "blue jeans", UserID: "user-1"})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if reply.NearbyStores != 3 {
		t.Fatalf("expected 3 nearby stores, got %d", reply.NearbyStores)
	}
}

func TestHandleMessageAnonymousSkipsEnrichment(t *testing.T) {
	gateway := &stubGateway{products: []catalog.Product{{ID: "p101"}}}
	nearby := &stubNearby{result: &location.NearbyStoresResult{StoresFound: 3}}
	profiles := &stubProfiles{coords: &types.Coordinates{Latitude: 1, Longitude: 1}, radius: 10}
	svc, _ := newTestService(t, gateway, nearby, profiles)

	reply, err := svc.HandleMessage(context.Background(), MessageInput{Message: "blue jeans"})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if reply.NearbyStores != 0 {
		t.Fatalf("expected no enrichment for anonymous caller, got %d", reply.NearbyStores)
	}
}

func TestGetSessionValidatesID(t *testing.T) {
	svc, _ := newTestService(t, &stubGateway{}, nil, nil)

	if _, err := svc.GetSession(context.Background(), " "); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.GetSession(context.Background(), "missing"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
