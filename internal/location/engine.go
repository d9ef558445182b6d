package location

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/retailgenie/orchestrator/internal/catalog"
	pkgerrors "github.com/retailgenie/orchestrator/pkg/errors"
	"github.com/retailgenie/orchestrator/pkg/types"
)

const earthRadiusKm = 6371

// Engine answers proximity queries over the loaded store inventory.
type Engine struct {
	catalog         *catalog.Catalog
	defaultRadiusKm float64
}

// NewEngine builds a location engine over the given catalog.
func NewEngine(cat *catalog.Catalog, defaultRadiusKm float64) (*Engine, error) {
	if cat == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = 15
	}
	return &Engine{catalog: cat, defaultRadiusKm: defaultRadiusKm}, nil
}

// Distance returns the Haversine great-circle distance in km, rounded to one
// decimal place.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return math.Round(earthRadiusKm*c*10) / 10
}

// NearbyStore is a store with the distance from the user attached.
type NearbyStore struct {
	catalog.Store
	DistanceKm float64 `json:"distance"`
}

// NearbyStoresResult lists the stores inside the requested radius, sorted
// ascending by distance.
type NearbyStoresResult struct {
	RadiusKm     float64           `json:"radius"`
	UserLocation types.Coordinates `json:"user_location"`
	StoresFound  int               `json:"stores_found"`
	Stores       []NearbyStore     `json:"stores"`
}

// FindNearbyStores returns every store within radiusKm of loc. A zero or
// negative radius falls back to the engine default.
func (e *Engine) FindNearbyStores(loc types.Coordinates, radiusKm float64) (*NearbyStoresResult, error) {
	if !loc.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid user location required")
	}
	if radiusKm <= 0 {
		radiusKm = e.defaultRadiusKm
	}

	var nearby []NearbyStore
	for _, store := range e.catalog.Stores() {
		d := Distance(loc.Latitude, loc.Longitude, store.Coordinates.Latitude, store.Coordinates.Longitude)
		if d <= radiusKm {
			nearby = append(nearby, NearbyStore{Store: store, DistanceKm: d})
		}
	}
	sort.Slice(nearby, func(i, j int) bool { return nearby[i].DistanceKm < nearby[j].DistanceKm })

	return &NearbyStoresResult{
		RadiusKm:     radiusKm,
		UserLocation: loc,
		StoresFound:  len(nearby),
		Stores:       nearby,
	}, nil
}

// AllStores returns every store without distance information.
func (e *Engine) AllStores() []catalog.Store {
	return e.catalog.Stores()
}

// StoreByID looks up a single store.
func (e *Engine) StoreByID(storeID string) (*catalog.Store, error) {
	for _, store := range e.catalog.Stores() {
		if store.StoreID == storeID {
			s := store
			return &s, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
}

// StoreProducts returns a store's inventory, optionally filtered to the
// given product ids.
func (e *Engine) StoreProducts(storeID string, productIDs []string) ([]catalog.StoreProduct, error) {
	store, err := e.StoreByID(storeID)
	if err != nil {
		return nil, err
	}
	if len(productIDs) == 0 {
		return store.Products, nil
	}
	wanted := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = struct{}{}
	}
	var filtered []catalog.StoreProduct
	for _, p := range store.Products {
		if _, ok := wanted[p.ProductID]; ok {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// StoreAvailability describes one store carrying a product.
type StoreAvailability struct {
	StoreID     string            `json:"store_id"`
	StoreName   string            `json:"store_name"`
	Location    string            `json:"location"`
	Coordinates types.Coordinates `json:"coordinates"`
	Stock       int               `json:"stock"`
	Price       float64           `json:"price"`
	DistanceKm  *float64          `json:"distance,omitempty"`
}

// AvailabilityResult reports where a product is in stock. Found is false when
// no store carries it; that is an expected outcome, not an error.
type AvailabilityResult struct {
	ProductID    string              `json:"product_id"`
	Found        bool                `json:"found"`
	TotalStores  int                 `json:"total_stores"`
	Availability []StoreAvailability `json:"availability"`
	Message      string              `json:"message"`
}

// CheckAvailability scans every store for the product. Stores with no stock
// are always excluded. When loc is supplied, distance is attached and the
// result is sorted nearest-first; otherwise store iteration order holds.
func (e *Engine) CheckAvailability(productID string, loc *types.Coordinates, radiusKm float64) *AvailabilityResult {
	hasLoc := loc != nil && loc.Valid()

	var availability []StoreAvailability
	for _, store := range e.catalog.Stores() {
		for _, p := range store.Products {
			if p.ProductID != productID || !p.InStock || p.Stock <= 0 {
				continue
			}
			entry := StoreAvailability{
				StoreID:     store.StoreID,
				StoreName:   store.Name,
				Location:    store.Location,
				Coordinates: store.Coordinates,
				Stock:       p.Stock,
				Price:       p.Price,
			}
			if hasLoc {
				d := Distance(loc.Latitude, loc.Longitude, store.Coordinates.Latitude, store.Coordinates.Longitude)
				entry.DistanceKm = &d
			}
			availability = append(availability, entry)
			break
		}
	}

	if hasLoc {
		sort.Slice(availability, func(i, j int) bool {
			return *availability[i].DistanceKm < *availability[j].DistanceKm
		})
	}

	message := fmt.Sprintf("Found in %d store(s)", len(availability))
	if len(availability) == 0 {
		message = "Product not available in nearby stores"
	}
	return &AvailabilityResult{
		ProductID:    productID,
		Found:        len(availability) > 0,
		TotalStores:  len(availability),
		Availability: availability,
		Message:      message,
	}
}

// ProductStore is one store carrying a matched product.
type ProductStore struct {
	StoreID    string  `json:"store_id"`
	StoreName  string  `json:"store_name"`
	DistanceKm float64 `json:"distance"`
	Stock      int     `json:"stock"`
	Price      float64 `json:"price"`
}

// ProductMatch aggregates a product across every nearby store carrying it.
type ProductMatch struct {
	ProductID   string         `json:"product_id"`
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	Price       float64        `json:"price"`
	Rating      float64        `json:"rating,omitempty"`
	AvailableIn int            `json:"available_in"`
	Stores      []ProductStore `json:"stores"`
}

// SearchResult is the outcome of a nearby product search.
type SearchResult struct {
	Query        string         `json:"query"`
	RadiusKm     float64        `json:"radius"`
	NearbyStores int            `json:"nearby_stores"`
	ResultsFound int            `json:"results_found"`
	Results      []ProductMatch `json:"results"`
	Message      string         `json:"message,omitempty"`
}

// SearchNearby matches the query against product name and category inside
// every store within the radius. A product found in several stores yields one
// entry aggregating those stores; entries are ordered by the minimum distance
// across their carrying stores.
func (e *Engine) SearchNearby(query string, loc types.Coordinates, radiusKm float64) (*SearchResult, error) {
	nearby, err := e.FindNearbyStores(loc, radiusKm)
	if err != nil {
		return nil, err
	}
	if nearby.StoresFound == 0 {
		return &SearchResult{
			Query:    query,
			RadiusKm: nearby.RadiusKm,
			Message:  "No stores found nearby",
		}, nil
	}

	matches := collectMatches(nearby.Stores, func(p catalog.StoreProduct) bool {
		q := strings.ToLower(query)
		return strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Category), q)
	})

	return &SearchResult{
		Query:        query,
		RadiusKm:     nearby.RadiusKm,
		NearbyStores: nearby.StoresFound,
		ResultsFound: len(matches),
		Results:      matches,
	}, nil
}

// RecommendNearby returns up to ten in-stock products from stores inside the
// radius, nearest store first.
func (e *Engine) RecommendNearby(loc types.Coordinates, radiusKm float64) (*SearchResult, error) {
	nearby, err := e.FindNearbyStores(loc, radiusKm)
	if err != nil {
		return nil, err
	}
	if nearby.StoresFound == 0 {
		return &SearchResult{
			RadiusKm: nearby.RadiusKm,
			Message:  "No stores found nearby",
		}, nil
	}

	matches := collectMatches(nearby.Stores, func(catalog.StoreProduct) bool { return true })
	if len(matches) > 10 {
		matches = matches[:10]
	}

	return &SearchResult{
		RadiusKm:     nearby.RadiusKm,
		NearbyStores: nearby.StoresFound,
		ResultsFound: len(matches),
		Results:      matches,
	}, nil
}

func collectMatches(stores []NearbyStore, keep func(catalog.StoreProduct) bool) []ProductMatch {
	byID := map[string]*ProductMatch{}
	var order []string

	for _, store := range stores {
		for _, p := range store.Products {
			if !p.InStock || p.Stock <= 0 || !keep(p) {
				continue
			}
			match, ok := byID[p.ProductID]
			if !ok {
				match = &ProductMatch{
					ProductID: p.ProductID,
					Name:      p.Name,
					Category:  p.Category,
					Price:     p.Price,
					Rating:    p.Rating,
				}
				byID[p.ProductID] = match
				order = append(order, p.ProductID)
			}
			match.Stores = append(match.Stores, ProductStore{
				StoreID:    store.StoreID,
				StoreName:  store.Name,
				DistanceKm: store.DistanceKm,
				Stock:      p.Stock,
				Price:      p.Price,
			})
		}
	}

	matches := make([]ProductMatch, 0, len(order))
	for _, id := range order {
		match := byID[id]
		sort.Slice(match.Stores, func(i, j int) bool {
			return match.Stores[i].DistanceKm < match.Stores[j].DistanceKm
		})
		match.AvailableIn = len(match.Stores)
		matches = append(matches, *match)
	}

	// stores are already nearest-first, so Stores[0] is each product's minimum
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Stores[0].DistanceKm < matches[j].Stores[0].DistanceKm
	})
	return matches
}
