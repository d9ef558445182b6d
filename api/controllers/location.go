package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/retailgenie/orchestrator/api/middleware"
	"github.com/retailgenie/orchestrator/api/responses"
	"github.com/retailgenie/orchestrator/api/validators"
	"github.com/retailgenie/orchestrator/internal/location"
	pkgerrors "github.com/retailgenie/orchestrator/pkg/errors"
	"github.com/retailgenie/orchestrator/pkg/logger"
	"github.com/retailgenie/orchestrator/pkg/types"
)

const maxRadiusKm = 500

type storedLocationSource interface {
	StoredLocation(ctx context.Context, userID string) (*types.Coordinates, float64, error)
}

// resolveCoordinates reads lat/lon/radius from the query, falling back to the
// signed-in user's stored location when the query carries none.
func resolveCoordinates(r *http.Request, profiles storedLocationSource) (types.Coordinates, float64, error) {
	latRaw := strings.TrimSpace(r.URL.Query().Get("lat"))
	lonRaw := strings.TrimSpace(r.URL.Query().Get("lon"))

	radius, err := validators.ParseQueryFloat(r, "radius", 0, 0, maxRadiusKm)
	if err != nil {
		return types.Coordinates{}, 0, err
	}

	if latRaw == "" && lonRaw == "" {
		if profiles != nil {
			if userID := middleware.UserIDFromContext(r.Context()); userID != "" {
				coords, storedRadius, err := profiles.StoredLocation(r.Context(), userID)
				if err == nil && coords != nil {
					if radius <= 0 {
						radius = storedRadius
					}
					return *coords, radius, nil
				}
			}
		}
		return types.Coordinates{}, 0, pkgerrors.New(pkgerrors.CodeValidation, "lat and lon query parameters are required")
	}

	lat, err := validators.ParseQueryFloat(r, "lat", 0, -90, 90)
	if err != nil {
		return types.Coordinates{}, 0, err
	}
	lon, err := validators.ParseQueryFloat(r, "lon", 0, -180, 180)
	if err != nil {
		return types.Coordinates{}, 0, err
	}

	coords := types.Coordinates{Latitude: lat, Longitude: lon}
	if !coords.Valid() {
		return types.Coordinates{}, 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid coordinates")
	}
	return coords, radius, nil
}

// NearbyStores lists stores within the search radius, nearest first.
func NearbyStores(engine *location.Engine, profiles storedLocationSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "location engine unavailable"))
			return
		}

		coords, radius, err := resolveCoordinates(r, profiles)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := engine.FindNearbyStores(coords, radius)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// ProductAvailability reports which stores carry a product, with distance
// when the caller's location is known.
func ProductAvailability(engine *location.Engine, profiles storedLocationSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "location engine unavailable"))
			return
		}

		productID := strings.TrimSpace(chi.URLParam(r, "productID"))
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		var loc *types.Coordinates
		radius := 0.0
		if coords, resolved, err := resolveCoordinates(r, profiles); err == nil {
			loc = &coords
			radius = resolved
		}

		responses.WriteSuccess(w, engine.CheckAvailability(productID, loc, radius))
	}
}

// StoreSearch finds products matching a text query across nearby stores.
func StoreSearch(engine *location.Engine, profiles storedLocationSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "location engine unavailable"))
			return
		}

		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "q query parameter is required"))
			return
		}

		coords, radius, err := resolveCoordinates(r, profiles)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := engine.SearchNearby(query, coords, radius)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// LocationRecommendations surfaces top-rated products stocked nearby.
func LocationRecommendations(engine *location.Engine, profiles storedLocationSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "location engine unavailable"))
			return
		}

		coords, radius, err := resolveCoordinates(r, profiles)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := engine.RecommendNearby(coords, radius)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// Stores lists every store in the catalog.
func Stores(engine *location.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "location engine unavailable"))
			return
		}
		responses.WriteSuccess(w, engine.AllStores())
	}
}

// StoreInventory returns a store's product list, optionally filtered to a
// comma separated ids query.
func StoreInventory(engine *location.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "location engine unavailable"))
			return
		}

		var productIDs []string
		if raw := strings.TrimSpace(r.URL.Query().Get("ids")); raw != "" {
			for _, id := range strings.Split(raw, ",") {
				if id = strings.TrimSpace(id); id != "" {
					productIDs = append(productIDs, id)
				}
			}
		}

		products, err := engine.StoreProducts(chi.URLParam(r, "storeID"), productIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, products)
	}
}

// StoreDetail returns one store by id.
func StoreDetail(engine *location.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "location engine unavailable"))
			return
		}

		store, err := engine.StoreByID(chi.URLParam(r, "storeID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, store)
	}
}
