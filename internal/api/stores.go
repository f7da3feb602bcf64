package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ratewise/ratewise-core/internal/auth"
	"github.com/ratewise/ratewise-core/internal/store"
)

// storeView is a store listing enriched with the caller's own rating
// when one exists.
type storeView struct {
	store.Store
	MyRating *int `json:"my_rating,omitempty"`
}

// createStoreRequest is the POST /stores body.
type createStoreRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	OwnerID string `json:"owner_id"`
}

// rateRequest is the PUT /stores/{id}/rating body.
type rateRequest struct {
	Value int `json:"value"`
}

// handleListStores returns all stores. Authenticated callers get each
// store annotated with their own rating.
func (s *Server) handleListStores(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stores, err := s.stores.List(ctx)
	if err != nil {
		s.logger.Error("store list failed", "error", err)
		writeInternalError(w, "failed to list stores")
		return
	}

	identity := identityFromContext(ctx)
	views := make([]storeView, 0, len(stores))
	for _, st := range stores {
		view := storeView{Store: st}
		if identity != nil {
			if rating, err := s.stores.GetRating(ctx, st.ID, identity.ID); err == nil {
				view.MyRating = &rating.Value
			}
		}
		views = append(views, view)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"stores": views,
		"total":  len(views),
	})
}

// handleGetStore returns a single store.
func (s *Server) handleGetStore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	storeID := chi.URLParam(r, "id")

	st, err := s.stores.GetByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, store.ErrStoreNotFound) {
			writeNotFound(w, "store not found")
			return
		}
		s.logger.Error("store lookup failed", "error", err, "store_id", storeID)
		writeInternalError(w, "failed to fetch store")
		return
	}

	view := storeView{Store: *st}
	if identity := identityFromContext(ctx); identity != nil {
		if rating, err := s.stores.GetRating(ctx, st.ID, identity.ID); err == nil {
			view.MyRating = &rating.Value
		}
	}

	writeJSON(w, http.StatusOK, view)
}

// handleCreateStore registers a new store listing. Admin only.
func (s *Server) handleCreateStore(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	if !s.authorize(w, r, auth.RequireRole(identity, auth.RoleSystemAdmin)) {
		return
	}

	var req createStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		writeBadRequest(w, "name is required")
		return
	}

	if req.OwnerID != "" {
		owner, err := s.users.FindByID(r.Context(), req.OwnerID)
		if err != nil {
			if errors.Is(err, auth.ErrAccountNotFound) {
				writeBadRequest(w, "owner_id does not reference a known user")
				return
			}
			s.logger.Error("owner lookup failed", "error", err, "owner_id", req.OwnerID)
			writeInternalError(w, "failed to create store")
			return
		}
		if owner.Role != auth.RoleStoreOwner {
			writeBadRequest(w, "owner_id must reference a store_owner account")
			return
		}
	}

	st := &store.Store{
		Name:    req.Name,
		Address: req.Address,
		OwnerID: req.OwnerID,
	}
	if err := s.stores.Create(r.Context(), st); err != nil {
		s.logger.Error("store creation failed", "error", err)
		writeInternalError(w, "failed to create store")
		return
	}

	s.logger.Info("store created", "store_id", st.ID, "created_by", identity.ID)
	writeJSON(w, http.StatusCreated, st)
}

// handleRateStore submits or replaces the caller's rating for a store.
// Only normal users rate; owners and admins manage, they do not rate.
func (s *Server) handleRateStore(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	if !s.authorize(w, r, auth.RequireRole(identity, auth.RoleNormalUser)) {
		return
	}

	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if !store.IsValidRating(req.Value) {
		writeBadRequest(w, "value must be between "+strconv.Itoa(store.MinRating)+" and "+strconv.Itoa(store.MaxRating))
		return
	}

	storeID := chi.URLParam(r, "id")
	if err := s.stores.Rate(r.Context(), storeID, identity.ID, req.Value); err != nil {
		switch {
		case errors.Is(err, store.ErrStoreNotFound):
			writeNotFound(w, "store not found")
		case errors.Is(err, store.ErrInvalidRating):
			writeBadRequest(w, "value must be between 1 and 5")
		default:
			s.logger.Error("rating failed", "error", err, "store_id", storeID, "user_id", identity.ID)
			writeInternalError(w, "failed to submit rating")
		}
		return
	}

	st, err := s.stores.GetByID(r.Context(), storeID)
	if err != nil {
		s.logger.Error("store reload failed", "error", err, "store_id", storeID)
		writeInternalError(w, "failed to submit rating")
		return
	}

	view := storeView{Store: *st, MyRating: &req.Value}
	writeJSON(w, http.StatusOK, view)
}

// handleListStoreRatings returns the individual ratings for a store.
// Restricted to the store's owner; admins may inspect any store.
func (s *Server) handleListStoreRatings(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	if !s.authorize(w, r, auth.RequireAnyRole(identity, auth.RoleStoreOwner)) {
		return
	}

	storeID := chi.URLParam(r, "id")
	st, err := s.stores.GetByID(r.Context(), storeID)
	if err != nil {
		if errors.Is(err, store.ErrStoreNotFound) {
			writeNotFound(w, "store not found")
			return
		}
		s.logger.Error("store lookup failed", "error", err, "store_id", storeID)
		writeInternalError(w, "failed to list ratings")
		return
	}

	// An owner may only inspect their own store; admins passed the role
	// gate via the bypass and see everything.
	if identity.Role != auth.RoleSystemAdmin && st.OwnerID != identity.ID {
		if !s.authorize(w, r, auth.RequireSelfOrAdmin(identity, st.OwnerID)) {
			return
		}
	}

	ratings, err := s.stores.ListRatings(r.Context(), storeID)
	if err != nil {
		s.logger.Error("rating list failed", "error", err, "store_id", storeID)
		writeInternalError(w, "failed to list ratings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"store_id":   storeID,
		"avg_rating": st.AvgRating,
		"ratings":    ratings,
		"total":      len(ratings),
	})
}

// handleOwnerStores returns the stores owned by the authenticated
// caller. Store owners only; admins can use the full store listing.
func (s *Server) handleOwnerStores(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	if !s.authorize(w, r, auth.RequireAnyRole(identity, auth.RoleStoreOwner)) {
		return
	}

	stores, err := s.stores.ListByOwner(r.Context(), identity.ID)
	if err != nil {
		s.logger.Error("owner store list failed", "error", err, "owner_id", identity.ID)
		writeInternalError(w, "failed to list stores")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"stores": stores,
		"total":  len(stores),
	})
}
