package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"nutrision/internal/app"
	"nutrision/internal/planner"
	"nutrision/internal/portion"
	"nutrision/internal/recipe"
	"nutrision/internal/session"
	"nutrision/internal/shopping"
)

const (
	maxBodyBytes        = 5 << 20
	defaultHistoryLimit = 10
)

type planResponse struct {
	ID        int64              `json:"id"`
	Origin    planner.Origin     `json:"origin"`
	Plan      *recipe.WeeklyPlan `json:"plan"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

func newPlanResponse(p *planner.StoredPlan) planResponse {
	return planResponse{
		ID:        p.ID,
		Origin:    p.Origin,
		Plan:      p.Plan,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type shoppingItem struct {
	shopping.Entry
	Checked bool `json:"checked"`
}

type shoppingResponse struct {
	PlanID   int64                `json:"planId"`
	List     *shopping.List       `json:"list"`
	Items    []shoppingItem       `json:"items"`
	Ranked   shopping.Totals      `json:"ranked"`
	Cheapest *shopping.StoreTotal `json:"cheapest,omitempty"`
}

type recipeResponse struct {
	Ref               recipe.RecipeRef         `json:"ref"`
	Recipe            *recipe.Recipe           `json:"recipe"`
	Image             string                   `json:"image"`
	Portions          int                      `json:"portions"`
	TotalTimeMinutes  int                      `json:"totalTimeMinutes"`
	ScaledIngredients []recipe.Ingredient      `json:"scaledIngredients"`
	Prices            shopping.PriceComparison `json:"prices"`
	EstimatedPrice    float64                  `json:"estimatedPrice"`
}

func newRecipeResponse(ref recipe.RecipeRef, r *recipe.Recipe, portions int) (recipeResponse, error) {
	prices, err := shopping.ComparePrices(r, portions)
	if err != nil {
		return recipeResponse{}, err
	}
	scaled := make([]recipe.Ingredient, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		ing.Quantity = portion.ScaleQuantity(ing.Quantity, portions)
		scaled[i] = ing
	}
	return recipeResponse{
		Ref:               ref,
		Recipe:            r,
		Image:             r.Image(),
		Portions:          portions,
		TotalTimeMinutes:  r.TotalTimeMinutes(),
		ScaledIngredients: scaled,
		Prices:            prices,
		EstimatedPrice:    shopping.EstimatedPrice(r, portions),
	}, nil
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	stored, err := s.app.CurrentPlan(r.Context(), UserID(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPlanResponse(stored))
}

func (s *Server) handleNewPlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UseAI bool `json:"useAI"`
	}
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	stored, err := s.app.NewPlan(r.Context(), UserID(r.Context()), req.UseAI)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newPlanResponse(stored))
}

type planSummary struct {
	ID        int64          `json:"id"`
	Origin    planner.Origin `json:"origin"`
	WeekID    string         `json:"weekId"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	plans, err := s.app.History(r.Context(), UserID(r.Context()), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	summaries := make([]planSummary, 0, len(plans))
	for _, p := range plans {
		summaries = append(summaries, planSummary{ID: p.ID, Origin: p.Origin, WeekID: p.Plan.WeekID, CreatedAt: p.CreatedAt})
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetPlanByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid plan id")
		return
	}
	stored, err := s.app.Plan(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	// Plans of other users are reported as missing.
	if stored.UserID != UserID(r.Context()) {
		writeError(w, http.StatusNotFound, planner.ErrNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, newPlanResponse(stored))
}

func (s *Server) handleShoppingList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := UserID(ctx)

	state, err := s.app.Session(ctx, userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	diet, portions, err := dietAndPortions(r, state)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	stored, err := s.app.CurrentPlan(ctx, userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	list, err := s.app.ShoppingList(stored.Plan, diet, portions)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := shoppingResponse{PlanID: stored.ID, List: list, Ranked: list.Totals.Ranked()}
	for _, e := range list.Entries() {
		resp.Items = append(resp.Items, shoppingItem{Entry: e, Checked: state.IsChecked(e.Key)})
	}
	if cheapest, ok := list.Totals.Cheapest(); ok {
		resp.Cheapest = &cheapest
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleToggleItem(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(chi.URLParam(r, "key"))
	if err != nil || key == "" {
		writeError(w, http.StatusBadRequest, "invalid item key")
		return
	}

	var checked bool
	if _, err := s.app.UpdateSession(r.Context(), UserID(r.Context()), func(st *session.State) error {
		checked = st.ToggleChecked(key)
		return nil
	}); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": key, "checked": checked})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.app.Session(r.Context(), UserID(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	if err := s.app.ResetSession(r.Context(), UserID(r.Context())); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := UserID(ctx)

	ref, err := recipeRef(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	state, err := s.app.Session(ctx, userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_, portions, err := dietAndPortions(r, state)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	stored, err := s.app.CurrentPlan(ctx, userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rec, err := stored.Plan.Recipe(ref)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp, err := newRecipeResponse(ref, rec, portions)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ref, err := recipeRef(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req struct {
		Image string `json:"image"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !validImage(req.Image) {
		writeError(w, http.StatusBadRequest, "image must be an http(s) URL or an image data URL")
		return
	}

	current, err := s.app.CurrentPlan(ctx, UserID(ctx))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	stored, err := s.app.SetRecipeImage(ctx, current.ID, ref, req.Image)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPlanResponse(stored))
}

func (s *Server) handleClipRecipe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		URL     string            `json:"url"`
		Replace *recipe.RecipeRef `json:"replace,omitempty"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if u, err := url.ParseRequestURI(req.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		writeError(w, http.StatusBadRequest, "url must be an absolute http(s) URL")
		return
	}

	res, err := s.app.ClipRecipe(ctx, req.URL)
	if errors.Is(err, app.ErrClipperUnavailable) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		s.logger.Warn("recipe import failed", zap.String("url", req.URL), zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to import recipe")
		return
	}

	if req.Replace == nil {
		resp, err := newRecipeResponse(recipe.RecipeRef{}, res.Recipe, portion.Base)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	current, err := s.app.CurrentPlan(ctx, UserID(ctx))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	stored, err := s.app.ReplaceRecipe(ctx, current.ID, *req.Replace, res.Recipe)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPlanResponse(stored))
}

// fail maps domain errors to HTTP status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, portion.ErrInvalidPortions),
		errors.Is(err, recipe.ErrUnknownDiet),
		errors.Is(err, recipe.ErrInvalidPlan),
		errors.Is(err, errBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, recipe.ErrRecipeNotFound), errors.Is(err, planner.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

var errBadRequest = errors.New("bad request")

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// dietAndPortions reads the diet and portions query parameters, falling
// back to the user's session.
func dietAndPortions(r *http.Request, state *session.State) (recipe.DietMode, int, error) {
	q := r.URL.Query()

	diet := state.Diet
	if raw := q.Get("diet"); raw != "" {
		d, err := recipe.ParseDietMode(raw)
		if err != nil {
			return "", 0, err
		}
		diet = d
	}

	portions := state.Portions
	if raw := q.Get("portions"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return "", 0, fmt.Errorf("%w: portions %q", errBadRequest, raw)
		}
		portions = n
	}
	if err := portion.Validate(portions); err != nil {
		return "", 0, err
	}
	return diet, portions, nil
}

func recipeRef(r *http.Request) (recipe.RecipeRef, error) {
	day, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil {
		return recipe.RecipeRef{}, fmt.Errorf("%w: day %q", errBadRequest, chi.URLParam(r, "day"))
	}
	meal, err := recipe.ParseMealSlot(chi.URLParam(r, "meal"))
	if err != nil {
		return recipe.RecipeRef{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	diet, err := recipe.ParseDietMode(chi.URLParam(r, "diet"))
	if err != nil {
		return recipe.RecipeRef{}, err
	}
	return recipe.RecipeRef{Day: day, Meal: meal, Diet: diet}, nil
}

func validImage(image string) bool {
	return strings.HasPrefix(image, "https://") ||
		strings.HasPrefix(image, "http://") ||
		strings.HasPrefix(image, "data:image/")
}
