package chi

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nutriplate/nutriplate/internal/domain/recipe"
)

// coercionHeader reports whether a generated recipe came from model output or defaults.
const coercionHeader = "X-Recipe-Coercion"

type generateRequest struct {
	Prompt            string `json:"prompt"`
	DietaryPreference string `json:"dietaryPreference"`
}

// GenerateRecipeFromImage handles POST /api/generate_recipe_from_image (multipart).
func (s *Server) GenerateRecipeFromImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Image too large")
			return
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			writeError(w, http.StatusBadRequest, "Invalid multipart body: "+err.Error())
			return
		}
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image provided (field name 'image')")
		return
	}
	defer func() { _ = file.Close() }()

	image, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read image: "+err.Error())
		return
	}
	if len(image) == 0 {
		writeError(w, http.StatusBadRequest, "No image provided (field name 'image')")
		return
	}

	res, err := s.generator.FromImage(r.Context(), image, r.FormValue("dietaryPreference"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeRecipeResult(w, res)
}

// GenerateRecipe handles POST /api/generate_recipe.
func (s *Server) GenerateRecipe(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "No prompt provided")
		return
	}

	res, err := s.generator.FromText(r.Context(), req.Prompt, req.DietaryPreference)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeRecipeResult(w, res)
}

func writeRecipeResult(w http.ResponseWriter, res recipe.Result) {
	w.Header().Set(coercionHeader, string(res.Status))
	writeJSON(w, http.StatusOK, res.Record)
}

// ListRecipes handles GET /api/recipes.
func (s *Server) ListRecipes(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := recipe.Query{
		Difficulty: params.Get("difficulty"),
		Search:     params.Get("search"),
		Ordering:   params.Get("ordering"),
		Cursor:     params.Get("cursor"),
	}
	if raw := params.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		q.Limit = n
	}

	recs, next, err := s.catalog.List(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[recipe.Recipe]{
		Items:      recs,
		NextCursor: next,
		HasMore:    next != "",
	})
}

// CreateRecipe handles POST /api/recipes.
func (s *Server) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var rec recipe.Recipe
	if !decodeJSON(w, r, &rec) {
		return
	}
	if err := s.catalog.Create(r.Context(), &rec); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set("Location", "/api/recipes/"+rec.ID)
	writeJSON(w, http.StatusCreated, rec)
}

// GetRecipe handles GET /api/recipes/{id}.
func (s *Server) GetRecipe(w http.ResponseWriter, r *http.Request) {
	rec, err := s.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// UpdateRecipe handles PUT /api/recipes/{id}.
func (s *Server) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	var rec recipe.Recipe
	if !decodeJSON(w, r, &rec) {
		return
	}
	if err := s.catalog.Update(r.Context(), chi.URLParam(r, "id"), &rec); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DeleteRecipe handles DELETE /api/recipes/{id}.
func (s *Server) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
