package api

import (
	"net/http"

	"github.com/jnst/store-backoffice/internal/model"
)

// ListCategories handles GET /categories.
func (s *Server) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.services.Categories.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, categories)
}

// GetCategory handles GET /categories/{id}.
func (s *Server) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	category, err := s.services.Categories.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, category)
}

// CreateCategory handles POST /categories.
func (s *Server) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var params model.CreateCategoryParams
	if err := decodeBody(r, &params); err != nil {
		s.writeError(w, r, err)
		return
	}

	category, err := s.services.Categories.Create(r.Context(), &params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	setLocation(w, "categories", category.ID)
	s.writeJSON(w, http.StatusCreated, category)
}

// UpdateCategory handles PUT /categories/{id}.
func (s *Server) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var params model.UpdateCategoryParams
	if err := decodeBody(r, &params); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.services.Categories.Update(r.Context(), id, &params); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteCategory handles DELETE /categories/{id}.
func (s *Server) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.services.Categories.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
