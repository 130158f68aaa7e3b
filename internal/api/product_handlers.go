package api

import (
	"net/http"

	"github.com/jnst/store-backoffice/internal/model"
)

// ListProducts handles GET /products.
func (s *Server) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.services.Products.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, products)
}

// GetProduct handles GET /products/{id}.
func (s *Server) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	product, err := s.services.Products.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, product)
}

// CreateProduct handles POST /products.
func (s *Server) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var params model.CreateProductParams
	if err := decodeBody(r, &params); err != nil {
		s.writeError(w, r, err)
		return
	}

	product, err := s.services.Products.Create(r.Context(), &params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	setLocation(w, "products", product.ID)
	s.writeJSON(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /products/{id}.
func (s *Server) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var params model.UpdateProductParams
	if err := decodeBody(r, &params); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.services.Products.Update(r.Context(), id, &params); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteProduct handles DELETE /products/{id}.
func (s *Server) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.services.Products.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
