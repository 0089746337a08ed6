package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// resource is the plain CRUD surface shared by categories, suppliers and stores.
type resource[T any] struct {
	list       func(ctx context.Context) ([]T, error)
	get        func(ctx context.Context, id uuid.UUID) (*T, error)
	create     func(ctx context.Context, v T) (*T, error)
	update     func(ctx context.Context, id uuid.UUID, v T) (*T, error)
	deactivate func(ctx context.Context, id uuid.UUID) error
}

// mount registers list, create, get, replace and soft-delete routes on r.
func (res resource[T]) mount(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		items, err := res.list(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	})

	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		var v T
		if !decodeJSON(w, r, &v) {
			return
		}
		out, err := res.create(r.Context(), v)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	})

	r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		out, err := res.get(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	})

	r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		var v T
		if !decodeJSON(w, r, &v) {
			return
		}
		out, err := res.update(r.Context(), id, v)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	})

	r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		if err := res.deactivate(r.Context(), id); err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeSuccess(w)
	})
}
