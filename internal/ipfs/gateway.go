package ipfs

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler 返回只读网关，提供 GET /ipfs/{cid}
func (s *LocalStore) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/ipfs/{cid}", s.handleGet)
	return r
}

func (s *LocalStore) handleGet(w http.ResponseWriter, r *http.Request) {
	cid := chi.URLParam(r, "cid")
	data, err := s.Read(cid)
	switch {
	case errors.Is(err, ErrInvalidCID):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	// 内容寻址，同一地址的内容永不变化
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("Etag", `"`+cid+`"`)
	_, _ = w.Write(data)
}
