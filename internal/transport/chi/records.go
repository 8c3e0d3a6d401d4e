package chi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nutriplate/nutriplate/internal/domain/tracking"
)

// RecordRoutes mounts CRUD handlers for one kind of user-owned record.
type RecordRoutes interface {
	pattern() string
	mount(router chi.Router, s *Server)
}

// Records exposes svc under pattern. newFn returns an empty record to decode request bodies into.
func Records[R tracking.Record](pattern string, svc RecordService[R], newFn func() R) RecordRoutes {
	return &recordRoutes[R]{path: pattern, svc: svc, newFn: newFn}
}

type recordRoutes[R tracking.Record] struct {
	path  string
	svc   RecordService[R]
	newFn func() R
}

func (rr *recordRoutes[R]) pattern() string { return rr.path }

func (rr *recordRoutes[R]) mount(router chi.Router, s *Server) {
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		recs, err := rr.svc.List(r.Context())
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, listResponse[R]{Items: recs})
	})

	router.Post("/", func(w http.ResponseWriter, r *http.Request) {
		rec := rr.newFn()
		if !decodeJSON(w, r, rec) {
			return
		}
		if err := rr.svc.Create(r.Context(), rec); err != nil {
			s.handleDomainError(w, err)
			return
		}
		w.Header().Set("Location", rr.path+"/"+strconv.FormatInt(rec.RecordID(), 10))
		writeJSON(w, http.StatusCreated, rec)
	})

	router.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := recordID(w, r)
		if !ok {
			return
		}
		rec, err := rr.svc.Get(r.Context(), id)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	})

	router.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := recordID(w, r)
		if !ok {
			return
		}
		rec := rr.newFn()
		if !decodeJSON(w, r, rec) {
			return
		}
		if err := rr.svc.Update(r.Context(), id, rec); err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	})

	router.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := recordID(w, r)
		if !ok {
			return
		}
		if err := rr.svc.Delete(r.Context(), id); err != nil {
			s.handleDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func recordID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "not found")
		return 0, false
	}
	return id, true
}
