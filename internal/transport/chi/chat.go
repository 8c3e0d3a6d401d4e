package chi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nutriplate/nutriplate/internal/domain"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type knowledgeRequest struct {
	Documents []string `json:"documents"`
}

type knowledgeResponse struct {
	Added int `json:"added"`
	Total int `json:"total"`
}

type documentResponse struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type matchResponse struct {
	ID       string  `json:"id"`
	Content  string  `json:"content"`
	Distance float32 `json:"distance"`
}

// Chat handles POST /api/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "No message provided")
		return
	}

	reply, err := s.assistant.Ask(r.Context(), req.Message)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

// AddKnowledge handles POST /api/knowledge.
func (s *Server) AddKnowledge(w http.ResponseWriter, r *http.Request) {
	var req knowledgeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	added, total, err := s.assistant.AddDocuments(r.Context(), req.Documents)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, knowledgeResponse{Added: added, Total: total})
}

// SearchKnowledge handles GET /api/knowledge/search?q=&k=.
func (s *Server) SearchKnowledge(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeError(w, http.StatusBadRequest, "No query provided (parameter 'q')")
		return
	}
	k := 0
	if raw := r.URL.Query().Get("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "k must be a positive integer")
			return
		}
		k = n
	}

	matches, err := s.assistant.Search(r.Context(), q, k)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[matchResponse]{Items: matchesToResponse(matches)})
}

// GetKnowledge handles GET /api/knowledge/{id}.
func (s *Server) GetKnowledge(w http.ResponseWriter, r *http.Request) {
	doc, err := s.assistant.Document(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{ID: doc.ID, Content: doc.Content})
}

func matchesToResponse(matches []domain.Match) []matchResponse {
	items := make([]matchResponse, len(matches))
	for i, m := range matches {
		items[i] = matchResponse{ID: m.ID, Content: m.Content, Distance: m.Distance}
	}
	return items
}
