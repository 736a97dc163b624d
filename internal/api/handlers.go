package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/leadmail/internal/patterns"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type generateRequest struct {
	Name        string `json:"name"`
	CompanyName string `json:"company_name"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	if req.Name == "" || req.CompanyName == "" {
		writeError(w, http.StatusBadRequest, "name and company_name are required")
		return
	}

	gen, err := s.cfg.Generator.Generate(r.Context(), req.Name, req.CompanyName)
	if err != nil {
		zap.L().Error("generate email", zap.String("company", req.CompanyName), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "generation failed")
		return
	}
	writeJSON(w, http.StatusOK, generateResponse(gen))
}

// generateResponse renders a Generation with email null when nothing was
// produced.
func generateResponse(g patterns.Generation) map[string]any {
	resp := map[string]any{
		"success": g.Success,
		"email":   nil,
		"source":  g.Source,
	}
	if g.Success {
		resp["email"] = g.Email
		resp["template_id"] = g.TemplateID
		resp["domain"] = g.Domain
		resp["confidence"] = g.Confidence
	}
	if g.Message != "" {
		resp["message"] = g.Message
	}
	return resp
}

type patternResponse struct {
	Company    string  `json:"company"`
	TemplateID string  `json:"template_id"`
	Domain     string  `json:"domain"`
	Confidence float64 `json:"confidence"`
	Frequency  int     `json:"frequency"`
	Source     string  `json:"source"`
}

func (s *Server) handleGetPattern(w http.ResponseWriter, r *http.Request) {
	company := chi.URLParam(r, "company")
	p, src, err := s.cfg.Patterns.Get(r.Context(), company)
	if err != nil {
		zap.L().Error("get pattern", zap.String("company", company), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "pattern lookup failed")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "pattern not found")
		return
	}
	writeJSON(w, http.StatusOK, patternResponse{
		Company:    p.Company,
		TemplateID: p.TemplateID,
		Domain:     p.Domain,
		Confidence: p.Confidence,
		Frequency:  p.Frequency,
		Source:     string(src),
	})
}

func (s *Server) handleDeletePattern(w http.ResponseWriter, r *http.Request) {
	company := chi.URLParam(r, "company")
	deleted, err := s.cfg.Patterns.Delete(r.Context(), company)
	if err != nil {
		zap.L().Error("delete pattern", zap.String("company", company), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "pattern delete failed")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "pattern not found")
		return
	}
	zap.L().Info("pattern deleted", zap.String("company", company))
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "company": company})
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	res, err := s.cfg.Rebuilder.Rebuild(r.Context())
	if err != nil {
		zap.L().Error("rebuild patterns", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "rebuild failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleVerificationStatus(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	st, err := s.cfg.Status.Status(r.Context(), email)
	if err != nil {
		zap.L().Error("verification status", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "status lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, st)
}
