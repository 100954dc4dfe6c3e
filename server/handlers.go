package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/s0up4200/autolabel/filter"
	"github.com/s0up4200/autolabel/rules"
	"github.com/s0up4200/autolabel/store"
	"github.com/s0up4200/autolabel/torrent"
)

type addRuleRequest struct {
	Label   string `json:"label"`
	Pattern string `json:"pattern"`
	Enabled *bool  `json:"enabled,omitempty"`
}

type moveRuleRequest struct {
	To int `json:"to"`
}

type patternRequest struct {
	Pattern string `json:"pattern"`
	Text    string `json:"text,omitempty"`
}

type validateResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

type applyAllRequest struct {
	Filter string `json:"filter,omitempty"`
}

type labelRequest struct {
	Label string `json:"label"`
}

type torrentAddedRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func decode(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &requestError{err: err}
	}
	return nil
}

func ruleIndex(r *http.Request) (int, error) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		return 0, errBadIndex
	}
	return index, nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	writeError(w, status, err)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.GetConfig())
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var patch store.Document
	if err := decode(r, &patch); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.service.SetConfig(r.Context(), patch); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.service.GetConfig())
}

func (s *Server) handleGetRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.GetRules())
}

func (s *Server) handleAddRule(w http.ResponseWriter, r *http.Request) {
	var req addRuleRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	enabled := req.Enabled == nil || *req.Enabled
	index, err := s.service.AddRule(r.Context(), req.Label, req.Pattern, enabled)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"index": index})
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	index, err := ruleIndex(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var u rules.RuleUpdate
	if err := decode(r, &u); err != nil {
		s.fail(w, r, err)
		return
	}

	rule, err := s.service.UpdateRule(r.Context(), index, u)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleRemoveRule(w http.ResponseWriter, r *http.Request) {
	index, err := ruleIndex(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	rule, err := s.service.RemoveRule(r.Context(), index)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleMoveRule(w http.ResponseWriter, r *http.Request) {
	from, err := ruleIndex(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var req moveRuleRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.service.MoveRule(r.Context(), from, req.To); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.service.GetRules())
}

func (s *Server) handleValidateRegex(w http.ResponseWriter, r *http.Request) {
	var req patternRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	resp := validateResponse{Valid: true}
	if err := s.service.ValidateRegex(req.Pattern); err != nil {
		resp = validateResponse{Error: err.Error()}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTestPattern(w http.ResponseWriter, r *http.Request) {
	var req patternRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	match, err := s.service.TestPattern(req.Pattern, req.Text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (s *Server) handleApplyTorrent(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.ApplyRulesToTorrent(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleApplyAll(w http.ResponseWriter, r *http.Request) {
	var req applyAllRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	var f *filter.Filter
	if req.Filter != "" {
		var err error
		if f, err = filter.Compile(req.Filter); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	summary, err := s.service.ApplyRulesToAll(r.Context(), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleSetLabel(w http.ResponseWriter, r *http.Request) {
	var req labelRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.service.SetTorrentLabel(r.Context(), r.PathValue("id"), req.Label); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	labels, err := s.service.GetAvailableLabels(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"labels": labels})
}

func (s *Server) handleTorrentAdded(w http.ResponseWriter, r *http.Request) {
	var req torrentAddedRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.ID == "" {
		s.fail(w, r, &requestError{err: errMissingID})
		return
	}

	s.webhook.Deliver(r.Context(), torrent.Added{
		Torrent: torrent.Info{ID: req.ID, Name: req.Name},
	})
	w.WriteHeader(http.StatusAccepted)
}
