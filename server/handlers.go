package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/yuin/goldmark"

	"ai_creation_broker/creation"
	"ai_creation_broker/dispatch"
	"ai_creation_broker/generator"
	"ai_creation_broker/identity"
	"ai_creation_broker/provider"
	"ai_creation_broker/usage"
)

const (
	msgInternal    = "Something went wrong"
	msgBadBody     = "Invalid request body"
	msgFileTooBig  = "File too large"
	maxJSONBodyLen = 1 << 20
)

type articleReq struct {
	Prompt string `json:"prompt"`
	Length int    `json:"length"`
}

type promptReq struct {
	Prompt  string `json:"prompt"`
	Publish bool   `json:"publish"`
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request, p identity.Principal) {
	var req articleReq
	if !s.decode(w, r, &req) {
		return
	}
	s.run(w, r, p, provider.CapArticle, provider.Input{Prompt: req.Prompt, Length: req.Length})
}

func (s *Server) handleBlogTitles(w http.ResponseWriter, r *http.Request, p identity.Principal) {
	var req promptReq
	if !s.decode(w, r, &req) {
		return
	}
	s.run(w, r, p, provider.CapBlogTitles, provider.Input{Prompt: req.Prompt})
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request, p identity.Principal) {
	var req promptReq
	if !s.decode(w, r, &req) {
		return
	}
	s.run(w, r, p, provider.CapImageGenerate, provider.Input{Prompt: req.Prompt, Publish: req.Publish})
}

func (s *Server) handleBackground(w http.ResponseWriter, r *http.Request, p identity.Principal) {
	data, name, ok := s.upload(w, r, "image")
	if !ok {
		return
	}
	s.run(w, r, p, provider.CapBackgroundRemove, provider.Input{Image: data, ImageName: name})
}

func (s *Server) handleObject(w http.ResponseWriter, r *http.Request, p identity.Principal) {
	data, name, ok := s.upload(w, r, "image")
	if !ok {
		return
	}
	s.run(w, r, p, provider.CapObjectRemove, provider.Input{
		Image:     data,
		ImageName: name,
		Object:    r.FormValue("object"),
	})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request, p identity.Principal) {
	data, _, ok := s.upload(w, r, "resume")
	if !ok {
		return
	}
	s.run(w, r, p, provider.CapResumeReview, provider.Input{Document: data})
}

func (s *Server) run(w http.ResponseWriter, r *http.Request, p identity.Principal, c provider.Capability, in provider.Input) {
	user := dispatch.User{ID: p.UserID, Plan: p.Plan, FreeUsage: p.FreeUsage}
	writeJSON(w, s.dispatcher.Handle(r.Context(), user, dispatch.Request{Capability: c, Input: in}))
}

// decode reads a JSON body. An empty body decodes to the zero value so the
// dispatcher reports the missing field.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBodyLen)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	s.requestLogger(r).Debug("decode body", "error", err)
	writeJSON(w, dispatch.Envelope{Message: msgBadBody})
	return false
}

// upload reads one multipart file. A missing field yields nil data, which
// the dispatcher rejects with the operation's own message.
func (s *Server) upload(w http.ResponseWriter, r *http.Request, field string) ([]byte, string, bool) {
	if r.ContentLength > s.opts.MaxUploadBytes {
		writeJSON(w, dispatch.Envelope{Message: msgFileTooBig})
		return nil, "", false
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, dispatch.Envelope{Message: msgFileTooBig})
			return nil, "", false
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			s.requestLogger(r).Debug("parse multipart", "error", err)
			writeJSON(w, dispatch.Envelope{Message: msgBadBody})
			return nil, "", false
		}
		return nil, "", true
	}
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return nil, "", true
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		s.requestLogger(r).Error("read upload", "field", field, "error", err)
		writeJSON(w, dispatch.Envelope{Message: msgInternal})
		return nil, "", false
	}
	return data, hdr.Filename, true
}

// --- Listings ---

type creationView struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Prompt    string    `json:"prompt"`
	Content   string    `json:"content"`
	Title     string    `json:"title,omitempty"`
	Type      string    `json:"type"`
	Publish   bool      `json:"publish"`
	CreatedAt time.Time `json:"created_at"`
}

type listResp struct {
	Success   bool           `json:"success"`
	Creations []creationView `json:"creations"`
	Message   string         `json:"message,omitempty"`
}

func (s *Server) handleUserCreations(w http.ResponseWriter, r *http.Request, p identity.Principal) {
	items, err := s.store.ListByUser(r.Context(), p.UserID, listOpts(r))
	s.writeList(w, r, items, err)
}

func (s *Server) handlePublishedCreations(w http.ResponseWriter, r *http.Request, _ identity.Principal) {
	items, err := s.store.ListPublished(r.Context(), listOpts(r))
	s.writeList(w, r, items, err)
}

func (s *Server) writeList(w http.ResponseWriter, r *http.Request, items []*creation.Creation, err error) {
	if err != nil {
		s.requestLogger(r).Error("list creations", "error", err)
		writeJSON(w, listResp{Message: msgInternal})
		return
	}
	html := r.URL.Query().Get("format") == "html"
	out := make([]creationView, 0, len(items))
	for _, c := range items {
		v := creationView{
			ID:        c.ID.String(),
			UserID:    c.UserID,
			Prompt:    c.Prompt,
			Content:   c.Content,
			Type:      string(c.Type),
			Publish:   c.Publish,
			CreatedAt: c.CreatedAt,
		}
		if c.Type == creation.TypeArticle {
			v.Title = generator.ExtractTitle(c.Content)
			if html {
				v.Content = renderMarkdown(c.Content)
			}
		}
		out = append(out, v)
	}
	writeJSON(w, listResp{Success: true, Creations: out})
}

func listOpts(r *http.Request) creation.ListOpts {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	return creation.ListOpts{Limit: limit, Offset: offset}.Normalize()
}

// renderMarkdown falls back to the raw text if goldmark rejects it.
func renderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return md
	}
	return buf.String()
}

// --- Usage & health ---

type usageResp struct {
	Success   bool   `json:"success"`
	Plan      string `json:"plan"`
	FreeUsage int    `json:"free_usage"`
	Limit     int    `json:"limit"`
	// Remaining is -1 for premium users.
	Remaining int `json:"remaining"`
}

func (s *Server) handleUsage(w http.ResponseWriter, _ *http.Request, p identity.Principal) {
	writeJSON(w, usageResp{
		Success:   true,
		Plan:      string(p.Plan),
		FreeUsage: p.FreeUsage,
		Limit:     usage.FreeUsageLimit,
		Remaining: usage.Remaining(p.Plan, p.FreeUsage),
	})
}

type healthResp struct {
	Status    string `json:"status"`
	UptimeSec int64  `json:"uptime_sec"`
	Store     string `json:"store"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResp{Status: "ok", UptimeSec: int64(time.Since(s.started).Seconds()), Store: "ok"}
	status := http.StatusOK
	if err := s.store.Ping(r.Context()); err != nil {
		s.requestLogger(r).Warn("store ping failed", "error", err)
		resp.Status, resp.Store = "degraded", "unavailable"
		status = http.StatusServiceUnavailable
	}
	writeJSONStatus(w, status, resp)
}
