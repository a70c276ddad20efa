package site

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/sentivision/internal/adapters/http/api"
	"github.com/okian/sentivision/internal/adapters/repository"
	service "github.com/okian/sentivision/internal/app"
	"github.com/okian/sentivision/internal/domain/model"
)

// clientForm backs the new and edit client pages.
type clientForm struct {
	Action  string
	Editing bool
	Client  model.Client
	Sources []model.Source
}

func (s *Site) handleClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.deps.ListClients(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "clients.html", view{Title: "Clients", Nav: "clients", Data: clients})
}

func (s *Site) handleClientNew(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "client_form.html", view{Title: "New client", Nav: "clients", Data: clientForm{Action: "/clients"}})
}

func (s *Site) handleClientCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %w", api.ErrBadRequest, err))
		return
	}
	c := clientFromForm(r)
	created, err := s.deps.CreateClient(r.Context(), c)
	if err != nil && !errors.Is(err, service.ErrExportFailed) {
		if formError(err) {
			status, _ := api.StatusFor(err)
			s.render(w, r, status, "client_form.html", view{Title: "New client", Nav: "clients", Error: err.Error(), Data: clientForm{Action: "/clients", Client: c}})
			return
		}
		s.fail(w, r, err)
		return
	}
	redirect(w, r, fmt.Sprintf("/clients/%d/edit", created.ID), "saved", err)
}

func (s *Site) handleClientEdit(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.deps.GetClient(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.renderClientEdit(w, r, http.StatusOK, c, "")
}

func (s *Site) renderClientEdit(w http.ResponseWriter, r *http.Request, status int, c model.Client, msg string) {
	sources, err := s.deps.ClientSources(r.Context(), c.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, status, "client_form.html", view{
		Title: "Edit " + c.Name,
		Nav:   "clients",
		Error: msg,
		Data:  clientForm{Action: fmt.Sprintf("/clients/%d", c.ID), Editing: true, Client: c, Sources: sources},
	})
}

func (s *Site) handleClientUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %w", api.ErrBadRequest, err))
		return
	}
	c := clientFromForm(r)
	c.ID = id
	_, err = s.deps.UpdateClient(r.Context(), c)
	if err != nil && !errors.Is(err, service.ErrExportFailed) {
		if formError(err) {
			status, _ := api.StatusFor(err)
			s.renderClientEdit(w, r, status, c, err.Error())
			return
		}
		s.fail(w, r, err)
		return
	}
	redirect(w, r, fmt.Sprintf("/clients/%d", id), "saved", err)
}

func (s *Site) handleClientDelete(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	err = s.deps.DeleteClient(r.Context(), id)
	if err != nil && !errors.Is(err, service.ErrExportFailed) {
		s.fail(w, r, err)
		return
	}
	redirect(w, r, "/clients", "deleted", err)
}

func (s *Site) handleSources(w http.ResponseWriter, r *http.Request) {
	s.renderSources(w, r, http.StatusOK, "")
}

func (s *Site) renderSources(w http.ResponseWriter, r *http.Request, status int, msg string) {
	list, err := s.deps.ListSources(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, status, "sources.html", view{Title: "Sources", Nav: "sources", Error: msg, Data: list})
}

func (s *Site) handleSourceCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %w", api.ErrBadRequest, err))
		return
	}
	src, err := sourceFromForm(r)
	if err == nil {
		_, err = s.deps.CreateSource(r.Context(), src)
	}
	if err != nil && !errors.Is(err, service.ErrExportFailed) {
		if formError(err) {
			status, _ := api.StatusFor(err)
			s.renderSources(w, r, status, err.Error())
			return
		}
		s.fail(w, r, err)
		return
	}
	redirect(w, r, returnPath(r, "/sources"), "saved", err)
}

func (s *Site) handleSourceToggle(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	enabled := r.PostFormValue("enabled") == "true"
	if err := s.deps.ToggleSource(r.Context(), id, enabled); err != nil {
		s.fail(w, r, err)
		return
	}
	redirect(w, r, returnPath(r, "/sources"), "saved", nil)
}

func (s *Site) handleSourceDelete(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	err = s.deps.DeleteSource(r.Context(), id)
	if err != nil && !errors.Is(err, service.ErrExportFailed) {
		s.fail(w, r, err)
		return
	}
	redirect(w, r, returnPath(r, "/sources"), "deleted", err)
}

// tagList backs the tags page.
type tagList struct {
	Global   []model.Tag
	ByClient map[int64][]model.Tag
	Clients  []model.Client
}

func (s *Site) handleTags(w http.ResponseWriter, r *http.Request) {
	s.renderTags(w, r, http.StatusOK, "")
}

func (s *Site) renderTags(w http.ResponseWriter, r *http.Request, status int, msg string) {
	tags, err := s.deps.ListTags(r.Context(), repository.TagFilter{})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	clients, err := s.deps.ListClients(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	list := tagList{ByClient: make(map[int64][]model.Tag), Clients: clients}
	for _, t := range tags {
		if t.Scope == model.ScopeClient && t.ClientID != nil {
			list.ByClient[*t.ClientID] = append(list.ByClient[*t.ClientID], t)
			continue
		}
		list.Global = append(list.Global, t)
	}
	s.render(w, r, status, "tags.html", view{Title: "Tags", Nav: "tags", Error: msg, Data: list})
}

func (s *Site) handleTagCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %w", api.ErrBadRequest, err))
		return
	}
	t, err := tagFromForm(r)
	if err == nil {
		_, err = s.deps.CreateTag(r.Context(), t)
	}
	if err != nil {
		if formError(err) {
			status, _ := api.StatusFor(err)
			s.renderTags(w, r, status, err.Error())
			return
		}
		s.fail(w, r, err)
		return
	}
	redirect(w, r, "/tags", "saved", nil)
}

func (s *Site) handleTagUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %w", api.ErrBadRequest, err))
		return
	}
	name := strings.TrimSpace(r.PostFormValue("name"))
	color := strings.TrimSpace(r.PostFormValue("color"))
	enabled := r.PostFormValue("enabled") == "on"
	patch := repository.TagPatch{
		Name:     &name,
		Keywords: model.SplitKeywords(r.PostFormValue("keywords")),
		Enabled:  &enabled,
		Color:    &color,
	}
	if _, err := s.deps.UpdateTag(r.Context(), id, patch); err != nil {
		if formError(err) {
			status, _ := api.StatusFor(err)
			s.renderTags(w, r, status, err.Error())
			return
		}
		s.fail(w, r, err)
		return
	}
	redirect(w, r, "/tags", "saved", nil)
}

func (s *Site) handleTagDelete(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.deps.DeleteTag(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	redirect(w, r, "/tags", "deleted", nil)
}

func (s *Site) handleTagPreview(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.deps.TagPreview(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "tag_preview.html", view{Title: "Preview " + p.Tag.Name, Nav: "tags", Data: p})
}

func formError(err error) bool {
	return errors.Is(err, service.ErrInvalidInput) || errors.Is(err, service.ErrConflict)
}

func clientFromForm(r *http.Request) model.Client {
	return model.Client{
		Name:        strings.TrimSpace(r.PostFormValue("name")),
		Industries:  model.SplitKeywords(r.PostFormValue("industries")),
		Competitors: model.SplitKeywords(r.PostFormValue("competitors")),
	}
}

func sourceFromForm(r *http.Request) (model.Source, error) {
	src := model.Source{
		Name:      strings.TrimSpace(r.PostFormValue("name")),
		Type:      model.SourceType(strings.TrimSpace(r.PostFormValue("type"))),
		URL:       strings.TrimSpace(r.PostFormValue("url")),
		MediaTier: model.DefaultTier,
		Enabled:   true,
	}
	if raw := strings.TrimSpace(r.PostFormValue("tier")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return model.Source{}, fmt.Errorf("%w: %w", service.ErrInvalidInput, model.ErrInvalidTier)
		}
		src.MediaTier = model.Tier(n)
	}
	clientID, err := formID(r, "client_id")
	if err != nil {
		return model.Source{}, err
	}
	src.ClientID = clientID
	src.Global = clientID == nil
	return src, nil
}

func tagFromForm(r *http.Request) (model.Tag, error) {
	t := model.Tag{
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		Type:     model.TagType(strings.TrimSpace(r.PostFormValue("type"))),
		Scope:    model.TagScope(strings.TrimSpace(r.PostFormValue("scope"))),
		Keywords: model.SplitKeywords(r.PostFormValue("keywords")),
		Color:    strings.TrimSpace(r.PostFormValue("color")),
	}
	if t.Scope == model.ScopeClient {
		id, err := formID(r, "client_id")
		if err != nil {
			return model.Tag{}, err
		}
		t.ClientID = id
	}
	return t, nil
}

// formID parses an optional id form field. Empty means none.
func formID(r *http.Request, key string) (*int64, error) {
	raw := strings.TrimSpace(r.PostFormValue(key))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return nil, fmt.Errorf("%w: invalid %s %q", service.ErrInvalidInput, key, raw)
	}
	return &id, nil
}

// returnPath honours a local return form field so edits made from a
// client page land back there.
func returnPath(r *http.Request, fallback string) string {
	p := r.PostFormValue("return")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return fallback
	}
	return p
}
