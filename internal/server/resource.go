package server

import (
	"net/http"
	"strings"

	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/store"
)

type itemHandler func(w http.ResponseWriter, r *http.Request, id string)

type action struct {
	method  string
	handler http.HandlerFunc
}

type itemAction struct {
	method  string
	handler itemHandler
}

type crudHandler interface {
	list(w http.ResponseWriter, r *http.Request)
	get(w http.ResponseWriter, r *http.Request, id string)
	create(w http.ResponseWriter, r *http.Request)
	update(w http.ResponseWriter, r *http.Request, id string)
	remove(w http.ResponseWriter, r *http.Request, id string)
}

// resource serves one collection: CRUD on /api/{name} and /api/{name}/{id}, named actions on
// /api/{name}/{action} and per-item actions on /api/{name}/{id}/{action}. Named actions win over
// ids of the same spelling.
type resource struct {
	prefix      string
	crud        crudHandler
	actions     map[string]action
	itemActions map[string]itemAction
}

func newResource(name string, crud crudHandler) *resource {
	return &resource{
		prefix:      "/api/" + name,
		crud:        crud,
		actions:     map[string]action{},
		itemActions: map[string]itemAction{},
	}
}

func (res *resource) action(name, method string, h http.HandlerFunc) *resource {
	res.actions[name] = action{method: method, handler: h}
	return res
}

func (res *resource) itemAction(name, method string, h itemHandler) *resource {
	res.itemActions[name] = itemAction{method: method, handler: h}
	return res
}

func (res *resource) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(strings.TrimPrefix(r.URL.Path, res.prefix))

	switch len(parts) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			res.crud.list(w, r)
		case http.MethodPost:
			res.crud.create(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	case 1:
		if a, ok := res.actions[parts[0]]; ok {
			if r.Method != a.method {
				methodNotAllowed(w, a.method)
				return
			}
			a.handler(w, r)
			return
		}
		id := parts[0]
		switch r.Method {
		case http.MethodGet:
			res.crud.get(w, r, id)
		case http.MethodPut:
			res.crud.update(w, r, id)
		case http.MethodDelete:
			res.crud.remove(w, r, id)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
	case 2:
		a, ok := res.itemActions[parts[1]]
		if !ok {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		if r.Method != a.method {
			methodNotAllowed(w, a.method)
			return
		}
		a.handler(w, r, parts[0])
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// collectionHandler exposes a store collection as plain CRUD.
type collectionHandler[T domain.Entity] struct {
	api  *APIHandlers
	name string
	coll store.Collection[T]
	// present shapes an entity for the response.
	present func(T) T
	// merge combines the stored entity with an incoming replacement before an update.
	merge func(existing, incoming T) T
}

func newCollectionHandler[T domain.Entity](api *APIHandlers, name string, coll store.Collection[T]) *collectionHandler[T] {
	return &collectionHandler[T]{
		api:     api,
		name:    name,
		coll:    coll,
		present: func(v T) T { return v },
	}
}

func (c *collectionHandler[T]) list(w http.ResponseWriter, r *http.Request) {
	items, err := c.coll.List(r.Context())
	if err != nil {
		c.api.writeServiceError(w, err, "failed to list "+c.name)
		return
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, c.present(item))
	}
	respondJSON(w, http.StatusOK, out)
}

func (c *collectionHandler[T]) get(w http.ResponseWriter, r *http.Request, id string) {
	item, err := c.coll.Get(r.Context(), id)
	if err != nil {
		c.api.writeServiceError(w, err, "failed to fetch "+c.name)
		return
	}
	respondJSON(w, http.StatusOK, c.present(item))
}

func (c *collectionHandler[T]) create(w http.ResponseWriter, r *http.Request) {
	var payload T
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.EntityID() == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	created, err := c.coll.Create(r.Context(), payload)
	if err != nil {
		c.api.writeServiceError(w, err, "failed to create "+c.name)
		return
	}
	respondJSON(w, http.StatusCreated, c.present(created))
}

func (c *collectionHandler[T]) update(w http.ResponseWriter, r *http.Request, id string) {
	var payload T
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.EntityID() != id {
		writeError(w, http.StatusBadRequest, "id in body must match path")
		return
	}
	if c.merge != nil {
		existing, err := c.coll.Get(r.Context(), id)
		if err != nil {
			c.api.writeServiceError(w, err, "failed to fetch "+c.name)
			return
		}
		payload = c.merge(existing, payload)
	}
	updated, err := c.coll.Update(r.Context(), payload)
	if err != nil {
		c.api.writeServiceError(w, err, "failed to update "+c.name)
		return
	}
	respondJSON(w, http.StatusOK, c.present(updated))
}

func (c *collectionHandler[T]) remove(w http.ResponseWriter, r *http.Request, id string) {
	if err := c.coll.Delete(r.Context(), id); err != nil {
		c.api.writeServiceError(w, err, "failed to delete "+c.name)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func pathSegments(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
