package views

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"library-admin/api"
	"library-admin/gate"
	"library-admin/library"
)

// ErrUnknownField is returned for a search field the section does not offer.
var ErrUnknownField = errors.New("unknown search field")

// Affordances are the controls a list page renders. Hidden, not disabled.
type Affordances struct {
	Create bool
	Edit   bool
	Delete bool
}

// Confirmer asks the user a yes/no question.
type Confirmer func(prompt string) bool

// crud is the slice of api.Resource a list page drives.
type crud[T library.Record] interface {
	List(ctx context.Context) ([]T, error)
	Search(ctx context.Context, params url.Values) ([]T, error)
	Get(ctx context.Context, id int64) (T, error)
	Delete(ctx context.Context, id int64) error
}

// List is the collection page of books, authors, publishers or users.
type List[T library.Record] struct {
	Page
	entity   library.Entity
	resource func(*api.Client) crud[T]
	fields   []string

	items   []T
	filters url.Values
}

// searchFields are the query parameters each section's search accepts.
var searchFields = map[library.Entity][]string{
	library.EntityBooks:      {"title", "author", "publisher", "category"},
	library.EntityAuthors:    {"name"},
	library.EntityPublishers: {"name"},
	library.EntityUsers:      {"term"},
}

// SearchFields lists the search fields of entity, nil if it has no search.
func SearchFields(entity library.Entity) []string {
	return append([]string(nil), searchFields[entity]...)
}

func newList[T library.Record](env *Env, entity library.Entity, res func(*api.Client) api.Resource[T]) *List[T] {
	l := &List[T]{
		Page:     newPage(env, string(entity), gate.Required(entity)),
		entity:   entity,
		resource: func(c *api.Client) crud[T] { return res(c) },
		fields:   SearchFields(entity),
	}
	l.discard = func() { l.items = nil; l.filters = nil }
	return l
}

// NewBooks is the books list; search by title, author, publisher or category.
func NewBooks(env *Env) *List[library.Book] {
	return newList(env, library.EntityBooks, (*api.Client).Books)
}

// NewAuthors is the authors list; search by name.
func NewAuthors(env *Env) *List[library.Author] {
	return newList(env, library.EntityAuthors, (*api.Client).Authors)
}

// NewPublishers is the publishers list; search by name.
func NewPublishers(env *Env) *List[library.Publisher] {
	return newList(env, library.EntityPublishers, (*api.Client).Publishers)
}

// NewUsers is the users list, ADMIN only; search by term.
func NewUsers(env *Env) *List[library.User] {
	return newList(env, library.EntityUsers, (*api.Client).Users)
}

// Entity names the section.
func (l *List[T]) Entity() library.Entity { return l.entity }

// Items is the rendered collection.
func (l *List[T]) Items() []T { return append([]T(nil), l.items...) }

// Filters reports the active search, nil when showing everything.
func (l *List[T]) Filters() url.Values { return l.filters }

// Affordances exposes create, edit and delete to roles that may manage
// the section.
func (l *List[T]) Affordances() Affordances {
	if !l.active() {
		return Affordances{}
	}
	ok := gate.CanManage(l.entity, l.sess.Role)
	return Affordances{Create: ok, Edit: ok, Delete: ok}
}

// Open gates the page and fetches the whole collection.
func (l *List[T]) Open(ctx context.Context) {
	l.filters = nil
	if !l.enter() {
		return
	}
	l.load(ctx)
}

// OpenFiltered gates the page and fetches only what matches filters, in
// one request. All blank filters fetch the whole collection.
func (l *List[T]) OpenFiltered(ctx context.Context, filters map[string]string) error {
	params, err := l.params(filters)
	if err != nil {
		return err
	}
	l.filters = nil
	if !l.enter() {
		return nil
	}
	if len(params) > 0 {
		l.filters = params
	}
	l.load(ctx)
	return nil
}

// OpenRecord gates the page and fetches the single record id, which becomes
// the whole collection.
func (l *List[T]) OpenRecord(ctx context.Context, id int64) (T, bool) {
	var zero T
	l.filters = nil
	if !l.enter() {
		return zero, false
	}
	l.state = StateLoading
	rec, err := l.resource(l.client()).Get(ctx, id)
	if err != nil {
		l.handle("load "+l.entity.Singular(), err, true)
		return zero, false
	}
	l.items = []T{rec}
	l.state = StateReady
	return rec, true
}

// Retry reruns the last fetch.
func (l *List[T]) Retry(ctx context.Context) {
	if !l.active() {
		return
	}
	l.notice = nil
	l.load(ctx)
}

// Search filters on one field. A blank term clears the search.
func (l *List[T]) Search(ctx context.Context, field, term string) error {
	return l.SearchAll(ctx, map[string]string{field: term})
}

// SearchAll combines every non-blank filter. All blank clears the search.
func (l *List[T]) SearchAll(ctx context.Context, filters map[string]string) error {
	if !l.active() {
		return nil
	}
	params, err := l.params(filters)
	if err != nil {
		return err
	}
	if len(params) == 0 {
		l.Clear(ctx)
		return nil
	}
	l.filters = params
	l.notice = nil
	l.load(ctx)
	return nil
}

// Clear drops the search and shows the full collection.
func (l *List[T]) Clear(ctx context.Context) {
	if !l.active() {
		return
	}
	l.filters = nil
	l.notice = nil
	l.load(ctx)
}

// Delete asks confirm, then deletes id; a nil confirm declines. On success
// exactly that record leaves the local collection; on failure the
// collection is untouched.
func (l *List[T]) Delete(ctx context.Context, id int64, confirm Confirmer) bool {
	if !l.active() {
		return false
	}
	if !l.Affordances().Delete {
		l.setNotice(NoticeDenied, gate.DeniedNotice)
		return false
	}
	if confirm == nil || !confirm(fmt.Sprintf("Are you sure you want to delete this %s?", l.entity.Singular())) {
		return false
	}

	if err := l.resource(l.client()).Delete(ctx, id); err != nil {
		l.handle("delete "+l.entity.Singular(), err, false)
		return false
	}

	kept := l.items[:0:0]
	for _, it := range l.items {
		if it.RecordID() != id {
			kept = append(kept, it)
		}
	}
	l.items = kept
	l.setNotice(NoticeInfo, capitalize(l.entity.Singular())+" deleted.")
	return true
}

func (l *List[T]) load(ctx context.Context) {
	l.state = StateLoading
	res := l.resource(l.client())

	var (
		items []T
		err   error
	)
	if len(l.filters) == 0 {
		items, err = res.List(ctx)
	} else {
		items, err = res.Search(ctx, l.filters)
	}
	if err != nil {
		l.handle("load "+string(l.entity), err, true)
		return
	}
	l.items = items
	l.state = StateReady
}

func (l *List[T]) params(filters map[string]string) (url.Values, error) {
	params := url.Values{}
	for field, term := range filters {
		if !l.accepts(field) {
			return nil, fmt.Errorf("%w %q for %s", ErrUnknownField, field, l.entity)
		}
		if t := strings.TrimSpace(term); t != "" {
			params.Set(field, t)
		}
	}
	return params, nil
}

func (l *List[T]) accepts(field string) bool {
	for _, f := range l.fields {
		if f == field {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
