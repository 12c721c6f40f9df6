package views

import (
	"context"
	"errors"
	"strings"

	"library-admin/api"
	"library-admin/gate"
	"library-admin/library"
)

// record is the slice of api.Resource a form page drives.
type record[T library.Record] interface {
	Get(ctx context.Context, id int64) (T, error)
	Create(ctx context.Context, payload any) (T, error)
	Update(ctx context.Context, id int64, payload any) (T, error)
}

// Form creates or edits one author, publisher or user. In is the payload.
type Form[T library.Record, In any] struct {
	Page
	entity   library.Entity
	resource func(*api.Client) record[T]
	// prepare validates and normalizes the payload before it is sent.
	prepare func(in In, editing bool) (In, error)

	id    int64
	value T
	saved T
}

func newForm[T library.Record, In any](env *Env, entity library.Entity, res func(*api.Client) api.Resource[T], prepare func(In, bool) (In, error)) *Form[T, In] {
	f := &Form[T, In]{
		Page:     newPage(env, string(entity)+" form", gate.Required(entity)),
		entity:   entity,
		resource: func(c *api.Client) record[T] { return res(c) },
		prepare:  prepare,
	}
	f.discard = func() {
		var zero T
		f.value = zero
	}
	return f
}

// NewAuthorForm edits authors.
func NewAuthorForm(env *Env) *Form[library.Author, library.AuthorInput] {
	return newForm(env, library.EntityAuthors, (*api.Client).Authors, func(in library.AuthorInput, _ bool) (library.AuthorInput, error) {
		in.Name = strings.TrimSpace(in.Name)
		if in.Name == "" {
			return in, errors.New("Name is required.")
		}
		return in, nil
	})
}

// NewPublisherForm edits publishers.
func NewPublisherForm(env *Env) *Form[library.Publisher, library.PublisherInput] {
	return newForm(env, library.EntityPublishers, (*api.Client).Publishers, func(in library.PublisherInput, _ bool) (library.PublisherInput, error) {
		in.Name = strings.TrimSpace(in.Name)
		if in.Name == "" {
			return in, errors.New("Name is required.")
		}
		return in, nil
	})
}

// NewUserForm edits users. On edit an empty password keeps the old one.
func NewUserForm(env *Env) *Form[library.User, library.UserInput] {
	return newForm(env, library.EntityUsers, (*api.Client).Users, func(in library.UserInput, editing bool) (library.UserInput, error) {
		in.Name = strings.TrimSpace(in.Name)
		in.Email = strings.TrimSpace(in.Email)
		if role := strings.ToUpper(strings.TrimSpace(in.Role)); role != "" {
			in.Role = role
		} else {
			in.Role = "USER"
		}
		switch {
		case in.Email == "":
			return in, errors.New("Email is required.")
		case !editing && in.Password == "":
			return in, errors.New("Password is required.")
		}
		return in, nil
	})
}

// Editing reports whether the form targets an existing record.
func (f *Form[T, In]) Editing() bool { return f.id != 0 }

// Value is the record being edited, zero when creating.
func (f *Form[T, In]) Value() T { return f.value }

// Saved is what the backend returned from the last successful Submit.
func (f *Form[T, In]) Saved() T { return f.saved }

// Open gates the page; a non-zero id fetches that record for editing.
func (f *Form[T, In]) Open(ctx context.Context, id int64) {
	f.id = id
	if !f.enter() {
		return
	}
	if !gate.CanManage(f.entity, f.sess.Role) {
		f.setNotice(NoticeDenied, gate.DeniedNotice)
		f.redirect(gate.PathHome)
		return
	}
	if id == 0 {
		f.state = StateReady
		return
	}
	f.load(ctx)
}

// Retry refetches the record after a failed load.
func (f *Form[T, In]) Retry(ctx context.Context) {
	if !f.active() || f.id == 0 {
		return
	}
	f.notice = nil
	f.load(ctx)
}

// Submit creates or updates. Success signals navigation to the list.
func (f *Form[T, In]) Submit(ctx context.Context, in In) bool {
	if f.state != StateReady {
		return false
	}
	in, err := f.prepare(in, f.Editing())
	if err != nil {
		f.setNotice(NoticeError, err.Error())
		return false
	}

	res := f.resource(f.client())
	var out T
	if f.Editing() {
		out, err = res.Update(ctx, f.id, in)
	} else {
		out, err = res.Create(ctx, in)
	}
	if err != nil {
		f.handle("save "+f.entity.Singular(), err, false)
		return false
	}

	f.saved = out
	f.setNotice(NoticeInfo, capitalize(f.entity.Singular())+" saved.")
	f.navigate("/" + string(f.entity))
	return true
}

func (f *Form[T, In]) load(ctx context.Context) {
	f.state = StateLoading
	v, err := f.resource(f.client()).Get(ctx, f.id)
	if err != nil {
		f.handle("load "+f.entity.Singular(), err, true)
		return
	}
	f.value = v
	f.state = StateReady
}
