package fakeapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"library-admin/library"
)

func withAccount(ctx context.Context, u library.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func caller(r *http.Request) library.User {
	u, _ := r.Context().Value(ctxKey{}).(library.User)
	return u
}

// ----- Auth -----

type authResponse struct {
	Token  string `json:"token"`
	Role   string `json:"role"`
	Name   string `json:"name"`
	UserID int64  `json:"userId"`
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, acc := range b.users {
		if strings.EqualFold(acc.Email, strings.TrimSpace(in.Email)) && acc.checkPassword(in.Password) {
			writeJSON(w, http.StatusOK, authResponse{
				Token: b.issueLocked(acc.ID), Role: acc.Role, Name: acc.Name, UserID: acc.ID,
			})
			return
		}
	}
	writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
}

func (b *Backend) signup(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}
	hash, ok := hashOrReject(w, in.Password)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.emailTakenLocked(in.Email, 0) {
		writeMessage(w, http.StatusConflict, "Email already registered")
		return
	}
	acc := b.addUserLocked(in.Name, in.Email, hash, "USER")
	writeJSON(w, http.StatusCreated, authResponse{
		Token: b.issueLocked(acc.ID), Role: acc.Role, Name: acc.Name, UserID: acc.ID,
	})
}

// hashOrReject answers 400 for passwords bcrypt refuses, such as ones
// longer than 72 bytes.
func hashOrReject(w http.ResponseWriter, password string) ([]byte, bool) {
	hash, err := hashPassword(password)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Password is not acceptable")
		return nil, false
	}
	return hash, true
}

func (b *Backend) emailTakenLocked(email string, except int64) bool {
	for id, acc := range b.users {
		if id != except && strings.EqualFold(acc.Email, strings.TrimSpace(email)) {
			return true
		}
	}
	return false
}

// ----- Authors -----

func (b *Backend) listAuthors(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, sortedValues(b.authors))
}

func (b *Backend) searchAuthors(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []library.Author{}
	for _, a := range sortedValues(b.authors) {
		if contains(a.Name, name) {
			out = append(out, a)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) getAuthor(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.authors[id]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Author not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (b *Backend) createAuthor(w http.ResponseWriter, r *http.Request) {
	var in library.AuthorInput
	if !decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		writeMessage(w, http.StatusBadRequest, "Name is required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	a := library.Author{ID: b.id(), Name: in.Name, Biography: in.Biography}
	b.authors[a.ID] = a
	writeJSON(w, http.StatusCreated, a)
}

func (b *Backend) updateAuthor(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	var in library.AuthorInput
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.authors[id]; !ok {
		writeMessage(w, http.StatusNotFound, "Author not found")
		return
	}
	a := library.Author{ID: id, Name: in.Name, Biography: in.Biography}
	b.authors[id] = a
	b.refreshBooksLocked()
	writeJSON(w, http.StatusOK, a)
}

func (b *Backend) deleteAuthor(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.authors[id]; !ok {
		writeMessage(w, http.StatusNotFound, "Author not found")
		return
	}
	for _, bk := range b.books {
		if bk.Author != nil && bk.Author.ID == id {
			writeMessage(w, http.StatusConflict, "Author still has books")
			return
		}
	}
	delete(b.authors, id)
	w.WriteHeader(http.StatusNoContent)
}

// ----- Publishers -----

func (b *Backend) listPublishers(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, sortedValues(b.publishers))
}

func (b *Backend) searchPublishers(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []library.Publisher{}
	for _, p := range sortedValues(b.publishers) {
		if contains(p.Name, name) {
			out = append(out, p)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) getPublisher(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.publishers[id]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Publisher not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) createPublisher(w http.ResponseWriter, r *http.Request) {
	var in library.PublisherInput
	if !decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		writeMessage(w, http.StatusBadRequest, "Name is required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p := library.Publisher{ID: b.id(), Name: in.Name, Address: in.Address}
	b.publishers[p.ID] = p
	writeJSON(w, http.StatusCreated, p)
}

func (b *Backend) updatePublisher(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	var in library.PublisherInput
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.publishers[id]; !ok {
		writeMessage(w, http.StatusNotFound, "Publisher not found")
		return
	}
	p := library.Publisher{ID: id, Name: in.Name, Address: in.Address}
	b.publishers[id] = p
	b.refreshBooksLocked()
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) deletePublisher(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.publishers[id]; !ok {
		writeMessage(w, http.StatusNotFound, "Publisher not found")
		return
	}
	for _, bk := range b.books {
		if bk.Publisher != nil && bk.Publisher.ID == id {
			writeMessage(w, http.StatusConflict, "Publisher still has books")
			return
		}
	}
	delete(b.publishers, id)
	w.WriteHeader(http.StatusNoContent)
}

// ----- Books -----

func (b *Backend) bookFromInputLocked(id int64, in library.BookInput) (library.Book, error) {
	a, ok := b.authors[in.Author.ID]
	if !ok {
		return library.Book{}, fmt.Errorf("author %d not found", in.Author.ID)
	}
	p, ok := b.publishers[in.Publisher.ID]
	if !ok {
		return library.Book{}, fmt.Errorf("publisher %d not found", in.Publisher.ID)
	}
	return library.Book{ID: id, Title: in.Title, Category: in.Category, Author: &a, Publisher: &p}, nil
}

// refreshBooksLocked re-resolves embedded author and publisher names.
func (b *Backend) refreshBooksLocked() {
	for id, bk := range b.books {
		if bk.Author != nil {
			if a, ok := b.authors[bk.Author.ID]; ok {
				bk.Author = &a
			}
		}
		if bk.Publisher != nil {
			if p, ok := b.publishers[bk.Publisher.ID]; ok {
				bk.Publisher = &p
			}
		}
		b.books[id] = bk
	}
}

func (b *Backend) listBooks(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, sortedValues(b.books))
}

// searchBooks ANDs every non-empty filter.
func (b *Backend) searchBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []library.Book{}
	for _, bk := range sortedValues(b.books) {
		if t := q.Get("title"); t != "" && !contains(bk.Title, t) {
			continue
		}
		if a := q.Get("author"); a != "" && !contains(bk.AuthorName(), a) {
			continue
		}
		if p := q.Get("publisher"); p != "" && !contains(bk.PublisherName(), p) {
			continue
		}
		if c := q.Get("category"); c != "" && !contains(bk.Category, c) {
			continue
		}
		out = append(out, bk)
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) getBook(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	bk, ok := b.books[id]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Book not found")
		return
	}
	writeJSON(w, http.StatusOK, bk)
}

func (b *Backend) createBook(w http.ResponseWriter, r *http.Request) {
	var in library.BookInput
	if !decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		writeMessage(w, http.StatusBadRequest, "Title is required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	bk, err := b.bookFromInputLocked(0, in)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	bk.ID = b.id()
	b.books[bk.ID] = bk
	writeJSON(w, http.StatusCreated, bk)
}

func (b *Backend) updateBook(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	var in library.BookInput
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	old, ok := b.books[id]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Book not found")
		return
	}
	bk, err := b.bookFromInputLocked(id, in)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	bk.ThumbnailURL = old.ThumbnailURL
	b.books[id] = bk
	writeJSON(w, http.StatusOK, bk)
}

func (b *Backend) deleteBook(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.books[id]; !ok {
		writeMessage(w, http.StatusNotFound, "Book not found")
		return
	}
	if _, lent := b.openLendingLocked(id); lent {
		writeMessage(w, http.StatusConflict, "Book is currently lent")
		return
	}
	delete(b.books, id)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) uploadThumbnail(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Missing file part")
		return
	}
	defer file.Close()
	if _, err := io.Copy(io.Discard, file); err != nil {
		writeMessage(w, http.StatusBadRequest, "Unreadable file part")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	bk, ok := b.books[id]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Book not found")
		return
	}
	bk.ThumbnailURL = fmt.Sprintf("uploads/thumbnails/%d-%s", id, filepath.Base(header.Filename))
	b.books[id] = bk
	writeJSON(w, http.StatusOK, bk)
}

// ----- Users -----

func (b *Backend) userList() []library.User {
	out := make([]library.User, 0, len(b.users))
	for _, acc := range b.users {
		out = append(out, acc.User)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *Backend) listUsers(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.userList())
}

func (b *Backend) searchUsers(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("term")
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []library.User{}
	for _, u := range b.userList() {
		if contains(u.Name, term) || contains(u.Email, term) {
			out = append(out, u)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) getUser(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.users[id]
	if !ok {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, acc.User)
}

func (b *Backend) createUser(w http.ResponseWriter, r *http.Request) {
	var in library.UserInput
	if !decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	hash, ok := hashOrReject(w, in.Password)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.emailTakenLocked(in.Email, 0) {
		writeMessage(w, http.StatusConflict, "Email already registered")
		return
	}
	acc := b.addUserLocked(in.Name, in.Email, hash, in.Role)
	writeJSON(w, http.StatusCreated, acc.User)
}

func (b *Backend) updateUser(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	var in library.UserInput
	if !decode(w, r, &in) {
		return
	}
	var hash []byte
	if in.Password != "" {
		var ok bool
		if hash, ok = hashOrReject(w, in.Password); !ok {
			return
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.users[id]
	if !ok {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	if b.emailTakenLocked(in.Email, id) {
		writeMessage(w, http.StatusConflict, "Email already registered")
		return
	}
	acc.Name = in.Name
	acc.Email = in.Email
	if role := strings.ToUpper(strings.TrimSpace(in.Role)); role == "ADMIN" || role == "USER" {
		acc.Role = role
	}
	if hash != nil {
		acc.passwordHash = hash
	}
	writeJSON(w, http.StatusOK, acc.User)
}

func (b *Backend) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.users[id]; !ok {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	delete(b.users, id)
	for tok, uid := range b.tokens {
		if uid == id {
			delete(b.tokens, tok)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----- Lending -----

func (b *Backend) openLendingLocked(bookID int64) (*library.LendingRecord, bool) {
	for _, l := range b.lendings {
		if l.Book.ID == bookID && l.ReturnedAt == nil {
			return l, true
		}
	}
	return nil, false
}

func (b *Backend) allBooksStatus(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []library.LendingEntry{}
	for _, bk := range sortedValues(b.books) {
		e := library.LendingEntry{
			BookID: bk.ID, Title: bk.Title, Author: bk.Author, Publisher: bk.Publisher,
			Status: library.StatusAvailable,
		}
		if l, ok := b.openLendingLocked(bk.ID); ok {
			at := l.CreatedAt
			e.Status = library.StatusLent
			e.LentTo = l.User.Name
			e.LentAt = &at
			e.LendingID = l.ID
		}
		out = append(out, e)
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) userBooks(w http.ResponseWriter, r *http.Request) {
	uid, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "userId is required")
		return
	}
	me := caller(r)
	if me.Role != "ADMIN" && me.ID != uid {
		writeMessage(w, http.StatusForbidden, "Access denied")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	out := library.UserBooks{Available: []library.Book{}, Lent: []library.LendingRecord{}}
	for _, bk := range sortedValues(b.books) {
		l, lent := b.openLendingLocked(bk.ID)
		switch {
		case !lent:
			out.Available = append(out.Available, bk)
		case l.User.ID == uid:
			out.Lent = append(out.Lent, library.LendingRecord{ID: l.ID, Book: l.Book, CreatedAt: l.CreatedAt})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) lend(w http.ResponseWriter, r *http.Request) {
	var in library.LendRequest
	if !decode(w, r, &in) {
		return
	}
	me := caller(r)
	if me.Role != "ADMIN" && me.ID != in.UserID {
		writeMessage(w, http.StatusForbidden, "Access denied")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.users[in.UserID]
	if !ok {
		writeMessage(w, http.StatusBadRequest, "User not found")
		return
	}
	bk, ok := b.books[in.BookID]
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Book not found")
		return
	}
	if _, lent := b.openLendingLocked(bk.ID); lent {
		writeMessage(w, http.StatusBadRequest, "Book is already lent")
		return
	}
	u := acc.User
	l := &library.LendingRecord{
		ID: b.id(), User: &u, Book: bk, Status: library.StatusLent, CreatedAt: library.Timestamp{Time: b.Now().UTC()},
	}
	b.lendings[l.ID] = l
	writeJSON(w, http.StatusCreated, l)
}

func (b *Backend) returnBook(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("lendingId"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "lendingId is required")
		return
	}
	me := caller(r)

	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.lendings[id]
	if !ok || l.ReturnedAt != nil {
		writeMessage(w, http.StatusBadRequest, "No open lending with that id")
		return
	}
	if me.Role != "ADMIN" && l.User.ID != me.ID {
		writeMessage(w, http.StatusForbidden, "Access denied")
		return
	}
	l.ReturnedAt = &library.Timestamp{Time: b.Now().UTC()}
	l.Status = library.StatusAvailable
	writeJSON(w, http.StatusOK, l)
}

// ----- Dashboard -----

const recentLendLimit = 5

func (b *Backend) stats(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	all := make([]*library.LendingRecord, 0, len(b.lendings))
	for _, l := range b.lendings {
		all = append(all, l)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	byMonth := map[string]int{}
	var months []string
	for _, l := range all {
		m := l.CreatedAt.Format("2006-01")
		if _, seen := byMonth[m]; !seen {
			months = append(months, m)
		}
		byMonth[m]++
	}
	sort.Strings(months)

	out := library.DashboardStats{
		TotalBooks:       int64(len(b.books)),
		TotalAuthors:     int64(len(b.authors)),
		TotalPublishers:  int64(len(b.publishers)),
		TotalUsers:       int64(len(b.users)),
		MonthlyLendStats: []library.MonthlyCount{},
		RecentLends:      []library.RecentLend{},
	}
	for _, m := range months {
		out.MonthlyLendStats = append(out.MonthlyLendStats, library.MonthlyCount{Month: m, Count: byMonth[m]})
	}
	for i := len(all) - 1; i >= 0 && len(out.RecentLends) < recentLendLimit; i-- {
		out.RecentLends = append(out.RecentLends, library.RecentLend{
			UserName: all[i].User.Name, BookTitle: all[i].Book.Title,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
