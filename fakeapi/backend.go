// Package fakeapi is an in-memory stand-in for the library backend. It
// serves the same REST surface the console consumes, checks bearer tokens
// and ADMIN privileges, and can be told to fail specific requests.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"library-admin/library"
)

type account struct {
	library.User
	passwordHash []byte
}

// hashPassword uses the cheapest bcrypt cost; these accounts only ever
// live in memory.
func hashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
}

func (a *account) checkPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil
}

// Request is one request as the backend saw it.
type Request struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	RequestID     string
}

// Backend holds all state. Zero value is not usable; call New.
type Backend struct {
	// Now stamps lend records. Defaults to time.Now.
	Now func() time.Time

	mu         sync.Mutex
	nextID     int64
	users      map[int64]*account
	tokens     map[string]int64
	authors    map[int64]library.Author
	publishers map[int64]library.Publisher
	books      map[int64]library.Book
	lendings   map[int64]*library.LendingRecord
	faults     map[string][]fault
	delays     map[string]time.Duration
	requests   []Request

	router chi.Router
}

// New returns an empty backend.
func New() *Backend {
	b := &Backend{
		Now:        time.Now,
		users:      make(map[int64]*account),
		tokens:     make(map[string]int64),
		authors:    make(map[int64]library.Author),
		publishers: make(map[int64]library.Publisher),
		books:      make(map[int64]library.Book),
		lendings:   make(map[int64]*library.LendingRecord),
		faults:     make(map[string][]fault),
		delays:     make(map[string]time.Duration),
	}
	b.router = b.routes()
	return b
}

// NewServer starts b on a loopback httptest server.
func NewServer() (*Backend, *httptest.Server) {
	b := New()
	return b, httptest.NewServer(b)
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.router.ServeHTTP(w, r)
}

// ------------------ Test controls ------------------

type fault struct {
	status int
	body   string
	raw    bool
}

// Fail makes the next request matching method and exact path answer status.
// Repeated calls queue further failures.
func (b *Backend) Fail(method, path string, status int) {
	b.queue(method, path, fault{status: status})
}

// Respond makes the next request matching method and exact path answer
// status with body verbatim, skipping the handler.
func (b *Backend) Respond(method, path string, status int, body string) {
	b.queue(method, path, fault{status: status, body: body, raw: true})
}

func (b *Backend) queue(method, path string, f fault) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := method + " " + path
	b.faults[key] = append(b.faults[key], f)
}

// Delay makes every request matching method and path wait d before answering.
func (b *Backend) Delay(method, path string, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delays[method+" "+path] = d
}

// Requests returns a copy of everything received so far.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// RevokeAll invalidates every issued token, as a backend restart would.
func (b *Backend) RevokeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = make(map[string]int64)
}

// ------------------ Seeding ------------------

// AddUser registers an account and returns it without the password.
// It panics if password cannot be hashed.
func (b *Backend) AddUser(name, email, password, role string) library.User {
	hash, err := hashPassword(password)
	if err != nil {
		panic("fakeapi: " + err.Error())
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(name, email, hash, role).User
}

// IssueToken mints a bearer token for userID.
func (b *Backend) IssueToken(userID int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issueLocked(userID)
}

// AddAuthor stores an author.
func (b *Backend) AddAuthor(name, bio string) library.Author {
	b.mu.Lock()
	defer b.mu.Unlock()
	a := library.Author{ID: b.id(), Name: name, Biography: bio}
	b.authors[a.ID] = a
	return a
}

// AddPublisher stores a publisher.
func (b *Backend) AddPublisher(name, address string) library.Publisher {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := library.Publisher{ID: b.id(), Name: name, Address: address}
	b.publishers[p.ID] = p
	return p
}

// AddBook stores a book. It panics if authorID or publisherID is unknown.
func (b *Backend) AddBook(title, category string, authorID, publisherID int64) library.Book {
	b.mu.Lock()
	defer b.mu.Unlock()
	bk, err := b.bookFromInputLocked(0, library.BookInput{
		Title: title, Category: category,
		Author: library.Ref{ID: authorID}, Publisher: library.Ref{ID: publisherID},
	})
	if err != nil {
		panic("fakeapi: " + err.Error())
	}
	bk.ID = b.id()
	b.books[bk.ID] = bk
	return bk
}

// Book returns the stored book.
func (b *Backend) Book(id int64) (library.Book, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bk, ok := b.books[id]
	return bk, ok
}

// Seed loads a small demo catalog with an admin and a regular account.
func (b *Backend) Seed() (admin, user library.User) {
	admin = b.AddUser("Admin", "admin@library.test", "admin", "ADMIN")
	user = b.AddUser("Reader", "reader@library.test", "reader", "USER")

	orwell := b.AddAuthor("George Orwell", "English novelist and essayist.")
	tolkien := b.AddAuthor("J.R.R. Tolkien", "Author of The Lord of the Rings.")
	secker := b.AddPublisher("Secker & Warburg", "London")
	allen := b.AddPublisher("Allen & Unwin", "London")

	b.AddBook("1984", "Dystopia", orwell.ID, secker.ID)
	b.AddBook("Animal Farm", "Satire", orwell.ID, secker.ID)
	b.AddBook("The Fellowship of the Ring", "Fantasy", tolkien.ID, allen.ID)
	return admin, user
}

func (b *Backend) id() int64 {
	b.nextID++
	return b.nextID
}

func (b *Backend) addUserLocked(name, email string, passwordHash []byte, role string) *account {
	role = strings.ToUpper(strings.TrimSpace(role))
	if role != "ADMIN" {
		role = "USER"
	}
	acc := &account{
		User:         library.User{ID: b.id(), Name: name, Email: email, Role: role},
		passwordHash: passwordHash,
	}
	b.users[acc.ID] = acc
	return acc
}

func (b *Backend) issueLocked(userID int64) string {
	tok := "tok-" + uuid.NewString()
	b.tokens[tok] = userID
	return tok
}

// ------------------ Routing ------------------

type ctxKey struct{}

func (b *Backend) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(b.record)
	r.Use(b.inject)

	r.Post("/api/auth/login", b.login)
	r.Post("/api/auth/signup", b.signup)

	r.Group(func(r chi.Router) {
		r.Use(b.authenticate)

		r.Get("/api/authors", b.listAuthors)
		r.Get("/api/authors/search", b.searchAuthors)
		r.Get("/api/authors/{id}", b.getAuthor)
		r.Get("/api/publishers", b.listPublishers)
		r.Get("/api/publishers/search", b.searchPublishers)
		r.Get("/api/publishers/{id}", b.getPublisher)
		r.Get("/api/books", b.listBooks)
		r.Get("/api/books/search", b.searchBooks)
		r.Get("/api/books/{id}", b.getBook)

		r.Get("/api/lending/books/user", b.userBooks)
		r.Post("/api/lending/lend", b.lend)
		r.Post("/api/lending/return", b.returnBook)
		r.Get("/api/dashboard/stats", b.stats)

		r.Group(func(r chi.Router) {
			r.Use(b.adminOnly)

			r.Post("/api/authors", b.createAuthor)
			r.Put("/api/authors/{id}", b.updateAuthor)
			r.Delete("/api/authors/{id}", b.deleteAuthor)
			r.Post("/api/publishers", b.createPublisher)
			r.Put("/api/publishers/{id}", b.updatePublisher)
			r.Delete("/api/publishers/{id}", b.deletePublisher)
			r.Post("/api/books", b.createBook)
			r.Put("/api/books/{id}", b.updateBook)
			r.Delete("/api/books/{id}", b.deleteBook)
			r.Put("/api/books/{id}/thumbnail", b.uploadThumbnail)

			r.Get("/api/users", b.listUsers)
			r.Get("/api/users/search", b.searchUsers)
			r.Get("/api/users/{id}", b.getUser)
			r.Post("/api/users", b.createUser)
			r.Put("/api/users/{id}", b.updateUser)
			r.Delete("/api/users/{id}", b.deleteUser)

			r.Get("/api/lending/all-books-status", b.allBooksStatus)
		})
	})
	return r
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			RawQuery:      r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// inject applies queued faults, canned responses and delays.
func (b *Backend) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		b.mu.Lock()
		delay := b.delays[key]
		var f fault
		if q := b.faults[key]; len(q) > 0 {
			f = q[0]
			b.faults[key] = q[1:]
		}
		b.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		switch {
		case f.raw:
			if f.body != "" {
				w.Header().Set("Content-Type", "application/json")
			}
			w.WriteHeader(f.status)
			_, _ = io.WriteString(w, f.body)
			return
		case f.status != 0:
			writeMessage(w, f.status, fmt.Sprintf("injected %d", f.status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		tok, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || tok == "" {
			writeMessage(w, http.StatusUnauthorized, "Authorization header required")
			return
		}
		b.mu.Lock()
		uid, ok := b.tokens[tok]
		acc := b.users[uid]
		b.mu.Unlock()
		if !ok || acc == nil {
			writeMessage(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(withAccount(r.Context(), acc.User)))
	})
}

func (b *Backend) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if caller(r).Role != "ADMIN" {
			writeMessage(w, http.StatusForbidden, "Access denied")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------ Helpers ------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body")
		return false
	}
	return true
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(needle)))
}

func sortedValues[T library.Record](m map[int64]T) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID() < out[j].RecordID() })
	return out
}
