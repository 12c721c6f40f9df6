package library

// Record is anything the backend identifies by a numeric id.
type Record interface {
	RecordID() int64
}

// Author is a book author as served by /api/authors.
type Author struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Biography string `json:"biography,omitempty"`
}

// Publisher is a publishing house as served by /api/publishers.
type Publisher struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// Book references its Author and Publisher by id; the backend resolves the
// display names when it returns the record.
type Book struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Category     string     `json:"category,omitempty"`
	Author       *Author    `json:"author,omitempty"`
	Publisher    *Publisher `json:"publisher,omitempty"`
	ThumbnailURL string     `json:"thumbnailUrl,omitempty"`
}

// AuthorName returns the resolved author name or "N/A".
func (b Book) AuthorName() string {
	if b.Author == nil || b.Author.Name == "" {
		return "N/A"
	}
	return b.Author.Name
}

// PublisherName returns the resolved publisher name or "N/A".
func (b Book) PublisherName() string {
	if b.Publisher == nil || b.Publisher.Name == "" {
		return "N/A"
	}
	return b.Publisher.Name
}

// User is a registered account. Password is only ever sent, never returned.
type User struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
	Password string `json:"password,omitempty"`
}

// Lend status values.
const (
	StatusAvailable = "available"
	StatusLent      = "lent"
)

// LendingRecord is one lend of a book to a user.
type LendingRecord struct {
	ID         int64      `json:"id"`
	User       *User      `json:"user,omitempty"`
	Book       Book       `json:"book"`
	Status     string     `json:"status,omitempty"`
	CreatedAt  Timestamp  `json:"createdAt"`
	ReturnedAt *Timestamp `json:"returnedAt,omitempty"`
}

// UserBooks is the shape of /api/lending/books/user.
type UserBooks struct {
	Available []Book          `json:"available"`
	Lent      []LendingRecord `json:"lent"`
}

// LendingEntry is one row of the lending screen: a book and its lend state.
type LendingEntry struct {
	BookID    int64      `json:"id"`
	Title     string     `json:"title"`
	Author    *Author    `json:"author,omitempty"`
	Publisher *Publisher `json:"publisher,omitempty"`
	Status    string     `json:"status"`
	LentTo    string     `json:"lentTo,omitempty"`
	LentAt    *Timestamp `json:"lentAt,omitempty"`
	LendingID int64      `json:"lendingId,omitempty"`
}

// LendRequest is the body of POST /api/lending/lend.
type LendRequest struct {
	UserID int64 `json:"userId"`
	BookID int64 `json:"bookId"`
}

// MonthlyCount is one bar of the monthly lend histogram.
type MonthlyCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// RecentLend is a dashboard feed entry.
type RecentLend struct {
	UserName  string `json:"userName"`
	BookTitle string `json:"bookTitle"`
}

// DashboardStats is the shape of /api/dashboard/stats.
type DashboardStats struct {
	TotalBooks       int64          `json:"totalBooks"`
	TotalAuthors     int64          `json:"totalAuthors"`
	TotalPublishers  int64          `json:"totalPublishers"`
	TotalUsers       int64          `json:"totalUsers"`
	MonthlyLendStats []MonthlyCount `json:"monthlyLendStats"`
	RecentLends      []RecentLend   `json:"recentLends"`
}

// Ref is the {id} reference a book payload uses for its author and publisher.
type Ref struct {
	ID int64 `json:"id"`
}

// BookInput is the create/update payload for a book.
type BookInput struct {
	Title     string `json:"title"`
	Category  string `json:"category"`
	Author    Ref    `json:"author"`
	Publisher Ref    `json:"publisher"`
}

// AuthorInput is the create/update payload for an author.
type AuthorInput struct {
	Name      string `json:"name"`
	Biography string `json:"biography"`
}

// PublisherInput is the create/update payload for a publisher.
type PublisherInput struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// UserInput is the create/update payload for a user. An empty Password on
// update leaves the stored password alone.
type UserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role"`
}

func (a Author) RecordID() int64        { return a.ID }
func (p Publisher) RecordID() int64     { return p.ID }
func (b Book) RecordID() int64          { return b.ID }
func (u User) RecordID() int64          { return u.ID }
func (l LendingRecord) RecordID() int64 { return l.ID }
func (e LendingEntry) RecordID() int64  { return e.BookID }
