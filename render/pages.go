package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"library-admin/library"
)

const (
	titleWidth = 40
	nameWidth  = 30
	textWidth  = 50
	barWidth   = 40
)

func id(v int64) string { return strconv.FormatInt(v, 10) }

// Books prints the books table.
func Books(out io.Writer, books []library.Book) {
	if len(books) == 0 {
		fmt.Fprintln(out, "No books found.")
		return
	}
	rows := make([][]string, 0, len(books))
	for _, b := range books {
		rows = append(rows, []string{
			id(b.ID),
			Truncate(Clean(b.Title), titleWidth),
			Truncate(Clean(b.AuthorName()), nameWidth),
			Truncate(Clean(b.PublisherName()), nameWidth),
			Clean(b.Category),
		})
	}
	Table(out, []string{"ID", "Title", "Author", "Publisher", "Category"}, rows)
}

// Book prints one book as label/value lines.
func Book(out io.Writer, b library.Book) {
	fields(out, [][2]string{
		{"ID", id(b.ID)},
		{"Title", Clean(b.Title)},
		{"Category", Clean(b.Category)},
		{"Author", Clean(b.AuthorName())},
		{"Publisher", Clean(b.PublisherName())},
		{"Thumbnail", orDash(b.ThumbnailURL)},
	})
}

// Authors prints the authors table.
func Authors(out io.Writer, authors []library.Author) {
	if len(authors) == 0 {
		fmt.Fprintln(out, "No authors found.")
		return
	}
	rows := make([][]string, 0, len(authors))
	for _, a := range authors {
		rows = append(rows, []string{id(a.ID), Truncate(Clean(a.Name), nameWidth), Truncate(Clean(a.Biography), textWidth)})
	}
	Table(out, []string{"ID", "Name", "Biography"}, rows)
}

// Author prints one author.
func Author(out io.Writer, a library.Author) {
	fields(out, [][2]string{{"ID", id(a.ID)}, {"Name", Clean(a.Name)}, {"Biography", orDash(Clean(a.Biography))}})
}

// Publishers prints the publishers table.
func Publishers(out io.Writer, pubs []library.Publisher) {
	if len(pubs) == 0 {
		fmt.Fprintln(out, "No publishers found.")
		return
	}
	rows := make([][]string, 0, len(pubs))
	for _, p := range pubs {
		rows = append(rows, []string{id(p.ID), Truncate(Clean(p.Name), nameWidth), Truncate(Clean(p.Address), textWidth)})
	}
	Table(out, []string{"ID", "Name", "Address"}, rows)
}

// Publisher prints one publisher.
func Publisher(out io.Writer, p library.Publisher) {
	fields(out, [][2]string{{"ID", id(p.ID)}, {"Name", Clean(p.Name)}, {"Address", orDash(Clean(p.Address))}})
}

// Users prints the users table.
func Users(out io.Writer, users []library.User) {
	if len(users) == 0 {
		fmt.Fprintln(out, "No users found.")
		return
	}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{id(u.ID), Truncate(Clean(u.Name), nameWidth), Clean(u.Email), u.Role})
	}
	Table(out, []string{"ID", "Name", "Email", "Role"}, rows)
}

// User prints one user.
func User(out io.Writer, u library.User) {
	fields(out, [][2]string{{"ID", id(u.ID)}, {"Name", Clean(u.Name)}, {"Email", Clean(u.Email)}, {"Role", u.Role}})
}

// Lending prints one row per book with its lend state.
func Lending(out io.Writer, entries []library.LendingEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No books found.")
		return
	}
	headers := []string{"Book", "Title", "Author", "Status", "Lent To", "Lent At", "Lending"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		b := library.Book{Author: e.Author, Publisher: e.Publisher}
		lending := "-"
		if e.LendingID != 0 {
			lending = id(e.LendingID)
		}
		rows = append(rows, []string{
			id(e.BookID),
			Truncate(Clean(e.Title), titleWidth),
			Truncate(Clean(b.AuthorName()), nameWidth),
			ColorStatus(e.Status),
			orDash(Clean(e.LentTo)),
			FormatTimeOrDash(e.LentAt.Std()),
			lending,
		})
	}
	Table(out, headers, rows)
}

// Dashboard prints the counts, the monthly histogram and recent lends.
func Dashboard(out io.Writer, s *library.DashboardStats) {
	Table(out, []string{"Books", "Authors", "Publishers", "Users"}, [][]string{{
		id(s.TotalBooks), id(s.TotalAuthors), id(s.TotalPublishers), id(s.TotalUsers),
	}})

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Lends per month")
	BarChart(out, s.MonthlyLendStats, barWidth)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Recent lends")
	if len(s.RecentLends) == 0 {
		fmt.Fprintln(out, "  (none)")
		return
	}
	rows := make([][]string, 0, len(s.RecentLends))
	for _, r := range s.RecentLends {
		rows = append(rows, []string{Clean(r.UserName), Truncate(Clean(r.BookTitle), titleWidth)})
	}
	Table(out, []string{"User", "Book"}, rows)
}

// BarChart draws one horizontal bar per month, scaled so the largest count
// spans width cells. Positive counts always get at least one cell; negative
// counts get none.
func BarChart(out io.Writer, months []library.MonthlyCount, width int) {
	if len(months) == 0 {
		fmt.Fprintln(out, "  (no lends yet)")
		return
	}
	maxCount, labelWidth := 0, 0
	for _, m := range months {
		if m.Count > maxCount {
			maxCount = m.Count
		}
		if l := visibleLen(m.Month); l > labelWidth {
			labelWidth = l
		}
	}
	for _, m := range months {
		n := 0
		if maxCount > 0 && m.Count > 0 {
			n = max(m.Count*width/maxCount, 1)
		}
		fmt.Fprintf(out, "  %s | %s %d\n", padRight(Clean(m.Month), labelWidth), strings.Repeat("#", n), m.Count)
	}
}

// Menu prints the navigation sections.
func Menu(out io.Writer, sections []library.Entity) {
	for _, e := range sections {
		fmt.Fprintf(out, "  %-12s /%s\n", e.Title(), e)
	}
}

func fields(out io.Writer, kv [][2]string) {
	w := 0
	for _, f := range kv {
		if len(f[0]) > w {
			w = len(f[0])
		}
	}
	for _, f := range kv {
		fmt.Fprintf(out, "%s  %s\n", padRight(f[0]+":", w+1), f[1])
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
