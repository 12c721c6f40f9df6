package library

import (
	"encoding/json"
	"testing"
)

func TestBookRefNames(t *testing.T) {
	b := Book{Title: "Orphan"}
	if b.AuthorName() != "N/A" || b.PublisherName() != "N/A" {
		t.Fatalf("missing refs = %q / %q", b.AuthorName(), b.PublisherName())
	}
	b.Author = &Author{ID: 3}
	if b.AuthorName() != "N/A" {
		t.Fatalf("unnamed author = %q", b.AuthorName())
	}
	b.Author.Name = "George Orwell"
	b.Publisher = &Publisher{ID: 5, Name: "Secker & Warburg"}
	if b.AuthorName() != "George Orwell" || b.PublisherName() != "Secker & Warburg" {
		t.Fatalf("names = %q / %q", b.AuthorName(), b.PublisherName())
	}
}

func TestBookInputShape(t *testing.T) {
	raw, err := json.Marshal(BookInput{Title: "1984", Author: Ref{ID: 3}, Publisher: Ref{ID: 5}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"title":"1984","category":"","author":{"id":3},"publisher":{"id":5}}`
	if string(raw) != want {
		t.Fatalf("payload = %s, want %s", raw, want)
	}
}

func TestUserPasswordOmittedWhenEmpty(t *testing.T) {
	raw, _ := json.Marshal(UserInput{Name: "Sam", Email: "sam@library.test", Role: "USER"})
	if string(raw) != `{"name":"Sam","email":"sam@library.test","role":"USER"}` {
		t.Fatalf("payload = %s", raw)
	}
}

func TestEntityLabels(t *testing.T) {
	if len(Entities) != 6 || Entities[0] != EntityDashboard {
		t.Fatalf("Entities = %v", Entities)
	}
	if EntityLending.Title() != "Lend" || EntityLending.Singular() != "lending record" {
		t.Fatalf("lending labels = %q / %q", EntityLending.Title(), EntityLending.Singular())
	}
	if EntityBooks.Singular() != "book" || EntityUsers.Title() != "Users" {
		t.Fatal("unexpected labels")
	}
}
