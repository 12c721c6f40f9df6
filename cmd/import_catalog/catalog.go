package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"library-admin/api"
	"library-admin/library"
)

// Catalog is the YAML import file. Books name their author and publisher;
// names resolve to backend ids case-insensitively.
type Catalog struct {
	Authors    []library.AuthorInput    `yaml:"authors"`
	Publishers []library.PublisherInput `yaml:"publishers"`
	Books      []CatalogBook            `yaml:"books"`
}

// CatalogBook is one book entry of a catalog.
type CatalogBook struct {
	Title     string `yaml:"title"`
	Category  string `yaml:"category"`
	Author    string `yaml:"author"`
	Publisher string `yaml:"publisher"`
}

// LoadCatalog reads and checks a catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	for i, bk := range c.Books {
		if strings.TrimSpace(bk.Title) == "" {
			return nil, fmt.Errorf("book #%d: title is required", i+1)
		}
	}
	return &c, nil
}

// Summary counts what an import did.
type Summary struct {
	Created int
	Skipped int
	Errors  int
}

// Importer creates catalog records that the backend does not have yet.
type Importer struct {
	client *api.Client
	out    io.Writer

	authors    map[string]int64
	publishers map[string]int64
	books      map[string]bool
}

// NewImporter returns an importer talking through client, which must carry
// an ADMIN token.
func NewImporter(client *api.Client, out io.Writer) *Importer {
	return &Importer{client: client, out: out}
}

func key(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Run imports c. Individual record failures are counted and reported; a
// failure to read the existing collections aborts the import.
func (im *Importer) Run(ctx context.Context, c *Catalog) (Summary, error) {
	var sum Summary
	if err := im.index(ctx); err != nil {
		return sum, err
	}

	for _, a := range c.Authors {
		err := im.create(&sum, "author", a.Name, im.authors, func() (int64, error) {
			rec, err := im.client.Authors().Create(ctx, a)
			return rec.ID, err
		})
		if err != nil {
			return sum, err
		}
	}
	for _, p := range c.Publishers {
		err := im.create(&sum, "publisher", p.Name, im.publishers, func() (int64, error) {
			rec, err := im.client.Publishers().Create(ctx, p)
			return rec.ID, err
		})
		if err != nil {
			return sum, err
		}
	}

	for _, bk := range c.Books {
		fmt.Fprintf(im.out, "Importing: %s by %s... ", bk.Title, bk.Author)
		if im.books[key(bk.Title)] {
			fmt.Fprintln(im.out, "SKIPPED - already present")
			sum.Skipped++
			continue
		}
		authorID, ok := im.authors[key(bk.Author)]
		if !ok {
			fmt.Fprintf(im.out, "ERROR - unknown author %q\n", bk.Author)
			sum.Errors++
			continue
		}
		publisherID, ok := im.publishers[key(bk.Publisher)]
		if !ok {
			fmt.Fprintf(im.out, "ERROR - unknown publisher %q\n", bk.Publisher)
			sum.Errors++
			continue
		}
		rec, err := im.client.Books().Create(ctx, library.BookInput{
			Title:     strings.TrimSpace(bk.Title),
			Category:  strings.TrimSpace(bk.Category),
			Author:    library.Ref{ID: authorID},
			Publisher: library.Ref{ID: publisherID},
		})
		if err != nil {
			fmt.Fprintf(im.out, "ERROR - %s\n", describe(err))
			sum.Errors++
			if stop(err) {
				return sum, err
			}
			continue
		}
		im.books[key(rec.Title)] = true
		fmt.Fprintf(im.out, "SUCCESS (ID: %d)\n", rec.ID)
		sum.Created++
	}
	return sum, nil
}

func (im *Importer) index(ctx context.Context) error {
	authors, err := im.client.Authors().List(ctx)
	if err != nil {
		return fmt.Errorf("list authors: %w", err)
	}
	publishers, err := im.client.Publishers().List(ctx)
	if err != nil {
		return fmt.Errorf("list publishers: %w", err)
	}
	books, err := im.client.Books().List(ctx)
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}

	im.authors = make(map[string]int64, len(authors))
	for _, a := range authors {
		im.authors[key(a.Name)] = a.ID
	}
	im.publishers = make(map[string]int64, len(publishers))
	for _, p := range publishers {
		im.publishers[key(p.Name)] = p.ID
	}
	im.books = make(map[string]bool, len(books))
	for _, b := range books {
		im.books[key(b.Title)] = true
	}
	return nil
}

// create adds name to known via fn unless it is already there. It returns
// only errors that should end the import.
func (im *Importer) create(sum *Summary, kind, name string, known map[string]int64, fn func() (int64, error)) error {
	if strings.TrimSpace(name) == "" {
		fmt.Fprintf(im.out, "Warning: %s without a name, skipping\n", kind)
		sum.Errors++
		return nil
	}
	if _, ok := known[key(name)]; ok {
		sum.Skipped++
		return nil
	}
	id, err := fn()
	if err != nil {
		fmt.Fprintf(im.out, "Error creating %s %q: %s\n", kind, name, describe(err))
		sum.Errors++
		if stop(err) {
			return err
		}
		return nil
	}
	known[key(name)] = id
	fmt.Fprintf(im.out, "Created %s %s (ID: %d)\n", kind, name, id)
	sum.Created++
	return nil
}

func describe(err error) string {
	if msg := api.MessageOf(err); msg != "" {
		return msg
	}
	return err.Error()
}

// stop reports errors that will fail every following request too.
func stop(err error) bool {
	return errors.Is(err, api.ErrUnauthorized) || errors.Is(err, api.ErrForbidden)
}
