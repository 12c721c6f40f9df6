// Package console wires the session store, gate, API client and metrics
// together and hands out page controllers, keeping command code simple.
package console

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"library-admin/api"
	"library-admin/config"
	"library-admin/gate"
	"library-admin/library"
	"library-admin/metrics"
	"library-admin/session"
	"library-admin/views"
)

// Console is a thin facade over one state file and one backend.
type Console struct {
	cfg      config.Config
	logger   *slog.Logger
	storage  *session.Storage
	store    *session.Store
	gate     *gate.Gate
	client   *api.Client
	registry *prometheus.Registry
	metrics  *metrics.Collector
	env      *views.Env
}

// Open opens (or creates) the state file named by cfg and connects the
// pieces. It does not contact the backend.
func Open(cfg *config.Config, logger *slog.Logger) (*Console, error) {
	if logger == nil {
		logger = slog.Default()
	}

	storage, err := session.OpenStorage(cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	store := session.NewStore(storage, logger.With(slog.String("component", "session")))
	client := api.New(api.Options{
		BaseURL:   cfg.APIURL,
		Timeout:   cfg.RequestTimeout,
		RateLimit: rate.Limit(cfg.RateLimit),
		RateBurst: cfg.RateBurst,
		Logger:    logger.With(slog.String("component", "api")),
		Metrics:   collector,
	})
	g := gate.New(store, logger.With(slog.String("component", "gate")), gate.WithRecorder(collector))

	c := &Console{
		cfg:      *cfg,
		logger:   logger,
		storage:  storage,
		store:    store,
		gate:     g,
		client:   client,
		registry: registry,
		metrics:  collector,
	}
	c.env = &views.Env{
		Store:   store,
		Gate:    g,
		Client:  client,
		Logger:  logger.With(slog.String("component", "views")),
		Metrics: collector,
	}
	return c, nil
}

// Close flushes metrics to the configured textfile and closes the state file.
func (c *Console) Close() error {
	var errs []error
	if c.cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(c.cfg.MetricsFile, c.registry); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if err := c.storage.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ------------------ Session helpers ------------------

func (c *Console) Store() *session.Store { return c.store }

// Session returns the stored identity, if any.
func (c *Console) Session() (session.Session, error) { return c.store.Load() }

// AuthedClient passes the gate and returns a client carrying the session
// token. Tools that run without a page use it.
func (c *Console) AuthedClient(required session.Role) (*api.Client, session.Session, error) {
	d := c.gate.Check(required)
	switch d.Outcome {
	case gate.Proceed:
		return c.client.As(d.Session.Token), d.Session, nil
	case gate.RedirectDenied:
		return nil, session.Session{}, errors.New(d.Notice)
	default:
		return nil, session.Session{}, session.ErrNoSession
	}
}

// Expire ends a session the backend rejected, as a page does on a 401.
func (c *Console) Expire() error {
	if err := c.store.Clear(); err != nil {
		return err
	}
	c.metrics.RecordSessionEnd("expired")
	c.logger.Info("backend rejected the session token, session cleared")
	return nil
}

// Sections is the navigation menu for the current session; empty when
// nobody is logged in.
func (c *Console) Sections() []library.Entity {
	sess, err := c.store.Load()
	if err != nil {
		return nil
	}
	return gate.Sections(sess.Role)
}

// ------------------ Pages ------------------

func (c *Console) Auth() *views.Auth           { return views.NewAuth(c.env) }
func (c *Console) Dashboard() *views.Dashboard { return views.NewDashboard(c.env) }
func (c *Console) Lending() *views.Lending     { return views.NewLending(c.env) }

func (c *Console) Books() *views.List[library.Book]           { return views.NewBooks(c.env) }
func (c *Console) Authors() *views.List[library.Author]       { return views.NewAuthors(c.env) }
func (c *Console) Publishers() *views.List[library.Publisher] { return views.NewPublishers(c.env) }
func (c *Console) Users() *views.List[library.User]           { return views.NewUsers(c.env) }

func (c *Console) BookForm() *views.BookForm { return views.NewBookForm(c.env) }

func (c *Console) AuthorForm() *views.Form[library.Author, library.AuthorInput] {
	return views.NewAuthorForm(c.env)
}

func (c *Console) PublisherForm() *views.Form[library.Publisher, library.PublisherInput] {
	return views.NewPublisherForm(c.env)
}

func (c *Console) UserForm() *views.Form[library.User, library.UserInput] {
	return views.NewUserForm(c.env)
}
