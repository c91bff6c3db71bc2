// internal/app/store/content/registry.go
package contentstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dalemusser/stratasite/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrUnknownKind is returned when a kind name is not in the catalog.
var ErrUnknownKind = errors.New("unknown content kind")

// Repo is the kind-agnostic view of a Repository, used by the admin API
// and tooling that pick a kind at runtime. Every *Repository[T] is a Repo.
type Repo interface {
	Kind() string
	List(ctx context.Context, q Query) (any, error)
	Visible(ctx context.Context, limit int) (any, error)
	Get(ctx context.Context, id string) (any, error)
	CreateFrom(ctx context.Context, p Patch) (string, error)
	Update(ctx context.Context, id string, p Patch) error
	Upsert(ctx context.Context, id string, p Patch) (bool, error)
	Delete(ctx context.Context, id string) error
	UpdateOrder(ctx context.Context, items []OrderItem) error
	SeedPatches(ctx context.Context, entries []Patch) (int, error)
}

type constructor func(db *mongo.Database, logger *zap.Logger) Repo

func build[T models.Entity](db *mongo.Database, logger *zap.Logger) Repo {
	return NewRepository[T](db, logger)
}

func decodeAs[T models.Entity](p Patch) (models.Entity, error) {
	return Decode[T](p)
}

// binding ties a kind name to its Go type.
type binding struct {
	build  constructor
	decode func(Patch) (models.Entity, error)
}

func bind[T models.Entity]() binding {
	return binding{build: build[T], decode: decodeAs[T]}
}

var bindings = map[string]binding{
	models.KindHeroSections:       bind[models.HeroSection](),
	models.KindCurriculumWeeks:    bind[models.CurriculumWeek](),
	models.KindProgramPhases:      bind[models.ProgramPhase](),
	models.KindTeamMembers:        bind[models.TeamMember](),
	models.KindFAQs:               bind[models.FAQ](),
	models.KindPortfolioCompanies: bind[models.PortfolioCompany](),
	models.KindQualifications:     bind[models.Qualification](),
	models.KindTestimonials:       bind[models.Testimonial](),
	models.KindStats:              bind[models.Stat](),
	models.KindLegalDocuments:     bind[models.LegalDocument](),
}

// DecodeKind converts an untyped document into the entity type registered
// for kind.
func DecodeKind(kind string, p Patch) (models.Entity, error) {
	b, ok := bindings[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return b.decode(p)
}

// Registry hands out one repository per kind, created on first use and
// reused after that. It is safe for concurrent use.
type Registry struct {
	db     *mongo.Database
	logger *zap.Logger

	mu    sync.Mutex
	repos map[string]Repo
}

// NewRegistry returns an empty registry bound to db.
func NewRegistry(db *mongo.Database, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{db: db, logger: logger, repos: make(map[string]Repo)}
}

// Repo returns the repository for kind.
func (g *Registry) Repo(kind string) (Repo, error) {
	b, ok := bindings[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return g.lookup(kind, b.build), nil
}

func (g *Registry) lookup(kind string, ctor constructor) Repo {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.repos[kind]; ok {
		return r
	}
	r := ctor(g.db, g.logger)
	g.repos[kind] = r
	return r
}

// Kinds returns the catalog of kinds the registry can serve.
func (g *Registry) Kinds() []models.KindInfo {
	return models.ContentKinds()
}

// For returns the typed repository for T from reg. Repeated calls return
// the same instance, shared with reg.Repo(T's kind).
func For[T models.Entity](reg *Registry) *Repository[T] {
	var zero T
	r := reg.lookup(zero.Kind(), build[T])
	return r.(*Repository[T])
}
