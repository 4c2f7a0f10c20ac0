// internal/app/system/seeding/seeding.go
package seeding

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/stratareel/internal/app/store/audit"
	moviestore "github.com/dalemusser/stratareel/internal/app/store/movies"
	userstore "github.com/dalemusser/stratareel/internal/app/store/users"
	"github.com/dalemusser/stratareel/internal/app/system/auditlog"
	"github.com/dalemusser/stratareel/internal/app/system/authutil"
	"github.com/dalemusser/stratareel/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Options selects what SeedAll creates.
type Options struct {
	AdminEmail    string
	AdminUsername string
	AdminPassword string
	SampleCatalog bool
}

// Deps are the stores seeding writes through. Users may be nil when the
// identity layer is not backed by MongoDB.
type Deps struct {
	Users  *userstore.Store
	Movies *moviestore.Store
	Audit  *auditlog.Logger
	Logger *zap.Logger
}

// SeedAll seeds the admin account and the sample catalog when configured
// and not already present.
func SeedAll(ctx context.Context, d Deps, opts Options) error {
	if opts.AdminEmail != "" && d.Users != nil {
		if err := seedAdmin(ctx, d, opts); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
	}
	if opts.SampleCatalog {
		if err := seedCatalog(ctx, d); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
	}
	return nil
}

// seedAdmin creates the configured admin, or promotes an existing account
// with that email.
func seedAdmin(ctx context.Context, d Deps, opts Options) error {
	existing, err := d.Users.GetByEmail(ctx, opts.AdminEmail)
	switch {
	case err == nil:
		if existing.Role == models.RoleAdmin {
			return nil
		}
		if err := d.Users.SetRole(ctx, existing.ID, models.RoleAdmin); err != nil {
			return err
		}
		d.Logger.Info("promoted seed admin", zap.String("email", existing.Email))
		d.Audit.Seeded(ctx, audit.EventAdminSeeded, map[string]string{"email": existing.Email, "action": "promoted"})
		return nil
	case !errors.Is(err, mongo.ErrNoDocuments):
		return err
	}

	if err := authutil.ValidatePassword(opts.AdminPassword); err != nil {
		return err
	}
	hash, err := authutil.HashPassword(opts.AdminPassword)
	if err != nil {
		return err
	}
	username := opts.AdminUsername
	if username == "" {
		username = "admin"
	}

	u, err := d.Users.Create(ctx, models.User{
		Email:        opts.AdminEmail,
		Username:     username,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	})
	if err != nil {
		return err
	}
	d.Logger.Info("seeded admin account", zap.String("email", u.Email))
	d.Audit.Seeded(ctx, audit.EventAdminSeeded, map[string]string{"email": u.Email, "action": "created"})
	return nil
}

// SampleMovies is the catalog seeded into an empty store.
var SampleMovies = []models.MovieInput{
	{
		Title:       "Dune",
		Description: "A noble family becomes embroiled in a war for control over the galaxy's most valuable asset.",
		Year:        "2021",
		Genre:       "Sci-Fi",
		Poster:      "https://posters.stratareel.dev/dune.jpg",
	},
	{
		Title:       "Heat",
		Description: "A group of professional bank robbers start to feel the heat from police.",
		Year:        "1995",
		Genre:       "Crime",
		Poster:      "https://posters.stratareel.dev/heat.jpg",
	},
	{
		Title:       "Spirited Away",
		Description: "A young girl wanders into a world ruled by gods, witches, and spirits.",
		Year:        "2001",
		Genre:       "Animation",
		Poster:      "https://posters.stratareel.dev/spirited-away.jpg",
	},
	{
		Title:       "The Grand Budapest Hotel",
		Description: "A concierge and his lobby boy are caught up in the theft of a priceless painting.",
		Year:        "2014",
		Genre:       "Comedy",
		Poster:      "https://posters.stratareel.dev/grand-budapest.jpg",
	},
	{
		Title:       "Arrival",
		Description: "A linguist works with the military to communicate with alien lifeforms.",
		Year:        "2016",
		Genre:       "Sci-Fi",
		Poster:      "https://posters.stratareel.dev/arrival.jpg",
	},
}

func seedCatalog(ctx context.Context, d Deps) error {
	existing, err := d.Movies.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		d.Logger.Debug("catalog not empty, sample movies skipped", zap.Int("movies", len(existing)))
		return nil
	}

	for _, in := range SampleMovies {
		if _, err := d.Movies.Create(ctx, in); err != nil {
			return fmt.Errorf("%s: %w", in.Title, err)
		}
	}
	d.Logger.Info("seeded sample catalog", zap.Int("movies", len(SampleMovies)))
	d.Audit.Seeded(ctx, audit.EventCatalogSeeded, map[string]string{"movies": fmt.Sprint(len(SampleMovies))})
	return nil
}
