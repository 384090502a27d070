package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/jaswdr/faker"
	"gwi.com/reelpick/internal/auth"
	"gwi.com/reelpick/internal/config"
	"gwi.com/reelpick/internal/logging"
	"gwi.com/reelpick/internal/store"
)

var genres = []string{
	"action", "animation", "anime", "comedy", "crime", "documentary", "drama",
	"fantasy", "horror", "mystery", "romance", "sci-fi", "thriller", "western",
}

func main() {
	defaults := config.Default()

	driver := flag.String("driver", envOr("DATABASE_DRIVER", defaults.DatabaseDriver), "database driver: sqlite or postgres")
	dsn := flag.String("db", envOr("DATABASE_URL", defaults.DatabaseURL), "database file or connection URL")
	n := flag.Int("n", 10, "number of demo users to create")
	password := flag.String("password", "password123", "password shared by every demo user")
	flag.Parse()

	ctx := context.Background()

	st, err := store.Open(ctx, *driver, *dsn)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.Close()

	hash, err := auth.HashPassword(*password)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to hash password")
	}

	fake := faker.New()
	created := 0
	for i := 1; i <= *n; i++ {
		email := fmt.Sprintf("demo+%d@reelpick.local", i)
		user, err := st.CreateUser(ctx, &store.User{
			Email:        email,
			Name:         fake.Person().FirstName() + " " + fake.Person().LastName(),
			PasswordHash: hash,
		})
		if errors.Is(err, store.ErrEmailTaken) {
			logging.Debug().Str("email", email).Msg("Demo user already exists")
			continue
		}
		if err != nil {
			logging.Fatal().Err(err).Str("email", email).Msg("Failed to create demo user")
		}

		if _, err := st.GetOrCreateUserContext(ctx, user.ID); err != nil {
			logging.Fatal().Err(err).Str("user_id", user.ID).Msg("Failed to create user context")
		}
		if err := st.UpdatePreferredGenres(ctx, user.ID, pickGenres(1+rand.Intn(3))); err != nil {
			logging.Fatal().Err(err).Str("user_id", user.ID).Msg("Failed to set preferred genres")
		}
		created++
	}

	logging.Info().Int("created", created).Int("requested", *n).Msg("Seeding complete")
}

func pickGenres(count int) []string {
	picked := make([]string, 0, count)
	for _, i := range rand.Perm(len(genres))[:count] {
		picked = append(picked, genres[i])
	}
	return picked
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
