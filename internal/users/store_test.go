package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yourusername/todo-forge/internal/apperr"
	"github.com/yourusername/todo-forge/internal/storage"
)

// storeFactories はメモリ版と sqlite3 版の両方に同じテストを流すためのものです。
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store {
			ctx := context.Background()
			db, err := storage.Open(ctx, storage.DriverSQLite, ":memory:")
			if err != nil {
				t.Skipf("sqlite3 unavailable: %v", err)
			}
			t.Cleanup(func() { db.Close() })
			if err := storage.Migrate(ctx, db); err != nil {
				t.Fatalf("Migrate returned error: %v", err)
			}
			return NewSQLStore(db)
		},
	}
}

func newUser(username, email string) *User {
	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: "hash",
		IsActive:     true,
		DateJoined:   time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestStoreUniqueness(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()

			alice := newUser("alice", "Alice@Example.com")
			if err := store.Create(ctx, alice); err != nil {
				t.Fatalf("Create returned error: %v", err)
			}
			if alice.ID == 0 {
				t.Fatal("expected ID to be assigned")
			}

			if err := store.Create(ctx, newUser("alice", "other@example.com")); !errors.Is(err, apperr.ErrDuplicateUsername) {
				t.Fatalf("err = %v, want DUPLICATE_USERNAME", err)
			}
			if err := store.Create(ctx, newUser("alice2", "alice@example.COM")); !errors.Is(err, apperr.ErrDuplicateEmail) {
				t.Fatalf("err = %v, want DUPLICATE_EMAIL", err)
			}
			// username は大文字小文字を区別する
			if err := store.Create(ctx, newUser("Alice", "alice.upper@example.com")); err != nil {
				t.Fatalf("Create with different-case username returned error: %v", err)
			}
		})
	}
}

func TestStoreLookups(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()

			bob := newUser("bob", "Bob@Example.com")
			bob.FirstName = "Bob"
			if err := store.Create(ctx, bob); err != nil {
				t.Fatalf("Create returned error: %v", err)
			}

			got, err := store.GetByEmail(ctx, "BOB@example.com")
			if err != nil {
				t.Fatalf("GetByEmail returned error: %v", err)
			}
			if got.ID != bob.ID || got.FirstName != "Bob" || !got.IsActive {
				t.Fatalf("unexpected user: %+v", got)
			}

			if _, err := store.GetByUsername(ctx, "bob"); err != nil {
				t.Fatalf("GetByUsername returned error: %v", err)
			}
			if _, err := store.GetByUsername(ctx, "BOB"); !apperr.IsNotFound(err) {
				t.Fatalf("GetByUsername(BOB) err = %v, want NOT_FOUND", err)
			}
			if _, err := store.Get(ctx, bob.ID+100); !apperr.IsNotFound(err) {
				t.Fatalf("Get err = %v, want NOT_FOUND", err)
			}
		})
	}
}

func TestStoreNonASCIIEmailIgnoresCase(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()

			eve := newUser("eve", "ÉVE@example.com")
			if err := store.Create(ctx, eve); err != nil {
				t.Fatalf("Create returned error: %v", err)
			}

			for _, email := range []string{"ÉVE@example.com", "éve@example.com", "Éve@EXAMPLE.com"} {
				got, err := store.GetByEmail(ctx, email)
				if err != nil {
					t.Fatalf("GetByEmail(%q) returned error: %v", email, err)
				}
				if got.ID != eve.ID || got.Email != "ÉVE@example.com" {
					t.Fatalf("GetByEmail(%q) = %+v", email, got)
				}
			}

			if err := store.Create(ctx, newUser("eve2", "éve@example.com")); !errors.Is(err, apperr.ErrDuplicateEmail) {
				t.Fatalf("err = %v, want DUPLICATE_EMAIL", err)
			}
		})
	}
}

func TestStoreUpdate(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()

			carol := newUser("carol", "carol@example.com")
			dave := newUser("dave", "dave@example.com")
			store.Create(ctx, carol)
			store.Create(ctx, dave)

			// 自分自身の email を大文字小文字だけ変えるのは許可される
			carol.Email = "CAROL@example.com"
			carol.LastName = "King"
			if err := store.Update(ctx, carol); err != nil {
				t.Fatalf("Update returned error: %v", err)
			}

			carol.Username = "dave"
			if err := store.Update(ctx, carol); !errors.Is(err, apperr.ErrDuplicateUsername) {
				t.Fatalf("err = %v, want DUPLICATE_USERNAME", err)
			}
			carol.Username = "carol"
			carol.Email = "Dave@example.com"
			if err := store.Update(ctx, carol); !errors.Is(err, apperr.ErrDuplicateEmail) {
				t.Fatalf("err = %v, want DUPLICATE_EMAIL", err)
			}

			carol.Email = "carol.k@example.com"
			carol.Username = "carol.k"
			if err := store.Update(ctx, carol); err != nil {
				t.Fatalf("Update returned error: %v", err)
			}
			if _, err := store.GetByUsername(ctx, "carol"); !apperr.IsNotFound(err) {
				t.Fatalf("old username still resolvable: %v", err)
			}
			got, err := store.GetByEmail(ctx, "carol.k@example.com")
			if err != nil || got.LastName != "King" {
				t.Fatalf("GetByEmail = %+v, %v", got, err)
			}

			if err := store.Update(ctx, &User{ID: 999, Username: "x", Email: "x@example.com"}); !apperr.IsNotFound(err) {
				t.Fatalf("Update missing err = %v, want NOT_FOUND", err)
			}
		})
	}
}

func TestPublicViewExcludesSecrets(t *testing.T) {
	u := newUser("erin", "erin@example.com")
	u.ID = 7
	u.FirstName = "Erin"
	u.LastName = "Hale"
	view := u.Public()
	want := PublicView{ID: 7, Username: "erin", Email: "erin@example.com", FirstName: "Erin", LastName: "Hale"}
	if view != want {
		t.Fatalf("Public() = %+v, want %+v", view, want)
	}
}
