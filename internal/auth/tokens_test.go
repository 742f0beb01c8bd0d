package auth

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/yourusername/todo-forge/internal/apperr"
	"github.com/yourusername/todo-forge/internal/storage"
)

// tokenStoreFactories はメモリ版・Redis 版・sqlite3 版に同じテストを流すためのものです。
func tokenStoreFactories() map[string]func(t *testing.T) TokenStore {
	return map[string]func(t *testing.T) TokenStore{
		"memory": func(t *testing.T) TokenStore { return NewMemoryTokenStore() },
		"redis": func(t *testing.T) TokenStore {
			mr := miniredis.RunT(t)
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { rdb.Close() })
			return NewRedisTokenStore(rdb)
		},
		"sqlite": func(t *testing.T) TokenStore {
			ctx := context.Background()
			db, err := storage.Open(ctx, storage.DriverSQLite, ":memory:")
			if err != nil {
				t.Skipf("sqlite3 unavailable: %v", err)
			}
			t.Cleanup(func() { db.Close() })
			if err := storage.Migrate(ctx, db); err != nil {
				t.Fatalf("Migrate returned error: %v", err)
			}
			// auth_tokens.user_id は users を参照するので先にユーザーを作る
			for _, name := range []string{"alice", "bob"} {
				_, err := db.ExecContext(ctx, db.Rebind(`INSERT INTO users
					(username, email, email_key, first_name, last_name, password_hash, is_active, date_joined)
					VALUES (?, ?, ?, '', '', 'hash', 1, CURRENT_TIMESTAMP)`), name, name+"@example.com", name+"@example.com")
				if err != nil {
					t.Fatalf("failed to seed user: %v", err)
				}
			}
			return NewSQLTokenStore(db)
		},
	}
}

func TestTokenStoreGetOrCreate(t *testing.T) {
	for name, factory := range tokenStoreFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()

			first, err := store.GetOrCreate(ctx, 1)
			if err != nil {
				t.Fatalf("GetOrCreate returned error: %v", err)
			}
			if len(first) != tokenBytes*2 {
				t.Fatalf("token length = %d, want %d", len(first), tokenBytes*2)
			}
			second, err := store.GetOrCreate(ctx, 1)
			if err != nil {
				t.Fatalf("GetOrCreate returned error: %v", err)
			}
			if first != second {
				t.Fatalf("token changed: %q -> %q", first, second)
			}

			other, err := store.GetOrCreate(ctx, 2)
			if err != nil {
				t.Fatalf("GetOrCreate returned error: %v", err)
			}
			if other == first {
				t.Fatal("different users must get different tokens")
			}

			userID, err := store.Lookup(ctx, first)
			if err != nil {
				t.Fatalf("Lookup returned error: %v", err)
			}
			if userID != 1 {
				t.Fatalf("user id = %d, want 1", userID)
			}
		})
	}
}

func TestTokenStoreDelete(t *testing.T) {
	for name, factory := range tokenStoreFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()

			token, err := store.GetOrCreate(ctx, 1)
			if err != nil {
				t.Fatalf("GetOrCreate returned error: %v", err)
			}
			if err := store.Delete(ctx, token); err != nil {
				t.Fatalf("Delete returned error: %v", err)
			}
			if _, err := store.Lookup(ctx, token); !apperr.IsNotFound(err) {
				t.Fatalf("err = %v, want NOT_FOUND", err)
			}
			if err := store.Delete(ctx, token); !apperr.IsNotFound(err) {
				t.Fatalf("err = %v, want NOT_FOUND", err)
			}

			fresh, err := store.GetOrCreate(ctx, 1)
			if err != nil {
				t.Fatalf("GetOrCreate returned error: %v", err)
			}
			if fresh == token {
				t.Fatal("expected a fresh token after delete")
			}
		})
	}
}

func TestTokenStoreConcurrentGetOrCreate(t *testing.T) {
	for name, factory := range tokenStoreFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()

			const workers = 8
			var wg sync.WaitGroup
			results := make([]string, workers)
			errs := make([]error, workers)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i], errs[i] = store.GetOrCreate(ctx, 1)
				}(i)
			}
			wg.Wait()

			for i := 0; i < workers; i++ {
				if errs[i] != nil {
					t.Fatalf("worker %d: %v", i, errs[i])
				}
				if results[i] != results[0] {
					t.Fatalf("worker %d got %q, want %q", i, results[i], results[0])
				}
			}
		})
	}
}
