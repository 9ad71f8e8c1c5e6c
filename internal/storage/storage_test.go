package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookborrow-funnel/internal/config"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	t.Run("TakeErases", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, map[string]string{"a": "1", "b": "2"}, time.Minute))

		got, err := store.Take(ctx, "a", "b", "c")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"a": "1", "b": "2"}, got)

		got, err = store.Take(ctx, "a", "b")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("EmptyValueErases", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, map[string]string{"a": "1", "b": "2"}, time.Minute))
		require.NoError(t, store.Put(ctx, map[string]string{"a": "3", "b": ""}, time.Minute))

		got, err := store.Take(ctx, "a", "b")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"a": "3"}, got)
	})

	t.Run("ExpiredIsNotFound", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, map[string]string{"old": "v"}, time.Minute))
		now = now.Add(2 * time.Minute)

		got, err := store.Take(ctx, "old")
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("Sweep", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, map[string]string{"a": "1"}, time.Minute))
		require.NoError(t, store.Put(ctx, map[string]string{"b": "2"}, time.Hour))
		now = now.Add(10 * time.Minute)

		removed, err := store.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)
		assert.Equal(t, 1, store.Len())
	})
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := NewRedisStore(client)

	idKey := "u1:checkout.payment_intent"
	secretKey := "u1:checkout.payment_intent_client_secret"

	t.Run("TakeErases", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, map[string]string{idKey: "pi_1", secretKey: "pi_1_secret_x"}, time.Minute))
		assert.True(t, mr.Exists("hint:"+idKey))
		assert.True(t, mr.Exists("hint:"+secretKey))

		got, err := store.Take(ctx, idKey, secretKey)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{idKey: "pi_1", secretKey: "pi_1_secret_x"}, got)
		assert.False(t, mr.Exists("hint:"+idKey))
		assert.False(t, mr.Exists("hint:"+secretKey))

		got, err = store.Take(ctx, idKey, secretKey)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("EmptyValueErases", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, map[string]string{idKey: "pi_A", secretKey: "pi_A_secret_a"}, time.Minute))
		require.NoError(t, store.Put(ctx, map[string]string{idKey: "pi_B", secretKey: ""}, time.Minute))
		assert.False(t, mr.Exists("hint:"+secretKey))

		got, err := store.Take(ctx, idKey, secretKey)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{idKey: "pi_B"}, got)
	})

	t.Run("ExpiresWithTTL", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, map[string]string{"k": "v"}, time.Minute))
		mr.FastForward(2 * time.Minute)

		got, err := store.Take(ctx, "k")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("ServerDown", func(t *testing.T) {
		mr.SetError("ERR server unavailable")
		defer mr.SetError("")

		_, err := store.Take(ctx, "k")
		assert.Error(t, err)
	})

	t.Run("ConnectRedis", func(t *testing.T) {
		c, err := ConnectRedis(ctx, mr.Addr(), "", 0)
		require.NoError(t, err)
		c.Close()
	})
}

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewPostgresStore(db)
	store.now = func() time.Time { return now }

	t.Run("Put", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO checkout_hints").
			WithArgs("k", "v", now.Add(time.Hour)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, store.Put(ctx, map[string]string{"k": "v"}, time.Hour))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("PutEmptyDeletes", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM checkout_hints WHERE hint_key = \\$1").
			WithArgs("k").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, store.Put(ctx, map[string]string{"k": ""}, time.Hour))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("PutRollsBack", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO checkout_hints").
			WithArgs("k", "v", now.Add(time.Hour)).
			WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		assert.Error(t, store.Put(ctx, map[string]string{"k": "v"}, time.Hour))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("TakeFound", func(t *testing.T) {
		mock.ExpectQuery("DELETE FROM checkout_hints WHERE hint_key = ANY\\(\\$1\\) RETURNING hint_key, hint_value, expires_at").
			WithArgs(pq.Array([]string{"a", "b"})).
			WillReturnRows(sqlmock.NewRows([]string{"hint_key", "hint_value", "expires_at"}).
				AddRow("a", "1", now.Add(time.Minute)).
				AddRow("b", "2", now.Add(time.Minute)))

		got, err := store.Take(ctx, "a", "b")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"a": "1", "b": "2"}, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("TakeMissingAndExpired", func(t *testing.T) {
		mock.ExpectQuery("DELETE FROM checkout_hints").
			WithArgs(pq.Array([]string{"a", "b"})).
			WillReturnRows(sqlmock.NewRows([]string{"hint_key", "hint_value", "expires_at"}).
				AddRow("a", "1", now.Add(-time.Minute)))

		got, err := store.Take(ctx, "a", "b")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("TakeError", func(t *testing.T) {
		mock.ExpectQuery("DELETE FROM checkout_hints").
			WithArgs(pq.Array([]string{"a"})).
			WillReturnError(sql.ErrConnDone)

		_, err := store.Take(ctx, "a")
		assert.Error(t, err)
	})

	t.Run("Sweep", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM checkout_hints WHERE expires_at <= \\$1").
			WithArgs(now).
			WillReturnResult(sqlmock.NewResult(0, 3))

		removed, err := store.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), removed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("Memory", func(t *testing.T) {
		store, closeFn, err := Open(ctx, &config.Config{Hints: config.HintsConfig{Type: "memory"}})
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, store)
		assert.NoError(t, closeFn())
	})

	t.Run("Redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		store, closeFn, err := Open(ctx, &config.Config{Hints: config.HintsConfig{
			Type:  "redis",
			Redis: config.RedisConfig{Addr: mr.Addr()},
		}})
		require.NoError(t, err)
		assert.IsType(t, &RedisStore{}, store)
		assert.NoError(t, closeFn())
	})

	t.Run("Unsupported", func(t *testing.T) {
		_, _, err := Open(ctx, &config.Config{Hints: config.HintsConfig{Type: "etcd"}})
		assert.Error(t, err)
	})
}
