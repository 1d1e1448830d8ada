package kredis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBooksRepository(t *testing.T) {
	mockRedis := miniredis.RunT(t)
	client := New(redis.NewClient(&redis.Options{Addr: mockRedis.Addr()}))
	defer client.Close()
	repo := NewBooksRepository(client)
	ctx := context.Background()

	books := []Book{
		{ID: 1, Title: "Dune", Author: "Frank Herbert"},
		{ID: 2, Title: "Hyperion", Author: "Dan Simmons"},
		{ID: 3, Title: "Solaris", Author: "Stanislaw Lem"},
	}
	for _, book := range books {
		require.NoError(t, repo.Save(ctx, book))
	}
	// noise the scan must skip
	require.NoError(t, client.Set(ctx, "book:not-a-number", "{}"))
	_, err := client.SAdd(ctx, "book:index", "1", "2", "3")
	require.NoError(t, err)

	book, err := repo.FindByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, books[1], *book)

	_, err = repo.FindByID(ctx, 42)
	assert.ErrorIs(t, err, ErrBookNotFound)

	var seen []Book
	require.NoError(t, repo.ForEach(ctx, 1, func(b Book) error {
		seen = append(seen, b)
		return nil
	}))
	assert.ElementsMatch(t, books, seen)

	stop := errors.New("stop")
	err = repo.ForEach(ctx, 1, func(Book) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestBooksRepository_CorruptValue(t *testing.T) {
	mockRedis := miniredis.RunT(t)
	client := New(redis.NewClient(&redis.Options{Addr: mockRedis.Addr()}))
	defer client.Close()
	require.NoError(t, mockRedis.Set("book:7", "not json"))

	_, err := NewBooksRepository(client).FindByID(context.Background(), 7)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBookNotFound)
}
