package kredis

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const bookKeyPrefix = "book:"

var ErrBookNotFound = errors.New("book not found")

type Book struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// BooksRepository stores books as JSON strings under book:<id>.
type BooksRepository struct {
	c *Client
}

func NewBooksRepository(c *Client) *BooksRepository {
	return &BooksRepository{c: c}
}

func bookKey(id int64) string {
	return bookKeyPrefix + strconv.FormatInt(id, 10)
}

func (r *BooksRepository) Save(ctx context.Context, book Book) error {
	data, err := json.Marshal(book)
	if err != nil {
		return errors.Wrapf(err, "BooksRepository.Save|id=%d", book.ID)
	}
	return r.c.Set(ctx, bookKey(book.ID), string(data))
}

func (r *BooksRepository) FindByID(ctx context.Context, id int64) (*Book, error) {
	data, err := r.c.Get(ctx, bookKey(id))
	if errors.Is(err, redis.Nil) {
		return nil, ErrBookNotFound
	} else if err != nil {
		return nil, err
	}
	var book Book
	if err = json.Unmarshal([]byte(data), &book); err != nil {
		return nil, errors.Wrapf(err, "BooksRepository.FindByID|id=%d", id)
	}
	return &book, nil
}

// ForEach scans every book key and calls fn with the decoded book. Books deleted between the scan and the
// read are skipped.
func (r *BooksRepository) ForEach(ctx context.Context, count int64, fn func(Book) error) error {
	it := r.c.ScanKeysOfType(count, bookKeyPrefix+"*", "string")
	for {
		ok, err := it.HasNext(ctx)
		if err != nil || !ok {
			return err
		}
		key, err := it.Next()
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(key, bookKeyPrefix), 10, 64)
		if err != nil {
			continue
		}
		book, err := r.FindByID(ctx, id)
		if errors.Is(err, ErrBookNotFound) {
			continue
		} else if err != nil {
			return err
		}
		if err = fn(*book); err != nil {
			return err
		}
	}
}
