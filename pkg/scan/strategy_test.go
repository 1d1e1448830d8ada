package scan

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestStrategySuite(t *testing.T) {
	suite.Run(t, new(StrategySuite))
}

type StrategySuite struct {
	suite.Suite
	mockRedis *miniredis.Miniredis
	client    *redis.Client
	pool      Pool
}

func (ts *StrategySuite) SetupTest() {
	ts.mockRedis = miniredis.RunT(ts.T())
	ts.client = redis.NewClient(&redis.Options{
		Addr: ts.mockRedis.Addr(),
	})
	ts.pool = NewPool(ts.client)

	for _, k := range []string{"a", "b", "c", "d", "e"} {
		ts.Require().NoError(ts.mockRedis.Set(k, "v-"+k))
	}
	ts.mockRedis.HSet("myhash", "key1", "value1", "key2", "value2", "key3", "value3")
	_, err := ts.mockRedis.SAdd("myset", "m1", "m2", "m3")
	ts.Require().NoError(err)
	_, err = ts.mockRedis.ZAdd("myzset", 1.5, "z1")
	ts.Require().NoError(err)
	_, err = ts.mockRedis.ZAdd("myzset", 2, "z2")
	ts.Require().NoError(err)
}

func (ts *StrategySuite) TearDownTest() {
	_ = ts.client.Close()
}

func (ts *StrategySuite) TestKeys() {
	keys, err := Collect[string](context.Background(), New[string](ts.pool, Keys(), Params{Count: 2}))
	ts.Require().NoError(err)
	ts.ElementsMatch([]string{"a", "b", "c", "d", "e", "myhash", "myset", "myzset"}, keys)
}

func (ts *StrategySuite) TestKeysWithMatch() {
	keys, err := Collect[string](context.Background(), New[string](ts.pool, Keys(), Params{Count: 2, Match: "my*"}))
	ts.Require().NoError(err)
	ts.ElementsMatch([]string{"myhash", "myset", "myzset"}, keys)
}

func (ts *StrategySuite) TestKeysWithType() {
	keys, err := Collect[string](context.Background(), New[string](ts.pool, Keys(), Params{Type: "hash"}))
	ts.Require().NoError(err)
	ts.ElementsMatch([]string{"myhash"}, keys)
}

func (ts *StrategySuite) TestHash() {
	fields, err := Collect[Field](context.Background(), New[Field](ts.pool, Hash("myhash"), Params{Count: 1}))
	ts.Require().NoError(err)
	ts.ElementsMatch([]Field{
		{Name: "key1", Value: "value1"},
		{Name: "key2", Value: "value2"},
		{Name: "key3", Value: "value3"},
	}, fields)

	fields, err = Collect[Field](context.Background(), New[Field](ts.pool, Hash("myhash"), Params{Match: "key[1-2]"}))
	ts.Require().NoError(err)
	ts.ElementsMatch([]Field{{Name: "key1", Value: "value1"}, {Name: "key2", Value: "value2"}}, fields)
}

func (ts *StrategySuite) TestHashMissingKey() {
	it := New[Field](ts.pool, Hash("nope"), Params{})
	ok, err := it.HasNext(context.Background())
	ts.Require().NoError(err)
	ts.False(ok)
	ts.Equal(Terminal, it.State())
}

func (ts *StrategySuite) TestHashFieldsAndValues() {
	keys, err := Collect[string](context.Background(), New[string](ts.pool, HashFields("myhash"), Params{}))
	ts.Require().NoError(err)
	ts.ElementsMatch([]string{"key1", "key2", "key3"}, keys)

	values, err := Collect[string](context.Background(), New[string](ts.pool, HashValues("myhash"),
		Params{Match: "key[1-2]"}))
	ts.Require().NoError(err)
	ts.ElementsMatch([]string{"value1", "value2"}, values)
}

func (ts *StrategySuite) TestSet() {
	members, err := Collect[string](context.Background(), New[string](ts.pool, Set("myset"), Params{Count: 1}))
	ts.Require().NoError(err)
	ts.ElementsMatch([]string{"m1", "m2", "m3"}, members)
}

func (ts *StrategySuite) TestSortedSet() {
	members, err := Collect[Member](context.Background(), New[Member](ts.pool, SortedSet("myzset"), Params{}))
	ts.Require().NoError(err)
	ts.ElementsMatch([]Member{{Name: "z1", Score: 1.5}, {Name: "z2", Score: 2}}, members)
}

func (ts *StrategySuite) TestWrongTypeIsCommandError() {
	it := New[Field](ts.pool, Hash("myset"), Params{})
	ok, err := it.HasNext(context.Background())
	ts.False(ok)
	ts.Require().Error(err)
	ts.True(IsCommand(err))
	ts.False(IsConnection(err))
}

func (ts *StrategySuite) TestTransientServerErrorsAreConnectionErrors() {
	client := redis.NewClient(&redis.Options{Addr: ts.mockRedis.Addr(), MaxRetries: -1})
	defer client.Close()
	pool := NewPool(client)

	for _, msg := range []string{
		"LOADING Redis is loading the dataset in memory",
		"TRYAGAIN Multiple keys request during rehashing of slot",
		"CLUSTERDOWN The cluster is down",
		"MASTERDOWN Link with MASTER is down",
	} {
		ts.mockRedis.SetError(msg)
		_, err := New[string](pool, Keys(), Params{}).HasNext(context.Background())
		ts.Require().Error(err, msg)
		ts.True(IsConnection(err), msg)
		ts.False(IsCommand(err), msg)
	}
	ts.mockRedis.SetError("")

	ok, err := New[string](pool, Keys(), Params{}).HasNext(context.Background())
	ts.Require().NoError(err)
	ts.True(ok)
}

func (ts *StrategySuite) TestUnreachableIsConnectionError() {
	client := redis.NewClient(&redis.Options{Addr: ts.mockRedis.Addr(), MaxRetries: -1})
	defer client.Close()
	ts.mockRedis.Close()

	it := New[string](NewPool(client), Keys(), Params{})
	ok, err := it.HasNext(context.Background())
	ts.False(ok)
	ts.Require().Error(err)
	ts.True(IsConnection(err))
}

func (ts *StrategySuite) TestConcurrentIteratorsAreIndependent() {
	for i := 0; i < 50; i++ {
		ts.Require().NoError(ts.mockRedis.Set(fmt.Sprintf("user:%02d", i), "x"))
	}

	var wg sync.WaitGroup
	results := make([][]string, 4)
	errs := make([]error, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = Collect[string](context.Background(),
				New[string](ts.pool, Keys(), Params{Count: 5, Match: "user:*"}))
		}(i)
	}
	wg.Wait()

	for i := range results {
		ts.Require().NoError(errs[i])
		ts.Len(results[i], 50)
		ts.ElementsMatch(results[0], results[i])
	}
}

// replyConn answers every command with a canned reply and keeps the last command.
type replyConn struct {
	reply any
	last  redis.Cmder
}

func (c *replyConn) Process(_ context.Context, cmd redis.Cmder) error {
	c.last = cmd
	cmd.(*redis.Cmd).SetVal(c.reply)
	return nil
}

func (c *replyConn) Close() error { return nil }

func TestKeyScan_SendsCursorVerbatim(t *testing.T) {
	conn := &replyConn{reply: []any{"1729", []any{"k1", "k2"}}}
	page, err := Keys().FetchPage(context.Background(), conn, "000042", Params{Count: 2, Match: "k*", Type: "string"})
	require.NoError(t, err)

	assert.Equal(t, []any{"scan", "000042", "match", "k*", "count", int64(2), "type", "string"}, conn.last.Args())
	assert.Equal(t, Cursor("1729"), page.Cursor)
	assert.Equal(t, []string{"k1", "k2"}, page.Elements)
}

func TestSortedSetScan_ParsesScores(t *testing.T) {
	conn := &replyConn{reply: []any{"0", []any{"a", "1.25", "b", "-inf", "c", float64(3)}}}
	page, err := SortedSet("z").FetchPage(context.Background(), conn, StartCursor, Params{})
	require.NoError(t, err)
	require.Len(t, page.Elements, 3)
	assert.Equal(t, Member{Name: "a", Score: 1.25}, page.Elements[0])
	assert.True(t, page.Elements[1].Score < 0)
	assert.Equal(t, float64(3), page.Elements[2].Score)
	assert.Equal(t, []any{"zscan", "z", "0"}, conn.last.Args())
}

func TestStrategies_MalformedReplies(t *testing.T) {
	ctx := context.Background()
	for name, reply := range map[string]any{
		"not an array":     "OK",
		"short array":      []any{"0"},
		"bad cursor":       []any{1.5, []any{}},
		"bad element list": []any{"0", "x"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Keys().FetchPage(ctx, &replyConn{reply: reply}, StartCursor, Params{})
			assert.ErrorIs(t, err, ErrMalformedReply)
		})
	}

	_, err := Hash("h").FetchPage(ctx, &replyConn{reply: []any{"0", []any{"lonely"}}}, StartCursor, Params{})
	assert.ErrorIs(t, err, ErrMalformedReply)

	_, err = SortedSet("z").FetchPage(ctx, &replyConn{reply: []any{"0", []any{"a", "nan?"}}}, StartCursor,
		Params{})
	assert.ErrorIs(t, err, ErrMalformedReply)
}
