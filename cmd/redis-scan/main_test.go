package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	srv := miniredis.RunT(t)
	t.Setenv("REDIS_ADDRS", srv.Addr())
	require.NoError(t, srv.Set("user:1", "a"))
	require.NoError(t, srv.Set("user:2", "b"))
	require.NoError(t, srv.Set("order:1", "c"))
	srv.HSet("profile", "name", "ada", "lang", "go")
	_, err := srv.ZAdd("rank", 3, "ada")
	require.NoError(t, err)

	for name, tc := range map[string]struct {
		opts options
		want []string
	}{
		"keys":        {options{flavor: "keys", match: "user:*", count: 1}, []string{"user:1", "user:2"}},
		"typed keys":  {options{flavor: "keys", keyType: "hash"}, []string{"profile"}},
		"hash":        {options{flavor: "hash", key: "profile"}, []string{"lang\tgo", "name\tada"}},
		"hash-fields": {options{flavor: "hash-fields", key: "profile", match: "n*"}, []string{"name"}},
		"zset":        {options{flavor: "zset", key: "rank"}, []string{"ada\t3"}},
	} {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, run(context.Background(), tc.opts, &out))
			assert.ElementsMatch(t, tc.want, strings.Split(strings.TrimSpace(out.String()), "\n"))
		})
	}
}

func TestRun_Errors(t *testing.T) {
	srv := miniredis.RunT(t)
	t.Setenv("REDIS_ADDRS", srv.Addr())

	err := run(context.Background(), options{flavor: "set"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "--key is required")

	err = run(context.Background(), options{flavor: "list", key: "x"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "unknown flavor")
}
