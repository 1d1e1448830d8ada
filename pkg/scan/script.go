package scan

import (
	"context"
)

// LuaHscanOnlyKeys runs HSCAN server-side and keeps only field names.
const LuaHscanOnlyKeys = `
	local results = {}
	local scan_result = redis.call('HSCAN', KEYS[1], unpack(ARGV))
	for i = 1, #scan_result[2], 2 do
		table.insert(results, scan_result[2][i])
	end
	return {scan_result[1], results}
`

// LuaHscanOnlyValues runs HSCAN server-side and keeps only values.
const LuaHscanOnlyValues = `
	local results = {}
	local scan_result = redis.call('HSCAN', KEYS[1], unpack(ARGV))
	for i = 2, #scan_result[2], 2 do
		table.insert(results, scan_result[2][i])
	end
	return {scan_result[1], results}
`

// HashScriptScan iterates one half of a hash's field/value pairs through an EVAL'd HSCAN.
type HashScriptScan struct {
	Key    string
	script string
	name   string
}

// HashFields scans only field names of the hash at key.
func HashFields(key string) HashScriptScan {
	return HashScriptScan{Key: key, script: LuaHscanOnlyKeys, name: "hscan_keys"}
}

// HashValues scans only values of the hash at key.
func HashValues(key string) HashScriptScan {
	return HashScriptScan{Key: key, script: LuaHscanOnlyValues, name: "hscan_values"}
}

func (s HashScriptScan) Name() string { return s.name }

func (s HashScriptScan) FetchPage(ctx context.Context, conn Conn, cursor Cursor, params Params) (Page[string],
	error) {
	args := appendParams([]any{"eval", s.script, 1, s.Key, cursor.String()}, params)
	next, elements, err := process(ctx, conn, args...)
	if err != nil {
		return Page[string]{}, err
	}
	values, err := toStrings(elements)
	if err != nil {
		return Page[string]{}, err
	}
	return Page[string]{Cursor: next, Elements: values}, nil
}

var _ Strategy[string] = HashScriptScan{}
