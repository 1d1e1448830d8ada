package scan

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// appendParams appends MATCH/COUNT the same way for every flavor.
func appendParams(args []any, params Params) []any {
	if params.Match != "" {
		args = append(args, "match", params.Match)
	}
	if params.Count > 0 {
		args = append(args, "count", params.Count)
	}
	return args
}

// process runs a raw SCAN-family command and splits the reply into the next cursor and the flat element list.
func process(ctx context.Context, conn Conn, args ...any) (Cursor, []any, error) {
	cmd := redis.NewCmd(ctx, args...)
	_ = conn.Process(ctx, cmd)
	reply, err := cmd.Result()
	if err != nil {
		return "", nil, err
	}
	parts, ok := reply.([]any)
	if !ok || len(parts) != 2 {
		return "", nil, errors.Wrapf(ErrMalformedReply, "%v: expected [cursor, elements], got %T", args[0], reply)
	}
	cursor, err := toCursor(parts[0])
	if err != nil {
		return "", nil, err
	}
	elements, ok := parts[1].([]any)
	if !ok {
		return "", nil, errors.Wrapf(ErrMalformedReply, "%v: elements are %T", args[0], parts[1])
	}
	return cursor, elements, nil
}

func toCursor(v any) (Cursor, error) {
	switch c := v.(type) {
	case string:
		return Cursor(c), nil
	case int64:
		return Cursor(strconv.FormatInt(c, 10)), nil
	default:
		return "", errors.Wrapf(ErrMalformedReply, "cursor is %T", v)
	}
}

func toString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case int64:
		return strconv.FormatInt(s, 10), nil
	default:
		return "", errors.Wrapf(ErrMalformedReply, "element is %T", v)
	}
}

func toStrings(elements []any) ([]string, error) {
	out := make([]string, 0, len(elements))
	for _, e := range elements {
		s, err := toString(e)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func toFields(elements []any) ([]Field, error) {
	if len(elements)%2 != 0 {
		return nil, errors.Wrapf(ErrMalformedReply, "odd number of hash elements: %d", len(elements))
	}
	out := make([]Field, 0, len(elements)/2)
	for i := 0; i < len(elements); i += 2 {
		name, err := toString(elements[i])
		if err != nil {
			return nil, err
		}
		value, err := toString(elements[i+1])
		if err != nil {
			return nil, err
		}
		out = append(out, Field{Name: name, Value: value})
	}
	return out, nil
}

func toMembers(elements []any) ([]Member, error) {
	if len(elements)%2 != 0 {
		return nil, errors.Wrapf(ErrMalformedReply, "odd number of sorted set elements: %d", len(elements))
	}
	out := make([]Member, 0, len(elements)/2)
	for i := 0; i < len(elements); i += 2 {
		name, err := toString(elements[i])
		if err != nil {
			return nil, err
		}
		score, err := toScore(elements[i+1])
		if err != nil {
			return nil, err
		}
		out = append(out, Member{Name: name, Score: score})
	}
	return out, nil
}

func toScore(v any) (float64, error) {
	switch s := v.(type) {
	case float64:
		return s, nil
	case int64:
		return float64(s), nil
	case string:
		score, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, errors.Wrapf(ErrMalformedReply, "score %q: %v", s, err)
		}
		return score, nil
	default:
		return 0, errors.Wrapf(ErrMalformedReply, "score is %T", v)
	}
}
