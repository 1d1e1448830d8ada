// Command redis-scan prints the keys of a keyspace, or the contents of a hash, set or sorted set, without
// loading them in one reply.
//
//	redis-scan --config config.yaml --flavor hash --key user:42 --match 'addr*'
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/KyberNetwork/kutils/klog"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	kredis "github.com/KyberNetwork/redis-scan/pkg/client/redis"
	"github.com/KyberNetwork/redis-scan/pkg/config"
	"github.com/KyberNetwork/redis-scan/pkg/scan"
)

type options struct {
	configPath string
	flavor     string
	key        string
	match      string
	keyType    string
	count      int64
}

func main() {
	var opts options
	flag.StringVarP(&opts.configPath, "config", "c", "", "path to a yaml config file")
	flag.StringVarP(&opts.flavor, "flavor", "f", "keys", "keys|hash|hash-fields|hash-values|set|zset")
	flag.StringVarP(&opts.key, "key", "k", "", "target key for hash, set and zset scans")
	flag.StringVarP(&opts.match, "match", "m", "", "glob pattern, overrides scan.match")
	flag.StringVarP(&opts.keyType, "type", "t", "", "key type filter for keyspace scans, overrides scan.type")
	flag.Int64VarP(&opts.count, "count", "n", 0, "page size hint, overrides scan.count")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		klog.Errorf(ctx, "redis-scan|flavor=%s|key=%s|err=%v", opts.flavor, opts.key, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.match == "" {
		opts.match = cfg.Scan.Match
	}
	if opts.keyType == "" {
		opts.keyType = cfg.Scan.Type
	}
	if opts.count <= 0 {
		opts.count = cfg.Scan.Count
	}
	if cfg.Scan.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Scan.Timeout)
		defer cancel()
	}

	cfg.Redis.OnUpdate(nil, &cfg.Redis)
	defer cfg.Redis.C.Close()

	n, err := printScan(ctx, cfg.Redis.C, opts, out)
	klog.Infof(ctx, "redis-scan|flavor=%s|key=%s|printed=%d", opts.flavor, opts.key, n)
	return err
}

func printScan(ctx context.Context, c *kredis.Client, opts options, out io.Writer) (int, error) {
	if opts.flavor != "keys" && opts.key == "" {
		return 0, errors.Errorf("--key is required for %s scans", opts.flavor)
	}
	switch opts.flavor {
	case "keys":
		return printAll[string](ctx, c.ScanKeysOfType(opts.count, opts.match, opts.keyType), out, func(k string) string {
			return k
		})
	case "hash":
		return printAll[scan.Field](ctx, c.ScanHash(opts.key, opts.count, opts.match), out, func(f scan.Field) string {
			return f.Name + "\t" + f.Value
		})
	case "hash-fields":
		return printAll[string](ctx, c.ScanHashFields(opts.key, opts.count, opts.match), out, func(f string) string {
			return f
		})
	case "hash-values":
		return printAll[string](ctx, c.ScanHashValues(opts.key, opts.count, opts.match), out, func(v string) string {
			return v
		})
	case "set":
		return printAll[string](ctx, c.ScanSet(opts.key, opts.count, opts.match), out, func(m string) string {
			return m
		})
	case "zset":
		return printAll[scan.Member](ctx, c.ScanSortedSet(opts.key, opts.count, opts.match), out,
			func(m scan.Member) string {
				return fmt.Sprintf("%s\t%g", m.Name, m.Score)
			})
	default:
		return 0, errors.Errorf("unknown flavor %q", opts.flavor)
	}
}

func printAll[T any](ctx context.Context, it scan.Sequence[T], out io.Writer, format func(T) string) (int, error) {
	var n int
	err := scan.ForEach[T](ctx, it, func(v T) error {
		n++
		_, err := fmt.Fprintln(out, format(v))
		return err
	})
	return n, err
}
