package config

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"time"

	"github.com/KyberNetwork/kutils/klog"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/KyberNetwork/redis-scan/pkg/client"
)

type Config struct {
	Redis client.RedisCfg
	Scan  Scan
}

// Scan holds the defaults the CLI scans with.
type Scan struct {
	Count   int64
	Match   string
	Type    string
	Timeout time.Duration
}

//go:embed default.yaml
var defaultConfig []byte

// LoadConfig reads configPath, or the embedded defaults when it is empty or unreadable, then applies env
// overrides such as REDIS_ADDRS or SCAN_COUNT.
func LoadConfig(configPath string) (Config, error) {
	ctx := context.Background()
	cfg := Config{}
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewBuffer(defaultConfig)); err != nil {
		return Config{}, errors.Wrap(err, "read default config")
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			klog.Warnf(ctx, "LoadConfig|MergeInConfig failed, using defaults|path=%s|err=%v", configPath, err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "unmarshal config")
	}
	klog.Infof(ctx, "LoadConfig|redis.addrs=%v|redis.db=%d|scan.count=%d|scan.match=%q",
		cfg.Redis.Addrs, cfg.Redis.DB, cfg.Scan.Count, cfg.Scan.Match)
	return cfg, nil
}
