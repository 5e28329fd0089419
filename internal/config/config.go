// Package config loads the process configuration: a YAML file overridden by
// GACHA_* environment variables.
package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/xtding233/gacha-simulator/internal/gacha"
	"github.com/xtding233/gacha-simulator/internal/logger"
	"github.com/xtding233/gacha-simulator/internal/pricing"
	"github.com/xtding233/gacha-simulator/internal/token"
)

// EnvPrefix is the prefix of environment overrides, e.g. GACHA_SERVER_HTTP_ADDR.
const EnvPrefix = "GACHA"

type Config struct {
	Server  ServerConfig     `mapstructure:"server"`
	Log     logger.Config    `mapstructure:"log"`
	Rarity  RarityConfig     `mapstructure:"rarity"`
	Pity    gacha.PityPolicy `mapstructure:"pity"`
	Limits  LimitsConfig     `mapstructure:"limits"`
	Catalog CatalogConfig    `mapstructure:"catalog"`
	Session SessionConfig    `mapstructure:"session"`
	Tokens  token.Token      `mapstructure:"tokens"`
	Shop    pricing.Shop     `mapstructure:"shop"`
}

type ServerConfig struct {
	HTTPAddr     string `mapstructure:"http_addr" validate:"required"`
	GRPCAddr     string `mapstructure:"grpc_addr"` // empty disables the gRPC listener
	Mode         string `mapstructure:"mode" validate:"oneof=debug release test"`
	CookieName   string `mapstructure:"cookie_name" validate:"required"`
	CookieSecure bool   `mapstructure:"cookie_secure"`
	CookieMaxAge int    `mapstructure:"cookie_max_age"` // seconds
}

// RarityConfig lists the tiers explicitly: viper lowercases map keys.
type RarityConfig struct {
	SSR gacha.TierInfo `mapstructure:"ssr"`
	SR  gacha.TierInfo `mapstructure:"sr"`
	R   gacha.TierInfo `mapstructure:"r"`
}

// Table converts the section into a rarity table.
func (r RarityConfig) Table() gacha.RarityTable {
	return gacha.RarityTable{
		gacha.RaritySSR: r.SSR,
		gacha.RaritySR:  r.SR,
		gacha.RarityR:   r.R,
	}
}

// LimitsConfig bounds requests. Enforced by the transports.
type LimitsConfig struct {
	MaxSinglePull    int `mapstructure:"max_single_pull" validate:"min=1"`
	MaxHistorySize   int `mapstructure:"max_history_size" validate:"min=0"`
	MaxReturnResults int `mapstructure:"max_return_results" validate:"min=1"`
}

type CatalogConfig struct {
	Path          string `mapstructure:"path"`
	Watch         bool   `mapstructure:"watch"`
	RemoteURL     string `mapstructure:"remote_url" validate:"omitempty,url"`
	RemoteRetries uint   `mapstructure:"remote_retries"`
}

type SessionConfig struct {
	AutoReset   bool          `mapstructure:"auto_reset"`
	RNGSeed     uint64        `mapstructure:"rng_seed"` // 0 uses the crypto source
	RedisAddr   string        `mapstructure:"redis_addr"`
	RedisDB     int           `mapstructure:"redis_db"`
	RedisPrefix string        `mapstructure:"redis_prefix"`
	RedisTTL    time.Duration `mapstructure:"redis_ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_addr", ":5007")
	v.SetDefault("server.grpc_addr", ":50051")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.cookie_name", "gacha_session_id")
	v.SetDefault("server.cookie_secure", false)
	v.SetDefault("server.cookie_max_age", 30*24*3600)

	lc := logger.DefaultConfig()
	v.SetDefault("log.level", lc.Level)
	v.SetDefault("log.format", lc.Format)
	v.SetDefault("log.development", lc.Development)
	v.SetDefault("log.output_path", lc.OutputPath)
	v.SetDefault("log.max_size_mb", lc.MaxSizeMB)
	v.SetDefault("log.max_backups", lc.MaxBackups)
	v.SetDefault("log.max_age_days", lc.MaxAgeDays)
	v.SetDefault("log.compress", lc.Compress)

	table := gacha.DefaultRarityTable()
	for _, r := range gacha.Rarities() {
		key := "rarity." + strings.ToLower(string(r))
		v.SetDefault(key+".name", table[r].Name)
		v.SetDefault(key+".color", table[r].Color)
		v.SetDefault(key+".probability", table[r].Probability)
	}

	pity := gacha.DefaultPityPolicy()
	v.SetDefault("pity.mode", string(pity.Mode))
	v.SetDefault("pity.soft_pity", pity.SoftPity)
	v.SetDefault("pity.hard_pity", pity.HardPity)
	v.SetDefault("pity.pity_increase", pity.Increase)
	v.SetDefault("pity.target", pity.Target)
	v.SetDefault("pity.easing", string(pity.Easing))

	v.SetDefault("limits.max_single_pull", 100000)
	v.SetDefault("limits.max_history_size", 1000)
	v.SetDefault("limits.max_return_results", 100)

	v.SetDefault("catalog.path", "configs/cards.yaml")
	v.SetDefault("catalog.watch", false)
	v.SetDefault("catalog.remote_url", "")
	v.SetDefault("catalog.remote_retries", 3)

	v.SetDefault("session.auto_reset", true)
	v.SetDefault("session.rng_seed", 0)
	v.SetDefault("session.redis_addr", "")
	v.SetDefault("session.redis_db", 0)
	v.SetDefault("session.redis_prefix", "gacha:session:")
	v.SetDefault("session.redis_ttl", 24*time.Hour)

	v.SetDefault("tokens.name", "Star Stone")
	v.SetDefault("tokens.per_draw", 160)
	v.SetDefault("tokens.per_ten_draw", 1600)

	v.SetDefault("shop.currency", "USD")
	v.SetDefault("shop.tax_rate", 0.0)
}

// Load reads path (optional) and applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
