package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	strutil "travelproof/pkg/platform/strings"
)

// Environment names the deployment mode. Anything other than production is
// treated as development.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// Network selects the one active chain.
type Network string

const (
	NetworkTestnet Network = "testnet"
	NetworkMainnet Network = "mainnet"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	Environment Environment
	CORSOrigins []string
	LogLevel    string
	LogFormat   string

	Verifier VerifierConfig
	Store    StoreConfig
	Redis    RedisConfig
	Chain    ChainConfig
	Kafka    KafkaConfig
}

// VerifierConfig configures the proof verification backend.
type VerifierConfig struct {
	URL     string
	Scope   string
	Timeout time.Duration
	// AllowInsecure enables the permissive verifier when the real one cannot be
	// built. Ignored in production.
	AllowInsecure bool
	// DevPlaceholders lets the record lookup synthesize a placeholder record in
	// development. Ignored in production.
	DevPlaceholders bool
}

// StoreConfig selects the verification record backend.
type StoreConfig struct {
	Backend     string // memory, redis, postgres
	DatabaseURL string
}

// RedisConfig configures the shared Redis client.
type RedisConfig struct {
	URL          string
	Namespace    string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ChainConfig holds both networks; Network picks the active one.
type ChainConfig struct {
	Network          Network
	TestnetRPCURL    string
	MainnetRPCURL    string
	TestnetContract  string
	MainnetContract  string
	MinterPrivateKey string
	VisitedCacheTTL  time.Duration
	CallTimeout      time.Duration
}

// KafkaConfig configures the issuance event publisher. Empty brokers means
// events are only logged.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// RPCURL returns the RPC endpoint of the active network.
func (c ChainConfig) RPCURL() string {
	if c.Network == NetworkMainnet {
		return c.MainnetRPCURL
	}
	return c.TestnetRPCURL
}

// ContractAddress returns the contract address of the active network.
func (c ChainConfig) ContractAddress() string {
	if c.Network == NetworkMainnet {
		return c.MainnetContract
	}
	return c.TestnetContract
}

// ErrIssuanceNotConfigured is returned when the signing key or contract address
// for the active network is missing.
var ErrIssuanceNotConfigured = errors.New("issuance not configured")

// IssuanceReady reports whether minting can be attempted at all.
func (c ChainConfig) IssuanceReady() error {
	var missing []string
	if c.RPCURL() == "" {
		missing = append(missing, "rpc url")
	}
	if c.ContractAddress() == "" {
		missing = append(missing, "contract address")
	}
	if c.MinterPrivateKey == "" {
		missing = append(missing, "minter private key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s for %s", ErrIssuanceNotConfigured, strings.Join(missing, ", "), c.Network)
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (s Server) IsProduction() bool {
	return s.Environment == EnvProduction
}

// FailOpenAllowed reports whether the permissive verifier may be used.
func (s Server) FailOpenAllowed() bool {
	return !s.IsProduction() && s.Verifier.AllowInsecure
}

// PlaceholdersAllowed reports whether development placeholder records may be created.
func (s Server) PlaceholdersAllowed() bool {
	return !s.IsProduction() && s.Verifier.DevPlaceholders
}

// Validate rejects configurations that cannot run safely.
func (s Server) Validate() error {
	switch s.Chain.Network {
	case NetworkTestnet, NetworkMainnet:
	default:
		return fmt.Errorf("unknown chain network %q", s.Chain.Network)
	}
	switch s.Store.Backend {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("unknown record store %q", s.Store.Backend)
	}
	if s.Store.Backend == "redis" && s.Redis.URL == "" {
		return errors.New("REDIS_URL is required for the redis record store")
	}
	if s.Store.Backend == "postgres" && s.Store.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for the postgres record store")
	}
	if s.IsProduction() && s.Verifier.URL == "" {
		return errors.New("VERIFIER_URL is required in production")
	}
	return nil
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	env := EnvDevelopment
	if strings.EqualFold(os.Getenv("TRAVELPROOF_ENV"), string(EnvProduction)) {
		env = EnvProduction
	}

	return Server{
		Addr:        getEnv("TRAVELPROOF_ADDR", ":8080"),
		Environment: env,
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		Verifier: VerifierConfig{
			URL:             os.Getenv("VERIFIER_URL"),
			Scope:           getEnv("VERIFIER_SCOPE", "travelproof"),
			Timeout:         getDuration("VERIFIER_TIMEOUT", 10*time.Second),
			AllowInsecure:   getBool("ALLOW_INSECURE_VERIFIER", false),
			DevPlaceholders: getBool("DEV_PLACEHOLDER_RECORDS", false),
		},
		Store: StoreConfig{
			Backend:     getEnv("RECORD_STORE", "memory"),
			DatabaseURL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			Namespace:    getEnv("REDIS_NAMESPACE", "travelproof"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Chain: ChainConfig{
			Network:          Network(strings.ToLower(getEnv("CHAIN_NETWORK", string(NetworkTestnet)))),
			TestnetRPCURL:    os.Getenv("TESTNET_RPC_URL"),
			MainnetRPCURL:    os.Getenv("MAINNET_RPC_URL"),
			TestnetContract:  os.Getenv("TESTNET_CONTRACT_ADDRESS"),
			MainnetContract:  os.Getenv("MAINNET_CONTRACT_ADDRESS"),
			MinterPrivateKey: os.Getenv("MINTER_PRIVATE_KEY"),
			VisitedCacheTTL:  getDuration("VISITED_CACHE_TTL", 5*time.Minute),
			CallTimeout:      getDuration("CHAIN_CALL_TIMEOUT", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "travelproof.issuance"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	return strutil.SplitList(v)
}
