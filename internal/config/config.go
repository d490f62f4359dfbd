package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"

	"nftlend-backend/internal/domain/fee"
	"nftlend-backend/internal/infrastructure/db"
)

type Config struct {
	AppPort string

	DBDriver    string
	PostgresDSN string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs  int
	EventsChannel string

	FacilitatorAddress string
	AdminAddress       string
	EthRPCURL          string
	AssetContracts     []string

	DefaultOriginationFeeRate uint64
	DefaultImprovementRate    uint64

	LogLevel string
	LogDev   bool
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func getenvUint(k string, d uint64) uint64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Load reads the environment. A .env file in the working directory, when
// present, fills in variables that are not already set.
func Load() *Config {
	_ = godotenv.Load()

	c := &Config{
		AppPort:     getenv("APP_PORT", "8080"),
		DBDriver:    getenv("DB_DRIVER", db.DriverMySQL),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		MySQLHost:   getenv("MYSQL_HOST", "mysql"),
		MySQLPort:   getenv("MYSQL_PORT", "3306"),
		MySQLDB:     getenv("MYSQL_DB", "nftlend"),
		MySQLUser:   getenv("MYSQL_USER", "nftlend"),
		MySQLPass:   getenv("MYSQL_PASS", "nftlend"),

		RedisAddr:     getenv("REDIS_ADDR", "redis:6379"),
		RedisDB:       getenvInt("REDIS_DB", 0),
		IdempTTLSecs:  getenvInt("IDEMPOTENCY_TTL_SECONDS", 300),
		EventsChannel: getenv("EVENTS_CHANNEL", "nftlend.events"),

		FacilitatorAddress: os.Getenv("FACILITATOR_ADDRESS"),
		AdminAddress:       os.Getenv("ADMIN_ADDRESS"),
		EthRPCURL:          os.Getenv("ETH_RPC_URL"),
		AssetContracts:     splitList(os.Getenv("ASSET_CONTRACTS")),

		DefaultOriginationFeeRate: getenvUint("DEFAULT_ORIGINATION_FEE_RATE", fee.DefaultOriginationFeeRate),
		DefaultImprovementRate:    getenvUint("DEFAULT_IMPROVEMENT_RATE", fee.DefaultImprovementRate),

		LogLevel: getenv("LOG_LEVEL", "info"),
		LogDev:   getenv("LOG_DEV", "false") == "true",
	}
	return c
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case db.DriverMySQL:
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case db.DriverPostgres:
		if c.PostgresDSN == "" {
			return errors.New("missing POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if err := validAddress("FACILITATOR_ADDRESS", c.FacilitatorAddress); err != nil {
		return err
	}
	if err := validAddress("ADMIN_ADDRESS", c.AdminAddress); err != nil {
		return err
	}
	for _, a := range c.AssetContracts {
		if err := validAddress("ASSET_CONTRACTS", a); err != nil {
			return err
		}
	}
	if c.DefaultOriginationFeeRate > fee.MaxOriginationFeeRate {
		return fmt.Errorf("DEFAULT_ORIGINATION_FEE_RATE %d exceeds %d", c.DefaultOriginationFeeRate, fee.MaxOriginationFeeRate)
	}
	if c.DefaultImprovementRate == 0 {
		return errors.New("DEFAULT_IMPROVEMENT_RATE must be positive")
	}
	return nil
}

func validAddress(key, v string) error {
	if !common.IsHexAddress(v) {
		return fmt.Errorf("invalid %s %q", key, v)
	}
	if common.HexToAddress(v) == (common.Address{}) {
		return fmt.Errorf("%s must not be the zero address", key)
	}
	return nil
}

func (c *Config) Facilitator() common.Address { return common.HexToAddress(c.FacilitatorAddress) }
func (c *Config) Admin() common.Address       { return common.HexToAddress(c.AdminAddress) }

func (c *Config) AssetAddresses() []common.Address {
	out := make([]common.Address, 0, len(c.AssetContracts))
	for _, a := range c.AssetContracts {
		out = append(out, common.HexToAddress(a))
	}
	return out
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

// DSN is the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == db.DriverPostgres {
		return c.PostgresDSN
	}
	return c.MySQLDSN()
}
