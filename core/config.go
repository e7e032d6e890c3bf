package core

import (
	"fmt"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env             string
		Build           string
		Debug           bool
		TestMode        bool
		AppName         string
		SecretKey       string
		FrontendBaseURL string
		DefaultFromName string
		DefaultFromAddr string
		RollbarToken    string
		SendgridApiKey  string
		// validity of password reset tokens
		PasswordResetTimeout time.Duration
		Server               ServerConfig
		Database             DatabaseConfig
		Reports              ReportsConfig
	}

	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		ShutdownTimeout           time.Duration
		DisableReqLogs            bool
	}

	DatabaseConfig struct {
		Engine        string // postgres | pgx | sqlite
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		DSN           string // overrides everything above when set (sqlite file path etc.)
	}

	ReportsConfig struct {
		// number of calendar months of attendance, ending at the exam end date
		AttendanceMonths int
		Timezone         string
	}
)

// Address returns the "host:port" of the database server.
func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, db.Port)
}

func (conf *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: conf.DefaultFromName, Address: conf.DefaultFromAddr}
}

// Location is the timezone report dates are printed in; falls back to UTC.
func (conf *Config) Location() *time.Location {
	if loc, err := time.LoadLocation(conf.Reports.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

// NewConfig loads the configuration of the current ENV (DEV by default).
// Values come from the environment, optionally seeded by config/.env.<env>.
func NewConfig() *Config {
	conf, err := LoadConfig(os.Getenv("ENV"), "")
	if err != nil {
		panic(err)
	}
	return conf
}

// LoadConfig is NewConfig with an explicit env name and project root (cwd when empty).
func LoadConfig(env, root string) (*Config, error) {
	env = strings.ToUpper(CleanString(env))
	if env == "" {
		env = "DEV" // DEV (local; default), TEST, QA, PROD
	}
	if root == "" {
		root, _ = os.Getwd()
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(root, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}

	v := viper.New()
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// defaults
	v.SetDefault("debug", env == "DEV")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "School ERP")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromName", "School ERP")
	v.SetDefault("defaultFromAddr", "noreply@localhost")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("passwordResetTimeout", 3*24*time.Hour)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "schoolerp")
	v.SetDefault("database.user", "schoolerp")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", env == "DEV" || env == "TEST")
	v.SetDefault("database.dsn", "")

	v.SetDefault("reports.attendanceMonths", 2)
	v.SetDefault("reports.timezone", "Asia/Kolkata")

	conf := &Config{
		Env:                  env,
		Build:                v.GetString("build"),
		Debug:                v.GetBool("debug"),
		TestMode:             v.GetBool("testMode"),
		AppName:              v.GetString("appName"),
		SecretKey:            v.GetString("secretKey"),
		FrontendBaseURL:      v.GetString("frontendBaseURL"),
		DefaultFromName:      v.GetString("defaultFromName"),
		DefaultFromAddr:      v.GetString("defaultFromAddr"),
		RollbarToken:         v.GetString("rollbarToken"),
		SendgridApiKey:       v.GetString("sendgridApiKey"),
		PasswordResetTimeout: v.GetDuration("passwordResetTimeout"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Address:                   v.GetString("server.address"),
			DebugHost:                 v.GetString("server.debugHost"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:            v.GetBool("server.disableReqLogs"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			DSN:           v.GetString("database.dsn"),
		},
		Reports: ReportsConfig{
			AttendanceMonths: v.GetInt("reports.attendanceMonths"),
			Timezone:         v.GetString("reports.timezone"),
		},
	}
	if conf.Reports.AttendanceMonths <= 0 {
		return nil, fmt.Errorf("reports.attendanceMonths must be positive (got %d)", conf.Reports.AttendanceMonths)
	}
	return conf, nil
}
