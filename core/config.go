package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address         string
		Host            string
		DebugHost       string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Engine              string // postgres | memory
		Host                string
		Port                string
		Name                string
		User                string
		Password            string
		AdminUser           string
		AdminPassword       string
		DisableTLS          bool
		SerializeGridWrites bool
	}

	JobsConfig struct {
		Enabled            bool
		WorkedHoursSpec    string
		TrialPromotionSpec string
		ExpenseOverdueSpec string
		ExpenseResetSpec   string
		Timeout            time.Duration
	}

	Config struct {
		Env      string
		Build    string
		Debug    bool
		TestMode bool
		WorkDir  string

		AppName                   string
		SecretKey                 string
		JWTExpirationDelta        time.Duration
		PasswordResetTimeoutDelta time.Duration
		DefaultFromEmail          mail.Address
		FrontendBaseURL           string
		APIBaseURL                string
		Timezone                  string

		EnrollmentTax    float64
		ContractTokenTTL time.Duration
		SettingsCacheTTL time.Duration

		RollbarToken   string
		SendgridAPIKey string

		Server   ServerConfig
		Database DatabaseConfig
		Jobs     JobsConfig
	}
)

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

// NewConfig reads the configuration of the current environment (ENV) from the
// process environment and, when present, from config/.env.<env>.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Lune")
	v.SetDefault("secretKey", "f6w!k2#x9)q=zr1p_u4+c@8m$n0h&vj3(a7y-e5*bs")
	v.SetDefault("jwtExpirationDelta", 24*time.Hour)
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	v.SetDefault("defaultFromEmail", "Lune <noreply@localhost>")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("apiBaseURL", "http://localhost:8000/v1")
	v.SetDefault("timezone", "America/Sao_Paulo")
	v.SetDefault("enrollmentTax", 100.0)
	v.SetDefault("contractTokenTTL", 24*time.Hour)
	v.SetDefault("settingsCacheTTL", 10*time.Minute)
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridAPIKey", "")

	v.SetDefault("server_address", ":8000")
	v.SetDefault("server_host", "http://localhost:8000")
	v.SetDefault("server_debugHost", ":4000")
	v.SetDefault("server_readTimeout", 5*time.Second)
	v.SetDefault("server_writeTimeout", 5*time.Second)
	v.SetDefault("server_shutdownTimeout", 5*time.Second)

	v.SetDefault("db_engine", "postgres")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_name", "lune")
	v.SetDefault("db_user", "lune")
	v.SetDefault("db_password", "lune")
	v.SetDefault("db_adminUser", "postgres")
	v.SetDefault("db_adminPassword", "postgres")
	v.SetDefault("db_disableTLS", true)
	v.SetDefault("db_serializeGridWrites", true)

	v.SetDefault("jobs_enabled", true)
	v.SetDefault("jobs_workedHoursSpec", "0 0 * * *")
	v.SetDefault("jobs_trialPromotionSpec", "5 0 * * *")
	v.SetDefault("jobs_expenseOverdueSpec", "10 0 * * *")
	v.SetDefault("jobs_expenseResetSpec", "15 0 1 * *")
	v.SetDefault("jobs_timeout", 2*time.Minute)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
		v.SetDefault("db_engine", "memory")
		v.SetDefault("jobs_enabled", false)
	case "QA", "PROD":
		v.SetDefault("debug", false)
	}
	v.SetEnvPrefix(env)

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	fromEmail, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}

	return &Config{
		Env:      env,
		Build:    v.GetString("build"),
		Debug:    v.GetBool("debug"),
		TestMode: v.GetBool("testMode"),
		WorkDir:  wd,

		AppName:                   v.GetString("appName"),
		SecretKey:                 v.GetString("secretKey"),
		JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		DefaultFromEmail:          *fromEmail,
		FrontendBaseURL:           strings.TrimRight(v.GetString("frontendBaseURL"), "/"),
		APIBaseURL:                strings.TrimRight(v.GetString("apiBaseURL"), "/"),
		Timezone:                  v.GetString("timezone"),

		EnrollmentTax:    v.GetFloat64("enrollmentTax"),
		ContractTokenTTL: v.GetDuration("contractTokenTTL"),
		SettingsCacheTTL: v.GetDuration("settingsCacheTTL"),

		RollbarToken:   v.GetString("rollbarToken"),
		SendgridAPIKey: v.GetString("sendgridAPIKey"),

		Server: ServerConfig{
			Address:         v.GetString("server_address"),
			Host:            v.GetString("server_host"),
			DebugHost:       v.GetString("server_debugHost"),
			ReadTimeout:     v.GetDuration("server_readTimeout"),
			WriteTimeout:    v.GetDuration("server_writeTimeout"),
			ShutdownTimeout: v.GetDuration("server_shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:              v.GetString("db_engine"),
			Host:                v.GetString("db_host"),
			Port:                v.GetString("db_port"),
			Name:                v.GetString("db_name"),
			User:                v.GetString("db_user"),
			Password:            v.GetString("db_password"),
			AdminUser:           v.GetString("db_adminUser"),
			AdminPassword:       v.GetString("db_adminPassword"),
			DisableTLS:          v.GetBool("db_disableTLS"),
			SerializeGridWrites: v.GetBool("db_serializeGridWrites"),
		},
		Jobs: JobsConfig{
			Enabled:            v.GetBool("jobs_enabled"),
			WorkedHoursSpec:    v.GetString("jobs_workedHoursSpec"),
			TrialPromotionSpec: v.GetString("jobs_trialPromotionSpec"),
			ExpenseOverdueSpec: v.GetString("jobs_expenseOverdueSpec"),
			ExpenseResetSpec:   v.GetString("jobs_expenseResetSpec"),
			Timeout:            v.GetDuration("jobs_timeout"),
		},
	}
}

// NewTestConfig returns a Config suited for tests: in-memory storage, no jobs, no external services.
func NewTestConfig() *Config {
	return &Config{
		Env:                       "TEST",
		Build:                     "test",
		Debug:                     true,
		TestMode:                  true,
		AppName:                   "Lune",
		SecretKey:                 "test-secret",
		JWTExpirationDelta:        24 * time.Hour,
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		DefaultFromEmail:          mail.Address{Name: "Lune", Address: "noreply@lune.test"},
		FrontendBaseURL:           "http://front.lune.test",
		APIBaseURL:                "http://api.lune.test/v1",
		Timezone:                  "America/Sao_Paulo",
		EnrollmentTax:             100,
		ContractTokenTTL:          24 * time.Hour,
		SettingsCacheTTL:          time.Minute,
		Server:                    ServerConfig{ShutdownTimeout: time.Second},
		Database:                  DatabaseConfig{Engine: "memory", SerializeGridWrites: true},
	}
}
