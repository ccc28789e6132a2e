package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kat-co/vala"
	"github.com/spf13/viper"
)

type Config struct {
	Debug    bool
	TestMode bool
	Env      string // DEV (default), TEST, QA, PROD
	Build    string

	AppName         string
	SecretKey       []byte
	FrontendBaseURL string
	DefaultFromName string
	DefaultFromAddr string
	SendgridApiKey  string
	RollbarToken    string

	PasswordResetTimeoutDelta time.Duration

	Server struct {
		Host                      string
		Addr                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	Database struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		DisableTLS    bool
	}

	// School is the geofence against which position samples are tested.
	School struct {
		Name                string
		Latitude            float64
		Longitude           float64
		GeofenceRadiusM     float64
		AcceptableAccuracyM float64
	}

	// Geoloc holds the position acquisition budgets handed to clients.
	Geoloc struct {
		AccuracyGoalM float64
		MaxAttempts   int
		TimeoutMs     int
	}
}

func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Chekinout")
	v.SetDefault("secretKey", "w3+2x(ym$&ncb%_+-p5f&2ye#&13t$&#ct=oh^1qw=&i%^sekolah")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromName", "Chekinout")
	v.SetDefault("defaultFromAddr", "noreply@localhost")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddr", ":8000")
	v.SetDefault("serverDebugHost", "localhost:4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("databaseEngine", "postgres")
	v.SetDefault("databaseName", "chekinout")
	v.SetDefault("databaseUser", "chekinout")
	v.SetDefault("databasePassword", "chekinout")
	v.SetDefault("databaseAdminUser", "postgres")
	v.SetDefault("databaseAdminPassword", "")
	v.SetDefault("databaseHost", "localhost")
	v.SetDefault("databasePort", "5432")
	v.SetDefault("databaseDisableTLS", true)

	v.SetDefault("schoolName", "Sekolah")
	v.SetDefault("schoolLatitude", -6.2)
	v.SetDefault("schoolLongitude", 106.816666)
	v.SetDefault("schoolGeofenceRadiusM", 200.0)
	v.SetDefault("schoolAcceptableAccuracyM", 500.0)

	v.SetDefault("geolocAccuracyGoalM", 100.0)
	v.SetDefault("geolocMaxAttempts", 10)
	v.SetDefault("geolocTimeoutMs", 45000)

	env := os.Getenv("ENV")
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Debug:    v.GetBool("debug"),
		TestMode: env == "TEST",
		Env:      env,
		Build:    v.GetString("build"),

		AppName:         v.GetString("appName"),
		SecretKey:       []byte(v.GetString("secretKey")),
		FrontendBaseURL: v.GetString("frontendBaseURL"),
		DefaultFromName: v.GetString("defaultFromName"),
		DefaultFromAddr: v.GetString("defaultFromAddr"),
		SendgridApiKey:  v.GetString("sendgridApiKey"),
		RollbarToken:    v.GetString("rollbarToken"),

		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
	}

	conf.Server.Host = v.GetString("serverHost")
	conf.Server.Addr = v.GetString("serverAddr")
	conf.Server.DebugHost = v.GetString("serverDebugHost")
	conf.Server.ShutdownTimeout = v.GetDuration("serverShutdownTimeout")
	conf.Server.JWTExpirationDelta = v.GetDuration("jwtExpirationDelta")
	conf.Server.JWTRefreshExpirationDelta = v.GetDuration("jwtRefreshExpirationDelta")

	conf.Database.Engine = v.GetString("databaseEngine")
	conf.Database.Name = v.GetString("databaseName")
	conf.Database.User = v.GetString("databaseUser")
	conf.Database.Password = v.GetString("databasePassword")
	conf.Database.AdminUser = v.GetString("databaseAdminUser")
	conf.Database.AdminPassword = v.GetString("databaseAdminPassword")
	conf.Database.Host = v.GetString("databaseHost")
	conf.Database.Port = v.GetString("databasePort")
	conf.Database.DisableTLS = v.GetBool("databaseDisableTLS")

	conf.School.Name = v.GetString("schoolName")
	conf.School.Latitude = v.GetFloat64("schoolLatitude")
	conf.School.Longitude = v.GetFloat64("schoolLongitude")
	conf.School.GeofenceRadiusM = v.GetFloat64("schoolGeofenceRadiusM")
	conf.School.AcceptableAccuracyM = v.GetFloat64("schoolAcceptableAccuracyM")

	conf.Geoloc.AccuracyGoalM = v.GetFloat64("geolocAccuracyGoalM")
	conf.Geoloc.MaxAttempts = v.GetInt("geolocMaxAttempts")
	conf.Geoloc.TimeoutMs = v.GetInt("geolocTimeoutMs")

	if err := conf.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	return conf
}

// Validate checks that required settings are present and sane.
func (conf *Config) Validate() error {
	return vala.BeginValidation().Validate(
		vala.StringNotEmpty(string(conf.SecretKey), "secretKey"),
		vala.StringNotEmpty(conf.AppName, "appName"),
		vala.StringNotEmpty(conf.Database.Engine, "databaseEngine"),
		vala.StringNotEmpty(conf.Database.Name, "databaseName"),
		vala.GreaterThan(int(conf.School.GeofenceRadiusM), 0, "schoolGeofenceRadiusM"),
		vala.GreaterThan(int(conf.School.AcceptableAccuracyM), 0, "schoolAcceptableAccuracyM"),
		vala.GreaterThan(conf.Geoloc.MaxAttempts, 0, "geolocMaxAttempts"),
		vala.GreaterThan(conf.Geoloc.TimeoutMs, 0, "geolocTimeoutMs"),
	).Check()
}

func (conf *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: conf.DefaultFromName, Address: conf.DefaultFromAddr}
}

func (conf *Config) DatabaseAddress() string {
	return conf.Database.Host + ":" + conf.Database.Port
}
