package config

import (
	"errors"
	"fmt"
	"log"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrConfigInvalid is returned when required settings are missing or wrong.
// The process must not start with it.
var ErrConfigInvalid = errors.New("invalid configuration")

// Store backends.
const (
	BackendFirebase = "firebase"
	BackendInfluxDB = "influxdb"
)

// DefaultReadingsPath is the device node served when READINGS_PATH is unset.
const DefaultReadingsPath = "/UsersData/N5GOhtaSNhOkN2eXtA0sMhWss4I2/readings"

// FirebaseConfig holds the Firebase project settings.
type FirebaseConfig struct {
	ProjectID         string
	AppID             string
	DatabaseURL       string
	APIKey            string
	StorageBucket     string
	LocationID        string
	AuthDomain        string
	MessagingSenderID string
	MeasurementID     string
	AuthToken         string
}

// InfluxDBConfig holds the InfluxDB connection settings.
type InfluxDBConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Config holds the application's configuration.
type Config struct {
	Port               string
	ReadingsPath       string
	StoreBackend       string
	StoreTimeout       time.Duration
	CORSAllowedOrigins []string
	Firebase           FirebaseConfig
	InfluxDB           InfluxDBConfig
}

// LoadConfig loads .env when present, then reads the configuration from the
// environment.
func LoadConfig() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, relying on system environment variables")
	}
	return FromEnvironment()
}

// FromEnvironment reads and validates the configuration from environment
// variables only.
func FromEnvironment() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "3000")
	v.SetDefault("READINGS_PATH", DefaultReadingsPath)
	v.SetDefault("STORE_BACKEND", BackendFirebase)
	v.SetDefault("STORE_TIMEOUT", "0s")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	storeTimeout, err := parseTimeout(v.GetString("STORE_TIMEOUT"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:               v.GetString("PORT"),
		ReadingsPath:       v.GetString("READINGS_PATH"),
		StoreBackend:       strings.ToLower(strings.TrimSpace(v.GetString("STORE_BACKEND"))),
		StoreTimeout:       storeTimeout,
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		Firebase: FirebaseConfig{
			ProjectID:         v.GetString("FIREBASE_PROJECT_ID"),
			AppID:             v.GetString("FIREBASE_APP_ID"),
			DatabaseURL:       v.GetString("FIREBASE_DATABASE_URL"),
			APIKey:            v.GetString("FIREBASE_API_KEY"),
			StorageBucket:     v.GetString("FIREBASE_STORAGE_BUCKET"),
			LocationID:        v.GetString("FIREBASE_LOCATION_ID"),
			AuthDomain:        v.GetString("FIREBASE_AUTH_DOMAIN"),
			MessagingSenderID: v.GetString("FIREBASE_MESSAGING_SENDER_ID"),
			MeasurementID:     v.GetString("FIREBASE_MEASUREMENT_ID"),
			AuthToken:         v.GetString("FIREBASE_AUTH_TOKEN"),
		},
		InfluxDB: InfluxDBConfig{
			URL:    v.GetString("INFLUXDB_URL"),
			Token:  v.GetString("INFLUXDB_TOKEN"),
			Org:    v.GetString("INFLUXDB_ORG"),
			Bucket: v.GetString("INFLUXDB_BUCKET"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// parseTimeout reads a Go duration such as "5s" or "1500ms". Empty means no
// timeout. Bare numbers and negative values are rejected.
func parseTimeout(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: STORE_TIMEOUT %q is not a duration (e.g. 5s)", ErrConfigInvalid, value)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: STORE_TIMEOUT %q is negative", ErrConfigInvalid, value)
	}
	return d, nil
}

// Validate checks that every setting the selected backend needs is present.
func (c Config) Validate() error {
	var required map[string]string
	switch c.StoreBackend {
	case BackendFirebase:
		required = map[string]string{
			"FIREBASE_PROJECT_ID":   c.Firebase.ProjectID,
			"FIREBASE_APP_ID":       c.Firebase.AppID,
			"FIREBASE_DATABASE_URL": c.Firebase.DatabaseURL,
			"FIREBASE_API_KEY":      c.Firebase.APIKey,
		}
	case BackendInfluxDB:
		required = map[string]string{
			"INFLUXDB_URL":    c.InfluxDB.URL,
			"INFLUXDB_TOKEN":  c.InfluxDB.Token,
			"INFLUXDB_ORG":    c.InfluxDB.Org,
			"INFLUXDB_BUCKET": c.InfluxDB.Bucket,
		}
	default:
		return fmt.Errorf("%w: unknown STORE_BACKEND %q", ErrConfigInvalid, c.StoreBackend)
	}

	var missing []string
	for _, key := range slices.Sorted(maps.Keys(required)) {
		if strings.TrimSpace(required[key]) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s not set", ErrConfigInvalid, strings.Join(missing, ", "))
	}
	if c.ReadingsPath == "" {
		return fmt.Errorf("%w: READINGS_PATH is empty", ErrConfigInvalid)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
