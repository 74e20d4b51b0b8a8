package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Options covers process level configuration read from environment variables.
type Options struct {
	SchedulePath    string
	SecretsDir      string
	IntervalSeconds int
	LookbackDays    int
	Locale          string
	Timezone        *time.Location
	HTTPAddr        string
}

// LoadOptions reads environment variables, applies defaults, and validates
// the result.
func LoadOptions() (*Options, error) {
	opts := &Options{
		SchedulePath:    getEnv("STATUSLOOP_SCHEDULE", DefaultPath()),
		SecretsDir:      getEnv("STATUSLOOP_SECRETS_DIR", defaultSecretsDir()),
		IntervalSeconds: getEnvInt("STATUSLOOP_INTERVAL_SECONDS", 20),
		LookbackDays:    getEnvInt("STATUSLOOP_LOOKBACK_DAYS", 2),
		Locale:          getEnv("STATUSLOOP_LOCALE", "en"),
		HTTPAddr:        getEnv("STATUSLOOP_HTTP_ADDR", "127.0.0.1:7710"),
	}

	tzName := getEnv("STATUSLOOP_TZ", "Local")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid STATUSLOOP_TZ %q: %v", tzName, err)
	}
	opts.Timezone = tz

	if opts.IntervalSeconds <= 0 || 60%opts.IntervalSeconds != 0 {
		return nil, fmt.Errorf("STATUSLOOP_INTERVAL_SECONDS must evenly divide 60, got %d", opts.IntervalSeconds)
	}
	if opts.LookbackDays < 2 {
		return nil, fmt.Errorf("STATUSLOOP_LOOKBACK_DAYS must be at least 2, got %d", opts.LookbackDays)
	}
	if _, err := Weekdays(opts.Locale); err != nil {
		return nil, err
	}

	return opts, nil
}

// Interval returns the tick interval as a duration.
func (o *Options) Interval() time.Duration {
	return time.Duration(o.IntervalSeconds) * time.Second
}

func defaultSecretsDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".secrets"
	}
	return home + "/.config/statusloop/secrets"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
