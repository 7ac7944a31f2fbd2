package core

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// DefaultRequestTimeout bounds plain API requests unless configured otherwise.
const DefaultRequestTimeout = 15 * time.Second

type Config struct {
	Env          string
	Debug        bool
	TestMode     bool
	AppName      string
	Build        string
	RollbarToken string
	LogFile      string

	API struct {
		BaseURL        string
		RequestTimeout time.Duration
		StreamPath     string
	}

	Session struct {
		File string
	}

	Admins struct {
		ExcludedRole string
	}
}

// NewConfig loads the configuration from the environment.
// Variables are prefixed with the current ENV (DEV (default), TEST, QA, PROD), eg. DEV_APIBASEURL.
// A `config/.env.<env>` file is loaded first if it exists.
func NewConfig() (*Config, error) {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", env == "DEV")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("appName", "Appraise")
	v.SetDefault("build", "dev")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("logFile", "")
	v.SetDefault("apiBaseURL", "http://localhost:8000")
	v.SetDefault("requestTimeout", DefaultRequestTimeout)
	v.SetDefault("streamPath", "/stream/users")
	v.SetDefault("sessionFile", defaultSessionFile())
	v.SetDefault("excludedRole", "LECTURER")

	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:          env,
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		AppName:      v.GetString("appName"),
		Build:        v.GetString("build"),
		RollbarToken: v.GetString("rollbarToken"),
		LogFile:      v.GetString("logFile"),
	}
	conf.API.BaseURL = strings.TrimRight(v.GetString("apiBaseURL"), "/")
	conf.API.RequestTimeout = v.GetDuration("requestTimeout")
	conf.API.StreamPath = v.GetString("streamPath")
	conf.Session.File = v.GetString("sessionFile")
	conf.Admins.ExcludedRole = v.GetString("excludedRole")
	return conf, nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "appraise", "session.json")
}
