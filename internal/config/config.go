// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"hicompanion/internal/logger"
)

// Variables available everywhere
var (
	apiBase        string
	userToken      string
	requestTimeout time.Duration
	pollInterval   time.Duration
	scheduleDBPath string
	logsDirectory  string
)

const (
	defaultAPIBaseDev  = "https://adonix-dev.hackillinois.org"
	defaultAPIBaseProd = "https://adonix.hackillinois.org"

	defaultRequestTimeout = 10 * time.Second
	defaultPollInterval   = 15 * time.Second
)

//
// --- Utility Helpers ---
//

// Helper: get a setting based on ENVIRONMENT (dev or prod)
func GetEnvBasedSetting(base string) string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}
	return os.Getenv(fmt.Sprintf("%s_%s", base, strings.ToUpper(env)))
}

// Helper: log which environment is running
func LogCurrentEnvironment() {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}

	if env == "dev" {
		logger.LogInfo("Running against the development API")
	} else {
		logger.LogInfo("Running against the production API")
	}
}

//
// --- Loaders ---
//

// LoadEnv reads .env file
func LoadEnv() {
	wd, err := os.Getwd()
	if err != nil {
		log.Printf("Could not determine working directory: %v", err)
	}

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("No .env file found in %s. Using system environment variables.", wd)
	} else {
		log.Printf("Loaded environment variables from .env file in %s", wd)
	}
}

// LoggerConfig returns a logger.Config struct populated from environment
func LoggerConfig() logger.Config {
	logDir := GetEnvBasedSetting("LOGS_DIRECTORY")
	if logDir == "" {
		logDir = "./logs"
	}

	logFormat := os.Getenv("LOG_FILE_FORMAT")
	if logFormat == "" {
		logFormat = "companion_%s.log"
	}

	timezone := os.Getenv("TIME_ZONE")
	if timezone == "" {
		timezone = "Local"
	}

	return logger.Config{
		LogsDirectory: logDir,
		LogFileFormat: logFormat,
		TimeZone:      timezone,
	}
}

// ConfigurePaths sets up folders and derived paths
func ConfigurePaths() {
	wd, err := os.Getwd()
	if err != nil {
		logger.LogFatal("Failed to get working directory: %v", err)
	}

	logsDir := GetEnvBasedSetting("LOGS_DIRECTORY")
	if logsDir != "" {
		logsDirectory = logsDir
	} else {
		logsDirectory = filepath.Join(wd, "logs")
	}

	dbPath := GetEnvBasedSetting("SCHEDULE_DB_PATH")
	if dbPath != "" {
		scheduleDBPath = dbPath
	} else {
		scheduleDBPath = filepath.Join(wd, "schedule.db")
	}
}

// LoadAPIConfig sets up the companion API base URL and user token
func LoadAPIConfig() error {
	apiBase = GetEnvBasedSetting("API_BASE_URL")
	if apiBase == "" {
		env := os.Getenv("ENVIRONMENT")
		if env == "prod" {
			apiBase = defaultAPIBaseProd
		} else {
			apiBase = defaultAPIBaseDev
		}
	}
	apiBase = strings.TrimRight(apiBase, "/")

	userToken = os.Getenv("USER_TOKEN")
	if userToken == "" {
		return fmt.Errorf("USER_TOKEN is not set; authenticated API calls will be rejected")
	}

	requestTimeout = durationSetting("REQUEST_TIMEOUT_SECONDS", defaultRequestTimeout)
	pollInterval = durationSetting("QR_POLL_INTERVAL_SECONDS", defaultPollInterval)

	logger.LogInfo("Using companion API at %s", apiBase)
	return nil
}

func durationSetting(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		logger.LogWarn("Invalid %s: %q, using default %v", name, raw, fallback)
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

//
// --- Getters (exported) ---
//

func APIBase() string {
	return apiBase
}

func UserToken() string {
	return userToken
}

func RequestTimeout() time.Duration {
	if requestTimeout == 0 {
		return defaultRequestTimeout
	}
	return requestTimeout
}

func PollInterval() time.Duration {
	if pollInterval == 0 {
		return defaultPollInterval
	}
	return pollInterval
}

func ScheduleDBPath() string {
	return scheduleDBPath
}

func LogsDirectory() string {
	return logsDirectory
}
