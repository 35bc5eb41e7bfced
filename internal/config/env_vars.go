package config

import (
	"os"
	"strconv"
	"time"
)

const (
	hostEnvVar     = "CTRLX_HOST"
	usernameEnvVar = "CTRLX_USERNAME"
	passwordEnvVar = "CTRLX_PASSWORD"
	timeoutEnvVar  = "CTRLX_TIMEOUT"
	appNameVar     = "APP_NAME"
)

type EnvVars struct{}

var _ Config = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "ctrlX Data Layer")
}

func (EnvVars) GetHost() string {
	return GetEnv(hostEnvVar, "192.168.1.1")
}

func (EnvVars) GetUsername() string {
	return GetEnv(usernameEnvVar, "boschrexroth")
}

func (EnvVars) GetPassword() string {
	return GetEnv(passwordEnvVar, "")
}

// GetRequestTimeout returns the per-request deadline. A value of "-1"
// or an unparseable value selects the transport default.
func (EnvVars) GetRequestTimeout() time.Duration {
	raw := GetEnv(timeoutEnvVar, "-1")
	ms, err := strconv.Atoi(raw)
	if err != nil || ms < 0 {
		return -1
	}
	return time.Duration(ms) * time.Millisecond
}

func (EnvVars) GetAutoReconnect() bool {
	return GetEnv("CTRLX_AUTO_RECONNECT", "true") != "false"
}

// GetInsecureTLS reports whether certificate verification should be
// skipped. Devices ship self-signed certificates, so this defaults on.
func (EnvVars) GetInsecureTLS() bool {
	return GetEnv("CTRLX_INSECURE_TLS", "true") != "false"
}

func (EnvVars) GetLogLevel() string {
	return GetEnv("LOG_LEVEL", "info")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
