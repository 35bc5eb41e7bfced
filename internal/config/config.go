package config

import "time"

// Config supplies the connection settings for one device.
type Config interface {
	GetAppName() string
	GetHost() string
	GetUsername() string
	GetPassword() string
	GetRequestTimeout() time.Duration
	GetAutoReconnect() bool
	GetInsecureTLS() bool
	GetLogLevel() string
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	return mainConfig{}
}
