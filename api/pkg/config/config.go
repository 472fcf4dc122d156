package config

import (
	"github.com/kelseyhightower/envconfig"
)

type ServerConfig struct {
	WebServer WebServer
	Store     Store

	LogLevel string `envconfig:"FEEDWIRE_LOG_LEVEL" default:"info" description:"One of trace, debug, info, warn or error."`
}

type WebServer struct {
	Host string `envconfig:"FEEDWIRE_HOST" default:"0.0.0.0" description:"The host to bind the api server to."`
	Port int    `envconfig:"FEEDWIRE_PORT" default:"4877" description:"The port to bind the api server to."`
}

type Store struct {
	DataDir string `envconfig:"FEEDWIRE_STORE_DIR" default:"./feedwire-data" description:"The directory to store message data."`
}

func LoadServerConfig() (ServerConfig, error) {
	var cfg ServerConfig
	err := envconfig.Process("", &cfg)
	if err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}
