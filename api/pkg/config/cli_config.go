package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type CliConfig struct {
	URL       string `envconfig:"FEEDWIRE_URL" default:"http://localhost:4877"`
	Transport string `envconfig:"FEEDWIRE_TRANSPORT" default:"websocket"`
	Author    string `envconfig:"FEEDWIRE_AUTHOR"`
}

func LoadCliConfig() (CliConfig, error) {
	_ = godotenv.Load()

	var cfg CliConfig
	err := envconfig.Process("", &cfg)
	if err != nil {
		return CliConfig{}, err
	}
	return cfg, nil
}
