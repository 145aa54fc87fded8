// Package config loads environment configuration into typed structs.
//
// Load reads a .env file once per process (missing files are ignored), then
// parses the environment into the struct with caarlos0/env. Nested structs are
// parsed too, so an application config can embed the per-package configs:
//
//	type Config struct {
//		AppName string `env:"APP_NAME" envDefault:"rpgconsent"`
//
//		Session session.Config
//		Server  server.Config
//		Redis   redis.Config
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
//
// Results are cached per struct type: a second Load of the same type copies the
// cached value instead of reading the environment again. Reset clears the cache
// and is meant for tests that change the environment.
package config
