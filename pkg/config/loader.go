package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var defaultEnvLoaded sync.Once

// Load fills the configuration struct from environment variables, reading
// a .env file first if one exists. Field mapping uses caarlos0/env tags:
//
//	type CacheConfig struct {
//	    TTL     time.Duration `env:"PERM_CACHE_TTL" envDefault:"1m"`
//	    MaxSize int           `env:"PERM_CACHE_MAX_SIZE" envDefault:"10000"`
//	}
func Load[T any](v *T) error {
	defaultEnvLoaded.Do(func() {
		// The .env file is optional; absence is not an error.
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}
	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics on failure. Use for configuration
// the process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Errorf("config: %w", err))
	}
}
