// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/BurntSushi/toml"
)

// ConfigJSONEnv is the environment variable holding a JSON config override.
const ConfigJSONEnv = "PROMO_WARDEN_CONFIG_JSON"

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	if _, err = toml.DecodeFile(path+"main.toml", &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(ConfigJSONEnv)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate minimal config settings for promo-warden and apply defaults.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Bot.OwnerID == 0 {
		return errors.Wrap(ErrOwnerIDCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5 // set default of 5 seconds
	}

	if c.Bot.ChunkSize == 0 {
		c.Bot.ChunkSize = DefaultChunkSize
	}

	if c.Bot.DisplayTimezone == "" {
		c.Bot.DisplayTimezone = DefaultDisplayTimezone
	}

	if c.Bot.DisplayTimeFormat == "" {
		c.Bot.DisplayTimeFormat = DefaultDisplayTimeFormat
	}

	// resolve the display timezone once, rendering looks it up per line otherwise
	loc, err := time.LoadLocation(c.Bot.DisplayTimezone)
	if err != nil {
		return errors.Wrap(err, invalidErrMessage)
	}
	c.Bot.location = loc

	return nil
}
