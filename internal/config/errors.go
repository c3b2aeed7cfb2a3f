package config

import (
	"errors"
)

var (
	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrOwnerIDCanNotBeZero error if config bot.ownerid is not set.
	ErrOwnerIDCanNotBeZero = errors.New("toml config bot.ownerid can not be 0")
)
