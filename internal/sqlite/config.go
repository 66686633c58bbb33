package sqlite

import (
	"strings"
	"time"
)

type Config struct {
	file     string
	workers  int
	letters  int
	cooldown time.Duration
}

type ConfigFunc = func(c *Config)

func WithFile(file string) ConfigFunc {
	return func(c *Config) { c.File(file) }
}

func WithWorkers(workers int) ConfigFunc {
	return func(c *Config) { c.Workers(workers) }
}

func WithLetters(letters int) ConfigFunc {
	return func(c *Config) { c.Letters(letters) }
}

func WithCooldown(cooldown time.Duration) ConfigFunc {
	return func(c *Config) { c.Cooldown(cooldown) }
}

func (c *Config) File(file string) {
	file = strings.TrimSpace(file)
	if file == "" {
		panic("file can't be blank")
	}
	c.file = file
}

func (c *Config) Workers(workers int) {
	if workers < 1 {
		panic("workers can't be < 1")
	}
	c.workers = workers
}

// Letters sets how many dead letters a single Claim call may return.
func (c *Config) Letters(letters int) {
	if letters < 1 {
		panic("letters can't be < 1")
	}
	c.letters = letters
}

func (c *Config) Cooldown(cooldown time.Duration) {
	if cooldown < 0 {
		panic("cooldown can't be < 0")
	}
	c.cooldown = cooldown
}
