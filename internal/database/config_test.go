package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fintrack/internal/config"
)

func TestConfig(t *testing.T) {
	cfg := NewConfig(&config.Config{
		DBHost:     "db",
		DBPort:     "5433",
		DBUser:     "ledger",
		DBPassword: "secret",
		DBName:     "fintrack",
		DBSSLMode:  "require",
	})

	assert.Equal(t, "host=db port=5433 user=ledger password=secret dbname=fintrack sslmode=require", cfg.DSN())
	assert.Equal(t, "postgres://ledger:secret@db:5433/fintrack?sslmode=require", cfg.URL())
}
