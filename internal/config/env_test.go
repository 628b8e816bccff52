package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("CFG_TEST_SET", "value")
	t.Setenv("CFG_TEST_EMPTY", "")

	assert.Equal(t, "value", getEnv("CFG_TEST_SET", "fallback"))
	assert.Equal(t, "fallback", getEnv("CFG_TEST_EMPTY", "fallback"))
	assert.Equal(t, "fallback", getEnv("CFG_TEST_MISSING", "fallback"))
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected int
	}{
		{name: "valid integer", value: "42", expected: 42},
		{name: "negative integer", value: "-7", expected: -7},
		{name: "not a number", value: "abc", expected: 99},
		{name: "empty", value: "", expected: 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CFG_TEST_INT", tt.value)
			assert.Equal(t, tt.expected, getEnvInt("CFG_TEST_INT", 99))
		})
	}
}

func TestGetEnvInt64(t *testing.T) {
	t.Setenv("CFG_TEST_INT64", "5368709120")
	assert.Equal(t, int64(5368709120), getEnvInt64("CFG_TEST_INT64", 1))
	assert.Equal(t, int64(1), getEnvInt64("CFG_TEST_INT64_MISSING", 1))
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		fallback bool
		expected bool
	}{
		{name: "true", value: "true", fallback: false, expected: true},
		{name: "one", value: "1", fallback: false, expected: true},
		{name: "false", value: "false", fallback: true, expected: false},
		{name: "garbage keeps default", value: "yep", fallback: true, expected: true},
		{name: "empty keeps default", value: "", fallback: true, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CFG_TEST_BOOL", tt.value)
			assert.Equal(t, tt.expected, getEnvBool("CFG_TEST_BOOL", tt.fallback))
		})
	}
}

func TestGetEnvSeconds(t *testing.T) {
	t.Setenv("CFG_TEST_SECONDS", "90")
	assert.Equal(t, 90*time.Second, getEnvSeconds("CFG_TEST_SECONDS", 120))
	assert.Equal(t, 120*time.Second, getEnvSeconds("CFG_TEST_SECONDS_MISSING", 120))
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected time.Duration
	}{
		{name: "seconds", value: "45s", expected: 45 * time.Second},
		{name: "compound", value: "1m30s", expected: 90 * time.Second},
		{name: "invalid keeps default", value: "soon", expected: 30 * time.Second},
		{name: "empty keeps default", value: "", expected: 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CFG_TEST_DURATION", tt.value)
			assert.Equal(t, tt.expected, getEnvDuration("CFG_TEST_DURATION", "30s"))
		})
	}
}
