/*
Copyright 2024-2025 the Unikorn Authors.
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"

	"github.com/ftrabucco/restassured-template-sub000/pkg/session"
)

var (
	// ErrInvalidConfiguration is raised when a configuration value is unusable.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

type TestConfig struct {
	// BaseURL of the backend, empty runs the suites against an in-process fake.
	BaseURL        string        `env:"API_BASE_URL"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT,default=30s"`
	TestTimeout    time.Duration `env:"TEST_TIMEOUT,default=5m"`

	// The shared test identity, registered on first use if unknown.
	UserName     string `env:"TEST_USER_NAME,default=Integration Tester"`
	UserEmail    string `env:"TEST_USER_EMAIL,default=integration.tester@example.com"`
	UserPassword string `env:"TEST_USER_PASSWORD,default=Integr4tion-Passw0rd"`

	// Dotted paths into response bodies.
	TokenField string `env:"TOKEN_FIELD,default=token"`
	IDField    string `env:"ID_FIELD,default=id"`

	// RulesPath is a directory of rules documents, empty uses the
	// backend's OpenAPI schemas.
	RulesPath string `env:"TEST_RULES_PATH"`

	DebugLogging bool `env:"DEBUG_LOGGING,default=false"`
	LogRequests  bool `env:"LOG_REQUESTS,default=false"`
	LogResponses bool `env:"LOG_RESPONSES,default=false"`
}

// LoadTestConfig loads configuration from environment variables and .env files.
// Returns an error if configuration values are malformed.
func LoadTestConfig() (*TestConfig, error) {
	loadEnvFile()

	var config TestConfig

	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Identity returns the shared test user.
func (c *TestConfig) Identity() session.Identity {
	return session.Identity{
		Name:     c.UserName,
		Email:    c.UserEmail,
		Password: c.UserPassword,
	}
}

// UseFakeBackend is true when no live backend is configured.
func (c *TestConfig) UseFakeBackend() bool {
	return c.BaseURL == ""
}

func loadEnvFile() {
	envPaths := []string{
		"../../../test/.env", // From test/api/suites directory
		"../../test/.env",    // From test/api directory
		"test/.env",          // From the repository root
	}

	var envPath string
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				envPath = absPath
				break
			}
		}
	}

	if envPath == "" {
		// .env file not found - this is OK in CI/CD where env vars are set directly
		return
	}

	// Load .env file, variables already set in the environment take precedence
	if err := godotenv.Load(envPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env file from %s: %v\n", envPath, err)
	}
}

// validateConfig checks that configuration values are usable.
func validateConfig(config *TestConfig) error {
	var problems []string

	if config.RequestTimeout <= 0 {
		problems = append(problems, "REQUEST_TIMEOUT must be positive")
	}

	if config.TestTimeout <= 0 {
		problems = append(problems, "TEST_TIMEOUT must be positive")
	}

	if config.BaseURL != "" {
		u, err := url.Parse(config.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			problems = append(problems, fmt.Sprintf("API_BASE_URL %q must be an absolute http(s) URL", config.BaseURL))
		}
	}

	required := map[string]string{
		"TEST_USER_EMAIL":    config.UserEmail,
		"TEST_USER_PASSWORD": config.UserPassword,
		"TOKEN_FIELD":        config.TokenField,
		"ID_FIELD":           config.IDField,
	}

	for envVar, value := range required {
		if value == "" {
			problems = append(problems, envVar+" must not be empty")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s. Please set these environment variables or add them to a .env file", ErrInvalidConfiguration, strings.Join(problems, ", "))
	}

	return nil
}
