/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"mt5-risk-sync-go/internal/models"
)

func Load() (*models.Config, error) {
	bridgeURL := os.Getenv("BRIDGE_URL")
	bridgeAPIKey := os.Getenv("BRIDGE_API_KEY")
	if bridgeURL == "" || bridgeAPIKey == "" {
		return nil, fmt.Errorf("missing required bridge credentials: BRIDGE_URL, BRIDGE_API_KEY")
	}

	fetchTimeout, err := getEnvDuration("BRIDGE_FETCH_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	syncInterval, err := getEnvDuration("SYNC_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, err
	}

	sleepFloor, err := getEnvDuration("SYNC_SLEEP_FLOOR", 1*time.Second)
	if err != nil {
		return nil, err
	}

	lookback, err := getEnvDuration("SYNC_LOOKBACK_WINDOW", 1*time.Hour)
	if err != nil {
		return nil, err
	}

	livenessTTL, err := getEnvDuration("SYNC_LIVENESS_TTL", 60*time.Second)
	if err != nil {
		return nil, err
	}

	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:             getEnvString("DATABASE_PATH", "risk.db"),
			MaxOpenConns:     getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  connMaxLifetime,
			ConnMaxIdleTime:  connMaxIdleTime,
			PingTimeout:      pingTimeout,
			SeedDemoAccounts: getEnvBool("SEED_DEMO_ACCOUNTS", false),
		},
		Bridge: models.BridgeConfig{
			BaseURL:      bridgeURL,
			APIKey:       bridgeAPIKey,
			FetchTimeout: fetchTimeout,
		},
		Sync: models.SyncConfig{
			Interval:    syncInterval,
			SleepFloor:  sleepFloor,
			Lookback:    lookback,
			LivenessTTL: livenessTTL,
			BatchSize:   getEnvInt("SYNC_BATCH_SIZE", 5),
			Groups:      getEnvList("MT5_GROUPS", []string{"demo\\prime"}),
			RulesFile:   getEnvString("RULES_FILE", "rules.yaml"),
		},
		Cache: models.CacheConfig{
			Addr:     getEnvString("REDIS_ADDR", ""),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
