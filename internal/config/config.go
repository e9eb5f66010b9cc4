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
	"time"

	"exchange-bridge-go/internal/models"

	"github.com/shopspring/decimal"
)

// Load builds the application configuration from the environment.
// Credential bundles are collected for every supported exchange here;
// completeness is only enforced when a venue is actually selected, so
// an operator can run with a single configured exchange.
func Load() (*models.Config, error) {
	receiptTimeout, err := getEnvDuration("RECEIPT_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, err
	}

	connMaxLifetime, err := getEnvDuration("JOURNAL_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("JOURNAL_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("JOURNAL_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	transferAmount, err := getEnvDecimal("TRANSFER_AMOUNT", decimal.Zero)
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Exchanges: map[string]models.ExchangeCredentials{
			"mexc": {
				ApiKey: os.Getenv("MEXC_API_KEY"),
				Secret: os.Getenv("MEXC_API_SECRET"),
			},
			"kucoin": {
				ApiKey:     os.Getenv("KUCOIN_API_KEY"),
				Secret:     os.Getenv("KUCOIN_API_SECRET"),
				Passphrase: os.Getenv("KUCOIN_API_PASSPHRASE"),
			},
			"htx": {
				ApiKey: os.Getenv("HTX_API_KEY"),
				Secret: os.Getenv("HTX_API_SECRET"),
			},
			"gateio": {
				ApiKey: os.Getenv("GATE_API_KEY"),
				Secret: os.Getenv("GATE_API_SECRET"),
			},
			"bitmart": {
				ApiKey:     os.Getenv("BITMART_API_KEY"),
				Secret:     os.Getenv("BITMART_API_SECRET"),
				Passphrase: os.Getenv("BITMART_MEMO"),
			},
			"bitget": {
				ApiKey:     os.Getenv("BITGET_API_KEY"),
				Secret:     os.Getenv("BITGET_API_SECRET"),
				Passphrase: os.Getenv("BITGET_API_PASSPHRASE"),
			},
			"bybit": {
				ApiKey: os.Getenv("BYBIT_API_KEY"),
				Secret: os.Getenv("BYBIT_API_SECRET"),
			},
		},
		Log: models.LogConfig{
			Level:      getEnvString("LOG_LEVEL", "info"),
			Dir:        getEnvString("LOG_DIR", "logs"),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 500),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 10),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 30),
		},
		Wallet: models.WalletConfig{
			PrivateKey:     os.Getenv("WALLET_PRIVATE_KEY"),
			TransferAmount: transferAmount,
			ReceiptTimeout: receiptTimeout,
		},
		Journal: models.JournalConfig{
			Path:            getEnvString("JOURNAL_PATH", ""),
			MaxOpenConns:    getEnvInt("JOURNAL_MAX_OPEN_CONNS", 5),
			MaxIdleConns:    getEnvInt("JOURNAL_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		NetworksFile: getEnvString("NETWORKS_FILE", "networks.yaml"),
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

func getEnvDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	if value := os.Getenv(key); value != "" {
		amount, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid decimal for %s: %q (%w)", key, value, err)
		}
		return amount, nil
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
