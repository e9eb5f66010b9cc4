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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
type Config struct {
	Exchanges    map[string]ExchangeCredentials
	Log          LogConfig
	Wallet       WalletConfig
	Journal      JournalConfig
	NetworksFile string
}

// ExchangeCredentials holds one exchange's API credential bundle. The
// Passphrase field carries whatever third secret the venue requires
// (passphrase, trading password or memo); it stays empty for venues
// that authenticate with key and secret alone.
type ExchangeCredentials struct {
	ApiKey     string
	Secret     string
	Passphrase string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level      string
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// WalletConfig holds the self-custodied wallet settings for the
// wallet-to-exchange funding flow.
type WalletConfig struct {
	PrivateKey     string
	TransferAmount decimal.Decimal
	ReceiptTimeout time.Duration
}

// JournalConfig holds the optional operation journal settings. An empty
// Path disables the journal entirely.
type JournalConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}
