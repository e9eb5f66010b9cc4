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

package exchange

import (
	"context"
	"errors"
	"time"

	"exchange-bridge-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared by the normalizer and its client adapters.
var (
	ErrUnsupportedExchange = errors.New("unsupported exchange")
	ErrMissingCredentials  = errors.New("missing required credentials")
	ErrAddressNotFound     = errors.New("no deposit address available")
)

// Market describes one listed trading pair.
type Market struct {
	Symbol string
}

// Order is the raw order record returned by the client.
type Order struct {
	Id       string
	Price    decimal.Decimal
	Amount   decimal.Decimal
	Datetime string
	Status   string
}

// DepositAddressRecord is the raw deposit address returned by the client.
type DepositAddressRecord struct {
	Address string
	Tag     string
	Network string
}

// WithdrawalRecord is the raw withdrawal acknowledgement returned by the client.
type WithdrawalRecord struct {
	Id     string
	TxId   string
	Status string
}

// TransferRecord is one raw deposit/withdrawal history row.
type TransferRecord struct {
	Id        string
	TxId      string
	Currency  string
	Amount    decimal.Decimal
	Address   string
	Status    string
	Timestamp time.Time
}

// Client is the boundary to the external unified trading-API client.
// Implementations receive fully resolved, exchange-specific parameter
// maps; no venue field-name knowledge lives behind this interface.
// FetchDepositAddress reports a missing address as ErrAddressNotFound.
type Client interface {
	LoadMarkets(ctx context.Context) (map[string]Market, error)
	FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error)
	FetchBalance(ctx context.Context, params map[string]interface{}) ([]models.BalanceEntry, error)
	CreateMarketOrder(ctx context.Context, symbol, side string, amount decimal.Decimal, params map[string]interface{}) (*Order, error)
	FetchDepositAddress(ctx context.Context, code string, params map[string]interface{}) (*DepositAddressRecord, error)
	CreateDepositAddress(ctx context.Context, code string, params map[string]interface{}) (*DepositAddressRecord, error)
	Withdraw(ctx context.Context, code string, amount decimal.Decimal, address, tag string, params map[string]interface{}) (*WithdrawalRecord, error)
	FetchTransfers(ctx context.Context, kind models.HistoryKind, code string, limit int, params map[string]interface{}) ([]TransferRecord, error)
}
