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

// FailureKind classifies a failed operation so callers can render the
// right message instead of a generic catch-all.
type FailureKind string

const (
	FailureValidation        FailureKind = "validation"
	FailureInsufficientFunds FailureKind = "insufficient_funds"
	FailurePairNotFound      FailureKind = "pair_not_found"
	FailureUnsupported       FailureKind = "unsupported"
	FailureUpstream          FailureKind = "upstream"
)

// Capabilities flags the optional operations a venue supports.
type Capabilities struct {
	CreateDepositAddress bool
	FetchDeposits        bool
	FetchWithdrawals     bool
}

// ExchangeProfile describes one connected exchange session. Built once
// at exchange selection and immutable afterwards.
type ExchangeProfile struct {
	Id           string
	Credentials  ExchangeCredentials
	Capabilities Capabilities

	// RequiresCurrencyId marks venues whose withdrawal API wants a
	// network-qualified currency identifier (e.g. "USDT-BSC_BNB")
	// instead of the plain token code.
	RequiresCurrencyId bool
}

// Ticker represents current market data for a trading pair
type Ticker struct {
	Symbol string
	Last   decimal.Decimal
	Bid    decimal.Decimal
	Ask    decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Volume decimal.Decimal
}

// BalanceEntry represents one currency's free and total balance
type BalanceEntry struct {
	Currency string
	Free     decimal.Decimal
	Total    decimal.Decimal
}

// OrderResult represents the outcome of a market buy or sell
type OrderResult struct {
	Success bool
	Kind    FailureKind
	Reason  string

	OrderId string
	Symbol  string
	Side    string
	Amount  decimal.Decimal
	Price   decimal.Decimal
	Cost    decimal.Decimal
	Status  string
}

// DepositAddress represents an exchange deposit address on the
// designated network.
type DepositAddress struct {
	Address string
	Tag     string
	Network string
	Asset   string
}

// WithdrawalResult represents the outcome of an exchange withdrawal
type WithdrawalResult struct {
	Success bool
	Kind    FailureKind
	Reason  string

	WithdrawalId string
	Status       string
}

// HistoryKind selects which transfer history to fetch
type HistoryKind string

const (
	HistoryDeposits    HistoryKind = "deposits"
	HistoryWithdrawals HistoryKind = "withdrawals"
)

// HistoryEntry represents one deposit or withdrawal returned by a venue
type HistoryEntry struct {
	Id        string
	TxId      string
	Currency  string
	Amount    decimal.Decimal
	Address   string
	Status    string
	Timestamp time.Time
}

// HistoryResult distinguishes "venue does not support this query" from
// "supported but empty" and from an error.
type HistoryResult struct {
	Supported bool
	Entries   []HistoryEntry
}
