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
	"fmt"
	"strings"

	"exchange-bridge-go/internal/models"
)

const (
	// QuoteCurrency is the quote side of every traded pair.
	QuoteCurrency = "USDT"
	// DefaultToken is the token moved between wallet and exchanges.
	DefaultToken = "USDT"
	// DesignatedNetwork is the logical name of the single network all
	// deposits and withdrawals are constrained to.
	DesignatedNetwork = "BEP20"
)

// SupportedExchanges lists the venues this tool can drive, in menu order.
var SupportedExchanges = []string{
	"mexc",
	"kucoin",
	"htx",
	"gateio",
	"bitmart",
	"bitget",
	"bybit",
}

// Operation is a logical, exchange-agnostic action that needs
// venue-specific request parameters.
type Operation string

const (
	OpDeposit  Operation = "deposit"
	OpWithdraw Operation = "withdraw"
	OpHistory  Operation = "history"
)

// networkParam is one row of the parameter table: the literal field
// name and value a venue expects for the designated network, plus any
// extra fields (account-type selectors and similar) the operation needs.
type networkParam struct {
	key   string
	value string
	extra map[string]interface{}
}

// networkParamTable maps (exchange, operation) to request parameters.
// This table is the single place venue field names are allowed to
// appear; adding a venue is a data change, not a code branch.
var networkParamTable = map[string]map[Operation]networkParam{
	"mexc": {
		OpDeposit:  {key: "network", value: "BSC"},
		OpWithdraw: {key: "network", value: "BSC"},
		OpHistory:  {key: "network", value: "BSC"},
	},
	"kucoin": {
		OpDeposit:  {key: "chain", value: "bsc"},
		OpWithdraw: {key: "chain", value: "bsc"},
		OpHistory:  {key: "chain", value: "bsc"},
	},
	"htx": {
		OpDeposit:  {key: "chain", value: "usdtbep20"},
		OpWithdraw: {key: "chain", value: "usdtbep20"},
		OpHistory:  {key: "chain", value: "usdtbep20"},
	},
	"gateio": {
		OpDeposit:  {key: "network", value: "BSC"},
		OpWithdraw: {key: "network", value: "BSC"},
		OpHistory:  {key: "network", value: "BSC"},
	},
	"bitmart": {
		OpDeposit:  {key: "network", value: "BEP20"},
		OpWithdraw: {key: "network", value: "BEP20"},
		OpHistory:  {key: "network", value: "BEP20"},
	},
	"bitget": {
		OpDeposit:  {key: "chain", value: "BEP20"},
		OpWithdraw: {key: "chain", value: "BEP20", extra: map[string]interface{}{"transferType": "on_chain"}},
		OpHistory:  {key: "chain", value: "BEP20"},
	},
	"bybit": {
		OpDeposit:  {key: "network", value: "BSC"},
		OpWithdraw: {key: "network", value: "BSC", extra: map[string]interface{}{"accountType": "FUND"}},
		OpHistory:  {key: "network", value: "BSC", extra: map[string]interface{}{"accountType": "FUND"}},
	},
}

// NetworkParams returns the request parameters a venue expects for a
// logical operation on the designated network. The second return is
// false for an unknown venue.
func NetworkParams(exchangeId string, op Operation) (map[string]interface{}, bool) {
	ops, ok := networkParamTable[exchangeId]
	if !ok {
		return nil, false
	}
	row, ok := ops[op]
	if !ok {
		return nil, false
	}

	params := map[string]interface{}{row.key: row.value}
	for k, v := range row.extra {
		params[k] = v
	}
	return params, true
}

// capabilityTable flags the optional operations each venue supports.
// Populated once here, queried by name; never probed off the client.
var capabilityTable = map[string]models.Capabilities{
	"mexc":    {CreateDepositAddress: true, FetchDeposits: true, FetchWithdrawals: true},
	"kucoin":  {CreateDepositAddress: true, FetchDeposits: true, FetchWithdrawals: true},
	"htx":     {CreateDepositAddress: false, FetchDeposits: true, FetchWithdrawals: true},
	"gateio":  {CreateDepositAddress: false, FetchDeposits: true, FetchWithdrawals: true},
	"bitmart": {CreateDepositAddress: false, FetchDeposits: true, FetchWithdrawals: true},
	"bitget":  {CreateDepositAddress: true, FetchDeposits: true, FetchWithdrawals: true},
	"bybit":   {CreateDepositAddress: false, FetchDeposits: true, FetchWithdrawals: true},
}

// mandatoryPassphrase lists venues whose API refuses key+secret alone.
var mandatoryPassphrase = map[string]bool{
	"kucoin":  true,
	"bitmart": true,
	"bitget":  true,
}

// currencyIdExchanges marks venues whose withdrawal API wants a
// network-qualified currency identifier instead of the plain token code.
var currencyIdExchanges = map[string]bool{
	"bitmart": true,
}

// currencyIdTable holds the venue-specific network-qualified currency
// identifiers. Keys are "TOKEN/NETWORK".
var currencyIdTable = map[string]map[string]string{
	"bitmart": {
		"USDT/BEP20": "USDT-BSC_BNB",
		"USDT/TRC20": "USDT-TRX",
		"USDT/ERC20": "USDT-ETH",
	},
}

// defaultNetworkByToken supplies a network when the caller omitted one.
var defaultNetworkByToken = map[string]string{
	"USDT": DesignatedNetwork,
}

// CompositeCurrencyId is the fallback identifier used when no explicit
// table entry exists for a token/network pair.
func CompositeCurrencyId(token, network string) string {
	return token + "-" + network
}

// ResolveCurrencyId maps a token and network to the identifier a venue's
// withdrawal API expects. Resolution is deterministic: explicit table
// entry first, then the composite fallback. An absent network falls
// back to the token's default network before lookup.
func ResolveCurrencyId(exchangeId, token, network string) string {
	if network == "" {
		network = defaultNetworkByToken[token]
	}
	if ids, ok := currencyIdTable[exchangeId]; ok {
		if id, ok := ids[token+"/"+network]; ok {
			return id
		}
	}
	if network == "" {
		return token
	}
	return CompositeCurrencyId(token, network)
}

// NewProfile validates the venue id and its credential bundle and
// builds the immutable session profile. Credential gaps surface here,
// before any network call, instead of as a nested client error.
func NewProfile(exchangeId string, creds models.ExchangeCredentials) (*models.ExchangeProfile, error) {
	exchangeId = strings.ToLower(exchangeId)

	caps, ok := capabilityTable[exchangeId]
	if !ok {
		return nil, fmt.Errorf("%w: %s (supported: %s)",
			ErrUnsupportedExchange, exchangeId, strings.Join(SupportedExchanges, ", "))
	}

	var missing []string
	if creds.ApiKey == "" {
		missing = append(missing, "api key")
	}
	if creds.Secret == "" {
		missing = append(missing, "api secret")
	}
	if mandatoryPassphrase[exchangeId] && creds.Passphrase == "" {
		missing = append(missing, "passphrase/memo")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w for %s: %s",
			ErrMissingCredentials, exchangeId, strings.Join(missing, ", "))
	}

	return &models.ExchangeProfile{
		Id:                 exchangeId,
		Credentials:        creds,
		Capabilities:       caps,
		RequiresCurrencyId: currencyIdExchanges[exchangeId],
	}, nil
}
