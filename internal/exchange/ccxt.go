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
	"fmt"
	"time"

	"exchange-bridge-go/internal/models"

	ccxt "github.com/ccxt/ccxt/go/v4"
	"github.com/shopspring/decimal"
)

// ccxtExchange is the slice of the generated ccxt exchange surface this
// adapter consumes. Every generated venue type satisfies it, so the
// factory below can hand any of the seven venues to one adapter.
type ccxtExchange interface {
	LoadMarkets(params ...interface{}) <-chan interface{}
	FetchTicker(symbol string, options ...ccxt.FetchTickerOptions) (ccxt.Ticker, error)
	FetchBalance(params ...interface{}) (ccxt.Balances, error)
	CreateOrder(symbol string, typeVar string, side string, amount float64, options ...ccxt.CreateOrderOptions) (ccxt.Order, error)
	FetchDepositAddress(code string, options ...ccxt.FetchDepositAddressOptions) (ccxt.DepositAddress, error)
	Withdraw(code string, amount float64, address string, options ...ccxt.WithdrawOptions) (ccxt.Transaction, error)
	FetchDeposits(options ...ccxt.FetchDepositsOptions) ([]ccxt.Transaction, error)
	FetchWithdrawals(options ...ccxt.FetchWithdrawalsOptions) ([]ccxt.Transaction, error)
}

// typedDepositAddressCreator matches the typed CreateDepositAddress wrapper
// that ccxt generates only for venues whose has["createDepositAddress"] is
// true (mexc, kucoin, bybit). The remaining venues expose the untyped core
// method; createDepositAddress below bridges both.
type typedDepositAddressCreator interface {
	CreateDepositAddress(code string, options ...ccxt.CreateDepositAddressOptions) (ccxt.DepositAddress, error)
}

type untypedDepositAddressCreator interface {
	CreateDepositAddress(code interface{}, optionalArgs ...interface{}) <-chan interface{}
}

// ccxtClient adapts a generated ccxt venue to the Client boundary.
type ccxtClient struct {
	ex ccxtExchange
}

var _ Client = (*ccxtClient)(nil)

// newCcxtClient instantiates the ccxt venue matching the profile.
// Credential completeness was already enforced by NewProfile.
func newCcxtClient(profile *models.ExchangeProfile) (Client, error) {
	cfg := map[string]interface{}{
		"apiKey":          profile.Credentials.ApiKey,
		"secret":          profile.Credentials.Secret,
		"enableRateLimit": true,
	}
	if profile.Credentials.Passphrase != "" {
		cfg["password"] = profile.Credentials.Passphrase
	}

	var ex ccxtExchange
	switch profile.Id {
	case "mexc":
		v := ccxt.NewMexc(cfg)
		ex = &v
	case "kucoin":
		v := ccxt.NewKucoin(cfg)
		ex = &v
	case "htx":
		v := ccxt.NewHtx(cfg)
		ex = &v
	case "gateio":
		v := ccxt.NewGate(cfg)
		ex = &v
	case "bitmart":
		v := ccxt.NewBitmart(cfg)
		ex = &v
	case "bitget":
		v := ccxt.NewBitget(cfg)
		ex = &v
	case "bybit":
		v := ccxt.NewBybit(cfg)
		ex = &v
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExchange, profile.Id)
	}

	return &ccxtClient{ex: ex}, nil
}

func (c *ccxtClient) LoadMarkets(ctx context.Context) (map[string]Market, error) {
	res := <-c.ex.LoadMarkets()
	if ccxt.IsError(res) {
		return nil, ccxt.CreateReturnError(res)
	}
	raw, _ := res.(map[string]interface{})

	markets := make(map[string]Market, len(raw))
	for symbol := range raw {
		markets[symbol] = Market{Symbol: symbol}
	}
	return markets, nil
}

func (c *ccxtClient) FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	ticker, err := c.ex.FetchTicker(symbol)
	if err != nil {
		return nil, err
	}

	return &models.Ticker{
		Symbol: symbol,
		Last:   decimalOf(ticker.Last),
		Bid:    decimalOf(ticker.Bid),
		Ask:    decimalOf(ticker.Ask),
		High:   decimalOf(ticker.High),
		Low:    decimalOf(ticker.Low),
		Volume: decimalOf(ticker.BaseVolume),
	}, nil
}

func (c *ccxtClient) FetchBalance(ctx context.Context, params map[string]interface{}) ([]models.BalanceEntry, error) {
	var args []interface{}
	if len(params) > 0 {
		args = append(args, params)
	}

	balances, err := c.ex.FetchBalance(args...)
	if err != nil {
		return nil, err
	}

	entries := make([]models.BalanceEntry, 0, len(balances.Total))
	for currency, total := range balances.Total {
		entries = append(entries, models.BalanceEntry{
			Currency: currency,
			Free:     decimalOfAny(balances.Free[currency]),
			Total:    decimalOfAny(total),
		})
	}
	return entries, nil
}

func (c *ccxtClient) CreateMarketOrder(ctx context.Context, symbol, side string, amount decimal.Decimal, params map[string]interface{}) (*Order, error) {
	var options []ccxt.CreateOrderOptions
	if len(params) > 0 {
		options = append(options, ccxt.WithCreateOrderParams(params))
	}

	order, err := c.ex.CreateOrder(symbol, "market", side, amount.InexactFloat64(), options...)
	if err != nil {
		return nil, err
	}

	return &Order{
		Id:       stringOf(order.Id),
		Price:    decimalOf(order.Price),
		Amount:   decimalOf(order.Amount),
		Datetime: stringOf(order.Datetime),
		Status:   stringOf(order.Status),
	}, nil
}

func (c *ccxtClient) FetchDepositAddress(ctx context.Context, code string, params map[string]interface{}) (*DepositAddressRecord, error) {
	var options []ccxt.FetchDepositAddressOptions
	if len(params) > 0 {
		options = append(options, ccxt.WithFetchDepositAddressParams(params))
	}

	addr, err := c.ex.FetchDepositAddress(code, options...)
	if err != nil {
		return nil, err
	}
	return depositAddressRecord(addr)
}

func (c *ccxtClient) CreateDepositAddress(ctx context.Context, code string, params map[string]interface{}) (*DepositAddressRecord, error) {
	var options []ccxt.CreateDepositAddressOptions
	if len(params) > 0 {
		options = append(options, ccxt.WithCreateDepositAddressParams(params))
	}

	var addr ccxt.DepositAddress
	var err error
	switch ex := c.ex.(type) {
	case typedDepositAddressCreator:
		addr, err = ex.CreateDepositAddress(code, options...)
	case untypedDepositAddressCreator:
		// Mirror the generated typed wrapper for venues where ccxt does
		// not emit one: unpack the options, call the core method, and
		// convert the result.
		opts := ccxt.CreateDepositAddressOptionsStruct{}
		for _, opt := range options {
			opt(&opts)
		}
		var p interface{}
		if opts.Params != nil {
			p = *opts.Params
		}
		res := <-ex.CreateDepositAddress(code, p)
		if ccxt.IsError(res) {
			return nil, ccxt.CreateReturnError(res)
		}
		addr = ccxt.NewDepositAddress(res)
	default:
		return nil, fmt.Errorf("%w: createDepositAddress", ErrUnsupportedExchange)
	}
	if err != nil {
		return nil, err
	}
	return depositAddressRecord(addr)
}

func (c *ccxtClient) Withdraw(ctx context.Context, code string, amount decimal.Decimal, address, tag string, params map[string]interface{}) (*WithdrawalRecord, error) {
	options := []ccxt.WithdrawOptions{}
	if tag != "" {
		options = append(options, ccxt.WithWithdrawTag(tag))
	}
	if len(params) > 0 {
		options = append(options, ccxt.WithWithdrawParams(params))
	}

	tx, err := c.ex.Withdraw(code, amount.InexactFloat64(), address, options...)
	if err != nil {
		return nil, err
	}

	return &WithdrawalRecord{
		Id:     stringOf(tx.Id),
		TxId:   stringOf(tx.TxId),
		Status: stringOf(tx.Status),
	}, nil
}

func (c *ccxtClient) FetchTransfers(ctx context.Context, kind models.HistoryKind, code string, limit int, params map[string]interface{}) ([]TransferRecord, error) {
	var raw []ccxt.Transaction
	var err error

	switch kind {
	case models.HistoryWithdrawals:
		options := []ccxt.FetchWithdrawalsOptions{
			ccxt.WithFetchWithdrawalsCode(code),
			ccxt.WithFetchWithdrawalsLimit(int64(limit)),
		}
		if len(params) > 0 {
			options = append(options, ccxt.WithFetchWithdrawalsParams(params))
		}
		raw, err = c.ex.FetchWithdrawals(options...)
	default:
		options := []ccxt.FetchDepositsOptions{
			ccxt.WithFetchDepositsCode(code),
			ccxt.WithFetchDepositsLimit(int64(limit)),
		}
		if len(params) > 0 {
			options = append(options, ccxt.WithFetchDepositsParams(params))
		}
		raw, err = c.ex.FetchDeposits(options...)
	}
	if err != nil {
		return nil, err
	}

	records := make([]TransferRecord, len(raw))
	for i, tx := range raw {
		records[i] = TransferRecord{
			Id:        stringOf(tx.Id),
			TxId:      stringOf(tx.TxId),
			Currency:  stringOf(tx.Currency),
			Amount:    decimalOf(tx.Amount),
			Address:   stringOf(tx.Address),
			Status:    stringOf(tx.Status),
			Timestamp: timeOf(tx.Timestamp),
		}
	}
	return records, nil
}

func depositAddressRecord(addr ccxt.DepositAddress) (*DepositAddressRecord, error) {
	address := stringOf(addr.Address)
	if address == "" {
		return nil, ErrAddressNotFound
	}
	return &DepositAddressRecord{
		Address: address,
		Tag:     stringOf(addr.Tag),
		Network: stringOf(addr.Network),
	}, nil
}

func stringOf(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func decimalOf(v *float64) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*v)
}

// decimalOfAny coerces the loosely typed per-currency balance values
// the client hands back.
func decimalOfAny(v interface{}) decimal.Decimal {
	switch value := v.(type) {
	case float64:
		return decimal.NewFromFloat(value)
	case int64:
		return decimal.NewFromInt(value)
	case int:
		return decimal.NewFromInt(int64(value))
	case string:
		d, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

func timeOf(ms *int64) time.Time {
	if ms == nil {
		return time.Time{}
	}
	return time.UnixMilli(*ms)
}
