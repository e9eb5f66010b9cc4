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
	"strings"

	"exchange-bridge-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// orderAmountPlaces bounds the precision of order amounts before they
// reach the client; venues reject over-precise quantities.
const orderAmountPlaces = 8

// marketBuyQuirk captures a venue's market-buy idiosyncrasy: some want
// the spend (quote cost) as the order amount instead of a base quantity.
type marketBuyQuirk struct {
	costBased bool
	params    map[string]interface{}
}

var marketBuyQuirks = map[string]marketBuyQuirk{
	"htx": {
		costBased: true,
		params:    map[string]interface{}{"createMarketBuyOrderRequiresPrice": false},
	},
}

// Service is the cross-exchange operation normalizer: it owns the
// parameter and capability tables and reconciles venue-specific
// responses into uniform results.
type Service struct {
	profile *models.ExchangeProfile
	client  Client
	markets map[string]Market
}

// Dial builds the profile for a venue, connects through the unified
// client and loads its markets. Fails before any network call when the
// credential bundle is incomplete.
func Dial(ctx context.Context, exchangeId string, creds models.ExchangeCredentials) (*Service, error) {
	profile, err := NewProfile(exchangeId, creds)
	if err != nil {
		return nil, err
	}

	client, err := newCcxtClient(profile)
	if err != nil {
		return nil, err
	}

	return NewService(ctx, profile, client)
}

// NewService wires a profile to a client and loads the venue's markets
// once for the session.
func NewService(ctx context.Context, profile *models.ExchangeProfile, client Client) (*Service, error) {
	markets, err := client.LoadMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load %s markets: %w", profile.Id, err)
	}

	zap.L().Info("Connected to exchange",
		zap.String("exchange", profile.Id),
		zap.Int("markets", len(markets)))

	return &Service{
		profile: profile,
		client:  client,
		markets: markets,
	}, nil
}

// Id returns the connected venue's identifier.
func (s *Service) Id() string {
	return s.profile.Id
}

// Profile returns the immutable session profile.
func (s *Service) Profile() *models.ExchangeProfile {
	return s.profile
}

// CheckPair normalizes a token symbol to a SYMBOL/USDT pair and reports
// whether the venue lists it.
func (s *Service) CheckPair(symbol string) (string, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", false
	}
	if !strings.Contains(symbol, "/") {
		symbol = symbol + "/" + QuoteCurrency
	}

	if _, ok := s.markets[symbol]; !ok {
		zap.L().Warn("Trading pair not listed",
			zap.String("exchange", s.profile.Id),
			zap.String("symbol", symbol))
		return symbol, false
	}
	return symbol, true
}

// GetTicker fetches current market data for a pair.
func (s *Service) GetTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	ticker, err := s.client.FetchTicker(ctx, symbol)
	if err != nil {
		zap.L().Error("Failed to fetch ticker",
			zap.String("exchange", s.profile.Id),
			zap.String("symbol", symbol),
			zap.Error(err))
		return nil, fmt.Errorf("unable to fetch ticker for %s: %w", symbol, err)
	}
	return ticker, nil
}

// GetBalance returns the free and total balance for one currency.
// A currency the account has never held reports as zero.
func (s *Service) GetBalance(ctx context.Context, currency string) (models.BalanceEntry, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if i := strings.Index(currency, "/"); i >= 0 {
		currency = currency[:i]
	}

	balances, err := s.client.FetchBalance(ctx, nil)
	if err != nil {
		zap.L().Error("Failed to fetch balance",
			zap.String("exchange", s.profile.Id),
			zap.Error(err))
		return models.BalanceEntry{Currency: currency}, fmt.Errorf("unable to fetch balance: %w", err)
	}

	for _, entry := range balances {
		if entry.Currency == currency {
			return entry, nil
		}
	}
	return models.BalanceEntry{Currency: currency}, nil
}

// GetAllBalances returns every non-zero balance on the account.
func (s *Service) GetAllBalances(ctx context.Context) ([]models.BalanceEntry, error) {
	balances, err := s.client.FetchBalance(ctx, nil)
	if err != nil {
		zap.L().Error("Failed to fetch balances",
			zap.String("exchange", s.profile.Id),
			zap.Error(err))
		return nil, fmt.Errorf("unable to fetch balances: %w", err)
	}

	nonZero := make([]models.BalanceEntry, 0, len(balances))
	for _, entry := range balances {
		if entry.Free.IsPositive() || entry.Total.IsPositive() {
			nonZero = append(nonZero, entry)
		}
	}
	return nonZero, nil
}

// Buy places a market buy for the given pair, spending `spend` units of
// the quote currency. All failures come back as a uniform result.
func (s *Service) Buy(ctx context.Context, symbol string, spend decimal.Decimal) *models.OrderResult {
	if spend.LessThanOrEqual(decimal.Zero) {
		return orderFailure(models.FailureValidation, "amount must be greater than zero")
	}

	symbol, listed := s.CheckPair(symbol)
	if !listed {
		return orderFailure(models.FailurePairNotFound,
			fmt.Sprintf("trading pair %s not found on %s", symbol, s.profile.Id))
	}

	ticker, err := s.GetTicker(ctx, symbol)
	if err != nil {
		return orderFailure(models.FailureUpstream, "unable to fetch current price")
	}
	if ticker.Last.LessThanOrEqual(decimal.Zero) {
		return orderFailure(models.FailureUpstream, "venue returned no last price")
	}

	quote := quoteCurrencyOf(symbol)
	balance, err := s.GetBalance(ctx, quote)
	if err != nil {
		return orderFailure(models.FailureUpstream, "unable to verify balance")
	}
	if balance.Free.LessThan(spend) {
		return orderFailure(models.FailureInsufficientFunds,
			fmt.Sprintf("insufficient balance: %s %s available, need %s",
				balance.Free.String(), quote, spend.String()))
	}

	baseAmount := spend.Div(ticker.Last).Round(orderAmountPlaces)

	orderAmount := baseAmount
	params := map[string]interface{}{}
	if quirk, ok := marketBuyQuirks[s.profile.Id]; ok {
		for k, v := range quirk.params {
			params[k] = v
		}
		if quirk.costBased {
			// The venue wants the quote spend as the order amount.
			orderAmount = spend
		}
	}

	zap.L().Info("Placing market buy",
		zap.String("exchange", s.profile.Id),
		zap.String("symbol", symbol),
		zap.String("spend", spend.String()),
		zap.String("price", ticker.Last.String()))

	order, err := s.client.CreateMarketOrder(ctx, symbol, "buy", orderAmount, params)
	if err != nil {
		zap.L().Error("Buy order failed",
			zap.String("exchange", s.profile.Id),
			zap.String("symbol", symbol),
			zap.Error(err))
		return orderFailure(models.FailureUpstream, err.Error())
	}

	filledPrice := order.Price
	if filledPrice.LessThanOrEqual(decimal.Zero) {
		// Some venues omit the price in the order acknowledgement.
		filledPrice = ticker.Last
	}

	zap.L().Info("Buy order executed",
		zap.String("exchange", s.profile.Id),
		zap.String("order_id", order.Id),
		zap.String("amount", baseAmount.String()),
		zap.String("price", filledPrice.String()))

	return &models.OrderResult{
		Success: true,
		OrderId: order.Id,
		Symbol:  symbol,
		Side:    "buy",
		Amount:  baseAmount,
		Price:   filledPrice,
		Cost:    spend,
		Status:  orderStatus(order),
	}
}

// Sell places a market sell. A zero amount sells `percentage` percent
// of the free base-currency holdings.
func (s *Service) Sell(ctx context.Context, symbol string, amount decimal.Decimal, percentage decimal.Decimal) *models.OrderResult {
	if amount.IsNegative() {
		return orderFailure(models.FailureValidation, "amount must be greater than zero")
	}
	if amount.IsZero() &&
		(percentage.LessThanOrEqual(decimal.Zero) || percentage.GreaterThan(decimal.NewFromInt(100))) {
		return orderFailure(models.FailureValidation, "percentage must be between 1 and 100")
	}

	symbol, listed := s.CheckPair(symbol)
	if !listed {
		return orderFailure(models.FailurePairNotFound,
			fmt.Sprintf("trading pair %s not found on %s", symbol, s.profile.Id))
	}

	ticker, err := s.GetTicker(ctx, symbol)
	if err != nil {
		return orderFailure(models.FailureUpstream, "unable to fetch current price")
	}

	base := baseCurrencyOf(symbol)
	balance, err := s.GetBalance(ctx, base)
	if err != nil {
		return orderFailure(models.FailureUpstream, "unable to verify balance")
	}

	if amount.IsZero() {
		amount = balance.Free.Mul(percentage).Div(decimal.NewFromInt(100)).Round(orderAmountPlaces)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return orderFailure(models.FailureInsufficientFunds,
			fmt.Sprintf("no %s available to sell", base))
	}
	if balance.Free.LessThan(amount) {
		return orderFailure(models.FailureInsufficientFunds,
			fmt.Sprintf("insufficient balance: %s %s available, need %s",
				balance.Free.String(), base, amount.String()))
	}

	zap.L().Info("Placing market sell",
		zap.String("exchange", s.profile.Id),
		zap.String("symbol", symbol),
		zap.String("amount", amount.String()),
		zap.String("price", ticker.Last.String()))

	order, err := s.client.CreateMarketOrder(ctx, symbol, "sell", amount, nil)
	if err != nil {
		zap.L().Error("Sell order failed",
			zap.String("exchange", s.profile.Id),
			zap.String("symbol", symbol),
			zap.Error(err))
		return orderFailure(models.FailureUpstream, err.Error())
	}

	filledPrice := order.Price
	if filledPrice.LessThanOrEqual(decimal.Zero) {
		filledPrice = ticker.Last
	}

	zap.L().Info("Sell order executed",
		zap.String("exchange", s.profile.Id),
		zap.String("order_id", order.Id),
		zap.String("amount", amount.String()),
		zap.String("price", filledPrice.String()))

	return &models.OrderResult{
		Success: true,
		OrderId: order.Id,
		Symbol:  symbol,
		Side:    "sell",
		Amount:  amount,
		Price:   filledPrice,
		Cost:    amount.Mul(filledPrice),
		Status:  orderStatus(order),
	}
}

func orderFailure(kind models.FailureKind, reason string) *models.OrderResult {
	return &models.OrderResult{Success: false, Kind: kind, Reason: reason}
}

func orderStatus(order *Order) string {
	if order.Status == "" {
		return "closed"
	}
	return order.Status
}

func baseCurrencyOf(symbol string) string {
	if i := strings.Index(symbol, "/"); i >= 0 {
		return symbol[:i]
	}
	return symbol
}

func quoteCurrencyOf(symbol string) string {
	if i := strings.Index(symbol, "/"); i >= 0 {
		return symbol[i+1:]
	}
	return QuoteCurrency
}
