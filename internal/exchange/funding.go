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
	"fmt"

	"exchange-bridge-go/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetDepositAddress returns the venue's deposit address for the token
// on the designated network. When none exists and the venue supports
// programmatic creation, one create attempt is made with the same
// resolved parameters. A still-missing address reports
// ErrAddressNotFound. The returned Network is always the logical name,
// never the venue's field value.
func (s *Service) GetDepositAddress(ctx context.Context, token string) (*models.DepositAddress, error) {
	params, ok := NetworkParams(s.profile.Id, OpDeposit)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExchange, s.profile.Id)
	}

	record, err := s.client.FetchDepositAddress(ctx, token, params)
	if err != nil {
		if !errors.Is(err, ErrAddressNotFound) {
			zap.L().Error("Failed to fetch deposit address",
				zap.String("exchange", s.profile.Id),
				zap.String("token", token),
				zap.Error(err))
			return nil, fmt.Errorf("unable to fetch deposit address: %w", err)
		}

		if !s.profile.Capabilities.CreateDepositAddress {
			return nil, ErrAddressNotFound
		}

		zap.L().Info("No deposit address on file, creating one",
			zap.String("exchange", s.profile.Id),
			zap.String("token", token))

		record, err = s.client.CreateDepositAddress(ctx, token, params)
		if err != nil {
			if errors.Is(err, ErrAddressNotFound) {
				return nil, ErrAddressNotFound
			}
			zap.L().Error("Failed to create deposit address",
				zap.String("exchange", s.profile.Id),
				zap.String("token", token),
				zap.Error(err))
			return nil, fmt.Errorf("unable to create deposit address: %w", err)
		}
	}

	if record == nil || record.Address == "" {
		return nil, ErrAddressNotFound
	}

	zap.L().Info("Deposit address resolved",
		zap.String("exchange", s.profile.Id),
		zap.String("token", token),
		zap.String("address", record.Address),
		zap.String("network", DesignatedNetwork))

	return &models.DepositAddress{
		Address: record.Address,
		Tag:     record.Tag,
		Network: DesignatedNetwork,
		Asset:   token,
	}, nil
}

// Withdraw requests an on-chain withdrawal of `amount` token to
// `address` over the designated network. Input validation and the
// balance check happen before any mutation; every failure comes back
// as a uniform result, never as a raised client error.
func (s *Service) Withdraw(ctx context.Context, token string, amount decimal.Decimal, address, tag string) *models.WithdrawalResult {
	if amount.LessThanOrEqual(decimal.Zero) {
		return withdrawalFailure(models.FailureValidation, "amount must be greater than zero")
	}
	if address == "" {
		return withdrawalFailure(models.FailureValidation, "destination address must not be empty")
	}

	balance, err := s.GetBalance(ctx, token)
	if err != nil {
		return withdrawalFailure(models.FailureUpstream, "unable to verify balance")
	}
	if balance.Free.LessThan(amount) {
		return withdrawalFailure(models.FailureInsufficientFunds,
			fmt.Sprintf("insufficient balance: %s %s available, need %s",
				balance.Free.String(), token, amount.String()))
	}

	params, ok := NetworkParams(s.profile.Id, OpWithdraw)
	if !ok {
		return withdrawalFailure(models.FailureUnsupported,
			fmt.Sprintf("no withdrawal mapping for %s", s.profile.Id))
	}

	if s.profile.RequiresCurrencyId {
		// Resolve the network-qualified identifier up front; the stock
		// client derives it internally and trips over a missing network
		// code on this venue.
		params["currency"] = ResolveCurrencyId(s.profile.Id, token, DesignatedNetwork)
	}
	params["clientOrderId"] = uuid.New().String()

	zap.L().Info("Requesting withdrawal",
		zap.String("exchange", s.profile.Id),
		zap.String("token", token),
		zap.String("amount", amount.String()),
		zap.String("address", address))

	record, err := s.client.Withdraw(ctx, token, amount, address, tag, params)
	if err != nil {
		zap.L().Error("Withdrawal failed",
			zap.String("exchange", s.profile.Id),
			zap.String("token", token),
			zap.String("amount", amount.String()),
			zap.Error(err))
		return withdrawalFailure(models.FailureUpstream, err.Error())
	}

	zap.L().Info("Withdrawal accepted",
		zap.String("exchange", s.profile.Id),
		zap.String("withdrawal_id", record.Id),
		zap.String("status", record.Status))

	return &models.WithdrawalResult{
		Success:      true,
		WithdrawalId: record.Id,
		Status:       record.Status,
	}
}

// FetchHistory returns recent deposits or withdrawals for the token.
// A venue without the capability yields Supported=false, which is
// distinct from a supported-but-empty list and from an error.
func (s *Service) FetchHistory(ctx context.Context, token string, kind models.HistoryKind, limit int) (*models.HistoryResult, error) {
	switch kind {
	case models.HistoryDeposits:
		if !s.profile.Capabilities.FetchDeposits {
			return &models.HistoryResult{Supported: false}, nil
		}
	case models.HistoryWithdrawals:
		if !s.profile.Capabilities.FetchWithdrawals {
			return &models.HistoryResult{Supported: false}, nil
		}
	default:
		return nil, fmt.Errorf("unknown history kind %q", kind)
	}

	params, _ := NetworkParams(s.profile.Id, OpHistory)

	records, err := s.client.FetchTransfers(ctx, kind, token, limit, params)
	if err != nil {
		zap.L().Error("Failed to fetch transfer history",
			zap.String("exchange", s.profile.Id),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return nil, fmt.Errorf("unable to fetch %s: %w", kind, err)
	}

	entries := make([]models.HistoryEntry, len(records))
	for i, r := range records {
		entries[i] = models.HistoryEntry{
			Id:        r.Id,
			TxId:      r.TxId,
			Currency:  r.Currency,
			Amount:    r.Amount,
			Address:   r.Address,
			Status:    r.Status,
			Timestamp: r.Timestamp,
		}
	}
	return &models.HistoryResult{Supported: true, Entries: entries}, nil
}

func withdrawalFailure(kind models.FailureKind, reason string) *models.WithdrawalResult {
	return &models.WithdrawalResult{Success: false, Kind: kind, Reason: reason}
}
