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

package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"exchange-bridge-go/internal/models"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Transfer executes one token transfer end to end: preflight checks,
// fee estimation, signing, broadcast and a bounded confirmation wait.
// Every failure comes back as a uniform receipt; nothing is raised past
// this boundary. The signing key is used in memory only and never
// logged.
func (e *Executor) Transfer(ctx context.Context, req models.TransferRequest) *models.TransferReceipt {
	// Preflight validation, before any network call.
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return transferFailure(models.FailureValidation, "amount must be greater than zero")
	}
	if !e.ValidateAddress(req.To) {
		return transferFailure(models.FailureValidation,
			fmt.Sprintf("invalid destination address: %s", req.To))
	}

	key, err := parseKey(req.PrivateKey)
	if err != nil {
		return transferFailure(models.FailureValidation, "invalid private key")
	}
	sender := crypto.PubkeyToAddress(key.PublicKey)
	to := common.HexToAddress(req.To)

	// Balance checks: token covers the amount, native coin covers fees.
	tokenBalance, err := e.tokenBalanceWei(ctx, sender)
	if err != nil {
		zap.L().Error("Failed to read sender token balance",
			zap.String("sender", sender.Hex()), zap.Error(err))
		return transferFailure(models.FailureUpstream, "unable to read token balance")
	}

	amountWei := ToSmallestUnit(req.Amount, e.decimals)
	if tokenBalance.Cmp(amountWei) < 0 {
		reason := fmt.Sprintf("insufficient %s balance: %s available, need %s",
			e.cfg.TokenSymbol,
			FromSmallestUnit(tokenBalance, e.decimals).String(),
			req.Amount.String())
		zap.L().Error("Transfer aborted", zap.String("reason", reason))
		return transferFailure(models.FailureInsufficientFunds, reason)
	}

	nativeBalance, err := e.backend.BalanceAt(ctx, sender, nil)
	if err != nil {
		zap.L().Error("Failed to read sender native balance",
			zap.String("sender", sender.Hex()), zap.Error(err))
		return transferFailure(models.FailureUpstream, "unable to read native balance")
	}
	if nativeBalance.Cmp(minNativeReserve) < 0 {
		reason := fmt.Sprintf("insufficient %s for fees: %s available, need at least %s",
			e.cfg.NativeSymbol,
			FromSmallestUnit(nativeBalance, nativeDecimals).String(),
			FromSmallestUnit(minNativeReserve, nativeDecimals).String())
		zap.L().Error("Transfer aborted", zap.String("reason", reason))
		return transferFailure(models.FailureInsufficientFunds, reason)
	}

	zap.L().Info("Preparing transfer",
		zap.String("token", e.cfg.TokenSymbol),
		zap.String("amount", req.Amount.String()),
		zap.String("from", sender.Hex()),
		zap.String("to", to.Hex()))

	// Fee estimation with the fixed upward margin.
	data, err := e.tokenABI.Pack("transfer", to, amountWei)
	if err != nil {
		return transferFailure(models.FailureUpstream, "unable to encode transfer call")
	}

	gasLimit, err := e.backend.EstimateGas(ctx, ethereum.CallMsg{
		From: sender,
		To:   &e.contract,
		Data: data,
	})
	if err != nil {
		zap.L().Error("Gas estimation failed", zap.Error(err))
		return transferFailure(models.FailureUpstream, "gas estimation failed")
	}

	gasPrice, err := e.backend.SuggestGasPrice(ctx)
	if err != nil {
		zap.L().Error("Gas price query failed", zap.Error(err))
		return transferFailure(models.FailureUpstream, "gas price query failed")
	}
	gasPrice = applyGasMargin(gasPrice)

	// Assemble and sign.
	nonce, err := e.backend.PendingNonceAt(ctx, sender)
	if err != nil {
		zap.L().Error("Nonce query failed", zap.Error(err))
		return transferFailure(models.FailureUpstream, "nonce query failed")
	}

	tx := types.NewTransaction(nonce, e.contract, big.NewInt(0), gasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(e.chainId), key)
	if err != nil {
		zap.L().Error("Signing failed", zap.Error(err))
		return transferFailure(models.FailureUpstream, "unable to sign transaction")
	}

	// Broadcast and capture the hash immediately.
	if err := e.backend.SendTransaction(ctx, signedTx); err != nil {
		zap.L().Error("Broadcast failed", zap.Error(err))
		return transferFailure(models.FailureUpstream, fmt.Sprintf("broadcast failed: %v", err))
	}

	txHash := signedTx.Hash()
	zap.L().Info("Transaction sent",
		zap.String("tx_hash", txHash.Hex()),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas_limit", gasLimit),
		zap.String("gas_price", gasPrice.String()))

	return e.waitForReceipt(ctx, txHash)
}

// waitForReceipt blocks until the transaction is mined or the receipt
// timeout elapses. Timing out is reported distinctly from failure: the
// transaction may still confirm later.
func (e *Executor) waitForReceipt(ctx context.Context, txHash common.Hash) *models.TransferReceipt {
	zap.L().Info("Waiting for confirmation",
		zap.String("tx_hash", txHash.Hex()),
		zap.Duration("timeout", e.cfg.ReceiptTimeout))

	deadline := time.Now().Add(e.cfg.ReceiptTimeout)
	for {
		receipt, err := e.backend.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			if receipt.Status == types.ReceiptStatusSuccessful {
				zap.L().Info("Transaction confirmed", zap.String("tx_hash", txHash.Hex()))
				return &models.TransferReceipt{
					TxHash: txHash.Hex(),
					State:  models.TransferConfirmed,
				}
			}
			zap.L().Error("Transaction reverted", zap.String("tx_hash", txHash.Hex()))
			return &models.TransferReceipt{
				TxHash: txHash.Hex(),
				State:  models.TransferFailed,
				Kind:   models.FailureUpstream,
				Reason: "transaction reverted on chain",
			}
		}

		if time.Now().After(deadline) {
			zap.L().Warn("Confirmation wait timed out; transaction may still confirm",
				zap.String("tx_hash", txHash.Hex()))
			return &models.TransferReceipt{
				TxHash: txHash.Hex(),
				State:  models.TransferTimedOut,
				Kind:   models.FailureUpstream,
				Reason: fmt.Sprintf("no receipt within %s", e.cfg.ReceiptTimeout),
			}
		}

		select {
		case <-ctx.Done():
			return &models.TransferReceipt{
				TxHash: txHash.Hex(),
				State:  models.TransferTimedOut,
				Kind:   models.FailureUpstream,
				Reason: "confirmation wait cancelled",
			}
		case <-time.After(receiptPollInterval):
		}
	}
}

// applyGasMargin bumps a fee quote by gasPriceMarginPercent.
func applyGasMargin(gasPrice *big.Int) *big.Int {
	margin := new(big.Int).Mul(gasPrice, big.NewInt(gasPriceMarginPercent))
	margin.Div(margin, big.NewInt(100))
	return new(big.Int).Add(gasPrice, margin)
}

func transferFailure(kind models.FailureKind, reason string) *models.TransferReceipt {
	return &models.TransferReceipt{
		State:  models.TransferFailed,
		Kind:   kind,
		Reason: reason,
	}
}
