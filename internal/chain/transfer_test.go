package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"exchange-bridge-go/internal/models"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
)

const testDestination = "0x0000000000000000000000000000000000000002"

// oneToken is 1.0 in 18-decimal smallest units.
var oneToken, _ = new(big.Int).SetString("1000000000000000000", 10)

func fundedBackend() *stubBackend {
	return &stubBackend{
		tokenBalance:  new(big.Int).Mul(oneToken, big.NewInt(100)),
		nativeBalance: new(big.Int).Mul(minNativeReserve, big.NewInt(10)),
		receipt:       &types.Receipt{Status: types.ReceiptStatusSuccessful},
	}
}

func TestTransfer_Confirmed(t *testing.T) {
	backend := fundedBackend()
	executor := setupTestExecutor(t, backend)

	receipt := executor.Transfer(context.Background(), models.TransferRequest{
		PrivateKey: testPrivateKey,
		To:         testDestination,
		Amount:     decimal.NewFromInt(10),
	})

	if receipt.State != models.TransferConfirmed {
		t.Fatalf("expected CONFIRMED, got %s (%s)", receipt.State, receipt.Reason)
	}
	if receipt.TxHash == "" {
		t.Error("expected a transaction hash on a confirmed transfer")
	}
	if backend.sendCalls != 1 {
		t.Errorf("expected one broadcast, got %d", backend.sendCalls)
	}
	if backend.sentTx.To() == nil || backend.sentTx.To().Hex() != executor.contract.Hex() {
		t.Errorf("expected the transaction to target the token contract, got %v", backend.sentTx.To())
	}
	if backend.sentTx.Value().Sign() != 0 {
		t.Errorf("expected zero native value on a token transfer, got %s", backend.sentTx.Value())
	}
	if backend.sentTx.ChainId().Int64() != 56 {
		t.Errorf("expected chain id 56 on the signed transaction, got %s", backend.sentTx.ChainId())
	}
}

func TestTransfer_GasPriceMarginApplied(t *testing.T) {
	backend := fundedBackend()
	backend.gasPrice = big.NewInt(1_000_000_000)
	executor := setupTestExecutor(t, backend)

	receipt := executor.Transfer(context.Background(), models.TransferRequest{
		PrivateKey: testPrivateKey,
		To:         testDestination,
		Amount:     decimal.NewFromInt(1),
	})
	if receipt.State != models.TransferConfirmed {
		t.Fatalf("expected CONFIRMED, got %s (%s)", receipt.State, receipt.Reason)
	}

	want := big.NewInt(1_100_000_000)
	if backend.sentTx.GasPrice().Cmp(want) != 0 {
		t.Errorf("expected gas price %s, got %s", want, backend.sentTx.GasPrice())
	}
}

func TestApplyGasMargin_RoundsDown(t *testing.T) {
	if got := applyGasMargin(big.NewInt(100)); got.Int64() != 110 {
		t.Errorf("applyGasMargin(100) = %d, want 110", got.Int64())
	}
	if got := applyGasMargin(big.NewInt(15)); got.Int64() != 16 {
		t.Errorf("applyGasMargin(15) = %d, want 16", got.Int64())
	}
}

func TestTransfer_ZeroAmount(t *testing.T) {
	backend := fundedBackend()
	executor := setupTestExecutor(t, backend)

	receipt := executor.Transfer(context.Background(), models.TransferRequest{
		PrivateKey: testPrivateKey,
		To:         testDestination,
		Amount:     decimal.Zero,
	})

	if receipt.State != models.TransferFailed || receipt.Kind != models.FailureValidation {
		t.Errorf("expected validation failure, got %+v", receipt)
	}
	if backend.estimateCalls+backend.sendCalls != 0 {
		t.Error("expected no estimation or broadcast for an invalid amount")
	}
}

func TestTransfer_InvalidDestination(t *testing.T) {
	backend := fundedBackend()
	executor := setupTestExecutor(t, backend)

	receipt := executor.Transfer(context.Background(), models.TransferRequest{
		PrivateKey: testPrivateKey,
		To:         "not-an-address",
		Amount:     decimal.NewFromInt(1),
	})

	if receipt.State != models.TransferFailed || receipt.Kind != models.FailureValidation {
		t.Errorf("expected validation failure, got %+v", receipt)
	}
	if backend.sendCalls != 0 {
		t.Error("expected no broadcast for an invalid destination")
	}
}

func TestTransfer_InvalidKey(t *testing.T) {
	backend := fundedBackend()
	executor := setupTestExecutor(t, backend)

	receipt := executor.Transfer(context.Background(), models.TransferRequest{
		PrivateKey: "zz",
		To:         testDestination,
		Amount:     decimal.NewFromInt(1),
	})

	if receipt.State != models.TransferFailed || receipt.Kind != models.FailureValidation {
		t.Errorf("expected validation failure, got %+v", receipt)
	}
}

func TestTransfer_InsufficientTokenBalance(t *testing.T) {
	backend := fundedBackend()
	backend.tokenBalance = big.NewInt(1)
	executor := setupTestExecutor(t, backend)

	receipt := executor.Transfer(context.Background(), models.TransferRequest{
		PrivateKey: testPrivateKey,
		To:         testDestination,
		Amount:     decimal.NewFromInt(10),
	})

	if receipt.State != models.TransferFailed || receipt.Kind != models.FailureInsufficientFunds {
		t.Errorf("expected insufficient_funds failure, got %+v", receipt)
	}
	// The balance check aborts before any fee estimation or broadcast.
	if backend.estimateCalls != 0 {
		t.Errorf("expected no gas estimation, got %d calls", backend.estimateCalls)
	}
	if backend.sendCalls != 0 {
		t.Errorf("expected no broadcast, got %d calls", backend.sendCalls)
	}
}

func TestTransfer_InsufficientNativeReserve(t *testing.T) {
	backend := fundedBackend()
	backend.nativeBalance = new(big.Int).Sub(minNativeReserve, big.NewInt(1))
	executor := setupTestExecutor(t, backend)

	receipt := executor.Transfer(context.Background(), models.TransferRequest{
		PrivateKey: testPrivateKey,
		To:         testDestination,
		Amount:     decimal.NewFromInt(10),
	})

	if receipt.State != models.TransferFailed || receipt.Kind != models.FailureInsufficientFunds {
		t.Errorf("expected insufficient_funds failure, got %+v", receipt)
	}
	if backend.estimateCalls+backend.sendCalls != 0 {
		t.Error("expected no estimation or broadcast without fee funds")
	}
}

func TestTransfer_BroadcastFailure(t *testing.T) {
	backend := fundedBackend()
	backend.sendErr = errors.New("nonce too low")
	executor := setupTestExecutor(t, backend)

	receipt := executor.Transfer(context.Background(), models.TransferRequest{
		PrivateKey: testPrivateKey,
		To:         testDestination,
		Amount:     decimal.NewFromInt(1),
	})

	if receipt.State != models.TransferFailed || receipt.Kind != models.FailureUpstream {
		t.Errorf("expected upstream failure, got %+v", receipt)
	}
	if backend.receiptCalls != 0 {
		t.Error("expected no receipt polling after a failed broadcast")
	}
}

func TestTransfer_Reverted(t *testing.T) {
	backend := fundedBackend()
	backend.receipt = &types.Receipt{Status: types.ReceiptStatusFailed}
	executor := setupTestExecutor(t, backend)

	receipt := executor.Transfer(context.Background(), models.TransferRequest{
		PrivateKey: testPrivateKey,
		To:         testDestination,
		Amount:     decimal.NewFromInt(1),
	})

	if receipt.State != models.TransferFailed {
		t.Fatalf("expected FAILED, got %s", receipt.State)
	}
	if receipt.TxHash == "" {
		t.Error("expected the transaction hash on a reverted transfer")
	}
}

func TestTransfer_TimedOutDistinctFromFailed(t *testing.T) {
	backend := fundedBackend()
	backend.receipt = nil
	backend.receiptErr = ethereum.NotFound
	executor := setupTestExecutor(t, backend)
	// A deadline already in the past exercises the timeout path without
	// waiting out a poll interval.
	executor.cfg.ReceiptTimeout = -time.Second

	receipt := executor.Transfer(context.Background(), models.TransferRequest{
		PrivateKey: testPrivateKey,
		To:         testDestination,
		Amount:     decimal.NewFromInt(1),
	})

	if receipt.State != models.TransferTimedOut {
		t.Fatalf("expected TIMED_OUT, got %s (%s)", receipt.State, receipt.Reason)
	}
	if receipt.TxHash == "" {
		t.Error("expected the transaction hash on a timed-out transfer")
	}
	if backend.sendCalls != 1 {
		t.Errorf("expected the transaction to have been broadcast, got %d sends", backend.sendCalls)
	}
}
