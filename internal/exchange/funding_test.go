package exchange

import (
	"context"
	"errors"
	"testing"

	"exchange-bridge-go/internal/models"

	"github.com/shopspring/decimal"
)

func TestGetDepositAddress_Found(t *testing.T) {
	client := &stubClient{
		address: &DepositAddressRecord{Address: "0xabc", Network: "BSC"},
	}
	service := setupTestService(t, "mexc", client)

	address, err := service.GetDepositAddress(context.Background(), "USDT")
	if err != nil {
		t.Fatalf("GetDepositAddress failed: %v", err)
	}
	if address.Address != "0xabc" {
		t.Errorf("expected address 0xabc, got %s", address.Address)
	}
	// The logical network name comes back, not the venue's field value.
	if address.Network != DesignatedNetwork {
		t.Errorf("expected network %s, got %s", DesignatedNetwork, address.Network)
	}
	if client.lastFetchParams["network"] != "BSC" {
		t.Errorf("expected resolved network param BSC, got %v", client.lastFetchParams)
	}
	if client.createCalls != 0 {
		t.Error("expected no create attempt when the address exists")
	}
}

func TestGetDepositAddress_CreateFallback(t *testing.T) {
	client := &stubClient{
		fetchAddressErr: ErrAddressNotFound,
		created:         &DepositAddressRecord{Address: "0xdef"},
	}
	service := setupTestService(t, "mexc", client)

	address, err := service.GetDepositAddress(context.Background(), "USDT")
	if err != nil {
		t.Fatalf("GetDepositAddress failed: %v", err)
	}
	if address.Address != "0xdef" {
		t.Errorf("expected created address 0xdef, got %s", address.Address)
	}
	if client.fetchCalls != 1 || client.createCalls != 1 {
		t.Errorf("expected one fetch and one create, got %d/%d", client.fetchCalls, client.createCalls)
	}
}

func TestGetDepositAddress_NoCreateCapability(t *testing.T) {
	client := &stubClient{fetchAddressErr: ErrAddressNotFound}
	// bitmart cannot create deposit addresses programmatically.
	service := setupTestService(t, "bitmart", client)

	_, err := service.GetDepositAddress(context.Background(), "USDT")
	if !errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("expected ErrAddressNotFound, got %v", err)
	}
	if client.createCalls != 0 {
		t.Error("expected no create attempt without the capability")
	}
}

func TestGetDepositAddress_CreateStillMissing(t *testing.T) {
	client := &stubClient{
		fetchAddressErr: ErrAddressNotFound,
		createErr:       ErrAddressNotFound,
	}
	service := setupTestService(t, "mexc", client)

	_, err := service.GetDepositAddress(context.Background(), "USDT")
	if !errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("expected ErrAddressNotFound, got %v", err)
	}
}

func TestWithdraw_ValidationBeforeClientCalls(t *testing.T) {
	client := &stubClient{}
	service := setupTestService(t, "mexc", client)

	result := service.Withdraw(context.Background(), "USDT", decimal.Zero, "0xabc", "")
	if result.Success || result.Kind != models.FailureValidation {
		t.Errorf("expected validation failure for zero amount, got %+v", result)
	}

	result = service.Withdraw(context.Background(), "USDT", decimal.NewFromInt(10), "", "")
	if result.Success || result.Kind != models.FailureValidation {
		t.Errorf("expected validation failure for empty address, got %+v", result)
	}

	if client.balanceCalls+client.withdrawCalls != 0 {
		t.Error("expected no client calls for invalid input")
	}
}

func TestWithdraw_InsufficientBalance(t *testing.T) {
	client := &stubClient{
		balances: []models.BalanceEntry{
			{Currency: "USDT", Free: decimal.NewFromInt(5), Total: decimal.NewFromInt(5)},
		},
	}
	service := setupTestService(t, "mexc", client)

	result := service.Withdraw(context.Background(), "USDT", decimal.NewFromInt(10), "0xabc", "")
	if result.Success {
		t.Fatal("expected failure for insufficient balance")
	}
	if result.Kind != models.FailureInsufficientFunds {
		t.Errorf("expected insufficient_funds, got %s", result.Kind)
	}
	if client.balanceCalls != 1 {
		t.Errorf("expected exactly one balance read, got %d", client.balanceCalls)
	}
	if client.withdrawCalls != 0 {
		t.Error("expected no withdrawal request when the balance cannot cover it")
	}
}

func TestWithdraw_Success(t *testing.T) {
	client := &stubClient{
		balances: []models.BalanceEntry{
			{Currency: "USDT", Free: decimal.NewFromInt(100), Total: decimal.NewFromInt(100)},
		},
		withdrawal: &WithdrawalRecord{Id: "w-1", Status: "pending"},
	}
	service := setupTestService(t, "mexc", client)

	result := service.Withdraw(context.Background(), "USDT", decimal.NewFromInt(10), "0xabc", "")
	if !result.Success {
		t.Fatalf("Withdraw failed: %s", result.Reason)
	}
	if result.WithdrawalId != "w-1" {
		t.Errorf("expected withdrawal id w-1, got %s", result.WithdrawalId)
	}
	if client.lastWithdrawParam["network"] != "BSC" {
		t.Errorf("expected resolved network param BSC, got %v", client.lastWithdrawParam)
	}
	if client.lastWithdrawParam["clientOrderId"] == nil {
		t.Error("expected a generated clientOrderId")
	}
	if _, ok := client.lastWithdrawParam["currency"]; ok {
		t.Error("mexc should not receive a network-qualified currency id")
	}
}

func TestWithdraw_BitmartCurrencyId(t *testing.T) {
	client := &stubClient{
		balances: []models.BalanceEntry{
			{Currency: "USDT", Free: decimal.NewFromInt(100), Total: decimal.NewFromInt(100)},
		},
		withdrawal: &WithdrawalRecord{Id: "w-2", Status: "pending"},
	}
	service := setupTestService(t, "bitmart", client)

	result := service.Withdraw(context.Background(), "USDT", decimal.NewFromInt(10), "0xabc", "")
	if !result.Success {
		t.Fatalf("Withdraw failed: %s", result.Reason)
	}
	if client.lastWithdrawParam["currency"] != "USDT-BSC_BNB" {
		t.Errorf("expected network-qualified currency USDT-BSC_BNB, got %v",
			client.lastWithdrawParam["currency"])
	}
}

func TestWithdraw_UpstreamErrorBecomesResult(t *testing.T) {
	client := &stubClient{
		balances: []models.BalanceEntry{
			{Currency: "USDT", Free: decimal.NewFromInt(100), Total: decimal.NewFromInt(100)},
		},
		withdrawErr: errors.New("venue rejected the request"),
	}
	service := setupTestService(t, "mexc", client)

	result := service.Withdraw(context.Background(), "USDT", decimal.NewFromInt(10), "0xabc", "")
	if result.Success {
		t.Fatal("expected failure when the venue rejects the request")
	}
	if result.Kind != models.FailureUpstream {
		t.Errorf("expected upstream failure, got %s", result.Kind)
	}
}

func TestFetchHistory_Supported(t *testing.T) {
	client := &stubClient{
		transfers: []TransferRecord{{Id: "d-1", Currency: "USDT", Amount: decimal.NewFromInt(25)}},
	}
	service := setupTestService(t, "mexc", client)

	result, err := service.FetchHistory(context.Background(), "USDT", models.HistoryDeposits, 10)
	if err != nil {
		t.Fatalf("FetchHistory failed: %v", err)
	}
	if !result.Supported {
		t.Fatal("expected deposits history to be supported")
	}
	if len(result.Entries) != 1 || result.Entries[0].Id != "d-1" {
		t.Errorf("expected one entry d-1, got %v", result.Entries)
	}
}

func TestFetchHistory_SupportedButEmpty(t *testing.T) {
	client := &stubClient{}
	service := setupTestService(t, "mexc", client)

	result, err := service.FetchHistory(context.Background(), "USDT", models.HistoryWithdrawals, 10)
	if err != nil {
		t.Fatalf("FetchHistory failed: %v", err)
	}
	if !result.Supported {
		t.Fatal("expected withdrawals history to be supported")
	}
	if len(result.Entries) != 0 {
		t.Errorf("expected no entries, got %v", result.Entries)
	}
}

func TestFetchHistory_Unsupported(t *testing.T) {
	client := &stubClient{}
	profile := &models.ExchangeProfile{Id: "mexc"}
	service, err := NewService(context.Background(), profile, client)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	result, err := service.FetchHistory(context.Background(), "USDT", models.HistoryDeposits, 10)
	if err != nil {
		t.Fatalf("FetchHistory failed: %v", err)
	}
	if result.Supported {
		t.Fatal("expected history to report unsupported")
	}
	if client.transferCalls != 0 {
		t.Error("expected no client call for an unsupported query")
	}
}

func TestFetchHistory_UnknownKind(t *testing.T) {
	service := setupTestService(t, "mexc", &stubClient{})

	if _, err := service.FetchHistory(context.Background(), "USDT", models.HistoryKind("trades"), 10); err == nil {
		t.Fatal("expected error for unknown history kind")
	}
}
