package exchange

import (
	"context"
	"errors"
	"testing"

	"exchange-bridge-go/internal/models"

	"github.com/shopspring/decimal"
)

// stubClient is a scriptable Client that counts calls, so tests can
// assert which upstream operations ran and with what parameters.
type stubClient struct {
	markets  map[string]Market
	ticker   *models.Ticker
	balances []models.BalanceEntry
	order    *Order

	fetchAddressErr error
	address         *DepositAddressRecord
	created         *DepositAddressRecord
	createErr       error
	withdrawal      *WithdrawalRecord
	withdrawErr     error
	transfers       []TransferRecord

	tickerCalls   int
	balanceCalls  int
	orderCalls    int
	fetchCalls    int
	createCalls   int
	withdrawCalls int
	transferCalls int

	lastOrderSymbol   string
	lastOrderSide     string
	lastOrderAmount   decimal.Decimal
	lastOrderParams   map[string]interface{}
	lastFetchParams   map[string]interface{}
	lastWithdrawCode  string
	lastWithdrawTag   string
	lastWithdrawParam map[string]interface{}
}

var _ Client = (*stubClient)(nil)

func (c *stubClient) LoadMarkets(ctx context.Context) (map[string]Market, error) {
	if c.markets == nil {
		c.markets = map[string]Market{"BTC/USDT": {Symbol: "BTC/USDT"}}
	}
	return c.markets, nil
}

func (c *stubClient) FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	c.tickerCalls++
	if c.ticker == nil {
		return nil, errors.New("no ticker scripted")
	}
	return c.ticker, nil
}

func (c *stubClient) FetchBalance(ctx context.Context, params map[string]interface{}) ([]models.BalanceEntry, error) {
	c.balanceCalls++
	return c.balances, nil
}

func (c *stubClient) CreateMarketOrder(ctx context.Context, symbol, side string, amount decimal.Decimal, params map[string]interface{}) (*Order, error) {
	c.orderCalls++
	c.lastOrderSymbol = symbol
	c.lastOrderSide = side
	c.lastOrderAmount = amount
	c.lastOrderParams = params
	if c.order == nil {
		return nil, errors.New("no order scripted")
	}
	return c.order, nil
}

func (c *stubClient) FetchDepositAddress(ctx context.Context, code string, params map[string]interface{}) (*DepositAddressRecord, error) {
	c.fetchCalls++
	c.lastFetchParams = params
	if c.fetchAddressErr != nil {
		return nil, c.fetchAddressErr
	}
	return c.address, nil
}

func (c *stubClient) CreateDepositAddress(ctx context.Context, code string, params map[string]interface{}) (*DepositAddressRecord, error) {
	c.createCalls++
	if c.createErr != nil {
		return nil, c.createErr
	}
	return c.created, nil
}

func (c *stubClient) Withdraw(ctx context.Context, code string, amount decimal.Decimal, address, tag string, params map[string]interface{}) (*WithdrawalRecord, error) {
	c.withdrawCalls++
	c.lastWithdrawCode = code
	c.lastWithdrawTag = tag
	c.lastWithdrawParam = params
	if c.withdrawErr != nil {
		return nil, c.withdrawErr
	}
	return c.withdrawal, nil
}

func (c *stubClient) FetchTransfers(ctx context.Context, kind models.HistoryKind, code string, limit int, params map[string]interface{}) ([]TransferRecord, error) {
	c.transferCalls++
	return c.transfers, nil
}

func setupTestService(t *testing.T, exchangeId string, client *stubClient) *Service {
	t.Helper()

	creds := models.ExchangeCredentials{ApiKey: "key", Secret: "secret", Passphrase: "memo"}
	profile, err := NewProfile(exchangeId, creds)
	if err != nil {
		t.Fatalf("NewProfile failed: %v", err)
	}

	service, err := NewService(context.Background(), profile, client)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return service
}

func TestCheckPair_NormalizesSymbol(t *testing.T) {
	service := setupTestService(t, "mexc", &stubClient{})

	pair, listed := service.CheckPair(" btc ")
	if !listed {
		t.Fatal("expected BTC/USDT to be listed")
	}
	if pair != "BTC/USDT" {
		t.Errorf("expected BTC/USDT, got %s", pair)
	}
}

func TestCheckPair_NotListed(t *testing.T) {
	service := setupTestService(t, "mexc", &stubClient{})

	pair, listed := service.CheckPair("DOGE")
	if listed {
		t.Fatal("expected DOGE/USDT to be unlisted")
	}
	if pair != "DOGE/USDT" {
		t.Errorf("expected normalized DOGE/USDT, got %s", pair)
	}
}

func TestCheckPair_EmptySymbol(t *testing.T) {
	service := setupTestService(t, "mexc", &stubClient{})

	if _, listed := service.CheckPair("  "); listed {
		t.Error("expected empty symbol to be rejected")
	}
}

func TestGetBalance_UnknownCurrencyIsZero(t *testing.T) {
	client := &stubClient{balances: []models.BalanceEntry{
		{Currency: "USDT", Free: decimal.NewFromInt(100), Total: decimal.NewFromInt(100)},
	}}
	service := setupTestService(t, "mexc", client)

	entry, err := service.GetBalance(context.Background(), "btc")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if entry.Currency != "BTC" {
		t.Errorf("expected currency BTC, got %s", entry.Currency)
	}
	if !entry.Free.IsZero() || !entry.Total.IsZero() {
		t.Errorf("expected zero balance, got free=%s total=%s", entry.Free, entry.Total)
	}
}

func TestGetAllBalances_FiltersZero(t *testing.T) {
	client := &stubClient{balances: []models.BalanceEntry{
		{Currency: "USDT", Free: decimal.NewFromInt(100), Total: decimal.NewFromInt(100)},
		{Currency: "BTC", Free: decimal.Zero, Total: decimal.Zero},
	}}
	service := setupTestService(t, "mexc", client)

	balances, err := service.GetAllBalances(context.Background())
	if err != nil {
		t.Fatalf("GetAllBalances failed: %v", err)
	}
	if len(balances) != 1 || balances[0].Currency != "USDT" {
		t.Errorf("expected only USDT, got %v", balances)
	}
}

func TestBuy_ZeroAmountRejectedWithoutClientCalls(t *testing.T) {
	client := &stubClient{}
	service := setupTestService(t, "mexc", client)

	result := service.Buy(context.Background(), "BTC", decimal.Zero)
	if result.Success {
		t.Fatal("expected failure for zero amount")
	}
	if result.Kind != models.FailureValidation {
		t.Errorf("expected validation failure, got %s", result.Kind)
	}
	if client.tickerCalls+client.balanceCalls+client.orderCalls != 0 {
		t.Error("expected no client calls for an invalid amount")
	}
}

func TestBuy_PairNotFound(t *testing.T) {
	client := &stubClient{}
	service := setupTestService(t, "mexc", client)

	result := service.Buy(context.Background(), "DOGE", decimal.NewFromInt(10))
	if result.Success {
		t.Fatal("expected failure for unlisted pair")
	}
	if result.Kind != models.FailurePairNotFound {
		t.Errorf("expected pair_not_found, got %s", result.Kind)
	}
	if client.orderCalls != 0 {
		t.Error("expected no order placement for an unlisted pair")
	}
}

func TestBuy_InsufficientBalance(t *testing.T) {
	client := &stubClient{
		ticker: &models.Ticker{Symbol: "BTC/USDT", Last: decimal.NewFromInt(50000)},
		balances: []models.BalanceEntry{
			{Currency: "USDT", Free: decimal.NewFromInt(5), Total: decimal.NewFromInt(5)},
		},
	}
	service := setupTestService(t, "mexc", client)

	result := service.Buy(context.Background(), "BTC", decimal.NewFromInt(10))
	if result.Success {
		t.Fatal("expected failure for insufficient balance")
	}
	if result.Kind != models.FailureInsufficientFunds {
		t.Errorf("expected insufficient_funds, got %s", result.Kind)
	}
	if client.orderCalls != 0 {
		t.Error("expected no order placement when the balance cannot cover the spend")
	}
}

func TestBuy_ConvertsSpendToBaseAmount(t *testing.T) {
	client := &stubClient{
		ticker: &models.Ticker{Symbol: "BTC/USDT", Last: decimal.NewFromInt(50000)},
		balances: []models.BalanceEntry{
			{Currency: "USDT", Free: decimal.NewFromInt(1000), Total: decimal.NewFromInt(1000)},
		},
		order: &Order{Id: "order-1", Price: decimal.NewFromInt(50000), Status: "closed"},
	}
	service := setupTestService(t, "mexc", client)

	result := service.Buy(context.Background(), "BTC", decimal.NewFromInt(100))
	if !result.Success {
		t.Fatalf("Buy failed: %s", result.Reason)
	}

	wantAmount := decimal.NewFromFloat(0.002)
	if !client.lastOrderAmount.Equal(wantAmount) {
		t.Errorf("expected order amount %s, got %s", wantAmount, client.lastOrderAmount)
	}
	if client.lastOrderSide != "buy" {
		t.Errorf("expected side buy, got %s", client.lastOrderSide)
	}
	if !result.Amount.Equal(wantAmount) {
		t.Errorf("expected result amount %s, got %s", wantAmount, result.Amount)
	}
}

func TestBuy_CostBasedQuirk(t *testing.T) {
	client := &stubClient{
		markets: map[string]Market{"BTC/USDT": {Symbol: "BTC/USDT"}},
		ticker:  &models.Ticker{Symbol: "BTC/USDT", Last: decimal.NewFromInt(50000)},
		balances: []models.BalanceEntry{
			{Currency: "USDT", Free: decimal.NewFromInt(1000), Total: decimal.NewFromInt(1000)},
		},
		order: &Order{Id: "order-1", Status: "closed"},
	}
	service := setupTestService(t, "htx", client)

	spend := decimal.NewFromInt(100)
	result := service.Buy(context.Background(), "BTC", spend)
	if !result.Success {
		t.Fatalf("Buy failed: %s", result.Reason)
	}

	// The venue takes the quote spend as the order amount.
	if !client.lastOrderAmount.Equal(spend) {
		t.Errorf("expected order amount %s, got %s", spend, client.lastOrderAmount)
	}
	if client.lastOrderParams["createMarketBuyOrderRequiresPrice"] != false {
		t.Errorf("expected createMarketBuyOrderRequiresPrice=false, got %v", client.lastOrderParams)
	}

	// The reported fill falls back to the ticker when the venue omits it.
	if !result.Price.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("expected fallback price 50000, got %s", result.Price)
	}
}

func TestSell_PercentageOfHoldings(t *testing.T) {
	client := &stubClient{
		ticker: &models.Ticker{Symbol: "BTC/USDT", Last: decimal.NewFromInt(50000)},
		balances: []models.BalanceEntry{
			{Currency: "BTC", Free: decimal.NewFromInt(2), Total: decimal.NewFromInt(2)},
		},
		order: &Order{Id: "order-2", Price: decimal.NewFromInt(50000), Status: "closed"},
	}
	service := setupTestService(t, "mexc", client)

	result := service.Sell(context.Background(), "BTC", decimal.Zero, decimal.NewFromInt(50))
	if !result.Success {
		t.Fatalf("Sell failed: %s", result.Reason)
	}
	if !client.lastOrderAmount.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected order amount 1, got %s", client.lastOrderAmount)
	}
	if client.lastOrderSide != "sell" {
		t.Errorf("expected side sell, got %s", client.lastOrderSide)
	}
}

func TestSell_InvalidPercentage(t *testing.T) {
	client := &stubClient{}
	service := setupTestService(t, "mexc", client)

	result := service.Sell(context.Background(), "BTC", decimal.Zero, decimal.NewFromInt(150))
	if result.Success || result.Kind != models.FailureValidation {
		t.Errorf("expected validation failure, got %+v", result)
	}
	if client.tickerCalls+client.balanceCalls+client.orderCalls != 0 {
		t.Error("expected no client calls for an invalid percentage")
	}
}

func TestSell_NothingToSell(t *testing.T) {
	client := &stubClient{
		ticker: &models.Ticker{Symbol: "BTC/USDT", Last: decimal.NewFromInt(50000)},
		balances: []models.BalanceEntry{
			{Currency: "BTC", Free: decimal.Zero, Total: decimal.Zero},
		},
	}
	service := setupTestService(t, "mexc", client)

	result := service.Sell(context.Background(), "BTC", decimal.Zero, decimal.NewFromInt(100))
	if result.Success {
		t.Fatal("expected failure with nothing to sell")
	}
	if result.Kind != models.FailureInsufficientFunds {
		t.Errorf("expected insufficient_funds, got %s", result.Kind)
	}
	if client.orderCalls != 0 {
		t.Error("expected no order placement with an empty balance")
	}
}
