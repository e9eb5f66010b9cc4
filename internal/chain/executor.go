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
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"strings"
	"time"

	"exchange-bridge-go/internal/models"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// Minimal token interface: everything a transfer needs, nothing more.
const erc20ABI = `[
	{
		"constant": false,
		"inputs": [
			{"name": "recipient", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"name": "transfer",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [{"name": "account", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [],
		"name": "decimals",
		"outputs": [{"name": "", "type": "uint8"}],
		"type": "function"
	}
]`

const (
	// gasPriceMarginPercent is the upward safety margin applied to the
	// network's fee-per-unit quote to reduce underpriced rejections.
	gasPriceMarginPercent = 10

	receiptPollInterval   = 3 * time.Second
	defaultReceiptTimeout = 120 * time.Second
	endpointProbeTimeout  = 10 * time.Second
)

// minNativeReserve is the minimum native-coin balance (in wei) the
// sender must hold to cover transaction fees: 0.005 BNB.
var minNativeReserve = big.NewInt(5_000_000_000_000_000)

// Sentinel errors for the executor's failure taxonomy.
var (
	ErrConnectivity   = errors.New("no reachable rpc endpoint")
	ErrInvalidKey     = errors.New("invalid private key")
	ErrInvalidAddress = errors.New("invalid address")
)

// Config describes the designated network the executor operates on.
type Config struct {
	NetworkName    string
	ChainId        int64
	NativeSymbol   string
	TokenSymbol    string
	TokenContract  string
	RpcEndpoints   []string
	ReceiptTimeout time.Duration
}

// rpcBackend is the slice of the RPC client the executor consumes.
// *ethclient.Client satisfies it.
type rpcBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

var _ rpcBackend = (*ethclient.Client)(nil)

// Executor runs single-shot token transfers and read-only queries on
// the designated network. The connection handle and the cached token
// decimals are write-once at construction, read-many afterwards.
type Executor struct {
	cfg      Config
	backend  rpcBackend
	contract common.Address
	tokenABI abi.ABI
	chainId  *big.Int
	decimals int32
}

// NewExecutor connects to the network, trying each candidate endpoint
// in order and accepting the first that answers a chain-id probe. With
// every endpoint exhausted the executor is unusable and construction
// fails with ErrConnectivity.
func NewExecutor(ctx context.Context, cfg Config) (*Executor, error) {
	if cfg.ReceiptTimeout <= 0 {
		cfg.ReceiptTimeout = defaultReceiptTimeout
	}

	httpClient, err := createRpcHttpClient()
	if err != nil {
		return nil, fmt.Errorf("unable to create rpc http client: %w", err)
	}

	var backend *ethclient.Client
	for _, endpoint := range cfg.RpcEndpoints {
		zap.L().Info("Probing rpc endpoint", zap.String("endpoint", endpoint))

		rpcClient, err := rpc.DialOptions(ctx, endpoint, rpc.WithHTTPClient(httpClient))
		if err != nil {
			zap.L().Warn("Failed to dial rpc endpoint",
				zap.String("endpoint", endpoint), zap.Error(err))
			continue
		}

		client := ethclient.NewClient(rpcClient)
		probeCtx, cancel := context.WithTimeout(ctx, endpointProbeTimeout)
		chainId, err := client.ChainID(probeCtx)
		cancel()
		if err != nil {
			zap.L().Warn("Rpc endpoint not live",
				zap.String("endpoint", endpoint), zap.Error(err))
			client.Close()
			continue
		}
		if chainId.Int64() != cfg.ChainId {
			zap.L().Warn("Rpc endpoint reports wrong chain",
				zap.String("endpoint", endpoint),
				zap.Int64("want", cfg.ChainId),
				zap.Int64("got", chainId.Int64()))
			client.Close()
			continue
		}

		zap.L().Info("Connected to network",
			zap.String("network", cfg.NetworkName),
			zap.String("endpoint", endpoint),
			zap.Int64("chain_id", cfg.ChainId))
		backend = client
		break
	}
	if backend == nil {
		return nil, fmt.Errorf("%w: tried %d endpoints for %s",
			ErrConnectivity, len(cfg.RpcEndpoints), cfg.NetworkName)
	}

	return newExecutor(ctx, cfg, backend)
}

// newExecutor finishes construction on an already live backend: parses
// the token interface and caches the contract's declared decimals for
// the session.
func newExecutor(ctx context.Context, cfg Config, backend rpcBackend) (*Executor, error) {
	tokenABI, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token abi: %w", err)
	}

	e := &Executor{
		cfg:      cfg,
		backend:  backend,
		contract: common.HexToAddress(cfg.TokenContract),
		tokenABI: tokenABI,
		chainId:  big.NewInt(cfg.ChainId),
	}

	decimals, err := e.fetchDecimals(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to read token decimals: %w", err)
	}
	e.decimals = decimals

	zap.L().Info("Token contract initialized",
		zap.String("token", cfg.TokenSymbol),
		zap.String("contract", cfg.TokenContract),
		zap.Int32("decimals", decimals))

	return e, nil
}

// createRpcHttpClient builds the shared HTTP/2 transport used for all
// RPC traffic.
func createRpcHttpClient() (*http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: tr,
		Timeout:   60 * time.Second,
	}, nil
}

// NetworkName returns the logical network label.
func (e *Executor) NetworkName() string { return e.cfg.NetworkName }

// TokenSymbol returns the token the executor moves.
func (e *Executor) TokenSymbol() string { return e.cfg.TokenSymbol }

// NativeSymbol returns the fee coin's symbol.
func (e *Executor) NativeSymbol() string { return e.cfg.NativeSymbol }

// Decimals returns the token's declared decimal count, cached at
// construction.
func (e *Executor) Decimals() int32 { return e.decimals }

func (e *Executor) fetchDecimals(ctx context.Context) (int32, error) {
	data, err := e.tokenABI.Pack("decimals")
	if err != nil {
		return 0, err
	}

	result, err := e.backend.CallContract(ctx, ethereum.CallMsg{To: &e.contract, Data: data}, nil)
	if err != nil {
		return 0, err
	}

	var decimals uint8
	if err := e.tokenABI.UnpackIntoInterface(&decimals, "decimals", result); err != nil {
		return 0, err
	}
	return int32(decimals), nil
}

func (e *Executor) tokenBalanceWei(ctx context.Context, account common.Address) (*big.Int, error) {
	data, err := e.tokenABI.Pack("balanceOf", account)
	if err != nil {
		return nil, err
	}

	result, err := e.backend.CallContract(ctx, ethereum.CallMsg{To: &e.contract, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		// Address never touched the token: zero, not an error.
		return big.NewInt(0), nil
	}

	var balance *big.Int
	if err := e.tokenABI.UnpackIntoInterface(&balance, "balanceOf", result); err != nil {
		return nil, err
	}
	if balance == nil {
		balance = big.NewInt(0)
	}
	return balance, nil
}

// TokenBalance returns the token balance for an address in human
// units. Read-only: any failure is logged and reported as zero.
func (e *Executor) TokenBalance(ctx context.Context, address string) decimal.Decimal {
	if !e.ValidateAddress(address) {
		zap.L().Error("Invalid address for balance query", zap.String("address", address))
		return decimal.Zero
	}

	balance, err := e.tokenBalanceWei(ctx, common.HexToAddress(address))
	if err != nil {
		zap.L().Error("Failed to read token balance",
			zap.String("address", address), zap.Error(err))
		return decimal.Zero
	}
	return FromSmallestUnit(balance, e.decimals)
}

// NativeBalance returns the fee-coin balance for an address in human units.
func (e *Executor) NativeBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	if !e.ValidateAddress(address) {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidAddress, address)
	}

	balance, err := e.backend.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		zap.L().Error("Failed to read native balance",
			zap.String("address", address), zap.Error(err))
		return decimal.Zero, fmt.Errorf("unable to read %s balance: %w", e.cfg.NativeSymbol, err)
	}
	return FromSmallestUnit(balance, nativeDecimals), nil
}

// ValidateAddress reports whether the address is well formed. Pure,
// idempotent, never touches the network.
func (e *Executor) ValidateAddress(address string) bool {
	return common.IsHexAddress(address)
}

// ValidateKey reports whether the private key is well formed and, when
// it is, the address it derives. Pure and idempotent; the key is never
// logged.
func (e *Executor) ValidateKey(privateKey string) (bool, string) {
	key, err := parseKey(privateKey)
	if err != nil {
		return false, ""
	}
	return true, crypto.PubkeyToAddress(key.PublicKey).Hex()
}

// TransactionStatus maps a transaction hash to the four-valued status:
// missing receipt is pending, a success receipt is confirmed, a revert
// is failed, and a query error is unknown.
func (e *Executor) TransactionStatus(ctx context.Context, txHash string) models.TxStatus {
	receipt, err := e.backend.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return models.TxStatusPending
		}
		zap.L().Error("Failed to query transaction status",
			zap.String("tx_hash", txHash), zap.Error(err))
		return models.TxStatusUnknown
	}

	if receipt.Status == types.ReceiptStatusSuccessful {
		return models.TxStatusConfirmed
	}
	return models.TxStatusFailed
}

func parseKey(privateKeyHex string) (*ecdsa.PrivateKey, error) {
	privateKeyHex = strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return key, nil
}
