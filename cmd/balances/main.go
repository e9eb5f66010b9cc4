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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"exchange-bridge-go/internal/common"
	"exchange-bridge-go/internal/config"
	"exchange-bridge-go/internal/exchange"
	"exchange-bridge-go/internal/models"

	"go.uber.org/zap"
)

type balanceStats struct {
	exchangesQueried int
	exchangesFailed  int
}

func printWalletBalances(ctx context.Context, cfg *models.Config) {
	if cfg.Wallet.PrivateKey == "" {
		fmt.Println("\nWallet: WALLET_PRIVATE_KEY not configured, skipping.")
		return
	}

	executor, err := common.ConnectChain(ctx, cfg)
	if err != nil {
		fmt.Printf("\nWallet: ❌ %v\n", err)
		return
	}

	valid, address := executor.ValidateKey(cfg.Wallet.PrivateKey)
	if !valid {
		fmt.Println("\nWallet: ❌ WALLET_PRIVATE_KEY is not a valid private key.")
		return
	}

	fmt.Printf("\n🔑 Wallet %s (%s)\n", address, executor.NetworkName())
	fmt.Printf("   %-6s %20s\n", executor.TokenSymbol(), executor.TokenBalance(ctx, address).String())

	native, err := executor.NativeBalance(ctx, address)
	if err != nil {
		fmt.Printf("   %-6s %20s\n", executor.NativeSymbol(), "unavailable")
		return
	}
	fmt.Printf("   %-6s %20s\n", executor.NativeSymbol(), native.String())
}

func printExchangeBalances(ctx context.Context, cfg *models.Config, exchangeId string) error {
	service, err := common.ConnectExchange(ctx, cfg, exchangeId)
	if err != nil {
		return err
	}

	balances, err := service.GetAllBalances(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("\n🏦 %s\n", exchangeId)
	if len(balances) == 0 {
		fmt.Println("   no non-zero balances")
		return nil
	}
	for _, entry := range balances {
		fmt.Printf("   %-10s %20s free %20s total\n",
			entry.Currency, entry.Free.String(), entry.Total.String())
	}
	return nil
}

func configuredExchanges(cfg *models.Config, only string) []string {
	if only != "" {
		return strings.Split(only, ",")
	}

	var ids []string
	for _, id := range exchange.SupportedExchanges {
		if cfg.Exchanges[id].ApiKey != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Configuration error: %v\n", err)
		os.Exit(1)
	}

	_, loggerCleanup := common.InitializeLogger(cfg.Log)
	defer loggerCleanup()

	exchangesFlag := flag.String("exchanges", "", "Comma-separated exchange ids (default: all with credentials)")
	walletFlag := flag.Bool("wallet", true, "Include the self-custodied wallet")
	flag.Parse()

	common.PrintHeader("Balances", common.DefaultWidth)

	if *walletFlag {
		printWalletBalances(ctx, cfg)
	}

	stats := balanceStats{}
	for _, id := range configuredExchanges(cfg, *exchangesFlag) {
		id = strings.TrimSpace(strings.ToLower(id))
		if id == "" {
			continue
		}
		stats.exchangesQueried++
		if err := printExchangeBalances(ctx, cfg, id); err != nil {
			stats.exchangesFailed++
			zap.L().Error("Failed to query exchange balances",
				zap.String("exchange", id),
				zap.Error(err))
			fmt.Printf("\n🏦 %s\n   ❌ %v\n", id, err)
		}
	}

	common.PrintFooter(fmt.Sprintf("Queried %d exchange(s), %d failed",
		stats.exchangesQueried, stats.exchangesFailed), common.DefaultWidth)

	if stats.exchangesFailed > 0 {
		os.Exit(1)
	}
}
