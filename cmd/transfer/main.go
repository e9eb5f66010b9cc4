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

	"exchange-bridge-go/internal/common"
	"exchange-bridge-go/internal/config"
	"exchange-bridge-go/internal/journal"
	"exchange-bridge-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type transferRequest struct {
	to     string
	amount decimal.Decimal
}

func parseAndValidateFlags(cfg *models.Config) (*transferRequest, error) {
	toFlag := flag.String("to", "", "Destination address (required)")
	amountFlag := flag.String("amount", "", "Token amount to send (defaults to TRANSFER_AMOUNT)")
	flag.Parse()

	if *toFlag == "" {
		return nil, fmt.Errorf("--to is required")
	}

	amount := cfg.Wallet.TransferAmount
	if *amountFlag != "" {
		parsed, err := decimal.NewFromString(*amountFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid amount format: %w", err)
		}
		amount = parsed
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("amount must be greater than zero")
	}

	return &transferRequest{to: *toFlag, amount: amount}, nil
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

	req, err := parseAndValidateFlags(cfg)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	if cfg.Wallet.PrivateKey == "" {
		fmt.Println("❌ WALLET_PRIVATE_KEY is not configured.")
		os.Exit(1)
	}

	executor, err := common.ConnectChain(ctx, cfg)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	valid, sender := executor.ValidateKey(cfg.Wallet.PrivateKey)
	if !valid {
		fmt.Println("❌ WALLET_PRIVATE_KEY is not a valid private key.")
		os.Exit(1)
	}

	common.PrintHeader("Wallet transfer", common.DefaultWidth)
	fmt.Printf("Network: %s\n", executor.NetworkName())
	fmt.Printf("From:    %s\n", sender)
	fmt.Printf("To:      %s\n", req.to)
	fmt.Printf("Amount:  %s %s\n", req.amount.String(), executor.TokenSymbol())

	receipt := executor.Transfer(ctx, models.TransferRequest{
		PrivateKey: cfg.Wallet.PrivateKey,
		To:         req.to,
		Amount:     req.amount,
	})

	recordTransfer(ctx, cfg, executor.TokenSymbol(), req, receipt)

	switch receipt.State {
	case models.TransferConfirmed:
		fmt.Println("\n✅ Transfer confirmed")
		fmt.Printf("   Tx hash: %s\n", receipt.TxHash)
	case models.TransferTimedOut:
		fmt.Println("\n⏳ No confirmation yet; the transaction may still confirm.")
		fmt.Printf("   Tx hash: %s\n", receipt.TxHash)
		fmt.Println("   Check later with the status command.")
		os.Exit(2)
	default:
		fmt.Printf("\n❌ Transfer failed (%s): %s\n", receipt.Kind, receipt.Reason)
		if receipt.TxHash != "" {
			fmt.Printf("   Tx hash: %s\n", receipt.TxHash)
		}
		os.Exit(1)
	}
}

func recordTransfer(ctx context.Context, cfg *models.Config, token string, req *transferRequest, receipt *models.TransferReceipt) {
	journalService, err := common.OpenJournal(ctx, cfg)
	if err != nil {
		zap.L().Warn("Failed to open the operation journal", zap.Error(err))
		return
	}
	if journalService == nil {
		return
	}
	defer journalService.Close()

	if _, err := journalService.Record(ctx, journal.Entry{
		Kind:    "transfer",
		Symbol:  token,
		Amount:  req.amount,
		Address: req.to,
		TxId:    receipt.TxHash,
		Status:  string(receipt.State),
	}); err != nil {
		zap.L().Warn("Failed to journal transfer", zap.Error(err))
	}
}
