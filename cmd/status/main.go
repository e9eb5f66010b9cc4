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
	"exchange-bridge-go/internal/models"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Configuration error: %v\n", err)
		os.Exit(1)
	}

	_, loggerCleanup := common.InitializeLogger(cfg.Log)
	defer loggerCleanup()

	txFlag := flag.String("tx", "", "Transaction hash to check (required)")
	flag.Parse()

	txHash := strings.TrimSpace(*txFlag)
	if txHash == "" {
		fmt.Println("❌ --tx is required")
		flag.Usage()
		os.Exit(1)
	}

	executor, err := common.ConnectChain(ctx, cfg)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	status := executor.TransactionStatus(ctx, txHash)
	switch status {
	case models.TxStatusConfirmed:
		fmt.Printf("✅ %s: confirmed\n", txHash)
	case models.TxStatusFailed:
		fmt.Printf("❌ %s: mined but reverted\n", txHash)
		os.Exit(1)
	case models.TxStatusPending:
		fmt.Printf("⏳ %s: pending, not mined yet\n", txHash)
		os.Exit(2)
	default:
		fmt.Printf("❓ %s: status unknown, the node query failed\n", txHash)
		os.Exit(2)
	}
}
