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

package common

import (
	"context"
	"log"

	"exchange-bridge-go/internal/chain"
	"exchange-bridge-go/internal/exchange"
	"exchange-bridge-go/internal/journal"
	"exchange-bridge-go/internal/logging"
	"exchange-bridge-go/internal/models"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via other means (shell
	// export, docker, etc.), so a missing .env is not an error.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	}
}

// Services bundles the long-lived session handles a binary may need.
// Exchange is nil until an exchange is connected; Journal is nil when
// journaling is disabled.
type Services struct {
	Exchange *exchange.Service
	Chain    *chain.Executor
	Journal  *journal.Service
}

// InitializeLogger sets up the global zap logger per the log config and
// returns it with a cleanup function.
func InitializeLogger(cfg models.LogConfig) (*zap.Logger, func()) {
	return logging.Initialize(cfg)
}

// OpenJournal opens the optional operation journal. Returns (nil, nil)
// when no journal path is configured.
func OpenJournal(ctx context.Context, cfg *models.Config) (*journal.Service, error) {
	if cfg.Journal.Path == "" {
		zap.L().Debug("Operation journal disabled")
		return nil, nil
	}
	return journal.NewService(ctx, cfg.Journal)
}

// ConnectExchange builds the profile for the selected venue, validates
// its credential bundle and connects through the unified client.
func ConnectExchange(ctx context.Context, cfg *models.Config, exchangeId string) (*exchange.Service, error) {
	zap.L().Info("Connecting to exchange", zap.String("exchange", exchangeId))
	return exchange.Dial(ctx, exchangeId, cfg.Exchanges[exchangeId])
}

// ConnectChain loads the network descriptor and establishes the
// blockchain connection with endpoint failover.
func ConnectChain(ctx context.Context, cfg *models.Config) (*chain.Executor, error) {
	network, err := LoadNetworkConfig(cfg.NetworksFile)
	if err != nil {
		return nil, err
	}

	return chain.NewExecutor(ctx, chain.Config{
		NetworkName:    network.Name,
		ChainId:        network.ChainId,
		NativeSymbol:   network.NativeSymbol,
		TokenSymbol:    network.TokenSymbol,
		TokenContract:  network.TokenContract,
		RpcEndpoints:   network.RpcEndpoints,
		ReceiptTimeout: cfg.Wallet.ReceiptTimeout,
	})
}

// Close releases whatever session handles were opened.
func (s *Services) Close() {
	if s.Journal != nil {
		s.Journal.Close()
	}
}
