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
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"exchange-bridge-go/internal/common"
	"exchange-bridge-go/internal/config"
	"exchange-bridge-go/internal/exchange"
	"exchange-bridge-go/internal/journal"
	"exchange-bridge-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const historyLimit = 10

type session struct {
	cfg      *models.Config
	services *common.Services
	reader   *bufio.Reader
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, err := reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

func promptDecimal(reader *bufio.Reader, label string) (decimal.Decimal, error) {
	raw := prompt(reader, label)
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	return value, nil
}

func selectExchange(s *session, ctx context.Context) bool {
	common.PrintHeader("Select an exchange", common.DefaultWidth)
	for i, id := range exchange.SupportedExchanges {
		fmt.Printf("  %d. %s\n", i+1, id)
	}
	fmt.Println("  q. quit")

	choice := prompt(s.reader, "\nChoice: ")
	if choice == "q" || choice == "quit" {
		return false
	}

	index, err := strconv.Atoi(choice)
	if err != nil || index < 1 || index > len(exchange.SupportedExchanges) {
		fmt.Println("❌ Invalid selection")
		return true
	}
	exchangeId := exchange.SupportedExchanges[index-1]

	service, err := common.ConnectExchange(ctx, s.cfg, exchangeId)
	if err != nil {
		if errors.Is(err, exchange.ErrMissingCredentials) {
			fmt.Printf("❌ %v\n   Add the %s credentials to your environment and retry.\n",
				err, strings.ToUpper(exchangeId))
		} else {
			fmt.Printf("❌ Failed to connect to %s: %v\n", exchangeId, err)
		}
		return true
	}

	s.services.Exchange = service
	fmt.Printf("✅ Connected to %s\n", exchangeId)
	actionLoop(s, ctx)
	s.services.Exchange = nil
	return true
}

func actionLoop(s *session, ctx context.Context) {
	for {
		common.PrintHeader(fmt.Sprintf("%s: actions", s.services.Exchange.Id()), common.DefaultWidth)
		fmt.Println("  1. Buy (market)")
		fmt.Println("  2. Sell (market)")
		fmt.Println("  3. Balances")
		fmt.Println("  4. Price check")
		fmt.Println("  5. Deposit address")
		fmt.Println("  6. Withdraw to wallet")
		fmt.Println("  7. Transfer history")
		fmt.Println("  8. Fund from wallet")
		fmt.Println("  b. back to exchange selection")

		switch prompt(s.reader, "\nChoice: ") {
		case "1":
			doBuy(s, ctx)
		case "2":
			doSell(s, ctx)
		case "3":
			doBalances(s, ctx)
		case "4":
			doPrice(s, ctx)
		case "5":
			doDepositAddress(s, ctx)
		case "6":
			doWithdraw(s, ctx)
		case "7":
			doHistory(s, ctx)
		case "8":
			doFundFromWallet(s, ctx)
		case "b", "back":
			return
		default:
			fmt.Println("❌ Invalid selection")
		}

		if prompt(s.reader, "\nContinue on this exchange? [Y/n]: ") == "n" {
			return
		}
	}
}

func doBuy(s *session, ctx context.Context) {
	symbol := prompt(s.reader, "Token symbol (e.g. BTC): ")
	spend, err := promptDecimal(s.reader, fmt.Sprintf("%s amount to spend: ", exchange.QuoteCurrency))
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}

	result := s.services.Exchange.Buy(ctx, symbol, spend)
	printOrderResult(result)
	recordOrder(s, ctx, result)
}

func doSell(s *session, ctx context.Context) {
	symbol := prompt(s.reader, "Token symbol (e.g. BTC): ")
	fmt.Println("Leave amount empty to sell a percentage of your holdings.")
	raw := prompt(s.reader, "Amount to sell: ")

	amount := decimal.Zero
	percentage := decimal.Zero
	if raw != "" {
		var err error
		amount, err = decimal.NewFromString(raw)
		if err != nil {
			fmt.Printf("❌ invalid amount %q\n", raw)
			return
		}
	} else {
		var err error
		percentage, err = promptDecimal(s.reader, "Percentage to sell (1-100): ")
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return
		}
	}

	result := s.services.Exchange.Sell(ctx, symbol, amount, percentage)
	printOrderResult(result)
	recordOrder(s, ctx, result)
}

func doBalances(s *session, ctx context.Context) {
	balances, err := s.services.Exchange.GetAllBalances(ctx)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}
	if len(balances) == 0 {
		fmt.Println("No non-zero balances on this account.")
		return
	}

	fmt.Printf("\n%-10s %20s %20s\n", "Currency", "Free", "Total")
	common.PrintSeparator("-", 52)
	for _, entry := range balances {
		fmt.Printf("%-10s %20s %20s\n", entry.Currency, entry.Free.String(), entry.Total.String())
	}
}

func doPrice(s *session, ctx context.Context) {
	symbol := prompt(s.reader, "Token symbol (e.g. BTC): ")
	pair, listed := s.services.Exchange.CheckPair(symbol)
	if !listed {
		fmt.Printf("❌ %s is not listed on %s\n", pair, s.services.Exchange.Id())
		return
	}

	ticker, err := s.services.Exchange.GetTicker(ctx, pair)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}

	fmt.Printf("\n📈 %s\n", pair)
	fmt.Printf("   Last: %s\n", ticker.Last.String())
	fmt.Printf("   Bid:  %s\n", ticker.Bid.String())
	fmt.Printf("   Ask:  %s\n", ticker.Ask.String())
	fmt.Printf("   24h high/low: %s / %s\n", ticker.High.String(), ticker.Low.String())
}

func doDepositAddress(s *session, ctx context.Context) {
	address, err := s.services.Exchange.GetDepositAddress(ctx, exchange.DefaultToken)
	if err != nil {
		if errors.Is(err, exchange.ErrAddressNotFound) {
			fmt.Printf("❌ %s has no %s deposit address for %s and cannot create one here.\n"+
				"   Generate one in the exchange web UI, then retry.\n",
				s.services.Exchange.Id(), exchange.DesignatedNetwork, exchange.DefaultToken)
			return
		}
		fmt.Printf("❌ %v\n", err)
		return
	}
	printDepositAddress(address)
}

func doWithdraw(s *session, ctx context.Context) {
	amount, err := promptDecimal(s.reader, fmt.Sprintf("%s amount to withdraw: ", exchange.DefaultToken))
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}
	address := prompt(s.reader, "Destination wallet address: ")
	tag := prompt(s.reader, "Address tag/memo (empty if none): ")

	fmt.Printf("\nWithdraw %s %s over %s to %s\n",
		amount.String(), exchange.DefaultToken, exchange.DesignatedNetwork, address)
	if prompt(s.reader, "Confirm? [y/N]: ") != "y" {
		fmt.Println("Cancelled.")
		return
	}

	result := s.services.Exchange.Withdraw(ctx, exchange.DefaultToken, amount, address, tag)
	if !result.Success {
		fmt.Printf("❌ Withdrawal failed (%s): %s\n", result.Kind, result.Reason)
		return
	}

	fmt.Println("✅ Withdrawal accepted")
	fmt.Printf("   Withdrawal ID: %s\n", result.WithdrawalId)
	if result.Status != "" {
		fmt.Printf("   Status:        %s\n", result.Status)
	}
	recordJournal(s, ctx, journal.Entry{
		Kind:     "withdrawal",
		Exchange: s.services.Exchange.Id(),
		Symbol:   exchange.DefaultToken,
		Amount:   amount,
		Address:  address,
		Status:   result.Status,
	})
}

func doHistory(s *session, ctx context.Context) {
	kind := models.HistoryDeposits
	if prompt(s.reader, "Deposits or withdrawals? [d/w]: ") == "w" {
		kind = models.HistoryWithdrawals
	}

	result, err := s.services.Exchange.FetchHistory(ctx, exchange.DefaultToken, kind, historyLimit)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}
	if !result.Supported {
		fmt.Printf("ℹ️  %s does not support listing %s via API.\n", s.services.Exchange.Id(), kind)
		return
	}
	if len(result.Entries) == 0 {
		fmt.Printf("No recent %s.\n", kind)
		return
	}

	fmt.Printf("\nRecent %s:\n", kind)
	for _, entry := range result.Entries {
		when := "pending"
		if !entry.Timestamp.IsZero() {
			when = entry.Timestamp.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("  %s  %12s %-6s  %-10s  tx: %s\n",
			when, entry.Amount.String(), entry.Currency, entry.Status, entry.TxId)
	}
}

// doFundFromWallet resolves the exchange's deposit address and pushes
// tokens to it from the self-custodied wallet.
func doFundFromWallet(s *session, ctx context.Context) {
	if s.cfg.Wallet.PrivateKey == "" {
		fmt.Println("❌ WALLET_PRIVATE_KEY is not configured.")
		return
	}

	if s.services.Chain == nil {
		fmt.Println("🔗 Connecting to the network...")
		executor, err := common.ConnectChain(ctx, s.cfg)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return
		}
		s.services.Chain = executor
	}
	executor := s.services.Chain

	valid, sender := executor.ValidateKey(s.cfg.Wallet.PrivateKey)
	if !valid {
		fmt.Println("❌ WALLET_PRIVATE_KEY is not a valid private key.")
		return
	}

	address, err := s.services.Exchange.GetDepositAddress(ctx, exchange.DefaultToken)
	if err != nil {
		fmt.Printf("❌ Unable to resolve the exchange deposit address: %v\n", err)
		return
	}
	printDepositAddress(address)

	amount := s.cfg.Wallet.TransferAmount
	raw := prompt(s.reader, fmt.Sprintf("Amount to send [%s]: ", amount.String()))
	if raw != "" {
		amount, err = decimal.NewFromString(raw)
		if err != nil {
			fmt.Printf("❌ invalid amount %q\n", raw)
			return
		}
	}

	tokenBalance := executor.TokenBalance(ctx, sender)
	fmt.Printf("\nWallet %s holds %s %s\n", sender, tokenBalance.String(), executor.TokenSymbol())
	fmt.Printf("Send %s %s to %s on %s\n",
		amount.String(), executor.TokenSymbol(), address.Address, executor.NetworkName())
	if prompt(s.reader, "Confirm? [y/N]: ") != "y" {
		fmt.Println("Cancelled.")
		return
	}

	receipt := executor.Transfer(ctx, models.TransferRequest{
		PrivateKey: s.cfg.Wallet.PrivateKey,
		To:         address.Address,
		Amount:     amount,
	})
	printTransferReceipt(receipt)
	recordJournal(s, ctx, journal.Entry{
		Kind:    "transfer",
		Symbol:  executor.TokenSymbol(),
		Amount:  amount,
		Address: address.Address,
		TxId:    receipt.TxHash,
		Status:  string(receipt.State),
	})
}

func printOrderResult(result *models.OrderResult) {
	if !result.Success {
		fmt.Printf("❌ Order failed (%s): %s\n", result.Kind, result.Reason)
		return
	}
	fmt.Printf("✅ %s order executed\n", strings.ToUpper(result.Side[:1])+result.Side[1:])
	fmt.Printf("   Order ID: %s\n", result.OrderId)
	fmt.Printf("   Amount:   %s\n", result.Amount.String())
	fmt.Printf("   Price:    %s\n", result.Price.String())
	fmt.Printf("   Cost:     %s %s\n", result.Cost.String(), exchange.QuoteCurrency)
	fmt.Printf("   Status:   %s\n", result.Status)
}

func printDepositAddress(address *models.DepositAddress) {
	fmt.Printf("\n📬 %s deposit address (%s)\n", address.Asset, address.Network)
	fmt.Printf("   Address: %s\n", address.Address)
	if address.Tag != "" {
		fmt.Printf("   Tag:     %s\n", address.Tag)
	}
	fmt.Printf("⚠️  Only send %s over %s to this address.\n", address.Asset, address.Network)
}

func printTransferReceipt(receipt *models.TransferReceipt) {
	switch receipt.State {
	case models.TransferConfirmed:
		fmt.Println("✅ Transfer confirmed")
		fmt.Printf("   Tx hash: %s\n", receipt.TxHash)
	case models.TransferTimedOut:
		fmt.Println("⏳ No confirmation yet; the transaction may still confirm.")
		fmt.Printf("   Tx hash: %s\n", receipt.TxHash)
		fmt.Println("   Check later with the status command.")
	default:
		fmt.Printf("❌ Transfer failed (%s): %s\n", receipt.Kind, receipt.Reason)
		if receipt.TxHash != "" {
			fmt.Printf("   Tx hash: %s\n", receipt.TxHash)
		}
	}
}

func recordOrder(s *session, ctx context.Context, result *models.OrderResult) {
	if !result.Success {
		return
	}
	recordJournal(s, ctx, journal.Entry{
		Kind:     result.Side,
		Exchange: s.services.Exchange.Id(),
		Symbol:   result.Symbol,
		Amount:   result.Amount,
		Status:   result.Status,
	})
}

func recordJournal(s *session, ctx context.Context, entry journal.Entry) {
	if s.services.Journal == nil {
		return
	}
	if _, err := s.services.Journal.Record(ctx, entry); err != nil {
		zap.L().Warn("Failed to journal operation", zap.Error(err))
	}
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

	journalService, err := common.OpenJournal(ctx, cfg)
	if err != nil {
		fmt.Printf("❌ Failed to open the operation journal: %v\n", err)
		os.Exit(1)
	}

	s := &session{
		cfg:      cfg,
		services: &common.Services{Journal: journalService},
		reader:   bufio.NewReader(os.Stdin),
	}
	defer s.services.Close()

	common.PrintHeader("Exchange bridge - interactive session", common.DefaultWidth)
	fmt.Printf("Token %s, network %s, chain endpoints with failover.\n",
		exchange.DefaultToken, exchange.DesignatedNetwork)

	for selectExchange(s, ctx) {
	}

	common.PrintFooter("Session closed", common.DefaultWidth)
}
