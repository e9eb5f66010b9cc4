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

package models

import "github.com/shopspring/decimal"

// TransferState is the terminal outcome of an on-chain transfer attempt.
type TransferState string

const (
	// TransferConfirmed means the transaction was mined with a success receipt.
	TransferConfirmed TransferState = "CONFIRMED"
	// TransferFailed means the transaction was mined but reverted, or was
	// rejected before broadcast.
	TransferFailed TransferState = "FAILED"
	// TransferTimedOut means no receipt arrived within the wait window.
	// The transaction may still confirm later; check with TransactionStatus.
	TransferTimedOut TransferState = "TIMED_OUT"
)

// TxStatus is the four-valued status of a broadcast transaction.
type TxStatus string

const (
	TxStatusPending   TxStatus = "pending"
	TxStatusConfirmed TxStatus = "confirmed"
	TxStatusFailed    TxStatus = "failed"
	TxStatusUnknown   TxStatus = "unknown"
)

// TransferRequest describes a single token transfer attempt. Constructed
// per attempt, never persisted; the private key lives only in memory.
type TransferRequest struct {
	PrivateKey string
	To         string
	Amount     decimal.Decimal
}

// TransferReceipt is the outcome of a transfer attempt.
type TransferReceipt struct {
	TxHash string
	State  TransferState
	Kind   FailureKind
	Reason string
}
