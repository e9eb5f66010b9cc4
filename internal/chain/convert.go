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
	"math/big"

	"github.com/shopspring/decimal"
)

// nativeDecimals is the native coin's fixed precision (wei).
const nativeDecimals = 18

// ToSmallestUnit converts a human-readable token amount to the token's
// integer smallest unit, truncating any precision beyond it. This is
// the single place human amounts become on-chain integers.
func ToSmallestUnit(amount decimal.Decimal, decimals int32) *big.Int {
	return amount.Shift(decimals).Truncate(0).BigInt()
}

// FromSmallestUnit converts an integer smallest-unit amount back to
// human-readable token units.
func FromSmallestUnit(units *big.Int, decimals int32) decimal.Decimal {
	if units == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(units, -decimals)
}
