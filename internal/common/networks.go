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
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// NetworkConfig describes the designated network: where to reach it and
// which token contract the bridge operates on.
type NetworkConfig struct {
	Name          string   `yaml:"name"`
	ChainId       int64    `yaml:"chain_id"`
	NativeSymbol  string   `yaml:"native_symbol"`
	TokenSymbol   string   `yaml:"token_symbol"`
	TokenContract string   `yaml:"token_contract"`
	RpcEndpoints  []string `yaml:"rpc_endpoints"`
}

// DefaultNetworkConfig returns the built-in BSC/BEP20 descriptor with
// the canonical USDT contract and the public dataseed endpoints.
func DefaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		Name:          "BEP20",
		ChainId:       56,
		NativeSymbol:  "BNB",
		TokenSymbol:   "USDT",
		TokenContract: "0x55d398326f99059fF775485246999027B3197955",
		RpcEndpoints: []string{
			"https://bsc-dataseed.binance.org/",
			"https://bsc-dataseed1.binance.org/",
			"https://bsc-dataseed2.binance.org/",
			"https://bsc-dataseed3.binance.org/",
			"https://bsc-dataseed4.binance.org/",
			"https://endpoints.omniatech.io/v1/bsc/mainnet/public",
			"https://bsc.publicnode.com",
		},
	}
}

// LoadNetworkConfig reads the network descriptor from a yaml file,
// falling back to the built-in BSC defaults when the file is absent.
func LoadNetworkConfig(networksFile string) (NetworkConfig, error) {
	var networksPath string
	if filepath.IsAbs(networksFile) {
		networksPath = networksFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return NetworkConfig{}, fmt.Errorf("failed to get working directory: %w", err)
		}
		networksPath = filepath.Join(wd, networksFile)
	}

	data, err := os.ReadFile(networksPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultNetworkConfig(), nil
		}
		return NetworkConfig{}, fmt.Errorf("unable to read %s: %w", networksFile, err)
	}

	config := DefaultNetworkConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return NetworkConfig{}, fmt.Errorf("unable to parse %s: %w", networksFile, err)
	}

	if config.TokenContract == "" {
		return NetworkConfig{}, fmt.Errorf("%s: token_contract is required", networksFile)
	}
	if config.ChainId <= 0 {
		return NetworkConfig{}, fmt.Errorf("%s: chain_id must be positive", networksFile)
	}
	if len(config.RpcEndpoints) == 0 {
		return NetworkConfig{}, fmt.Errorf("%s: at least one rpc endpoint is required", networksFile)
	}

	return config, nil
}
