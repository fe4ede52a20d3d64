package chain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/onepostnft/marketd/pkg/config"
)

// Deployment holds the contract addresses for one network.
type Deployment struct {
	ChainID    int64
	OnePostNFT common.Address
	BaseToken  common.Address
}

// deployments is the built-in address table, keyed by network name. Config
// overrides take precedence over these.
var deployments = map[string]Deployment{
	"base": {
		ChainID:    8453,
		OnePostNFT: common.HexToAddress("0xE54Bd15E6b5D41F6B726B90BA110B73A5CD0f22A"),
		BaseToken:  common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"),
	},
	"base-sepolia": {
		ChainID:    84532,
		OnePostNFT: common.HexToAddress("0x68BFB3856C31C4326d4b275e43ebD7BAD568d36e"),
		BaseToken:  common.HexToAddress("0x2FD20D692B5B93f90b38a25Cc5Bf1f849D9E0374"),
	},
}

// DeploymentFor resolves the contract addresses for the configured network,
// applying any per-address overrides from config.
func DeploymentFor(cfg *config.ChainConfig) (Deployment, error) {
	dep, ok := deployments[cfg.Network]
	if !ok && cfg.ContractAddress == "" {
		return Deployment{}, fmt.Errorf("%w: unknown network %q and no contract_address override", ErrNotConfigured, cfg.Network)
	}
	if cfg.ContractAddress != "" {
		if !common.IsHexAddress(cfg.ContractAddress) {
			return Deployment{}, fmt.Errorf("%w: invalid contract_address %q", ErrNotConfigured, cfg.ContractAddress)
		}
		dep.OnePostNFT = common.HexToAddress(cfg.ContractAddress)
	}
	if cfg.TokenAddress != "" {
		if !common.IsHexAddress(cfg.TokenAddress) {
			return Deployment{}, fmt.Errorf("%w: invalid token_address %q", ErrNotConfigured, cfg.TokenAddress)
		}
		dep.BaseToken = common.HexToAddress(cfg.TokenAddress)
	}
	if dep.OnePostNFT == (common.Address{}) {
		return Deployment{}, fmt.Errorf("%w: no OnePostNFT address for network %q", ErrNotConfigured, cfg.Network)
	}
	return dep, nil
}
