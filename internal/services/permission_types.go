package services

import "github.com/cyphera/cyphera-agent/internal/types/business"

// Function signatures shared by permission types.
const (
	SigERC20Approve  = "approve(address,uint256)"
	SigERC20Transfer = "transfer(address,uint256)"

	SigUniswapV3ExactInputSingle = "exactInputSingle((address,address,uint24,address,uint256,uint256,uint160))"
	SigUniswapV3ExactInput       = "exactInput((bytes,address,uint256,uint256))"

	SigZeroExTransformERC20     = "transformERC20(address,address,uint256,uint256,(uint32,bytes)[])"
	SigZeroExSellToUniswap      = "sellToUniswap(address[],uint256,uint256,bool)"
	SigZeroExSellToUniswapV3    = "sellTokenForTokenToUniswapV3(bytes,uint256,uint256,address)"
	SigZeroExMultiplexBatchSell = "multiplexBatchSellTokenForToken(address,address,(uint8,uint256,bytes)[],uint256,uint256)"

	SigOneInchSwap     = "swap(address,(address,address,address,address,uint256,uint256,uint256),bytes)"
	SigOneInchUnoswap  = "unoswap(uint256,uint256,uint256,uint256)"
	SigOneInchUnoswap2 = "unoswap2(uint256,uint256,uint256,uint256,uint256)"
)

var swapSelectors = []string{
	SigERC20Approve,
	SigUniswapV3ExactInputSingle,
	SigUniswapV3ExactInput,
	SigZeroExTransformERC20,
	SigZeroExSellToUniswap,
	SigZeroExSellToUniswapV3,
	SigZeroExMultiplexBatchSell,
	SigOneInchSwap,
	SigOneInchUnoswap,
	SigOneInchUnoswap2,
}

// DefaultPermissionTypes returns the permission types known to the agent.
func DefaultPermissionTypes() []business.PermissionTypeDefinition {
	return []business.PermissionTypeDefinition{
		{
			Type:        business.PermissionTypeTrading,
			Description: "Swap the granted token for other registered tokens through registered liquidity sources",
			Selectors:   append([]string(nil), swapSelectors...),
			Enabled:     true,
		},
		{
			Type:        business.PermissionTypeRebalancing,
			Description: "Swap and move the granted token between registered tokens to hold a target allocation",
			Selectors:   append(append([]string(nil), swapSelectors...), SigERC20Transfer),
			Enabled:     true,
		},
		{
			Type:        business.PermissionTypeStaking,
			Description: "Deposit into and withdraw from staking vaults",
			Selectors:   []string{SigERC20Approve, "deposit(uint256,address)", "withdraw(uint256,address,address)"},
			Enabled:     false,
		},
		{
			Type:        business.PermissionTypeGovernance,
			Description: "Delegate voting power and cast votes",
			Selectors:   []string{"delegate(address)", "castVote(uint256,uint8)"},
			Enabled:     false,
		},
	}
}
