package model

// ClassifyDirection maps the wallet's position in a transfer to a direction.
// Addresses must already be normalized for the chain family. A sender match
// wins over a recipient match so self-transfers are costs (the fee is paid).
func ClassifyDirection(wallet, from, to string) TxDirection {
	switch {
	case wallet != "" && from == wallet:
		return DirectionCost
	case wallet != "" && to == wallet:
		return DirectionIncome
	default:
		return DirectionUnknown
	}
}

// ClassifyAction picks the action for a direction. serviceMarker applies to
// costs (the wallet paid for a chain service); chainAction applies to income
// (the credit came from a higher-level chain action, not a plain transfer).
func ClassifyAction(direction TxDirection, serviceMarker, chainAction bool) TxAction {
	switch direction {
	case DirectionCost:
		if serviceMarker {
			return ActionTransaction
		}
		return ActionWithdrawal
	case DirectionIncome:
		if chainAction {
			return ActionTransaction
		}
		return ActionDeposit
	default:
		return ActionUnknown
	}
}
