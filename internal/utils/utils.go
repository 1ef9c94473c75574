package utils

import (
	"strings"
)

// MaskWallet masks a wallet address for logging (first 4 and last 4 characters)
func MaskWallet(wallet string) string {
	if len(wallet) > 8 {
		return wallet[:4] + "..." + wallet[len(wallet)-4:]
	}
	return "****"
}

// TxURL builds the explorer link for a transaction signature
func TxURL(explorerBase, signature string) string {
	if signature == "" {
		return ""
	}
	return strings.TrimRight(explorerBase, "/") + "/" + signature
}
