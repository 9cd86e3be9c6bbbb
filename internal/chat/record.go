package chat

import (
	"fmt"
	"strings"
	"time"
)

// Record is a message the ledger accepted. Records are never edited or removed.
type Record struct {
	ID             string
	Text           string
	DisplayText    string
	Sender         string
	Signature      string
	ProofReference string
	CreatedAt      time.Time
}

// Explorer builds public lookup links for transaction signatures.
type Explorer struct {
	BaseURL string
	Cluster string
}

// DefaultExplorer points at the Solana explorer on devnet.
var DefaultExplorer = Explorer{BaseURL: "https://explorer.solana.com", Cluster: "devnet"}

// TransactionURL returns <base>/tx/<signature>?cluster=<cluster>.
func (e Explorer) TransactionURL(signature string) string {
	return fmt.Sprintf("%s/tx/%s?cluster=%s", strings.TrimRight(e.BaseURL, "/"), signature, e.Cluster)
}

// ShortenAddress keeps the first and last four characters of an address.
func ShortenAddress(address string) string {
	if len(address) <= 8 {
		return address
	}
	return address[:4] + "..." + address[len(address)-4:]
}

// DisplayText formats a message line as "<short sender>: <text>".
func DisplayText(sender, text string) string {
	return ShortenAddress(sender) + ": " + text
}
