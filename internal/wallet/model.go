package wallet

import "time"

// Info describes the two parties of the chat and the sender's spendable balance.
type Info struct {
	Sender         string
	SenderShort    string
	Recipient      string
	RecipientShort string
	Balance        uint64
	AsOf           time.Time
}
