package utils

import (
	"strconv"
	"strings"
	"time"
)

// Ledger references are a prefix plus the base-36 millisecond timestamp.
// The format is contractual with the existing ledger; it is collision
// prone under high throughput but unique within timestamp resolution.
const (
	PrefixInvoice      = "INV"
	PrefixDonation     = "DON"
	PrefixSubscription = "SUB"
)

func reference(prefix string, at time.Time) string {
	return prefix + "-" + strings.ToUpper(strconv.FormatInt(at.UnixMilli(), 36))
}

// InvoiceNumber generates a human-readable invoice number.
func InvoiceNumber() string {
	return reference(PrefixInvoice, time.Now())
}

// DonationReference generates the reference sent to the gateway with a
// donation charge.
func DonationReference() string {
	return reference(PrefixDonation, time.Now())
}

// SubscriptionReference generates the reference sent to the gateway with
// a subscription billing charge.
func SubscriptionReference() string {
	return reference(PrefixSubscription, time.Now())
}
