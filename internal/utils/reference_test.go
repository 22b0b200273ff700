package utils

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReferenceFormat(t *testing.T) {
	at := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	got := reference(PrefixDonation, at)

	require.True(t, strings.HasPrefix(got, "DON-"))

	encoded := strings.TrimPrefix(got, "DON-")
	require.Equal(t, strings.ToUpper(encoded), encoded)

	millis, err := strconv.ParseInt(strings.ToLower(encoded), 36, 64)
	require.NoError(t, err)
	require.Equal(t, at.UnixMilli(), millis)
}

func TestReferencePrefixes(t *testing.T) {
	require.True(t, strings.HasPrefix(InvoiceNumber(), "INV-"))
	require.True(t, strings.HasPrefix(DonationReference(), "DON-"))
	require.True(t, strings.HasPrefix(SubscriptionReference(), "SUB-"))
}
