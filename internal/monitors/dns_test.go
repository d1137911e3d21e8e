package monitors

import (
	"testing"

	"github.com/pulsedeck-dev/pulsedeck/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDNSRejectsUnsupportedRecordType(t *testing.T) {
	err := CheckDNS(&types.DNSConfig{Domain: "example.com", RecordType: "SRV"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported DNS record type")
}

func TestCheckDNSRejectsMalformedExpectedIP(t *testing.T) {
	err := CheckDNS(&types.DNSConfig{Domain: "example.com", RecordType: "A", Expected: "not-an-ip"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid expected IP")
}

func TestRecordMatchesComparesIPsByAddress(t *testing.T) {
	assert.True(t, recordMatches("AAAA", "2001:db8::1", "2001:0db8:0000:0000:0000:0000:0000:0001"))
	assert.True(t, recordMatches("A", "192.0.2.1", "192.0.2.1"))
	assert.False(t, recordMatches("A", "192.0.2.1", "192.0.2.2"))
}

func TestRecordMatchesTXTIsExact(t *testing.T) {
	assert.True(t, recordMatches("TXT", "v=spf1 -all", "v=spf1 -all"))
	assert.False(t, recordMatches("TXT", "v=spf1 -all", "V=SPF1 -ALL"))
}

func TestRecordMatchesHostsIgnoreCase(t *testing.T) {
	assert.True(t, recordMatches("MX", "mail.example.com.", "MAIL.example.COM."))
	assert.True(t, recordMatches("NS", "ns1.example.com.", "NS1.EXAMPLE.COM."))
	assert.False(t, recordMatches("CNAME", "a.example.com.", "b.example.com."))
}
