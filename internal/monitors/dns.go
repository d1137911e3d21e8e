package monitors

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/pulsedeck-dev/pulsedeck/internal/types"
)

// CheckDNS resolves the configured record type and, when an expected value is
// set, requires it to appear among the results. IPs match by address equality,
// TXT records byte-for-byte, every other record type case-insensitively.
func CheckDNS(config *types.DNSConfig) error {
	timeout := config.Timeout

	if timeout == 0 {
		timeout = 5 // 5 seconds timeout by default
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	recordType := strings.ToUpper(config.RecordType)

	switch recordType {
	case "A", "AAAA", "CNAME", "MX", "TXT", "NS":
	default:
		return fmt.Errorf("unsupported DNS record type: %s", config.RecordType)
	}

	if (recordType == "A" || recordType == "AAAA") && config.Expected != "" && net.ParseIP(config.Expected) == nil {
		return fmt.Errorf("invalid expected IP: %s", config.Expected)
	}

	values, err := lookupRecords(ctx, &net.Resolver{}, recordType, config.Domain)

	if err != nil {
		return fmt.Errorf("failed to resolve %s record for %s: %v", recordType, config.Domain, err)
	}

	if len(values) == 0 {
		return fmt.Errorf("no %s records found for %s", recordType, config.Domain)
	}

	if config.Expected == "" {
		return nil
	}

	for _, value := range values {
		if recordMatches(recordType, value, config.Expected) {
			return nil
		}
	}

	return fmt.Errorf("expected %s record %s not found in DNS response", recordType, config.Expected)
}

// lookupRecords flattens each record type's lookup into a plain value list so
// the expectation check is shared.
func lookupRecords(ctx context.Context, resolver *net.Resolver, recordType, domain string) ([]string, error) {
	switch recordType {
	case "A", "AAAA":
		ips, err := resolver.LookupIPAddr(ctx, domain)

		if err != nil {
			return nil, err
		}

		var values []string

		for _, ip := range ips {
			isV4 := ip.IP.To4() != nil

			if (recordType == "A") == isV4 {
				values = append(values, ip.IP.String())
			}
		}

		return values, nil
	case "CNAME":
		cname, err := resolver.LookupCNAME(ctx, domain)

		if err != nil {
			return nil, err
		}

		return []string{cname}, nil
	case "MX":
		records, err := resolver.LookupMX(ctx, domain)

		if err != nil {
			return nil, err
		}

		values := make([]string, 0, len(records))

		for _, mx := range records {
			values = append(values, mx.Host)
		}

		return values, nil
	case "TXT":
		return resolver.LookupTXT(ctx, domain)
	case "NS":
		records, err := resolver.LookupNS(ctx, domain)

		if err != nil {
			return nil, err
		}

		values := make([]string, 0, len(records))

		for _, ns := range records {
			values = append(values, ns.Host)
		}

		return values, nil
	default:
		return nil, fmt.Errorf("unsupported DNS record type: %s", recordType)
	}
}

func recordMatches(recordType, value, expected string) bool {
	switch recordType {
	case "A", "AAAA":
		got := net.ParseIP(value)
		want := net.ParseIP(expected)
		return got != nil && want != nil && got.Equal(want)
	case "TXT":
		return value == expected
	default:
		return strings.EqualFold(value, expected)
	}
}
