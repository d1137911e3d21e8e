package types

// Check configs as stored in the monitor's jsonb config column. Timeouts are
// seconds; zero means the check's own default.

type HttpConfig struct {
	Method         string            `json:"method"`
	URL            string            `json:"url"`
	Headers        map[string]string `json:"headers"`
	ExpectedStatus int               `json:"expected_status"`
	Timeout        int               `json:"timeout"`
}

type DNSConfig struct {
	Domain     string `json:"domain"`
	RecordType string `json:"record_type"` // A, AAAA, CNAME, MX, TXT, NS
	Expected   string `json:"expected"`    // expected IP/value (optional)
	Timeout    int    `json:"timeout"`
}

type DatabaseConfig struct {
	Type     string `json:"type"` // "mysql", "postgres"
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
	Timeout  int    `json:"timeout"`
	SSLMode  string `json:"ssl_mode,omitempty"` // postgres only
}
