package monitors

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pulsedeck-dev/pulsedeck/internal/types"
)

// GetHTTP performs the configured request and checks the response status. The
// body is discarded; only reachability and status matter here.
func GetHTTP(config *types.HttpConfig) error {
	timeout := config.Timeout

	if timeout == 0 {
		timeout = 10 // 10 seconds timeout by default
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, config.Method, config.URL, nil)

	if err != nil {
		return err
	}

	for key, value := range config.Headers {
		req.Header.Add(key, value)
	}

	resp, err := http.DefaultClient.Do(req)

	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode != config.ExpectedStatus {
		return fmt.Errorf("unexpected status code: %s (want %d)", resp.Status, config.ExpectedStatus)
	}

	return nil
}
