package breach

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultEndpoint is the public Have-I-Been-Pwned range API.
const DefaultEndpoint = "https://api.pwnedpasswords.com"

// HIBPClient queries the pwnedpasswords range API. Only the first five hex
// characters of the digest leave the process (k-anonymity); the full digest
// is matched locally against the returned suffix list.
type HIBPClient struct {
	endpoint   string
	httpClient *http.Client
}

func NewHIBPClient(endpoint string, timeout time.Duration) *HIBPClient {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &HIBPClient{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *HIBPClient) IsCompromised(ctx context.Context, sha1Hex string) (bool, error) {
	digest := strings.ToUpper(sha1Hex)
	if len(digest) != 40 {
		return false, fmt.Errorf("invalid sha1 digest length %d", len(sha1Hex))
	}
	prefix, suffix := digest[:5], digest[5:]

	url := fmt.Sprintf("%s/range/%s", c.endpoint, prefix)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("breach api returned %s", resp.Status)
	}

	// Response lines look like "SUFFIX:COUNT".
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		candidate, _, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(candidate, suffix) {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, err
	}

	return false, nil
}
