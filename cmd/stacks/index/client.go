package indexcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/shelfworksco/stacks/api"
	"github.com/shelfworksco/stacks/pkg/config"
)

// resolveAPITarget applies the config file value when the flag was not set
// explicitly.
func resolveAPITarget(cmd *cobra.Command, target *string) error {
	if cmd.Flags().Changed("api-target") {
		return nil
	}

	configDir, _ := cmd.Flags().GetString("config-dir")
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cfg, err := cfger.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	*target = cfg.Client.APITarget
	return nil
}

// callAPI issues a request against the Stacks API and decodes the JSON
// response into out. Query parameters must come through query rather than
// be appended to path, or url.URL would percent-encode the separator.
func callAPI(ctx context.Context, method, apiTarget, path string, query url.Values, reqBody, out any) error {
	u, err := url.Parse(apiTarget)
	if err != nil {
		return fmt.Errorf("invalid API target URL: %w", err)
	}
	u.Path = path
	u.RawQuery = query.Encode()

	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to Stacks API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr api.ErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("request failed (HTTP %d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("request failed (HTTP %d): %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}
