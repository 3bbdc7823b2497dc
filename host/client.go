package host

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"chordviz/args"
)

var ErrRejected = errors.New("host rejected arguments")

// Send posts a to the component mounted as mount on a running chordviz.
// baseURL may omit the scheme.
func Send(ctx context.Context, client *http.Client, baseURL, mount string, a args.Args) (SubmitResponse, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	url := strings.TrimRight(baseURL, "/") + "/component/" + mount + "/args"

	body, err := json.Marshal(a)
	if err != nil {
		return SubmitResponse{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return SubmitResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return SubmitResponse{}, fmt.Errorf("send to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		var e ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			e.Error = resp.Status
		}
		return SubmitResponse{}, fmt.Errorf("%w: %s", ErrRejected, e.Error)
	}

	var res SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return SubmitResponse{}, err
	}
	return res, nil
}
