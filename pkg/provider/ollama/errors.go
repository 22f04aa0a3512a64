package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/rhuss/ollagate/pkg/api"
)

// mapHTTPError converts an HTTP response with a non-2xx status code into an
// upstream_error. The native {"error": "..."} message is used when present.
func mapHTTPError(resp *http.Response) *api.APIError {
	message := extractErrorMessage(resp.Body)
	if message == "" {
		message = fmt.Sprintf("upstream returned HTTP %d", resp.StatusCode)
	} else {
		message = fmt.Sprintf("upstream returned HTTP %d: %s", resp.StatusCode, message)
	}
	return api.NewUpstreamError(api.CodeUpstreamStatus, message)
}

// mapNetworkError converts a transport-level failure into an APIError.
// Timeouts become upstream_timeout (504); everything else (connection
// refused, DNS failure, reset) becomes upstream_unreachable (502).
func mapNetworkError(err error) *api.APIError {
	if isTimeout(err) {
		return api.NewUpstreamTimeoutError(fmt.Sprintf("upstream did not respond in time: %s", err.Error()))
	}
	return api.NewUpstreamUnavailableError(fmt.Sprintf("cannot reach upstream: %s", err.Error()))
}

// malformed reports an upstream payload that could not be decoded.
func malformed(what string, err error) *api.APIError {
	return api.NewUpstreamError(api.CodeUpstreamMalformed, fmt.Sprintf("malformed upstream %s: %s", what, err.Error()))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// extractErrorMessage tries to parse the body as an ErrorResponse and
// returns its message. A non-JSON body is returned verbatim (trimmed).
func extractErrorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error != "" {
		return errResp.Error
	}

	return strings.TrimSpace(string(data))
}
