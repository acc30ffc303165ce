package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/shopper/pkg/errors"
)

// upstreamError matches the {"error":{"code","message"}} body used by this
// service and by the card processors it talks to.
type upstreamError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes a non-2xx response body and maps it
// to an AppError.
func ParseResponseError(resp *http.Response, upstream string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", upstream, resp.StatusCode, err)
	}

	message := string(body)
	var parsed upstreamError
	if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil {
		message = parsed.Error.Message
		if message == "" {
			message = parsed.Error.Code
		}
	}
	return mapStatus(resp.StatusCode, upstream, message)
}

func mapStatus(status int, upstream, message string) error {
	qualified := fmt.Sprintf("%s: %s", upstream, message)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(upstream+" object", message)
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusPaymentRequired:
		return apperrors.PaymentFailed(qualified)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualified)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		// Our credentials were rejected; callers see an outage, not a 403.
		return apperrors.ServiceUnavailable(qualified, fmt.Errorf("status %d", status))
	case status == http.StatusTooManyRequests, status >= 500:
		return apperrors.ServiceUnavailable(qualified, fmt.Errorf("status %d", status))
	default:
		return fmt.Errorf("%s returned status %d: %s", upstream, status, message)
	}
}
