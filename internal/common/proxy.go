package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	OK                     int = 200
	BAD_REQUEST            int = 400
	UNAUTHORIZED           int = 401
	FORBIDDEN              int = 403
	DATA_NOT_FOUND         int = 404
	METHOD_NOT_ALLOWED     int = 405
	UNSUPPORTED_MEDIA_TYPE int = 415
	RATE_LIMIT_EXCEEDED    int = 429
	INTERNAL_SERVER_ERROR  int = 500
	BAD_GATEWAY            int = 502
	SERVICE_UNAVAILABLE    int = 503
	GATEWAY_TIMEOUT        int = 504
)

var messages = map[int]string{
	OK:                     "OK",
	BAD_REQUEST:            "Bad request",
	UNAUTHORIZED:           "Unauthorized",
	FORBIDDEN:              "Forbidden",
	DATA_NOT_FOUND:         "Data not found",
	METHOD_NOT_ALLOWED:     "Method not allowed",
	UNSUPPORTED_MEDIA_TYPE: "Unsupported media type",
	RATE_LIMIT_EXCEEDED:    "Rate limit exceeded",
	INTERNAL_SERVER_ERROR:  "Internal server error",
	BAD_GATEWAY:            "Bad gateway",
	SERVICE_UNAVAILABLE:    "Service unavailable",
	GATEWAY_TIMEOUT:        "Gateway timeout",
}

// StatusError is returned for every response that is not a 200
type StatusError struct {
	Code int
	Url  string
}

func (err *StatusError) Error() string {
	message, ok := messages[err.Code]
	if !ok {
		message = "Status code not understood"
	}
	return fmt.Sprintf("%d %s (%s)", err.Code, message, err.Url)
}

// Check if the error is a StatusError with the given code
func HasStatus(err error, code int) bool {
	var statusError *StatusError
	return errors.As(err, &statusError) && statusError.Code == code
}

type Proxy struct {
	header map[string]string
	client http.Client
}

func NewProxy(header map[string]string, timeout time.Duration) Proxy {
	return Proxy{header, http.Client{Timeout: timeout}}
}

// Make a request to the provided url. The proxy header is sent with every request,
// and the extra header provided is added on top of it
func (proxy *Proxy) Request(ctx context.Context, method string, url string, header map[string]string) ([]byte, error) {

	// Create the request and add the header
	request, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request for url %s: %w", url, err)
	}
	for key, value := range proxy.header {
		request.Header.Set(key, value)
	}
	for key, value := range header {
		request.Header.Set(key, value)
	}

	// Perform the request
	res, err := proxy.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("could not perform request: %w", err)
	}
	defer res.Body.Close()

	// Check if the status of the request is understood
	message, ok := messages[res.StatusCode]
	if !ok {
		log.Error().Msg(fmt.Sprintf("Status code of request (%d) is not understood", res.StatusCode))
	} else {
		log.Debug().Msg(fmt.Sprintf("%d %s", res.StatusCode, message))
	}

	if res.StatusCode != OK {
		return nil, &StatusError{Code: res.StatusCode, Url: url}
	}

	// Read the response
	stream, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("could not extract the response for url %s: %w", url, err)
	}
	return stream, nil
}
