package httpclient

import (
	"context"
	"errors"
)

const failureMessage = "api request failed"

// PassThrough forwards the request unchanged.
func PassThrough(_ context.Context, req *Request) (*Request, error) {
	return req, nil
}

// LogFailures writes one diagnostic entry per failed call and hands the
// failure on untouched. Successful calls are not logged.
func LogFailures(log Logger) ResponseHook {
	log = ensureLogger(log)
	return func(_ context.Context, resp *Response, err error) (*Response, error) {
		if err == nil {
			return resp, nil
		}
		fields := map[string]any{"error": err.Error()}
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			fields["status_code"] = statusErr.StatusCode
			fields["url"] = statusErr.URL
		}
		log.ErrorObj(failureMessage, "api_error", fields)
		return resp, err
	}
}
