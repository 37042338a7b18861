// Package interceptors propagates workflow identity onto outbound requests.
package interceptors

import (
	"net/http"

	"go.temporal.io/sdk/activity"
)

// WorkflowHTTPRoundTripper adds workflow metadata to outgoing HTTP requests.
type WorkflowHTTPRoundTripper struct {
	base http.RoundTripper
}

// NewWorkflowHTTPRoundTripper creates an HTTP interceptor that adds workflow
// metadata headers when running inside an activity.
func NewWorkflowHTTPRoundTripper(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &WorkflowHTTPRoundTripper{base: base}
}

// RoundTrip implements http.RoundTripper and injects workflow headers.
func (w *WorkflowHTTPRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// activity.GetInfo panics outside an activity context (e.g. in tests);
	// recover and send the request without headers.
	func() {
		defer func() {
			if r := recover(); r != nil {
			}
		}()

		info := activity.GetInfo(req.Context())
		if info.WorkflowExecution.ID != "" {
			req.Header.Set("X-Workflow-ID", info.WorkflowExecution.ID)
			req.Header.Set("X-Run-ID", info.WorkflowExecution.RunID)
		}
	}()

	return w.base.RoundTrip(req)
}
