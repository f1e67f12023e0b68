package bfflambda

import (
	"encoding/base64"
	"io"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
)

// LocalHandler exposes h as a plain http.Handler so the Lambda build can run
// outside AWS.
func LocalHandler(h *Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
			return
		}
		resp, _ := h.Handle(r.Context(), ToEvent(r, body))
		WriteResponse(w, resp)
	})
}

// ToEvent converts an HTTP request into the API Gateway proxy shape.
func ToEvent(r *http.Request, body []byte) events.APIGatewayProxyRequest {
	headers := make(map[string]string, len(r.Header))
	for k, vs := range r.Header {
		if len(vs) > 0 {
			headers[k] = vs[0]
		}
	}
	query := r.URL.Query()
	single := make(map[string]string, len(query))
	for k, vs := range query {
		if len(vs) > 0 {
			single[k] = vs[0]
		}
	}
	requestID := r.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return events.APIGatewayProxyRequest{
		HTTPMethod:                      r.Method,
		Path:                            r.URL.Path,
		Headers:                         headers,
		MultiValueHeaders:               map[string][]string(r.Header.Clone()),
		QueryStringParameters:           single,
		MultiValueQueryStringParameters: map[string][]string(query),
		Body:                            string(body),
		RequestContext:                  events.APIGatewayProxyRequestContext{RequestID: requestID},
	}
}

// WriteResponse copies a proxy response onto w.
func WriteResponse(w http.ResponseWriter, resp events.APIGatewayProxyResponse) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	for k, vs := range resp.MultiValueHeaders {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if resp.IsBase64Encoded {
		raw, err := base64.StdEncoding.DecodeString(resp.Body)
		if err == nil {
			_, _ = w.Write(raw)
		}
		return
	}
	_, _ = io.WriteString(w, resp.Body)
}
