package extract

import (
	"io"
	"net/http"
	"strings"
)

type fakeTransport struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (f fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return f.handler(req)
}

func fakeClient(handler func(req *http.Request) (*http.Response, error)) *http.Client {
	return &http.Client{Transport: fakeTransport{handler: handler}}
}

func newResponse(status int, contentType, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{contentType}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func notFound() *http.Response {
	return newResponse(http.StatusNotFound, "text/html", "<html><title>404</title></html>")
}
