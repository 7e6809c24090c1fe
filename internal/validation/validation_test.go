package validation

import (
	"bytes"
	"io"
	"net/http"
	"testing"

	"github.com/pb33f/libopenapi"
	"github.com/stretchr/testify/require"
)

const ordersSpec = `
openapi: "3.0.3"
info:
  title: Orders
  version: "1.0"
servers:
  - url: https://shop.example.com/api
paths:
  /orders/{orderId}:
    get:
      parameters:
        - name: orderId
          in: path
          required: true
          schema:
            type: integer
        - name: expand
          in: query
          schema:
            type: string
            enum: [items, customer]
      responses:
        "200":
          description: ok
  /orders:
    post:
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [sku, quantity]
              properties:
                sku:
                  type: string
                quantity:
                  type: integer
                  minimum: 1
      responses:
        "201":
          description: created
`

func newValidator(t *testing.T) *Validator {
	t.Helper()
	doc, err := libopenapi.NewDocument([]byte(ordersSpec))
	require.NoError(t, err)
	v, err := New(doc)
	require.NoError(t, err)
	return v
}

func newRequest(t *testing.T, method, url, body string) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func TestValidate(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name    string
		method  string
		url     string
		body    string
		wantErr bool
	}{
		{name: "valid get", method: http.MethodGet, url: "https://shop.example.com/api/orders/12?expand=items"},
		{name: "path parameter type", method: http.MethodGet, url: "https://shop.example.com/api/orders/abc", wantErr: true},
		{name: "enum violation", method: http.MethodGet, url: "https://shop.example.com/api/orders/12?expand=everything", wantErr: true},
		{name: "valid body", method: http.MethodPost, url: "https://shop.example.com/api/orders", body: `{"sku":"A-1","quantity":2}`},
		{name: "missing required field", method: http.MethodPost, url: "https://shop.example.com/api/orders", body: `{"sku":"A-1"}`, wantErr: true},
		{name: "minimum violation", method: http.MethodPost, url: "https://shop.example.com/api/orders", body: `{"sku":"A-1","quantity":0}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(newRequest(t, tt.method, tt.url, tt.body))
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}

			var validationErr *Error
			require.ErrorAs(t, err, &validationErr)
			require.NotEmpty(t, validationErr.Details())
			require.Contains(t, err.Error(), "request validation failed")
		})
	}
}

func TestValidateKeepsBody(t *testing.T) {
	v := newValidator(t)
	req := newRequest(t, http.MethodPost, "https://shop.example.com/api/orders", `{"sku":"A-1","quantity":2}`)

	require.NoError(t, v.Validate(req))

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	require.Equal(t, `{"sku":"A-1","quantity":2}`, string(body))
}

func TestErrorMessage(t *testing.T) {
	require.Equal(t, "request validation failed", (&Error{}).Error())
}
