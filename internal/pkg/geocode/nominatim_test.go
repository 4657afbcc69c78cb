package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	return NewClient(server.URL, "test-agent/1.0", 2*time.Second), server
}

func TestReverse_CityAndState(t *testing.T) {
	t.Parallel()
	client, server := testClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "10", r.URL.Query().Get("zoom"))
		assert.Equal(t, "1", r.URL.Query().Get("addressdetails"))
		w.Write([]byte(`{"display_name":"full name","address":{"city":"Mazatlan","state":"Sinaloa"}}`))
	})
	defer server.Close()

	assert.Equal(t, "Mazatlan, Sinaloa", client.Reverse(context.Background(), 23.2494, -106.4111))
}

func TestReverse_CityAliasFallbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"town over village", `{"address":{"town":"El Rosario","village":"Otro","state":"Sinaloa"}}`, "El Rosario, Sinaloa"},
		{"village", `{"address":{"village":"Copala","state":"Sinaloa"}}`, "Copala, Sinaloa"},
		{"municipality", `{"address":{"municipality":"Concordia","state":"Sinaloa"}}`, "Concordia, Sinaloa"},
		{"city only", `{"address":{"city":"Mazatlan"}}`, "Mazatlan"},
		{"state only", `{"address":{"state":"Sinaloa"}}`, "Sinaloa"},
		{"display name last resort", `{"display_name":"Carretera 15, Mexico","address":{}}`, "Carretera 15, Mexico"},
		{"nothing resolves", `{"address":{}}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, server := testClient(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			defer server.Close()

			assert.Equal(t, tt.want, client.Reverse(context.Background(), 23.0, -106.0))
		})
	}
}

func TestReverse_NonOKStatusYieldsEmpty(t *testing.T) {
	t.Parallel()
	client, server := testClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	defer server.Close()

	assert.Empty(t, client.Reverse(context.Background(), 23.0, -106.0))
}

func TestReverse_MalformedBodyYieldsEmpty(t *testing.T) {
	t.Parallel()
	client, server := testClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})
	defer server.Close()

	assert.Empty(t, client.Reverse(context.Background(), 23.0, -106.0))
}

func TestReverse_UnreachableServerYieldsEmpty(t *testing.T) {
	t.Parallel()
	client, server := testClient(func(w http.ResponseWriter, r *http.Request) {})
	server.Close() // connection refused from here on

	assert.Empty(t, client.Reverse(context.Background(), 23.0, -106.0))
}
