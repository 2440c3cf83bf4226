package ceiba

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-analytics/internal/config"
	"fleet-analytics/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.CeibaConfig{BaseURL: server.URL, Timeout: 5 * time.Second}, zerolog.Nop())
}

func TestLoginSuccess(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/basic/key", r.URL.Path)
		assert.Equal(t, "operator", r.URL.Query().Get("username"))
		assert.Equal(t, "secret", r.URL.Query().Get("password"))
		_, _ = w.Write([]byte(`{"errorcode":200,"data":{"key":"api-key-1"}}`))
	}))

	key, err := client.Login(context.Background(), "operator", "secret")
	require.NoError(t, err)
	assert.Equal(t, "api-key-1", key)
}

func TestLoginBadCredentials(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errorcode":206}`))
	}))

	_, err := client.Login(context.Background(), "operator", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnexpectedErrorCode(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errorcode":500}`))
	}))

	_, err := client.Login(context.Background(), "operator", "secret")

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, 500, backendErr.ErrorCode)
}

func TestLoginMissingKeyIsBackendError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errorcode":200,"data":{}}`))
	}))

	_, err := client.Login(context.Background(), "operator", "secret")

	var backendErr *BackendError
	assert.ErrorAs(t, err, &backendErr)
}

func TestNonJSONBodyIsBackendError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>gateway error</html>"))
	}))

	_, err := client.ListGroups(context.Background(), "key")

	var backendErr *BackendError
	assert.ErrorAs(t, err, &backendErr)
}

func TestListDevicesNormalizesKeyVariants(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/basic/devices", r.URL.Path)
		assert.Equal(t, "key-1", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(`{"errorcode":200,"data":[
			{"groupid":"g1","carlicence":"AAA-111","terid":"T1"},
			{"groupId":"g1","carLicense":"BBB-222","terminalId":"T2"},
			{"group_id":"g1","car_licence":"CCC-333","terminal_id":"T3"},
			{"groupid":"g1","carlicence":"DDD-444"},
			{"carlicence":"EEE-555","terid":"T5"}
		]}`))
	}))

	devices, err := client.ListDevices(context.Background(), "key-1")
	require.NoError(t, err)

	// Three spellings collapse to the canonical shape; records missing all
	// variants of groupid or terid are dropped, never an error.
	require.Len(t, devices, 3)
	assert.Equal(t, model.Device{GroupID: "g1", CarLicence: "AAA-111", TerID: "T1"}, devices[0])
	assert.Equal(t, model.Device{GroupID: "g1", CarLicence: "BBB-222", TerID: "T2"}, devices[1])
	assert.Equal(t, model.Device{GroupID: "g1", CarLicence: "CCC-333", TerID: "T3"}, devices[2])
}

func TestListGroupsNumericIDs(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errorcode":200,"data":[{"groupid":42,"groupname":"North"}]}`))
	}))

	groups, err := client.ListGroups(context.Background(), "key-1")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, model.Group{GroupID: "42", GroupName: "North"}, groups[0])
}

func TestPassengerCountsRequestShape(t *testing.T) {
	window := model.DateRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/basic/passenger-count/detail", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []any{"T1", "T2"}, body["terid"])
		assert.Equal(t, "2024-01-01 00:00:00", body["starttime"])
		assert.Equal(t, "2024-01-02 23:59:59", body["endtime"])
		assert.Equal(t, "key-1", body["key"])

		_, _ = w.Write([]byte(`{"errorcode":200,"data":[
			{"terid":"T1","devtime":"2024-01-01 08:00:00","cardnumber":10},
			{"terid":"T2","devtime":"2024-01-01 09:30:00","cardnumber":5},
			{"terid":"T2","devtime":"bogus","cardnumber":5}
		]}`))
	}))

	rows, err := client.PassengerCounts(context.Background(), "key-1", []string{"T1", "T2"}, window)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "T1", rows[0].TerID)
	assert.Equal(t, 10.0, rows[0].Value)
	assert.Equal(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), rows[0].Timestamp)
}

func TestMileageErrorCodeIsBackendError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errorcode":403,"data":[]}`))
	}))

	window := model.DateRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	_, err := client.Mileage(context.Background(), "key-1", []string{"T1"}, window)

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, 403, backendErr.ErrorCode)
}

func TestTelemetryNullDataIsEmpty(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errorcode":200,"data":null}`))
	}))

	window := model.DateRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	rows, err := client.PassengerCounts(context.Background(), "key-1", []string{"T1"}, window)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
