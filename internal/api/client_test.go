package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmcwhorter/lambdalabs-cli/internal/retry"
)

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New("test-key", nil, WithBaseURL(srv.URL), WithRetryConfig(fastRetry()))
}

func TestListInstancesSendsBearerToken(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/instances", r.URL.Path)
		_, _ = w.Write([]byte(`{"data": [{"id": "i-123", "name": "train", "status": "active"}]}`))
	}))

	instances, err := client.ListInstances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-key", gotAuth)
	require.Len(t, instances, 1)
	assert.Equal(t, "i-123", instances[0].ID)
	assert.Equal(t, "train", instances[0].Name)
}

func TestRequestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data": []}`))
	}))

	_, err := client.ListInstances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRequestDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"code": "unauthorized", "message": "invalid api key"}}`))
	}))

	_, err := client.ListInstances(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "invalid api key")
}

func TestLaunchInstance(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/instance-operations/launch", r.URL.Path)

		var req LaunchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpu_1x_a100", req.InstanceTypeName)
		assert.Equal(t, "us-east-1", req.RegionName)
		assert.Equal(t, []string{"default"}, req.SSHKeyNames)
		assert.Equal(t, "train", req.Name)

		_, _ = w.Write([]byte(`{"data": {"instance_ids": ["i-new"]}}`))
	}))

	ids, err := client.LaunchInstance(context.Background(), LaunchRequest{
		InstanceTypeName: "gpu_1x_a100",
		RegionName:       "us-east-1",
		SSHKeyNames:      []string{"default"},
		Name:             "train",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"i-new"}, ids)
}

func TestTerminateAllInstances(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/instances":
			_, _ = w.Write([]byte(`{"data": [{"id": "i-1"}, {"id": "i-2"}]}`))
		case "/instance-operations/terminate":
			var req terminateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.ElementsMatch(t, []string{"i-1", "i-2"}, req.InstanceIDs)
			_, _ = w.Write([]byte(`{"data": {"terminated_instances": [{"id": "i-1"}, {"id": "i-2"}]}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	terminated, err := client.TerminateAllInstances(context.Background())
	require.NoError(t, err)
	assert.Len(t, terminated, 2)
}

func TestTerminateAllInstancesEmpty(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/instances", r.URL.Path, "terminate must not be called with no instances")
		_, _ = w.Write([]byte(`{"data": []}`))
	}))

	terminated, err := client.TerminateAllInstances(context.Background())
	require.NoError(t, err)
	assert.Empty(t, terminated)
}

func TestListInstanceTypesAttachesRegions(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {
			"gpu_1x_a100": {
				"instance_type": {"name": "gpu_1x_a100", "description": "1x A100", "price_cents_per_hour": 110},
				"regions_with_capacity_available": [{"name": "us-east-1", "description": "Virginia"}]
			},
			"gpu_8x_h100": {
				"instance_type": {"name": "gpu_8x_h100", "description": "8x H100", "price_cents_per_hour": 2400},
				"regions_with_capacity_available": []
			}
		}}`))
	}))

	types, err := client.ListInstanceTypes(context.Background())
	require.NoError(t, err)
	require.Len(t, types, 2)
	// Sorted by name.
	assert.Equal(t, "gpu_1x_a100", types[0].Name)
	require.Len(t, types[0].RegionsAvailable, 1)
	assert.Equal(t, "us-east-1", types[0].RegionsAvailable[0].Name)
	assert.Empty(t, types[1].RegionsAvailable)
}

func TestListRegionsDeduplicates(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {
			"a": {"instance_type": {"name": "a"}, "regions_with_capacity_available": [{"name": "us-east-1", "description": "Virginia"}, {"name": "us-west-2", "description": "Oregon"}]},
			"b": {"instance_type": {"name": "b"}, "regions_with_capacity_available": [{"name": "us-east-1", "description": "Virginia"}]}
		}}`))
	}))

	regions, err := client.ListRegions(context.Background())
	require.NoError(t, err)
	require.Len(t, regions, 2)
	assert.Equal(t, "us-east-1", regions[0].Name)
	assert.Equal(t, "us-west-2", regions[1].Name)
}

func TestRotateAPIKey(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api-keys/rotate", r.URL.Path)
		_, _ = w.Write([]byte(`{"data": {"api_key": "fresh-key"}}`))
	}))

	key, err := client.RotateAPIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-key", key)
}

func TestDeleteFilesystem(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/file-systems/fs-1", r.URL.Path)
		_, _ = w.Write([]byte(`{}`))
	}))

	require.NoError(t, client.DeleteFilesystem(context.Background(), "fs-1"))
}
