package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-ctrlx-datalayer/datalayer"
	"github.com/jrsteele09/go-ctrlx-datalayer/problem"
	"github.com/jrsteele09/go-ctrlx-datalayer/rest"
	"github.com/stretchr/testify/require"
)

const testToken = "eyJhbGciOiJub25lIn0.eyJpYXQiOjF9.c2ln"

func newTestClient(server *httptest.Server) *rest.Client {
	return rest.New(rest.WithHTTPClient(server.Client()))
}

func bearer() datalayer.Authorization {
	return datalayer.Authorization{Scheme: "Bearer", Token: testToken}
}

func TestAuthenticate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/identity-manager/api/v2/auth/token", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NotEmpty(t, r.Header.Get("Request-Id"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "boschrexroth", body["name"])
		require.Equal(t, "secret", body["password"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": testToken,
			"token_type":   "Bearer",
		})
	}))
	defer server.Close()

	creds, err := newTestClient(server).Authenticate(context.Background(), server.URL, "boschrexroth", "secret", -1)
	require.NoError(t, err)
	require.Equal(t, testToken, creds.AccessToken)
	require.Equal(t, "Bearer", creds.TokenType)
}

func TestAuthenticateProblem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"type":   "about:blank",
			"title":  "Unauthorized",
			"status": 401,
			"detail": "invalid username or password",
		})
	}))
	defer server.Close()

	_, err := newTestClient(server).Authenticate(context.Background(), server.URL, "boschrexroth", "wrong", -1)
	require.Error(t, err)

	var pb *problem.Problem
	require.ErrorAs(t, err, &pb)
	require.Equal(t, 401, pb.Status)
	require.Equal(t, "invalid username or password", pb.Detail)
	require.True(t, pb.AuthFailure())
}

func TestRevokeToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/identity-manager/api/v2/auth/token", r.URL.Path)
		require.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	err := newTestClient(server).RevokeToken(context.Background(), server.URL, bearer(), -1)
	require.NoError(t, err)
}

func TestReadKinds(t *testing.T) {
	var gotPath, gotType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		gotPath = r.URL.Path
		gotType = r.URL.Query().Get("type")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"value":5,"type":"int32"}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	ctx := context.Background()

	result, err := client.Read(ctx, server.URL, bearer(), "a/b/c", datalayer.KindData, -1)
	require.NoError(t, err)
	require.JSONEq(t, `{"value":5,"type":"int32"}`, string(result))
	require.Equal(t, "/automation/api/v2/nodes/a/b/c", gotPath)
	require.Empty(t, gotType)

	_, err = client.Read(ctx, server.URL, bearer(), "a/b/c", datalayer.KindMetadata, -1)
	require.NoError(t, err)
	require.Equal(t, "metadata", gotType)

	_, err = client.Read(ctx, server.URL, bearer(), "", datalayer.KindBrowse, -1)
	require.NoError(t, err)
	require.Equal(t, "/automation/api/v2/nodes", gotPath)
	require.Equal(t, "browse", gotType)
}

func TestWrite(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/automation/api/v2/nodes/plc/app/var", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, float64(5), body["value"])
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"value":5,"type":"int16"}`))
	}))
	defer server.Close()

	result, err := newTestClient(server).Write(context.Background(), server.URL, bearer(), "plc/app/var", json.RawMessage(`{"value":5,"type":"int16"}`), -1)
	require.NoError(t, err)
	require.JSONEq(t, `{"value":5,"type":"int16"}`, string(result))
}

func TestCreateAndDelete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			require.Equal(t, "/automation/api/v2/nodes/motion/axs", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{}`))
		case http.MethodDelete:
			require.Equal(t, "/automation/api/v2/nodes/motion/axs/AxisX", r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer server.Close()

	client := newTestClient(server)
	ctx := context.Background()

	_, err := client.Create(ctx, server.URL, bearer(), "motion/axs", json.RawMessage(`{"name":"AxisX"}`), -1)
	require.NoError(t, err)

	result, err := client.Delete(ctx, server.URL, bearer(), "motion/axs/AxisX", -1)
	require.NoError(t, err)
	require.Nil(t, result)
}

func TestTimeoutIsATransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := newTestClient(server).Read(context.Background(), server.URL, bearer(), "a", datalayer.KindData, 20*time.Millisecond)
	require.Error(t, err)

	// Timeouts never classify as device problems, so they can never
	// trigger the reconnect path.
	var pb *problem.Problem
	require.False(t, errors.As(err, &pb))
}

func TestNonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server).Read(context.Background(), server.URL, bearer(), "a", datalayer.KindData, -1)
	var pb *problem.Problem
	require.ErrorAs(t, err, &pb)
	require.Equal(t, 500, pb.Status)
	require.Equal(t, "Internal Server Error", pb.Title)
}
