package token_test

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/jrsteele09/go-ctrlx-datalayer/token"
	"github.com/stretchr/testify/require"
)

func encodeSegment(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(b)
}

func makeToken(t *testing.T, payload map[string]any) string {
	t.Helper()
	header := encodeSegment(t, map[string]any{"alg": "none", "typ": "JWT"})
	body := encodeSegment(t, payload)
	sig := base64.RawURLEncoding.EncodeToString([]byte("sig"))
	return header + "." + body + "." + sig
}

func TestDecode(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	raw := makeToken(t, map[string]any{
		"id":        "user-1",
		"name":      "boschrexroth",
		"iat":       issued.Unix(),
		"exp":       issued.Add(time.Hour).Unix(),
		"scope":     []string{"rexroth-device.all.rwx"},
		"plchandle": 42,
	})

	claims, err := token.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.ID)
	require.Equal(t, "boschrexroth", claims.Name)
	require.True(t, claims.IssuedAt().Equal(issued))
	require.True(t, claims.ExpiresAt().Equal(issued.Add(time.Hour)))
	require.Equal(t, []string{"rexroth-device.all.rwx"}, claims.Scope)
	require.Equal(t, int64(42), claims.PlcHandle)
}

func TestRenewAt(t *testing.T) {
	issued := time.Unix(1_700_000_000, 0)
	raw := makeToken(t, map[string]any{
		"iat": issued.Unix(),
		"exp": issued.Add(3600 * time.Second).Unix(),
	})

	claims, err := token.Decode(raw)
	require.NoError(t, err)

	// 3600s lifetime minus the 30s margin.
	require.True(t, claims.RenewAt(30*time.Second).Equal(issued.Add(3570*time.Second)))
}

func TestDecodeWrongSegmentCount(t *testing.T) {
	_, err := token.Decode("only.two")
	require.Error(t, err)
}

func TestDecodeInvalidEncoding(t *testing.T) {
	_, err := token.Decode("!!!.???.###")
	require.Error(t, err)
}

func TestDecodeInvalidPayloadJSON(t *testing.T) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	body := base64.RawURLEncoding.EncodeToString([]byte(`{not json`))
	_, err := token.Decode(header + "." + body + ".c2ln")
	require.Error(t, err)
}

func TestDecodeMissingTimeClaims(t *testing.T) {
	_, err := token.Decode(makeToken(t, map[string]any{"exp": time.Now().Add(time.Hour).Unix()}))
	require.Error(t, err)

	_, err = token.Decode(makeToken(t, map[string]any{"iat": time.Now().Unix()}))
	require.Error(t, err)
}
