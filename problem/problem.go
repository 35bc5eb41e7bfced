// Package problem models the RFC 7807 problem documents returned by a
// ctrlX device when a request fails. A *Problem doubles as the error
// value surfaced to callers, so error kind and HTTP status can be
// recovered with errors.As.
package problem

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Problem is a structured error response from the device. The first four
// fields follow RFC 7807; the remainder are ctrlX-specific diagnosis
// extensions and may be empty.
type Problem struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title,omitempty"`
	Status   int    `json:"status,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	Severity              string    `json:"severity,omitempty"`
	MainDiagnosisCode     string    `json:"mainDiagnosisCode,omitempty"`
	DetailedDiagnosisCode string    `json:"detailedDiagnosisCode,omitempty"`
	DynamicDescription    string    `json:"dynamicDescription,omitempty"`
	Cause                 []Problem `json:"cause,omitempty"`
	MoreInfo              []string  `json:"moreInfo,omitempty"`
}

func (p *Problem) Error() string {
	var sb strings.Builder
	sb.WriteString(p.Title)
	if sb.Len() == 0 {
		sb.WriteString(http.StatusText(p.Status))
	}
	if p.Status != 0 {
		fmt.Fprintf(&sb, " (status %d)", p.Status)
	}
	if p.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(p.Detail)
	}
	return sb.String()
}

// AuthFailure reports whether the problem belongs to the authorization
// failure class that may trigger a transparent re-login.
func (p *Problem) AuthFailure() bool {
	return p.Status == http.StatusUnauthorized
}

// FromResponse builds a Problem from a non-2xx HTTP response. A
// problem+json body is decoded when present; otherwise the status line
// alone is used. The response body is consumed but not closed.
func FromResponse(resp *http.Response) *Problem {
	p := &Problem{
		Status: resp.StatusCode,
		Title:  http.StatusText(resp.StatusCode),
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || len(body) == 0 {
		return p
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.Contains(ct, "json") {
		return p
	}
	var decoded Problem
	if err := json.Unmarshal(body, &decoded); err != nil {
		return p
	}
	if decoded.Status == 0 {
		decoded.Status = resp.StatusCode
	}
	if decoded.Title == "" {
		decoded.Title = http.StatusText(resp.StatusCode)
	}
	return &decoded
}
