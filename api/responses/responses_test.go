package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/gymhub-backend/pkg/errors"
	"github.com/angelmondragon/gymhub-backend/pkg/logger"
	"github.com/angelmondragon/gymhub-backend/pkg/types"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var body types.ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return body.Error
}

func TestWriteSuccessWrapsData(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccessStatus(rec, http.StatusCreated, map[string]string{"reference": "ref_1"})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var body types.SuccessEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode success envelope: %v", err)
	}
	if body.Data.(map[string]any)["reference"] != "ref_1" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestWriteErrorRendering(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    pkgerrors.Code
		wantMessage string
		wantDetails bool
	}{
		{
			name:        "validation exposes message and details",
			err:         pkgerrors.New(pkgerrors.CodeValidation, "bad input").WithDetails(map[string]string{"amount": "required"}),
			wantStatus:  http.StatusBadRequest,
			wantCode:    pkgerrors.CodeValidation,
			wantMessage: "bad input",
			wantDetails: true,
		},
		{
			name:        "state conflict",
			err:         pkgerrors.New(pkgerrors.CodeStateConflict, "subscription is cancelled"),
			wantStatus:  http.StatusUnprocessableEntity,
			wantCode:    pkgerrors.CodeStateConflict,
			wantMessage: "subscription is cancelled",
		},
		{
			name:        "untyped error becomes internal",
			err:         errors.New("pq: connection refused at 10.0.0.4"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    pkgerrors.CodeInternal,
			wantMessage: "internal server error",
		},
		{
			name:        "upstream message is replaced",
			err:         pkgerrors.Wrap(pkgerrors.CodeUpstream, errors.New(`{"status":false,"message":"Invalid key"}`), "paystack verify transaction failed"),
			wantStatus:  http.StatusBadGateway,
			wantCode:    pkgerrors.CodeUpstream,
			wantMessage: "payment gateway request failed",
		},
		{
			name:        "nil error still answers",
			wantStatus:  http.StatusInternalServerError,
			wantCode:    pkgerrors.CodeInternal,
			wantMessage: "internal server error",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(context.Background(), nil, rec, tc.err)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}
			raw := rec.Body.String()
			apiErr := decodeEnvelope(t, rec)
			if apiErr.Code != string(tc.wantCode) {
				t.Fatalf("unexpected code %s", apiErr.Code)
			}
			if apiErr.Message != tc.wantMessage {
				t.Fatalf("unexpected message %q", apiErr.Message)
			}
			if (apiErr.Details != nil) != tc.wantDetails {
				t.Fatalf("details presence mismatch: %v", apiErr.Details)
			}
			if strings.Contains(raw, "Invalid key") || strings.Contains(raw, "10.0.0.4") {
				t.Fatalf("internal detail leaked: %s", raw)
			}
		})
	}
}

func TestWriteErrorLogsRejectionsAtWarn(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf, Format: logger.FormatJSON})

	WriteError(context.Background(), logg, httptest.NewRecorder(), pkgerrors.New(pkgerrors.CodeNotFound, "plan not found"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log entry: %v (%s)", err, buf.String())
	}
	if entry["level"] != "warn" || entry["message"] != "request.rejected" {
		t.Fatalf("unexpected log entry %v", entry)
	}
	if entry["status"] != float64(http.StatusNotFound) {
		t.Fatalf("expected status field, got %v", entry["status"])
	}
}

func TestWriteJSONSkipsEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, map[string]bool{"received": true})

	if strings.TrimSpace(rec.Body.String()) != `{"received":true}` {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
}
