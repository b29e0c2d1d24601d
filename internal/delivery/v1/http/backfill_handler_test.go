package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DRSN-tech/image-search-backend/internal/cfg"
	"github.com/DRSN-tech/image-search-backend/internal/usecase"
	"github.com/DRSN-tech/image-search-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backfillUCStub struct {
	gotReq *usecase.BackfillReq
	report *usecase.BackfillReport
	err    error
}

func (s *backfillUCStub) Run(ctx context.Context, req *usecase.BackfillReq) (*usecase.BackfillReport, error) {
	s.gotReq = req
	if s.report == nil {
		s.report = &usecase.BackfillReport{Errors: []usecase.ItemError{}}
	}
	return s.report, s.err
}

func newBackfillHandlerTest(secret string) (*BackfillHandler, *backfillUCStub) {
	stub := &backfillUCStub{}
	handler := NewBackfillHandler(stub, &cfg.BackfillCfg{Secret: secret}, logger.NewSlogLogger())
	return handler, stub
}

func doBackfill(handler *BackfillHandler, target string, body string, secret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	if secret != "" {
		req.Header.Set("X-Backfill-Secret", secret)
	}

	rec := httptest.NewRecorder()
	handler.runBackfill(rec, req)
	return rec
}

func TestRunBackfillAuth(t *testing.T) {
	t.Run("missing secret header", func(t *testing.T) {
		handler, stub := newBackfillHandlerTest("top-secret")

		rec := doBackfill(handler, "/api/v1/embeddings/backfill", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, stub.gotReq)
	})

	t.Run("wrong secret", func(t *testing.T) {
		handler, stub := newBackfillHandlerTest("top-secret")

		rec := doBackfill(handler, "/api/v1/embeddings/backfill", "", "wrong")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, stub.gotReq)
	})

	t.Run("secret not configured", func(t *testing.T) {
		handler, stub := newBackfillHandlerTest("")

		rec := doBackfill(handler, "/api/v1/embeddings/backfill", "", "anything")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Nil(t, stub.gotReq)
	})

	t.Run("correct secret", func(t *testing.T) {
		handler, stub := newBackfillHandlerTest("top-secret")

		rec := doBackfill(handler, "/api/v1/embeddings/backfill", "", "top-secret")
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, stub.gotReq)
	})
}

func TestRunBackfillParameters(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		body       string
		wantLimit  int
		wantDryRun bool
	}{
		{
			name:      "defaults",
			target:    "/backfill",
			wantLimit: 50,
		},
		{
			name:      "limit from body",
			target:    "/backfill",
			body:      `{"limit": 120}`,
			wantLimit: 120,
		},
		{
			name:      "query overrides body",
			target:    "/backfill?limit=7",
			body:      `{"limit": 120}`,
			wantLimit: 7,
		},
		{
			name:       "dry_run from body",
			target:     "/backfill",
			body:       `{"dry_run": true}`,
			wantLimit:  50,
			wantDryRun: true,
		},
		{
			name:       "dry_run from query",
			target:     "/backfill?dry_run=1",
			wantLimit:  50,
			wantDryRun: true,
		},
		{
			name:      "limit clamped to upper bound",
			target:    "/backfill?limit=9999",
			wantLimit: 500,
		},
		{
			name:      "limit clamped to lower bound",
			target:    "/backfill?limit=0",
			wantLimit: 1,
		},
		{
			name:      "malformed body is ignored",
			target:    "/backfill",
			body:      `{"limit": `,
			wantLimit: 50,
		},
		{
			name:      "malformed query limit is ignored",
			target:    "/backfill?limit=abc",
			body:      `{"limit": 30}`,
			wantLimit: 30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, stub := newBackfillHandlerTest("s")

			rec := doBackfill(handler, tt.target, tt.body, "s")
			require.Equal(t, http.StatusOK, rec.Code)
			require.NotNil(t, stub.gotReq)

			assert.Equal(t, tt.wantLimit, stub.gotReq.Limit)
			assert.Equal(t, tt.wantDryRun, stub.gotReq.DryRun)
		})
	}
}

func TestRunBackfillPartialFailureIsStillOK(t *testing.T) {
	handler, stub := newBackfillHandlerTest("s")
	stub.report = &usecase.BackfillReport{
		Processed: 3,
		Updated:   1,
		Skipped:   1,
		Errors:    []usecase.ItemError{{ID: "p3", Error: "download timed out"}},
	}

	rec := doBackfill(handler, "/backfill", "", "s")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"processed":3`)
	assert.Contains(t, rec.Body.String(), `"download timed out"`)
}
