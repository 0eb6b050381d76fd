package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"ibanmanager/internal/iban/service"
	"ibanmanager/internal/iban/store"
	"ibanmanager/internal/iban/validation"
	"ibanmanager/pkg/platform/audit/publisher"
	auditmemory "ibanmanager/pkg/platform/audit/store/memory"
	"ibanmanager/pkg/platform/middleware/auth"
	"ibanmanager/pkg/platform/middleware/request"
)

type HandlerSuite struct {
	suite.Suite
	router     *chi.Mux
	auditStore *auditmemory.InMemoryStore
	token      string
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.auditStore = auditmemory.NewInMemoryStore()
	svc := service.New(store.NewInMemory(),
		service.WithLogger(logger),
		service.WithAuditPublisher(publisher.NewPublisher(s.auditStore)),
		service.WithAuditTrail(s.auditStore),
	)

	signer, err := auth.NewHS256("handler-test-key")
	s.Require().NoError(err)
	s.token, err = signer.Issue("operator-1", nil, time.Hour, time.Now())
	s.Require().NoError(err)

	s.router = chi.NewRouter()
	s.router.Use(request.RequestID)
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(signer, logger))
		New(svc, logger).Register(r)
	})
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+s.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *HandlerSuite) decode(rr *httptest.ResponseRecorder, out any) {
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), out))
}

func (s *HandlerSuite) allocateGerman() map[string]any {
	rr := s.do(http.MethodPost, "/ibans", map[string]string{
		"daes_account_id":         "daes-1",
		"country_code":            "de",
		"currency":                "eur",
		"bank_code":               "37040044",
		"internal_account_number": "0532013000",
	})
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	var body map[string]any
	s.decode(rr, &body)
	return body
}

func (s *HandlerSuite) TestAllocate() {
	s.Run("creates pending IBAN", func() {
		body := s.allocateGerman()
		s.Equal("DE89370400440532013000", body["iban"])
		s.Equal("DE89 3704 0044 0532 0130 00", body["ibanFormatted"])
		s.Equal("PENDING", body["status"])
		s.Equal("operator-1", body["createdBy"])
	})

	s.Run("duplicate returns 409", func() {
		rr := s.do(http.MethodPost, "/ibans", map[string]string{
			"daes_account_id":         "daes-2",
			"country_code":            "DE",
			"currency":                "EUR",
			"bank_code":               "37040044",
			"internal_account_number": "0532013000",
		})
		s.Equal(http.StatusConflict, rr.Code)
		var body map[string]string
		s.decode(rr, &body)
		s.Equal("duplicate_iban", body["error"])
	})

	s.Run("missing field returns 400", func() {
		rr := s.do(http.MethodPost, "/ibans", map[string]string{
			"country_code": "DE",
			"currency":     "EUR",
		})
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("unsupported country returns 400", func() {
		rr := s.do(http.MethodPost, "/ibans", map[string]string{
			"daes_account_id":         "daes-3",
			"country_code":            "FR",
			"currency":                "EUR",
			"bank_code":               "30006",
			"internal_account_number": "1",
		})
		s.Equal(http.StatusBadRequest, rr.Code)
		var body map[string]string
		s.decode(rr, &body)
		s.Equal("unsupported_country", body["error"])
	})

	s.Run("unknown fields rejected", func() {
		rr := s.do(http.MethodPost, "/ibans", map[string]string{"unexpected": "x"})
		s.Equal(http.StatusBadRequest, rr.Code)
	})
}

func (s *HandlerSuite) TestLifecycle() {
	created := s.allocateGerman()
	ibanID := created["id"].(string)

	rr := s.do(http.MethodPost, "/ibans/"+ibanID+"/activate", nil)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	rr = s.do(http.MethodPost, "/ibans/"+ibanID+"/block", map[string]string{"reason": "fraud check"})
	s.Require().Equal(http.StatusOK, rr.Code)
	var body map[string]any
	s.decode(rr, &body)
	s.Equal("BLOCKED", body["status"])

	rr = s.do(http.MethodPost, "/ibans/"+ibanID+"/close", nil)
	s.Require().Equal(http.StatusOK, rr.Code)

	rr = s.do(http.MethodPost, "/ibans/"+ibanID+"/activate", nil)
	s.Equal(http.StatusBadRequest, rr.Code)
	var errBody map[string]string
	s.decode(rr, &errBody)
	s.Equal("invalid_status_transition", errBody["error"])

	events, err := s.auditStore.ListAll(s.T().Context())
	s.Require().NoError(err)
	s.Len(events, 4)
	s.Equal("fraud check", events[2].Reason)
	s.Equal("operator-1", events[2].ActorID)
}

func (s *HandlerSuite) TestHistory() {
	created := s.allocateGerman()
	ibanID := created["id"].(string)
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/ibans/"+ibanID+"/activate", nil).Code)

	rr := s.do(http.MethodGet, "/ibans/"+ibanID+"/audit", nil)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	var body struct {
		Events []struct {
			Action     string `json:"action"`
			FromStatus string `json:"from_status"`
			ToStatus   string `json:"to_status"`
			ActorID    string `json:"actor_id"`
		} `json:"events"`
		Count int `json:"count"`
	}
	s.decode(rr, &body)
	s.Require().Equal(2, body.Count)
	s.Equal("iban_allocated", body.Events[0].Action)
	s.Equal("PENDING", body.Events[1].FromStatus)
	s.Equal("ACTIVE", body.Events[1].ToStatus)
	s.Equal("operator-1", body.Events[1].ActorID)

	rr = s.do(http.MethodGet, "/ibans/6f1c2a4e-8b7d-4e3a-9c5f-2d1e0b9a8c7d/audit", nil)
	s.Equal(http.StatusNotFound, rr.Code)
}

func (s *HandlerSuite) TestQueries() {
	created := s.allocateGerman()
	ibanID := created["id"].(string)

	s.Run("get by id", func() {
		rr := s.do(http.MethodGet, "/ibans/"+ibanID, nil)
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("malformed id", func() {
		rr := s.do(http.MethodGet, "/ibans/not-a-uuid", nil)
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("unknown id", func() {
		rr := s.do(http.MethodGet, "/ibans/6f1c1d5e-8f4c-4d55-9a7e-2f0b3b7b9c11", nil)
		s.Equal(http.StatusNotFound, rr.Code)
	})

	s.Run("lookup by IBAN", func() {
		rr := s.do(http.MethodGet, "/ibans/lookup/de89370400440532013000", nil)
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("lookup by invalid IBAN", func() {
		rr := s.do(http.MethodGet, "/ibans/lookup/DE00370400440532013000", nil)
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("list by account", func() {
		rr := s.do(http.MethodGet, "/ibans?account=daes-1", nil)
		s.Require().Equal(http.StatusOK, rr.Code)
		var body ListResponse
		s.decode(rr, &body)
		s.Equal(1, body.Count)
	})

	s.Run("list by status", func() {
		rr := s.do(http.MethodGet, "/ibans?status=active", nil)
		s.Require().Equal(http.StatusOK, rr.Code)
		var body ListResponse
		s.decode(rr, &body)
		s.Equal(0, body.Count)
		s.NotNil(body.IBANs)
	})

	s.Run("list with bad status", func() {
		rr := s.do(http.MethodGet, "/ibans?status=frozen", nil)
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("list with bad limit", func() {
		rr := s.do(http.MethodGet, "/ibans?limit=ten", nil)
		s.Equal(http.StatusBadRequest, rr.Code)
	})
}

func (s *HandlerSuite) TestValidate() {
	rr := s.do(http.MethodPost, "/ibans/validate", map[string]string{
		"iban":         "ES91 2100 0418 4502 0005 1332",
		"country_code": "es",
	})
	s.Require().Equal(http.StatusOK, rr.Code)
	var res validation.Result
	s.decode(rr, &res)
	s.True(res.Valid)
	s.Equal("ES9121000418450200051332", res.IBAN)

	rr = s.do(http.MethodPost, "/ibans/validate", map[string]string{"iban": "ES0021000418450200051332"})
	s.Require().Equal(http.StatusOK, rr.Code)
	s.decode(rr, &res)
	s.False(res.Valid)
	s.False(res.CheckDigitsValid)
}

func (s *HandlerSuite) TestRequiresToken() {
	req := httptest.NewRequest(http.MethodGet, "/ibans", nil)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	s.Equal(http.StatusUnauthorized, rr.Code)
}
