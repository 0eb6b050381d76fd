package handler

import (
	"ibanmanager/internal/iban/models"
	"ibanmanager/pkg/platform/audit"
)

type ListResponse struct {
	IBANs []*models.IBAN `json:"ibans"`
	Count int            `json:"count"`
}

func newListResponse(ibans []*models.IBAN) ListResponse {
	if ibans == nil {
		ibans = []*models.IBAN{}
	}
	return ListResponse{IBANs: ibans, Count: len(ibans)}
}

// HistoryResponse lists an IBAN's audit events, oldest first.
type HistoryResponse struct {
	Events []audit.Event `json:"events"`
	Count  int           `json:"count"`
}
