package transport

import (
	"time"

	"github.com/mattosconsultor/humano-saude/internal/leads/domain"
	"github.com/mattosconsultor/humano-saude/internal/leads/repository"

	"github.com/google/uuid"
)

// Pagination limits for lead listings.
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// Request DTOs

// CreateLeadRequest carries the fields produced by the document-extraction
// pipeline. Validation here mirrors the lifecycle's own checks on purpose:
// the transport boundary rejects garbage early, the lifecycle stays safe for
// other internal callers.
type CreateLeadRequest struct {
	Name             string                 `json:"name" validate:"required,min=3,max=255"`
	Whatsapp         string                 `json:"whatsapp" validate:"required,min=10,max=20"`
	Email            *string                `json:"email,omitempty" validate:"omitempty,email"`
	CurrentProvider  *string                `json:"currentProvider,omitempty" validate:"omitempty,max=255"`
	CurrentValue     *float64               `json:"currentValue,omitempty" validate:"omitempty,gt=0"`
	BeneficiaryAges  []int64                `json:"beneficiaryAges,omitempty" validate:"omitempty,dive,min=0,max=130"`
	EstimatedSavings *float64               `json:"estimatedSavings,omitempty"`
	ProposedValue    *float64               `json:"proposedValue,omitempty"`
	ContractType     *string                `json:"contractType,omitempty" validate:"omitempty,oneof=PF PME"`
	Notes            *string                `json:"notes,omitempty" validate:"omitempty,max=2000"`
	RawPayload       map[string]interface{} `json:"rawPayload,omitempty"`
}

// ChangeStatusRequest moves a lead through the pipeline.
type ChangeStatusRequest struct {
	Status string  `json:"status" validate:"required,oneof=new contacted negotiation proposal_sent won lost paused"`
	Note   *string `json:"note,omitempty" validate:"omitempty,max=2000"`
}

// ListLeadsRequest filters and paginates the lead collection. Bounds and
// the status filter are checked by the service, which clamps rather than
// rejects out-of-range paging values.
type ListLeadsRequest struct {
	Status *string `form:"status"`
	Limit  int     `form:"limit"`
	Offset int     `form:"offset"`
}

// Response DTOs

type HistoryEntryResponse struct {
	Timestamp      time.Time `json:"timestamp"`
	Event          string    `json:"event"`
	PreviousStatus string    `json:"previousStatus"`
	NewStatus      string    `json:"newStatus"`
	Note           *string   `json:"note,omitempty"`
}

type LeadResponse struct {
	ID               uuid.UUID              `json:"id"`
	Name             string                 `json:"name"`
	Whatsapp         string                 `json:"whatsapp"`
	Email            *string                `json:"email,omitempty"`
	CurrentProvider  *string                `json:"currentProvider,omitempty"`
	CurrentValue     *float64               `json:"currentValue,omitempty"`
	BeneficiaryAges  []int64                `json:"beneficiaryAges"`
	EstimatedSavings *float64               `json:"estimatedSavings,omitempty"`
	ProposedValue    *float64               `json:"proposedValue,omitempty"`
	ContractType     *string                `json:"contractType,omitempty"`
	Notes            *string                `json:"notes,omitempty"`
	RawPayload       map[string]interface{} `json:"rawPayload,omitempty"`
	Source           string                 `json:"source"`
	Status           string                 `json:"status"`
	Archived         bool                   `json:"archived"`
	History          []HistoryEntryResponse `json:"history"`
	CreatedAt        time.Time              `json:"createdAt"`
}

// CreateLeadResponse surfaces de-duplication as a non-error outcome.
type CreateLeadResponse struct {
	Message   string       `json:"message"`
	Duplicate bool         `json:"duplicate"`
	Lead      LeadResponse `json:"lead"`
}

type ListLeadsResponse struct {
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Items  []LeadResponse `json:"items"`
}

type DashboardStatsResponse struct {
	TotalLeads            int64            `json:"totalLeads"`
	LeadsToday            int64            `json:"leadsToday"`
	LeadsThisWeek         int64            `json:"leadsThisWeek"`
	LeadsThisMonth        int64            `json:"leadsThisMonth"`
	LeadsByStatus         map[string]int64 `json:"leadsByStatus"`
	TotalEstimatedSavings float64          `json:"totalEstimatedSavings"`
	AvgEstimatedSavings   float64          `json:"avgEstimatedSavings"`
	ConversionRate        float64          `json:"conversionRate"`
}

type ProviderCountResponse struct {
	Provider            string  `json:"provider"`
	Count               int64   `json:"count"`
	AvgEstimatedSavings float64 `json:"avgEstimatedSavings"`
}

type FunnelRowResponse struct {
	Status          string  `json:"status"`
	Count           int64   `json:"count"`
	TotalValue      float64 `json:"totalValue"`
	PercentOfFunnel float64 `json:"percentOfFunnel"`
}

// Mappers

func ToLeadResponse(lead repository.Lead) LeadResponse {
	history := make([]HistoryEntryResponse, 0, len(lead.History))
	for _, entry := range lead.History {
		history = append(history, toHistoryEntryResponse(entry))
	}

	ages := lead.BeneficiaryAges
	if ages == nil {
		ages = []int64{}
	}

	return LeadResponse{
		ID:               lead.ID,
		Name:             lead.Name,
		Whatsapp:         lead.Whatsapp,
		Email:            lead.Email,
		CurrentProvider:  lead.CurrentProvider,
		CurrentValue:     lead.CurrentValue,
		BeneficiaryAges:  ages,
		EstimatedSavings: lead.EstimatedSavings,
		ProposedValue:    lead.ProposedValue,
		ContractType:     lead.ContractType,
		Notes:            lead.Notes,
		RawPayload:       lead.RawPayload,
		Source:           lead.Source,
		Status:           string(lead.Status),
		Archived:         lead.Archived,
		History:          history,
		CreatedAt:        lead.CreatedAt,
	}
}

func toHistoryEntryResponse(entry domain.HistoryEntry) HistoryEntryResponse {
	return HistoryEntryResponse{
		Timestamp:      entry.Timestamp,
		Event:          entry.Event,
		PreviousStatus: string(entry.PreviousStatus),
		NewStatus:      string(entry.NewStatus),
		Note:           entry.Note,
	}
}

func ToDashboardStatsResponse(stats repository.DashboardStats) DashboardStatsResponse {
	byStatus := stats.LeadsByStatus
	if byStatus == nil {
		byStatus = map[string]int64{}
	}

	return DashboardStatsResponse{
		TotalLeads:            stats.TotalLeads,
		LeadsToday:            stats.LeadsToday,
		LeadsThisWeek:         stats.LeadsThisWeek,
		LeadsThisMonth:        stats.LeadsThisMonth,
		LeadsByStatus:         byStatus,
		TotalEstimatedSavings: stats.TotalEstimatedSavings,
		AvgEstimatedSavings:   stats.AvgEstimatedSavings,
		ConversionRate:        stats.ConversionRate,
	}
}

func ToProviderCountResponses(items []repository.ProviderCount) []ProviderCountResponse {
	out := make([]ProviderCountResponse, 0, len(items))
	for _, item := range items {
		out = append(out, ProviderCountResponse{
			Provider:            item.Provider,
			Count:               item.Count,
			AvgEstimatedSavings: item.AvgEstimatedSavings,
		})
	}
	return out
}

func ToFunnelRowResponses(items []repository.FunnelRow) []FunnelRowResponse {
	out := make([]FunnelRowResponse, 0, len(items))
	for _, item := range items {
		out = append(out, FunnelRowResponse{
			Status:          item.Status,
			Count:           item.Count,
			TotalValue:      item.TotalValue,
			PercentOfFunnel: item.PercentOfFunnel,
		})
	}
	return out
}
