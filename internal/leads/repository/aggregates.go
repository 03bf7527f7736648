package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// The three dashboard reads go through precomputed relational views
// (dashboard_stats, leads_por_operadora, pipeline_vendas) created by the
// schema migration. The core forwards rows as-is and never re-aggregates.

// DashboardStats is the single aggregate row backing the dashboard.
type DashboardStats struct {
	TotalLeads            int64
	LeadsToday            int64
	LeadsThisWeek         int64
	LeadsThisMonth        int64
	LeadsByStatus         map[string]int64
	TotalEstimatedSavings float64
	AvgEstimatedSavings   float64
	// ConversionRate is won leads over worked leads (everything except
	// new and paused), in percent.
	ConversionRate float64
}

// ProviderCount is one row of the by-provider grouping.
type ProviderCount struct {
	Provider            string
	Count               int64
	AvgEstimatedSavings float64
}

// FunnelRow is one row of the sales funnel view.
type FunnelRow struct {
	Status          string
	Count           int64
	TotalValue      float64
	PercentOfFunnel float64
}

const dashboardStatsQuery = `
	SELECT total_leads, leads_hoje, leads_semana, leads_mes, leads_por_status,
		economia_total, economia_media, taxa_conversao
	FROM dashboard_stats`

func (r *Repository) DashboardStats(ctx context.Context) (DashboardStats, error) {
	if r.pool == nil {
		return DashboardStats{}, ErrNotConnected
	}

	var stats DashboardStats
	err := r.pool.QueryRow(ctx, dashboardStatsQuery).Scan(
		&stats.TotalLeads, &stats.LeadsToday, &stats.LeadsThisWeek, &stats.LeadsThisMonth,
		&stats.LeadsByStatus, &stats.TotalEstimatedSavings, &stats.AvgEstimatedSavings,
		&stats.ConversionRate,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return DashboardStats{}, ErrNotFound
	}
	if err != nil {
		return DashboardStats{}, fmt.Errorf("dashboard stats: %w", err)
	}
	return stats, nil
}

const leadsByProviderQuery = `
	SELECT operadora, quantidade, economia_media
	FROM leads_por_operadora`

func (r *Repository) LeadsByProvider(ctx context.Context) ([]ProviderCount, error) {
	if r.pool == nil {
		return nil, ErrNotConnected
	}

	rows, err := r.pool.Query(ctx, leadsByProviderQuery)
	if err != nil {
		return nil, fmt.Errorf("leads by provider: %w", err)
	}
	defer rows.Close()

	items := make([]ProviderCount, 0)
	for rows.Next() {
		var item ProviderCount
		if err := rows.Scan(&item.Provider, &item.Count, &item.AvgEstimatedSavings); err != nil {
			return nil, fmt.Errorf("scan provider row: %w", err)
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("leads by provider: %w", rows.Err())
	}

	return items, nil
}

const pipelineFunnelQuery = `
	SELECT status, quantidade, valor_total, percentual_funil
	FROM pipeline_vendas`

func (r *Repository) PipelineFunnel(ctx context.Context) ([]FunnelRow, error) {
	if r.pool == nil {
		return nil, ErrNotConnected
	}

	rows, err := r.pool.Query(ctx, pipelineFunnelQuery)
	if err != nil {
		return nil, fmt.Errorf("pipeline funnel: %w", err)
	}
	defer rows.Close()

	items := make([]FunnelRow, 0)
	for rows.Next() {
		var item FunnelRow
		if err := rows.Scan(&item.Status, &item.Count, &item.TotalValue, &item.PercentOfFunnel); err != nil {
			return nil, fmt.Errorf("scan funnel row: %w", err)
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("pipeline funnel: %w", rows.Err())
	}

	return items, nil
}
