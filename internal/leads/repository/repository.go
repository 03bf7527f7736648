package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattosconsultor/humano-saude/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("lead not found")
	// ErrNotConnected is returned before any store call when the process
	// started without a configured database endpoint.
	ErrNotConnected = errors.New("store not connected")
)

type Repository struct {
	pool *pgxpool.Pool
}

// New creates a repository over the shared connection pool. A nil pool is
// allowed and puts every operation into the fail-fast not-connected mode.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Lead is the persisted lead record, raw extraction payload included.
type Lead struct {
	ID               uuid.UUID
	Name             string
	Whatsapp         string
	Email            *string
	CurrentProvider  *string
	CurrentValue     *float64
	BeneficiaryAges  []int64
	EstimatedSavings *float64
	ProposedValue    *float64
	ContractType     *string
	Notes            *string
	RawPayload       map[string]interface{}
	Source           string
	Status           domain.Status
	Archived         bool
	History          []domain.HistoryEntry
	CreatedAt        time.Time
}

const leadColumns = `id, nome, whatsapp, email, operadora_atual, valor_atual, idades,
		economia_estimada, valor_proposto, tipo_contratacao, observacoes, dados_pdf,
		origem, status, arquivado, historico, created_at`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.Name, &lead.Whatsapp, &lead.Email, &lead.CurrentProvider,
		&lead.CurrentValue, &lead.BeneficiaryAges, &lead.EstimatedSavings,
		&lead.ProposedValue, &lead.ContractType, &lead.Notes, &lead.RawPayload,
		&lead.Source, &lead.Status, &lead.Archived, &lead.History, &lead.CreatedAt,
	)
	return lead, err
}

type CreateLeadParams struct {
	Name             string
	Whatsapp         string
	Email            *string
	CurrentProvider  *string
	CurrentValue     *float64
	BeneficiaryAges  []int64
	EstimatedSavings *float64
	ProposedValue    *float64
	ContractType     *string
	Notes            *string
	RawPayload       map[string]interface{}
	Source           string
	Status           domain.Status
}

// insertLeadQuery relies on the partial unique index over non-archived
// contact keys: a concurrent duplicate insert yields no row instead of a
// second record, closing the check-then-act race at the store boundary.
const insertLeadQuery = `
	INSERT INTO insurance_leads (
		nome, whatsapp, email, operadora_atual, valor_atual, idades,
		economia_estimada, valor_proposto, tipo_contratacao, observacoes,
		dados_pdf, origem, status, historico
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, '[]'::jsonb)
	ON CONFLICT (whatsapp) WHERE arquivado = false DO NOTHING
	RETURNING ` + leadColumns

func (r *Repository) Insert(ctx context.Context, params CreateLeadParams) (Lead, bool, error) {
	if r.pool == nil {
		return Lead{}, false, ErrNotConnected
	}
	return insertLead(ctx, r.pool, params)
}

// rowQuerier is the slice of the pool the insert path needs; split out so
// the conflict/refetch sequencing is testable without a live store.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// insertLead runs the guarded insert. A no-row outcome means the unique
// guard tripped, so the existing non-archived lead is fetched and returned
// instead of a new record. If that lead is archived between the conflict
// and the refetch, the insert is retried once: a create must never surface
// a not-found condition.
func insertLead(ctx context.Context, q rowQuerier, params CreateLeadParams) (Lead, bool, error) {
	ages := params.BeneficiaryAges
	if ages == nil {
		ages = []int64{}
	}
	payload := params.RawPayload
	if payload == nil {
		payload = map[string]interface{}{}
	}

	for attempt := 0; attempt < 2; attempt++ {
		lead, err := scanLead(q.QueryRow(ctx, insertLeadQuery,
			params.Name, params.Whatsapp, params.Email, params.CurrentProvider,
			params.CurrentValue, ages, params.EstimatedSavings, params.ProposedValue,
			params.ContractType, params.Notes, payload, params.Source, params.Status,
		))
		if err == nil {
			return lead, true, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, false, fmt.Errorf("insert lead: %w", err)
		}

		existing, err := scanLead(q.QueryRow(ctx, getLatestActiveByContactQuery, params.Whatsapp))
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, false, fmt.Errorf("get lead by contact: %w", err)
		}
		// The conflicting lead was archived in the window between the
		// conflict and the refetch; insert again.
	}

	return Lead{}, false, fmt.Errorf("insert lead: active conflicting lead vanished during retry")
}

const getByIDQuery = `SELECT ` + leadColumns + ` FROM insurance_leads WHERE id = $1`

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	if r.pool == nil {
		return Lead{}, ErrNotConnected
	}

	lead, err := scanLead(r.pool.QueryRow(ctx, getByIDQuery, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, fmt.Errorf("get lead by id: %w", err)
	}
	return lead, nil
}

const getLatestActiveByContactQuery = `
	SELECT ` + leadColumns + `
	FROM insurance_leads
	WHERE whatsapp = $1 AND arquivado = false
	ORDER BY created_at DESC
	LIMIT 1`

func (r *Repository) GetLatestActiveByContact(ctx context.Context, whatsapp string) (Lead, error) {
	if r.pool == nil {
		return Lead{}, ErrNotConnected
	}

	lead, err := scanLead(r.pool.QueryRow(ctx, getLatestActiveByContactQuery, whatsapp))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, fmt.Errorf("get lead by contact: %w", err)
	}
	return lead, nil
}

type ListParams struct {
	Status *domain.Status
	Limit  int
	Offset int
}

// buildListWhere keeps archived leads out of every listing and applies the
// optional status filter. Split out for query-shape tests.
func buildListWhere(params ListParams) (string, []interface{}) {
	clauses := []string{"arquivado = false"}
	args := []interface{}{}

	if params.Status != nil {
		args = append(args, *params.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}

	return strings.Join(clauses, " AND "), args
}

// buildListQueries produces the count and page statements for List. The
// page is hard-bounded by LIMIT/OFFSET in the statement itself, never
// post-filtered in Go. Split out for query-shape tests.
func buildListQueries(params ListParams) (countQuery, pageQuery string, countArgs, pageArgs []interface{}) {
	whereClause, args := buildListWhere(params)

	countQuery = fmt.Sprintf("SELECT COUNT(*) FROM insurance_leads WHERE %s", whereClause)

	pageArgs = append(append([]interface{}{}, args...), params.Limit, params.Offset)
	pageQuery = fmt.Sprintf(`
		SELECT %s
		FROM insurance_leads
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, leadColumns, whereClause, len(pageArgs)-1, len(pageArgs))

	return countQuery, pageQuery, args, pageArgs
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	if r.pool == nil {
		return nil, 0, ErrNotConnected
	}

	countQuery, pageQuery, countArgs, pageArgs := buildListQueries(params)

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	rows, err := r.pool.Query(ctx, pageQuery, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("list leads: %w", rows.Err())
	}

	return leads, total, nil
}

type UpdateLeadParams struct {
	Status           *domain.Status
	History          []domain.HistoryEntry
	HistorySet       bool
	Notes            *string
	EstimatedSavings *float64
	ProposedValue    *float64
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateLeadParams) (Lead, error) {
	if r.pool == nil {
		return Lead{}, ErrNotConnected
	}

	setClauses := []string{}
	args := []interface{}{}

	fields := []struct {
		enabled bool
		column  string
		value   interface{}
	}{
		{params.Status != nil, "status", params.Status},
		{params.HistorySet, "historico", params.History},
		{params.Notes != nil, "observacoes", params.Notes},
		{params.EstimatedSavings != nil, "economia_estimada", params.EstimatedSavings},
		{params.ProposedValue != nil, "valor_proposto", params.ProposedValue},
	}

	for _, field := range fields {
		if !field.enabled {
			continue
		}
		args = append(args, field.value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field.column, len(args)))
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE insurance_leads SET %s
		WHERE id = $%d AND arquivado = false
		RETURNING %s
	`, strings.Join(setClauses, ", "), len(args), leadColumns)

	lead, err := scanLead(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, fmt.Errorf("update lead: %w", err)
	}
	return lead, nil
}

const archiveLeadQuery = `UPDATE insurance_leads SET arquivado = true WHERE id = $1`

func (r *Repository) Archive(ctx context.Context, id uuid.UUID) (bool, error) {
	if r.pool == nil {
		return false, ErrNotConnected
	}

	tag, err := r.pool.Exec(ctx, archiveLeadQuery, id)
	if err != nil {
		return false, fmt.Errorf("archive lead: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
