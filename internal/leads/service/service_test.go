package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mattosconsultor/humano-saude/internal/leads/domain"
	"github.com/mattosconsultor/humano-saude/internal/leads/lifecycle"
	"github.com/mattosconsultor/humano-saude/internal/leads/repository"
	"github.com/mattosconsultor/humano-saude/internal/leads/transport"
	"github.com/mattosconsultor/humano-saude/platform/apperr"

	"github.com/google/uuid"
)

type fakeLifecycle struct {
	createResult lifecycle.CreateResult
	createErr    error
	createCalls  []lifecycle.CreateParams

	transitionLead repository.Lead
	transitionErr  error
	transitioned   []domain.Status

	archived   bool
	archiveErr error

	lead   repository.Lead
	getErr error
}

func (f *fakeLifecycle) Create(_ context.Context, params lifecycle.CreateParams) (lifecycle.CreateResult, error) {
	f.createCalls = append(f.createCalls, params)
	return f.createResult, f.createErr
}

func (f *fakeLifecycle) TransitionStatus(_ context.Context, _ uuid.UUID, newStatus domain.Status, _ *string) (repository.Lead, error) {
	f.transitioned = append(f.transitioned, newStatus)
	return f.transitionLead, f.transitionErr
}

func (f *fakeLifecycle) Archive(_ context.Context, _ uuid.UUID) (bool, error) {
	return f.archived, f.archiveErr
}

func (f *fakeLifecycle) GetByID(_ context.Context, _ uuid.UUID) (repository.Lead, error) {
	return f.lead, f.getErr
}

type fakeLister struct {
	leads    []repository.Lead
	total    int
	err      error
	lastArgs repository.ListParams
}

func (f *fakeLister) List(_ context.Context, params repository.ListParams) ([]repository.Lead, int, error) {
	f.lastArgs = params
	return f.leads, f.total, f.err
}

type fakeAggregator struct{}

func (fakeAggregator) Dashboard(context.Context) (repository.DashboardStats, bool, error) {
	return repository.DashboardStats{TotalLeads: 7}, true, nil
}
func (fakeAggregator) ByProvider(context.Context) ([]repository.ProviderCount, error) {
	return nil, nil
}
func (fakeAggregator) Funnel(context.Context) ([]repository.FunnelRow, error) { return nil, nil }

func newService(lc *fakeLifecycle, lister *fakeLister) *Service {
	return New(lc, lister, fakeAggregator{})
}

func TestListClampsPagination(t *testing.T) {
	cases := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", 0, 0, transport.DefaultListLimit, 0},
		{"negative limit", -5, 0, transport.DefaultListLimit, 0},
		{"over max", 500, 0, transport.MaxListLimit, 0},
		{"at max", 100, 0, 100, 0},
		{"negative offset", 20, -3, 20, 0},
		{"plain page", 25, 50, 25, 50},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lister := &fakeLister{total: 3}
			svc := newService(&fakeLifecycle{}, lister)

			result, err := svc.List(context.Background(), transport.ListLeadsRequest{
				Limit:  tc.limit,
				Offset: tc.offset,
			})
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if lister.lastArgs.Limit != tc.wantLimit || lister.lastArgs.Offset != tc.wantOffset {
				t.Fatalf("store saw limit=%d offset=%d, want %d/%d",
					lister.lastArgs.Limit, lister.lastArgs.Offset, tc.wantLimit, tc.wantOffset)
			}
			if result.Limit != tc.wantLimit || result.Offset != tc.wantOffset {
				t.Fatalf("result echoes limit=%d offset=%d, want %d/%d",
					result.Limit, result.Offset, tc.wantLimit, tc.wantOffset)
			}
			if result.Total != 3 {
				t.Fatalf("total = %d, want 3", result.Total)
			}
		})
	}
}

// pagingLister serves pages out of a fixed dataset honoring the window
// contract: never more than limit items, an offset at or past the end
// yields an empty page, and total always covers the whole filter.
type pagingLister struct {
	leads []repository.Lead
}

func (p *pagingLister) List(_ context.Context, params repository.ListParams) ([]repository.Lead, int, error) {
	total := len(p.leads)
	if params.Offset >= total {
		return []repository.Lead{}, total, nil
	}
	end := params.Offset + params.Limit
	if end > total {
		end = total
	}
	return p.leads[params.Offset:end], total, nil
}

func TestListPaginationWindow(t *testing.T) {
	dataset := make([]repository.Lead, 7)
	for i := range dataset {
		dataset[i] = repository.Lead{ID: uuid.New(), Status: domain.StatusNew}
	}
	svc := New(&fakeLifecycle{}, &pagingLister{leads: dataset}, fakeAggregator{})

	cases := []struct {
		name      string
		limit     int
		offset    int
		wantItems int
	}{
		{"first page", 3, 0, 3},
		{"middle page", 3, 3, 3},
		{"short last page", 3, 6, 1},
		{"offset at end", 3, 7, 0},
		{"offset past end", 3, 50, 0},
		{"limit beyond dataset", 50, 0, 7},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := svc.List(context.Background(), transport.ListLeadsRequest{
				Limit:  tc.limit,
				Offset: tc.offset,
			})
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(result.Leads) != tc.wantItems {
				t.Fatalf("page has %d items, want %d", len(result.Leads), tc.wantItems)
			}
			if len(result.Leads) > tc.limit {
				t.Fatalf("page of %d items exceeds limit %d", len(result.Leads), tc.limit)
			}
			if result.Total != len(dataset) {
				t.Fatalf("total = %d, want %d", result.Total, len(dataset))
			}
		})
	}
}

func TestListRejectsUnknownStatusFilter(t *testing.T) {
	bogus := "arquivado"
	lister := &fakeLister{}
	svc := newService(&fakeLifecycle{}, lister)

	_, err := svc.List(context.Background(), transport.ListLeadsRequest{Status: &bogus})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("kind = %v, want validation", apperr.GetKind(err))
	}
	if lister.lastArgs.Limit != 0 {
		t.Fatal("store was queried despite invalid filter")
	}
}

func TestListPassesKnownStatusFilter(t *testing.T) {
	status := "won"
	lister := &fakeLister{}
	svc := newService(&fakeLifecycle{}, lister)

	if _, err := svc.List(context.Background(), transport.ListLeadsRequest{Status: &status}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if lister.lastArgs.Status == nil || *lister.lastArgs.Status != domain.StatusWon {
		t.Fatalf("filter = %v, want won", lister.lastArgs.Status)
	}
}

func TestListMapsStoreErrors(t *testing.T) {
	lister := &fakeLister{err: repository.ErrNotConnected}
	svc := newService(&fakeLifecycle{}, lister)

	_, err := svc.List(context.Background(), transport.ListLeadsRequest{})
	if apperr.GetKind(err) != apperr.KindUnavailable {
		t.Fatalf("kind = %v, want unavailable", apperr.GetKind(err))
	}

	lister.err = errors.New("boom")
	_, err = svc.List(context.Background(), transport.ListLeadsRequest{})
	if apperr.GetKind(err) != apperr.KindInternal {
		t.Fatalf("kind = %v, want internal", apperr.GetKind(err))
	}
}

func TestCreateFromExtractionSurfacesDuplicateAsSuccess(t *testing.T) {
	lc := &fakeLifecycle{createResult: lifecycle.CreateResult{
		Lead:      repository.Lead{ID: uuid.New(), Whatsapp: "+5511999990000"},
		Duplicate: true,
	}}
	svc := newService(lc, &fakeLister{})

	result, err := svc.CreateFromExtraction(context.Background(), transport.CreateLeadRequest{
		Name:     "Maria Souza",
		Whatsapp: "+5511999990000",
	})
	if err != nil {
		t.Fatalf("duplicate must not be an error, got %v", err)
	}
	if !result.Duplicate {
		t.Fatal("Duplicate = false, want true")
	}
	if len(lc.createCalls) != 1 || lc.createCalls[0].Name != "Maria Souza" {
		t.Fatalf("lifecycle saw %+v", lc.createCalls)
	}
}

func TestChangeStatusRejectsUnknownBeforeLifecycle(t *testing.T) {
	lc := &fakeLifecycle{}
	svc := newService(lc, &fakeLister{})

	_, err := svc.ChangeStatus(context.Background(), uuid.New(), "closed", nil)
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("kind = %v, want validation", apperr.GetKind(err))
	}
	if len(lc.transitioned) != 0 {
		t.Fatal("lifecycle was invoked despite unknown status")
	}
}

func TestChangeStatusDelegatesKnown(t *testing.T) {
	lc := &fakeLifecycle{transitionLead: repository.Lead{Status: domain.StatusContacted}}
	svc := newService(lc, &fakeLister{})

	lead, err := svc.ChangeStatus(context.Background(), uuid.New(), "contacted", nil)
	if err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if lead.Status != domain.StatusContacted {
		t.Fatalf("status = %s", lead.Status)
	}
	if len(lc.transitioned) != 1 || lc.transitioned[0] != domain.StatusContacted {
		t.Fatalf("lifecycle saw %v", lc.transitioned)
	}
}
