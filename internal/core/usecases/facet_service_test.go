package usecases_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samirrijal/sacredsites/internal/core/domain"
	"github.com/samirrijal/sacredsites/internal/core/usecases"
)

func TestFacetService_MergesSaintSpellings(t *testing.T) {
	repo := &mockSiteRepo{
		listFn: func(ctx context.Context, hints domain.FilterState) ([]domain.Site, error) {
			return testSites(), nil
		},
	}
	svc := usecases.NewFacetService(repo, nil, 0)

	opts, err := svc.FetchFacetOptions(context.Background(), domain.FacetSaint)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(opts) != 2 {
		t.Fatalf("expected 2 options, got %v", opts)
	}
	if opts[0].Value != "brigid" || opts[0].Count != 2 || opts[0].Label != "Saint Brigid" {
		t.Errorf("unexpected brigid option %+v", opts[0])
	}
	if opts[1].Value != "ciaran" || opts[1].Label != "St. Ciarán" || opts[1].Count != 1 {
		t.Errorf("unexpected ciaran option %+v", opts[1])
	}
}

func TestFacetService_CountsSiteOncePerMergedOption(t *testing.T) {
	repo := &mockSiteRepo{
		listFn: func(ctx context.Context, hints domain.FilterState) ([]domain.Site, error) {
			return []domain.Site{
				{ID: "kildare", Title: "Kildare Cathedral", Category: domain.CategoryChristianSite, Saints: []string{"St. Brigid", "Saint Brigid"}},
				{ID: "faughart", Title: "Faughart", Category: domain.CategoryHolyWell, Saints: []string{"St Brigid"}},
			}, nil
		},
	}
	svc := usecases.NewFacetService(repo, nil, 0)

	opts, err := svc.FetchFacetOptions(context.Background(), domain.FacetSaint)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(opts) != 1 || opts[0].Count != 2 {
		t.Errorf("expected one brigid option counting 2 sites, got %+v", opts)
	}
}

func TestFacetService_Categories(t *testing.T) {
	repo := &mockSiteRepo{
		facetCountsFn: func(ctx context.Context, facet domain.FacetName) (map[string]int, error) {
			return map[string]int{"holy-well": 7}, nil
		},
	}
	svc := usecases.NewFacetService(repo, nil, 0)

	opts, err := svc.FetchFacetOptions(context.Background(), domain.FacetCategory)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(opts) != len(domain.Categories) {
		t.Fatalf("expected every category, got %d", len(opts))
	}
	for _, o := range opts {
		want := 0
		if o.Value == "holy-well" {
			want = 7
		}
		if o.Count != want {
			t.Errorf("%s: expected %d, got %d", o.Value, want, o.Count)
		}
	}
}

func TestFacetService_Provinces(t *testing.T) {
	repo := &mockSiteRepo{
		listFn: func(ctx context.Context, hints domain.FilterState) ([]domain.Site, error) {
			return testSites(), nil
		},
	}
	svc := usecases.NewFacetService(repo, nil, 0)

	opts, err := svc.FetchFacetOptions(context.Background(), domain.FacetProvince)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := map[string]int{}
	for _, o := range opts {
		got[o.Value] = o.Count
	}
	if got["leinster"] != 3 || got["connacht"] != 1 || got["munster"] != 0 {
		t.Errorf("unexpected counts %v", got)
	}
}

func TestFacetService_UnknownFacet(t *testing.T) {
	svc := usecases.NewFacetService(&mockSiteRepo{}, nil, 0)
	_, err := svc.FetchFacetOptions(context.Background(), "colour")
	if !errors.Is(err, domain.ErrUnknownFacet) {
		t.Errorf("expected ErrUnknownFacet, got %v", err)
	}
}

func TestFacetService_CollapsesConcurrentMisses(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	repo := &mockSiteRepo{
		facetCountsFn: func(ctx context.Context, facet domain.FacetName) (map[string]int, error) {
			calls.Add(1)
			<-release
			return map[string]int{"7th": 1}, nil
		},
	}
	svc := usecases.NewFacetService(repo, newMemCache(), 60)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.FetchFacetOptions(context.Background(), domain.FacetCentury); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 repository call, got %d", n)
	}
}

func TestFacetService_WrapsErrors(t *testing.T) {
	repo := &mockSiteRepo{
		listFn: func(ctx context.Context, hints domain.FilterState) ([]domain.Site, error) {
			return nil, errors.New("timeout")
		},
		facetCountsFn: func(ctx context.Context, facet domain.FacetName) (map[string]int, error) {
			return nil, errors.New("timeout")
		},
	}
	svc := usecases.NewFacetService(repo, nil, 0)
	for _, f := range []domain.FacetName{domain.FacetCounty, domain.FacetCentury} {
		if _, err := svc.FetchFacetOptions(context.Background(), f); !domain.IsFetchError(err) {
			t.Errorf("%s: expected fetch error, got %v", f, err)
		}
	}
}
