package query

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/gestaozabele/zeladoria/internal/access"
	"github.com/gestaozabele/zeladoria/internal/occurrence"
)

var base = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

func occ(id, regional string, status occurrence.Status) occurrence.Occurrence {
	return occurrence.Occurrence{
		ID:          id,
		Protocol:    "OCR-2025-00" + id,
		Description: "Ocorrência " + id,
		Priority:    occurrence.PriorityLow,
		RegionalID:  regional,
		Status:      status,
		CreatedAt:   base,
		UpdatedAt:   base,
	}
}

var cegor = access.Viewer{Role: access.RoleCegor, Subrole: access.SubroleGestor}

func ids(items []occurrence.Occurrence) []string {
	out := make([]string, 0, len(items))
	for _, o := range items {
		out = append(out, o.ID)
	}
	return out
}

func TestRegionalViewerSeesOnlyOwnRegional(t *testing.T) {
	items := []occurrence.Occurrence{
		occ("1", "1", occurrence.StatusCreated),
		occ("2", "2", occurrence.StatusCreated),
	}
	viewer := access.Viewer{Role: access.RoleRegional, Subrole: access.SubroleGestor, RegionalID: "1"}

	res, err := VisibleOccurrences(items, Filter{}, viewer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(res.Items); !reflect.DeepEqual(got, []string{"1"}) {
		t.Fatalf("got %v", got)
	}

	// filtros não ampliam o escopo
	res, err = VisibleOccurrences(items, Filter{RegionalName: "2"}, viewer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 0 {
		t.Fatalf("filter widened scope: %v", ids(res.Items))
	}
}

func TestSearchTermMatchesProtocolOrDescription(t *testing.T) {
	a := occ("1", "1", occurrence.StatusCreated)
	a.Description = "Buraco na AVENIDA principal"
	b := occ("2", "1", occurrence.StatusCreated)
	b.Protocol = "OCR-2025-777"

	res, _ := VisibleOccurrences([]occurrence.Occurrence{a, b}, Filter{SearchTerm: "avenida"}, cegor)
	if got := ids(res.Items); !reflect.DeepEqual(got, []string{"1"}) {
		t.Fatalf("description search got %v", got)
	}
	res, _ = VisibleOccurrences([]occurrence.Occurrence{a, b}, Filter{SearchTerm: "ocr-2025-777"}, cegor)
	if got := ids(res.Items); !reflect.DeepEqual(got, []string{"2"}) {
		t.Fatalf("protocol search got %v", got)
	}
}

func TestConjunctiveFilters(t *testing.T) {
	a := occ("1", "1", occurrence.StatusCreated)
	a.Priority = occurrence.PriorityHigh
	a.Neighborhood = "Centro"
	b := occ("2", "1", occurrence.StatusCreated)
	b.Priority = occurrence.PriorityHigh
	b.Neighborhood = "Jockey"
	c := occ("3", "1", occurrence.StatusScheduled)
	c.Priority = occurrence.PriorityHigh
	c.Neighborhood = "Centro"

	items := []occurrence.Occurrence{a, b, c}
	res, _ := VisibleOccurrences(items, Filter{Status: "created", Priority: "alta", Neighborhood: "centro"}, cegor)
	if got := ids(res.Items); !reflect.DeepEqual(got, []string{"1"}) {
		t.Fatalf("got %v", got)
	}

	res, _ = VisibleOccurrences(items, Filter{Status: "all"}, cegor)
	if len(res.Items) != 3 {
		t.Fatalf("'all' must not constrain")
	}

	res, _ = VisibleOccurrences(items, Filter{Status: "arquivada"}, cegor)
	if len(res.Items) != 0 {
		t.Fatalf("unknown status should match nothing")
	}
}

func TestRegionalNameResolution(t *testing.T) {
	items := []occurrence.Occurrence{occ("1", "1", occurrence.StatusCreated), occ("2", "2", occurrence.StatusCreated)}
	names := map[string]string{"1": "Regional Norte", "2": "Regional Sul"}

	res, _ := VisibleOccurrences(items, Filter{RegionalName: "regional sul"}, cegor, WithRegionalNames(names))
	if got := ids(res.Items); !reflect.DeepEqual(got, []string{"2"}) {
		t.Fatalf("got %v", got)
	}
}

func TestDateRangeInclusive(t *testing.T) {
	early := occ("1", "1", occurrence.StatusCreated)
	early.CreatedAt = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	late := occ("2", "1", occurrence.StatusCreated)
	late.CreatedAt = time.Date(2025, 4, 3, 23, 59, 59, 0, time.UTC)
	outside := occ("3", "1", occurrence.StatusCreated)
	outside.CreatedAt = time.Date(2025, 4, 4, 0, 0, 0, 0, time.UTC)
	before := occ("4", "1", occurrence.StatusCreated)
	before.CreatedAt = time.Date(2025, 3, 31, 23, 59, 0, 0, time.UTC)

	items := []occurrence.Occurrence{early, late, outside, before}
	res, _ := VisibleOccurrences(items, Filter{DateFrom: "2025-04-01", DateTo: "2025-04-03"}, cegor)
	if got := ids(res.Items); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Fatalf("got %v", got)
	}
}

func TestMalformedDateIsDropped(t *testing.T) {
	items := []occurrence.Occurrence{occ("1", "1", occurrence.StatusCreated), occ("2", "2", occurrence.StatusCreated)}
	res, err := VisibleOccurrences(items, Filter{DateFrom: "01/04/2025", DateTo: "2025-04-01"}, cegor)
	if err != nil {
		t.Fatalf("malformed date must not fail the query: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected both items, got %v", ids(res.Items))
	}
	if len(res.Dropped) != 1 || !errors.Is(res.Dropped[0], ErrInvalidFilterValue) {
		t.Fatalf("expected one dropped filter, got %v", res.Dropped)
	}
}

func TestEmptyCollection(t *testing.T) {
	res, err := VisibleOccurrences(nil, Filter{SearchTerm: "x"}, cegor)
	if err != nil || len(res.Items) != 0 {
		t.Fatalf("expected empty result, got %v %v", res.Items, err)
	}
}

func TestUnknownViewerRole(t *testing.T) {
	_, err := VisibleOccurrences(nil, Filter{}, access.Viewer{Role: "visitante"})
	if !errors.Is(err, access.ErrUnauthorizedRole) {
		t.Fatalf("expected ErrUnauthorizedRole, got %v", err)
	}
}

func TestIdempotent(t *testing.T) {
	items := []occurrence.Occurrence{occ("1", "1", occurrence.StatusCreated), occ("2", "2", occurrence.StatusPaused)}
	f := Filter{SearchTerm: "ocorr", DateFrom: "bad"}
	first, _ := VisibleOccurrences(items, f, cegor)
	second, _ := VisibleOccurrences(items, f, cegor)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results differ: %v vs %v", first, second)
	}
}

func TestPreservesOrderUnlessSorted(t *testing.T) {
	a := occ("1", "1", occurrence.StatusCreated)
	b := occ("2", "1", occurrence.StatusCreated)
	b.UpdatedAt = base.Add(time.Hour)
	c := occ("3", "1", occurrence.StatusCreated)
	items := []occurrence.Occurrence{a, b, c}

	res, _ := VisibleOccurrences(items, Filter{}, cegor)
	if got := ids(res.Items); !reflect.DeepEqual(got, []string{"1", "2", "3"}) {
		t.Fatalf("order changed: %v", got)
	}

	res, _ = VisibleOccurrences(items, Filter{SortByUpdatedDesc: true}, cegor)
	if got := ids(res.Items); !reflect.DeepEqual(got, []string{"2", "1", "3"}) {
		t.Fatalf("unexpected sorted order: %v", got)
	}
	if ids(items)[1] != "2" {
		t.Fatalf("input mutated")
	}
}

func TestTeamOccupancy(t *testing.T) {
	older := occ("1", "1", occurrence.StatusInExecution)
	older.TeamID = "t1"
	newer := occ("2", "1", occurrence.StatusExecuted)
	newer.TeamID = "t1"
	newer.UpdatedAt = base.Add(time.Hour)

	busy := occ("3", "1", occurrence.StatusInExecution)
	busy.TeamID = "t2"
	tie := occ("4", "1", occurrence.StatusCompleted)
	tie.TeamID = "t2"

	noTeam := occ("5", "1", occurrence.StatusInExecution)

	snaps := TeamOccupancy([]occurrence.Occurrence{older, busy, newer, tie, noTeam})
	if len(snaps) != 2 {
		t.Fatalf("expected 2 teams, got %d", len(snaps))
	}
	if snaps[0].TeamID != "t1" || snaps[0].Occurrence.ID != "2" || snaps[0].State != TeamAvailable {
		t.Fatalf("unexpected t1 snapshot %+v", snaps[0])
	}
	if snaps[1].TeamID != "t2" || snaps[1].Occurrence.ID != "3" || snaps[1].State != TeamAllocated {
		t.Fatalf("tie must keep first seen: %+v", snaps[1])
	}

	newer.Status = occurrence.StatusInExecution
	snaps = TeamOccupancy([]occurrence.Occurrence{older, newer})
	if snaps[0].State != TeamAllocated {
		t.Fatalf("expected allocated, got %s", snaps[0].State)
	}
}

func TestPage(t *testing.T) {
	items := make([]occurrence.Occurrence, 120)
	for i := range items {
		items[i].ID = string(rune('a' + i%26))
	}
	if got := Page(items, 0, 0); len(got) != DefaultLimit {
		t.Fatalf("default limit not applied: %d", len(got))
	}
	if got := Page(items, 30, 100); len(got) != 20 {
		t.Fatalf("expected tail of 20, got %d", len(got))
	}
	if got := Page(items, 1000, 0); len(got) != 120 {
		t.Fatalf("limit above cap should still page, got %d", len(got))
	}
	if got := Page(items, 10, 500); len(got) != 0 {
		t.Fatalf("offset past end should be empty")
	}
}

func TestCountByStatus(t *testing.T) {
	counts := CountByStatus([]occurrence.Occurrence{
		occ("1", "1", occurrence.StatusCreated),
		occ("2", "1", occurrence.StatusCreated),
		occ("3", "1", occurrence.StatusPaused),
	})
	if counts[occurrence.StatusCreated] != 2 || counts[occurrence.StatusPaused] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
	if _, ok := counts[occurrence.StatusCompleted]; !ok {
		t.Fatalf("every status should be present")
	}
}
