package contratos

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// fakeAPI serves canned page bodies keyed by the pagina query parameter.
type fakeAPI struct {
	pages      map[int]string
	failAt     int // page number that returns an error, 0 for none
	calls      []int
	restricted []bool
}

func (f *fakeAPI) Get(_ context.Context, endpoint string, params url.Values, restricted bool) ([]byte, error) {
	if endpoint != Endpoint {
		return nil, fmt.Errorf("unexpected endpoint %q", endpoint)
	}

	page, err := strconv.Atoi(params.Get("pagina"))
	if err != nil {
		return nil, fmt.Errorf("missing pagina parameter")
	}
	f.calls = append(f.calls, page)
	f.restricted = append(f.restricted, restricted)

	if f.failAt != 0 && page == f.failAt {
		return nil, errors.New("connection reset")
	}

	body, ok := f.pages[page]
	if !ok {
		return []byte(`[]`), nil
	}
	return []byte(body), nil
}

// pageBody builds a JSON array of n trivial records.
func pageBody(n, offset int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"id": %d}`, offset+i)
	}
	return "[" + strings.Join(items, ",") + "]"
}

func TestNewFetcher_Validation(t *testing.T) {
	api := &fakeAPI{}

	if _, err := NewFetcher(nil, FetcherConfig{Orgao: "20701"}, zerolog.Nop()); err == nil {
		t.Error("Expected error for nil client")
	}
	if _, err := NewFetcher(api, FetcherConfig{}, zerolog.Nop()); err == nil {
		t.Error("Expected error for empty organization code")
	}

	f, err := NewFetcher(api, FetcherConfig{Orgao: "20701", StartPage: 0}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFetcher failed: %v", err)
	}
	if f.config.StartPage != 1 {
		t.Errorf("StartPage = %d, want 1 (defaulted)", f.config.StartPage)
	}
}

func TestFetchAll_StopsOnEmptyPage(t *testing.T) {
	api := &fakeAPI{pages: map[int]string{
		1: pageBody(5, 0),
		2: pageBody(3, 5),
		// page 3 is empty
	}}

	f, err := NewFetcher(api, FetcherConfig{Orgao: "20701", StartPage: 1}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFetcher failed: %v", err)
	}

	records, err := f.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	if len(records) != 8 {
		t.Errorf("Accumulated %d records, want 8", len(records))
	}
	if len(api.calls) != 3 {
		t.Errorf("Made %d requests, want 3", len(api.calls))
	}
	if f.PagesFetched() != 2 {
		t.Errorf("PagesFetched = %d, want 2", f.PagesFetched())
	}
}

func TestFetchAll_MonotonicPages(t *testing.T) {
	api := &fakeAPI{pages: map[int]string{
		1: pageBody(2, 0),
		2: pageBody(2, 2),
		3: pageBody(1, 4),
	}}

	f, _ := NewFetcher(api, FetcherConfig{Orgao: "20701"}, zerolog.Nop())
	if _, err := f.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	want := []int{1, 2, 3, 4}
	if len(api.calls) != len(want) {
		t.Fatalf("Requested pages %v, want %v", api.calls, want)
	}
	for i, page := range want {
		if api.calls[i] != page {
			t.Errorf("Request %d hit page %d, want %d", i, api.calls[i], page)
		}
	}
}

func TestFetchAll_StartPage(t *testing.T) {
	api := &fakeAPI{pages: map[int]string{
		3: pageBody(4, 0),
	}}

	f, _ := NewFetcher(api, FetcherConfig{Orgao: "20701", StartPage: 3}, zerolog.Nop())
	records, err := f.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	if len(records) != 4 {
		t.Errorf("Accumulated %d records, want 4", len(records))
	}
	if api.calls[0] != 3 {
		t.Errorf("First request hit page %d, want 3", api.calls[0])
	}
}

func TestFetchAll_FailureReturnsPartialRecords(t *testing.T) {
	api := &fakeAPI{
		pages: map[int]string{
			1: pageBody(5, 0),
			2: pageBody(3, 5),
		},
		failAt: 2,
	}

	f, _ := NewFetcher(api, FetcherConfig{Orgao: "20701"}, zerolog.Nop())
	records, err := f.FetchAll(context.Background())

	if err == nil {
		t.Fatal("Expected error when a page fetch fails")
	}
	if !strings.Contains(err.Error(), "page 2") {
		t.Errorf("Error %q should name the failing page", err)
	}
	if len(records) != 5 {
		t.Errorf("Partial result has %d records, want 5 (page 1 only)", len(records))
	}
}

func TestFetchAll_DecodeFailure(t *testing.T) {
	api := &fakeAPI{pages: map[int]string{
		1: pageBody(2, 0),
		2: `{"not": "an array"}`,
	}}

	f, _ := NewFetcher(api, FetcherConfig{Orgao: "20701"}, zerolog.Nop())
	records, err := f.FetchAll(context.Background())

	if err == nil {
		t.Fatal("Expected error for undecodable page")
	}
	if len(records) != 2 {
		t.Errorf("Partial result has %d records, want 2", len(records))
	}
}

func TestFetchAll_RestrictedPassthrough(t *testing.T) {
	api := &fakeAPI{pages: map[int]string{1: pageBody(1, 0)}}

	f, _ := NewFetcher(api, FetcherConfig{Orgao: "20701", Restricted: true}, zerolog.Nop())
	if _, err := f.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	for i, restricted := range api.restricted {
		if !restricted {
			t.Errorf("Request %d was not marked restricted", i)
		}
	}
}
