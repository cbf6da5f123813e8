package paginate

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/soundbridge-av/soundbridge/internal/catalog"
	"github.com/soundbridge-av/soundbridge/internal/shared"
)

type scriptedSource struct {
	pages      map[int][]Row
	pageErr    map[int]error
	sinceRows  []Row
	sinceErr   error
	sinceCalls int
}

func (s *scriptedSource) FetchPage(ctx context.Context, page, pageSize int) ([]Row, error) {
	if err, ok := s.pageErr[page]; ok {
		return nil, err
	}
	return s.pages[page], nil
}

func (s *scriptedSource) FetchSince(ctx context.Context, sinceID string, pageSize int) ([]Row, error) {
	s.sinceCalls++
	return s.sinceRows, s.sinceErr
}

func rows(ids ...string) []Row {
	out := make([]Row, 0, len(ids))
	for _, id := range ids {
		out = append(out, Row{ID: id, Record: catalog.SourceRecord{SKU: id, Name: "P " + id}})
	}
	return out
}

func fastConfig(pageSize, maxPages int) Config {
	return Config{PageSize: pageSize, MaxPages: maxPages, Delay: time.Nanosecond}
}

func TestFullPageContinuesShortPageStops(t *testing.T) {
	src := &scriptedSource{pages: map[int][]Row{
		1: rows("a", "b"),
		2: rows("c", "d"),
		3: rows("e"), // short page ends the walk
		4: rows("f"),
	}}

	records, warnings, err := New(src, fastConfig(2, 100), nil).FetchAll(context.Background(), 0)
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, records, 5)
}

func TestAllDuplicateIDsStopsEvenWithRawCount(t *testing.T) {
	src := &scriptedSource{pages: map[int][]Row{
		1: rows("a", "b"),
		2: rows("a", "b"), // non-empty but nothing new
		3: rows("c", "d"),
	}}

	records, _, err := New(src, fastConfig(2, 100), nil).FetchAll(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestPageCeilingSurfacesSafetyLimit(t *testing.T) {
	src := &scriptedSource{pages: map[int][]Row{}}
	for page := 1; page <= 10; page++ {
		src.pages[page] = rows(fmt.Sprintf("p%d-a", page), fmt.Sprintf("p%d-b", page))
	}

	records, _, err := New(src, fastConfig(2, 3), nil).FetchAll(context.Background(), 0)
	require.ErrorIs(t, err, shared.ErrSafetyLimit)
	require.Len(t, records, 6, "records gathered before the ceiling are kept")
}

func TestCursorFallbackAfterPageFailure(t *testing.T) {
	src := &scriptedSource{
		pages:     map[int][]Row{1: rows("a", "b")},
		pageErr:   map[int]error{2: errors.New("page param unsupported")},
		sinceRows: rows("c"),
	}

	records, _, err := New(src, fastConfig(2, 100), nil).FetchAll(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 1, src.sinceCalls)
	require.Len(t, records, 3)
}

func TestFirstPageUnreachableIsConnectionError(t *testing.T) {
	src := &scriptedSource{
		pageErr:  map[int]error{1: errors.New("dial tcp: refused")},
		sinceErr: errors.New("dial tcp: refused"),
	}

	_, _, err := New(src, fastConfig(2, 100), nil).FetchAll(context.Background(), 0)
	var cerr *shared.ConnectionError
	require.ErrorAs(t, err, &cerr)
}

func TestRecordLimitStopsWalk(t *testing.T) {
	src := &scriptedSource{pages: map[int][]Row{
		1: rows("a", "b"),
		2: rows("c", "d"),
		3: rows("e", "f"),
	}}

	records, _, err := New(src, fastConfig(2, 100), nil).FetchAll(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, records, 4, "walk stops at the first page boundary past the limit")
}
