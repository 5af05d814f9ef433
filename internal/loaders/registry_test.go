package loaders

import (
	"context"
	"sync"
	"testing"

	"comics-graphql/internal/catalog"
	"comics-graphql/internal/dataloader"
	"comics-graphql/internal/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource answers from in-memory rows and records every batch it sees.
type fakeSource struct {
	mu      sync.Mutex
	batches map[string][][]int
	issues  []*catalog.Issue
}

func (f *fakeSource) record(name string, keys []int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.batches == nil {
		f.batches = make(map[string][][]int)
	}
	f.batches[name] = append(f.batches[name], append([]int(nil), keys...))
}

func (f *fakeSource) CountriesByID(_ context.Context, ids []int) ([]*catalog.Country, error) {
	f.record("countries", ids)
	return nil, nil
}

func (f *fakeSource) LanguagesByID(_ context.Context, ids []int) ([]*catalog.Language, error) {
	f.record("languages", ids)
	return nil, nil
}

func (f *fakeSource) PublishersByID(_ context.Context, ids []int) ([]*catalog.Publisher, error) {
	f.record("publishers", ids)
	out := make([]*catalog.Publisher, 0, len(ids))
	for _, id := range ids {
		out = append(out, &catalog.Publisher{ID: id})
	}
	return out, nil
}

func (f *fakeSource) SeriesByID(_ context.Context, ids []int) ([]*catalog.Series, error) {
	f.record("series", ids)
	return nil, nil
}

func (f *fakeSource) IssuesByID(_ context.Context, ids []int) ([]*catalog.Issue, error) {
	f.record("issues", ids)
	return nil, nil
}

func (f *fakeSource) StoryTypesByID(_ context.Context, ids []int) ([]*catalog.StoryType, error) {
	f.record("storyTypes", ids)
	return nil, nil
}

func (f *fakeSource) SeriesByPublisher(_ context.Context, ids []int, _ pagination.Window) (dataloader.GroupResult[int, *catalog.Series], error) {
	f.record("seriesByPublisher", ids)
	return dataloader.GroupResult[int, *catalog.Series]{}, nil
}

func (f *fakeSource) IssuesBySeries(_ context.Context, ids []int, w pagination.Window) (dataloader.GroupResult[int, *catalog.Issue], error) {
	f.record("issuesBySeries", ids)
	res := dataloader.GroupResult[int, *catalog.Issue]{Totals: map[int]int{}}
	for _, issue := range f.issues {
		res.Totals[issue.SeriesID]++
	}
	for _, issue := range f.issues {
		res.Children = append(res.Children, dataloader.Child[int, *catalog.Issue]{Parent: issue.SeriesID, Value: issue})
	}
	if len(res.Children) > w.Limit {
		res.Children = res.Children[:w.Limit]
	}
	return res, nil
}

func (f *fakeSource) StoriesByIssue(_ context.Context, ids []int, _ pagination.Window) (dataloader.GroupResult[int, *catalog.Story], error) {
	f.record("storiesByIssue", ids)
	return dataloader.GroupResult[int, *catalog.Story]{}, nil
}

func (f *fakeSource) VariantsByIssue(_ context.Context, ids []int, _ pagination.Window) (dataloader.GroupResult[int, *catalog.Issue], error) {
	f.record("variantsByIssue", ids)
	return dataloader.GroupResult[int, *catalog.Issue]{}, nil
}

func TestRegistryContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	r := NewRegistry(&fakeSource{}, Options{})
	got, ok := FromContext(WithRegistry(context.Background(), r))
	require.True(t, ok)
	assert.Same(t, r, got)
}

func TestRegistryBatchesOneToOne(t *testing.T) {
	src := &fakeSource{}
	r := NewRegistry(src, Options{})
	ctx := context.Background()

	thunks := []dataloader.LookupThunk[*catalog.Publisher]{
		r.PublisherByID.Load(ctx, 54),
		r.PublisherByID.Load(ctx, 78),
		r.PublisherByID.Load(ctx, 54),
	}
	for _, thunk := range thunks {
		_, found, err := thunk()
		require.NoError(t, err)
		assert.True(t, found)
	}
	assert.Equal(t, [][]int{{54, 78}}, src.batches["publishers"])
	assert.Equal(t, int64(1), r.Stats().Hits())
	assert.Equal(t, int64(2), r.Stats().Misses())
	assert.Equal(t, int64(1), r.Stats().Dispatches())
}

func TestRegistryPageLoadersPerWindow(t *testing.T) {
	src := &fakeSource{issues: []*catalog.Issue{
		{ID: 3, SeriesID: 1, SortCode: 3},
		{ID: 1, SeriesID: 1, SortCode: 1},
	}}
	r := NewRegistry(src, Options{})
	ctx := context.Background()

	first := pagination.Window{Limit: 20}
	assert.Same(t, r.IssuesBySeries(first), r.IssuesBySeries(first))
	assert.NotSame(t, r.IssuesBySeries(first), r.IssuesBySeries(pagination.Window{Limit: 1}))

	a := r.IssuesBySeries(first).LoadGroup(ctx, 1)
	b := r.IssuesBySeries(first).LoadGroup(ctx, 2)
	groupA, err := a()
	require.NoError(t, err)
	groupB, err := b()
	require.NoError(t, err)

	require.Len(t, groupA.Items, 2)
	assert.Equal(t, 1, groupA.Items[0].ID)
	assert.Equal(t, 2, groupA.Total)
	assert.Empty(t, groupB.Items)
	assert.Equal(t, [][]int{{1, 2}}, src.batches["issuesBySeries"])
}

func TestRegistryClose(t *testing.T) {
	r := NewRegistry(&fakeSource{}, Options{})
	ctx := context.Background()
	w := pagination.Window{Limit: 20}
	stories := r.StoriesByIssue(w)

	r.Close()
	r.Close()

	_, _, err := r.SeriesByID.Load(ctx, 1)()
	assert.ErrorIs(t, err, dataloader.ErrClosed)
	_, err = stories.LoadMany(ctx, 1)()
	assert.ErrorIs(t, err, dataloader.ErrClosed)
	_, err = r.VariantsByIssue(w).LoadMany(ctx, 1)()
	assert.ErrorIs(t, err, dataloader.ErrClosed)
}
