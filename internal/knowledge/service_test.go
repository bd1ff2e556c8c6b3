package knowledge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shuoxuer/shuoxuer-website/internal/domain"
	"github.com/shuoxuer/shuoxuer-website/internal/repository/jsonfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, embedder *MockEmbedder) (*Service, *jsonfile.KnowledgeRepository) {
	t.Helper()
	db, err := jsonfile.NewDB(t.TempDir())
	require.NoError(t, err)
	repo := jsonfile.NewKnowledgeRepository(db)
	if embedder == nil {
		return NewService(repo, nil, Options{}), repo
	}
	return NewService(repo, embedder, Options{}), repo
}

func TestCosine(t *testing.T) {
	v := []float64{0.3, -1.2, 4.5}
	scaled := []float64{0.9, -3.6, 13.5}

	assert.InDelta(t, 1.0, Cosine(v, scaled), 1e-9)
	assert.InDelta(t, -1.0, Cosine(v, []float64{-0.3, 1.2, -4.5}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-9)

	assert.Equal(t, 0.0, Cosine(v, []float64{1, 2}), "length mismatch")
	assert.Equal(t, 0.0, Cosine(v, []float64{0, 0, 0}), "zero norm")
	assert.Equal(t, 0.0, Cosine(nil, nil))
}

func TestRank_SortsDescending(t *testing.T) {
	hits := Rank([]float64{1, 0}, []domain.KnowledgeEntry{
		{ID: "a", Embedding: []float64{0, 1}},
		{ID: "b", Embedding: []float64{1, 0}},
		{ID: "c", Embedding: []float64{1, 1}},
	})
	require.Len(t, hits, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{hits[0].ID, hits[1].ID, hits[2].ID})
	assert.NotNil(t, hits[0].Tags)
}

func TestApprove_EmbedsOnce(t *testing.T) {
	ctx := context.Background()
	emb := new(MockEmbedder)
	svc, _ := newTestService(t, emb)

	e, err := svc.Add(ctx, "杀球要有鞭打动作", []string{"杀球"}, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, e.Status)
	assert.Equal(t, domain.SourceChat, e.Source)

	emb.On("Embed", mock.Anything, "杀球要有鞭打动作").Return([]float64{1, 2, 3}, nil).Once()

	approved, err := svc.Approve(ctx, e.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
	assert.Equal(t, "Admin", approved.ReviewedBy)
	assert.NotNil(t, approved.ReviewedAt)
	assert.Equal(t, []float64{1, 2, 3}, approved.Embedding)

	// already embedded: no second call
	again, err := svc.Approve(ctx, e.ID, "coach-li")
	require.NoError(t, err)
	assert.Equal(t, "coach-li", again.ReviewedBy)
	emb.AssertExpectations(t)
}

func TestApprove_EmbeddingFailureStillApproves(t *testing.T) {
	ctx := context.Background()
	emb := new(MockEmbedder)
	svc, _ := newTestService(t, emb)

	e, err := svc.Add(ctx, "x", nil, domain.SourceUser)
	require.NoError(t, err)

	emb.On("Embed", mock.Anything, "x").Return(nil, errors.New("quota")).Once()

	approved, err := svc.Approve(ctx, e.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
	assert.Empty(t, approved.Embedding)
	assert.False(t, approved.Retrievable())
}

func TestApprove_Missing(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.Approve(context.Background(), "KB_0404", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("content change on approved entry re-embeds", func(t *testing.T) {
		emb := new(MockEmbedder)
		svc, repo := newTestService(t, emb)
		e, err := repo.Add(ctx, domain.KnowledgeEntry{Content: "old", Status: domain.StatusApproved, Embedding: []float64{1}})
		require.NoError(t, err)

		emb.On("Embed", mock.Anything, "new").Return([]float64{9, 9}, nil).Once()

		content := "new"
		updated, err := svc.Update(ctx, e.ID, UpdateInput{Content: &content})
		require.NoError(t, err)
		assert.Equal(t, "new", updated.Content)
		assert.Equal(t, []float64{9, 9}, updated.Embedding)
		assert.NotNil(t, updated.UpdatedAt)
		emb.AssertExpectations(t)
	})

	t.Run("content change on pending entry does not embed", func(t *testing.T) {
		emb := new(MockEmbedder)
		svc, repo := newTestService(t, emb)
		e, err := repo.Add(ctx, domain.KnowledgeEntry{Content: "old"})
		require.NoError(t, err)

		content := "new"
		tags := []string{"网前"}
		updated, err := svc.Update(ctx, e.ID, UpdateInput{Content: &content, Tags: tags})
		require.NoError(t, err)
		assert.Empty(t, updated.Embedding)
		assert.Equal(t, tags, updated.Tags)
		emb.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything)
	})

	t.Run("status to approved embeds when missing", func(t *testing.T) {
		emb := new(MockEmbedder)
		svc, repo := newTestService(t, emb)
		e, err := repo.Add(ctx, domain.KnowledgeEntry{Content: "c"})
		require.NoError(t, err)

		emb.On("Embed", mock.Anything, "c").Return([]float64{0.5}, nil).Once()

		status := domain.StatusApproved
		updated, err := svc.Update(ctx, e.ID, UpdateInput{Status: &status})
		require.NoError(t, err)
		assert.True(t, updated.Retrievable())
	})

	t.Run("invalid status", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		e, err := repo.Add(ctx, domain.KnowledgeEntry{Content: "c"})
		require.NoError(t, err)

		status := domain.KnowledgeStatus("archived")
		_, err = svc.Update(ctx, e.ID, UpdateInput{Status: &status})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("missing entry", func(t *testing.T) {
		svc, _ := newTestService(t, nil)
		content := "x"
		_, err := svc.Update(ctx, "KB_0404", UpdateInput{Content: &content})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestReject(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t, nil)
	e, err := repo.Add(ctx, domain.KnowledgeEntry{Content: "c"})
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.Status)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1, "rejected entries are kept")
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t, nil)
	e, err := repo.Add(ctx, domain.KnowledgeEntry{Content: "c"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, "KB_0404"), domain.ErrNotFound)
	all, _ := svc.List(ctx, "")
	assert.Len(t, all, 1)

	require.NoError(t, svc.Delete(ctx, e.ID))
	all, _ = svc.List(ctx, "")
	assert.Empty(t, all)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	emb := new(MockEmbedder)
	svc, repo := newTestService(t, emb)

	seed := []domain.KnowledgeEntry{
		{Content: "pending", Status: domain.StatusPending, Embedding: []float64{1, 0}},
		{Content: "approved, no vector", Status: domain.StatusApproved},
		{Content: "rejected", Status: domain.StatusRejected, Embedding: []float64{1, 0}},
		{Content: "close", Status: domain.StatusApproved, Embedding: []float64{0.9, 0.1}, Tags: []string{"杀球"}},
		{Content: "far", Status: domain.StatusApproved, Embedding: []float64{0, 1}},
		{Content: "exact", Status: domain.StatusApproved, Embedding: []float64{2, 0}},
		{Content: "mismatch", Status: domain.StatusApproved, Embedding: []float64{1, 0, 0}},
	}
	for _, e := range seed {
		_, err := repo.Add(ctx, e)
		require.NoError(t, err)
	}

	emb.On("Embed", mock.Anything, "杀球").Return([]float64{1, 0}, nil)

	hits, err := svc.Search(ctx, "杀球", 0)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "exact", hits[0].Content)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, "close", hits[1].Content)
	assert.Equal(t, []string{"杀球"}, hits[1].Tags)

	for _, h := range hits {
		assert.NotContains(t, []string{"pending", "rejected", "approved, no vector"}, h.Content)
	}

	top1, err := svc.Search(ctx, "杀球", 1)
	require.NoError(t, err)
	assert.Len(t, top1, 1)

	t.Run("embedder failure yields empty", func(t *testing.T) {
		emb.On("Embed", mock.Anything, "broken").Return(nil, errors.New("down"))
		hits, err := svc.Search(ctx, "broken", 3)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("empty vector yields empty", func(t *testing.T) {
		emb.On("Embed", mock.Anything, "blank").Return([]float64{}, nil)
		hits, err := svc.Search(ctx, "blank", 3)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})
}

func TestSearch_NoEmbedder(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t, nil)
	_, err := repo.Add(ctx, domain.KnowledgeEntry{Content: "a", Status: domain.StatusApproved, Embedding: []float64{1}})
	require.NoError(t, err)

	hits, err := svc.Search(ctx, "a", 3)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestReembed(t *testing.T) {
	ctx := context.Background()
	emb := new(MockEmbedder)
	svc, repo := newTestService(t, emb)

	_, err := repo.Add(ctx, domain.KnowledgeEntry{Content: "a", Status: domain.StatusApproved})
	require.NoError(t, err)
	_, err = repo.Add(ctx, domain.KnowledgeEntry{Content: "b", Status: domain.StatusApproved, Embedding: []float64{1}})
	require.NoError(t, err)
	_, err = repo.Add(ctx, domain.KnowledgeEntry{Content: "c", Status: domain.StatusPending})
	require.NoError(t, err)
	_, err = repo.Add(ctx, domain.KnowledgeEntry{Content: "d", Status: domain.StatusApproved})
	require.NoError(t, err)

	emb.On("Embed", mock.Anything, "a").Return([]float64{1, 1}, nil).Once()
	emb.On("Embed", mock.Anything, "d").Return(nil, errors.New("down")).Once()

	n, err := svc.Reembed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	emb.AssertExpectations(t)
}

func TestCachedEmbedder(t *testing.T) {
	ctx := context.Background()

	t.Run("cache hit skips the embedder", func(t *testing.T) {
		emb := new(MockEmbedder)
		cache := newMemoryCache()
		ce := NewCachedEmbedder(emb, cache, "qwen", time.Second)

		emb.On("Embed", mock.Anything, "q").Return([]float64{1}, nil).Once()

		v1, err := ce.Embed(ctx, "q")
		require.NoError(t, err)
		v2, err := ce.Embed(ctx, "q")
		require.NoError(t, err)

		assert.Equal(t, v1, v2)
		assert.Equal(t, 1, cache.sets)
		emb.AssertExpectations(t)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		emb := new(MockEmbedder)
		cache := newMemoryCache()
		ce := NewCachedEmbedder(emb, cache, "qwen", time.Second)

		emb.On("Embed", mock.Anything, "q").Return(nil, errors.New("down")).Once()
		_, err := ce.Embed(ctx, "q")
		assert.Error(t, err)
		assert.Equal(t, 0, cache.sets)
	})

	t.Run("works without a cache", func(t *testing.T) {
		emb := new(MockEmbedder)
		ce := NewCachedEmbedder(emb, nil, "qwen", time.Second)
		emb.On("Embed", mock.Anything, "q").Return([]float64{2}, nil)

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := ce.Embed(ctx, "q")
				assert.NoError(t, err)
				assert.Equal(t, []float64{2}, v)
			}()
		}
		wg.Wait()
	})

	t.Run("shared call survives the first caller leaving", func(t *testing.T) {
		emb := new(MockEmbedder)
		ce := NewCachedEmbedder(emb, nil, "qwen", time.Second)

		started := make(chan struct{})
		release := make(chan struct{})
		seen := make(chan error, 2)
		var once sync.Once
		emb.On("Embed", mock.Anything, "q").Run(func(args mock.Arguments) {
			once.Do(func() { close(started) })
			<-release
			seen <- args.Get(0).(context.Context).Err()
		}).Return([]float64{3}, nil)

		ctxA, cancelA := context.WithCancel(ctx)
		errA := make(chan error, 1)
		go func() {
			_, err := ce.Embed(ctxA, "q")
			errA <- err
		}()
		<-started

		type result struct {
			vec []float64
			err error
		}
		resB := make(chan result, 1)
		go func() {
			vec, err := ce.Embed(ctx, "q")
			resB <- result{vec, err}
		}()

		cancelA()
		assert.ErrorIs(t, <-errA, context.Canceled)

		time.Sleep(20 * time.Millisecond)
		close(release)

		b := <-resB
		require.NoError(t, b.err)
		assert.Equal(t, []float64{3}, b.vec)
		assert.NoError(t, <-seen)
	})
}
