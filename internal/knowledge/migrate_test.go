package knowledge

import (
	"context"
	"testing"

	"github.com/shuoxuer/shuoxuer-website/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMigrateDocs(t *testing.T) {
	ctx := context.Background()
	emb := new(MockEmbedder)
	svc, repo := newTestService(t, emb)

	_, err := repo.Add(ctx, domain.KnowledgeEntry{ID: "doc_1", Content: "existing"})
	require.NoError(t, err)

	docs := []domain.DocumentationEntry{
		{ID: "doc_1", Title: "正手高远球"},
		{ID: "doc_2", Title: "网前搓球", Tags: []string{"网前"}, Sections: []domain.DocSection{
			{Title: "要点", Content: "手腕放松"},
			{Title: "空", Content: "  "},
			{Title: "详细说明", Content: "拍面切球托"},
		}},
	}

	emb.On("Embed", mock.Anything, "网前搓球: 手腕放松\n拍面切球托").Return([]float64{0.5, 0.5}, nil).Once()

	n, err := svc.MigrateDocs(ctx, docs)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	kept, ok, err := repo.Get(ctx, "doc_1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "existing", kept.Content)

	migrated, ok, err := repo.Get(ctx, "doc_2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.StatusApproved, migrated.Status)
	assert.Equal(t, domain.SourceMigration, migrated.Source)
	assert.Equal(t, "SYSTEM", migrated.ReviewedBy)
	assert.NotNil(t, migrated.ReviewedAt)
	assert.Equal(t, []string{"网前"}, migrated.Tags)
	assert.True(t, migrated.Retrievable())
	emb.AssertExpectations(t)
}

func TestMigrateDocs_WithoutEmbedder(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t, nil)

	n, err := svc.MigrateDocs(ctx, []domain.DocumentationEntry{{ID: "d", Title: "步法"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	e, ok, err := repo.Get(ctx, "d")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "步法: ", e.Content)
	assert.False(t, e.Retrievable())
}
