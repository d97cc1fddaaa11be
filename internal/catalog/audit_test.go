package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notefiler/internal/storage"
)

func TestAudit_EmptyRoot(t *testing.T) {
	fs, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)
	m := New(fs)

	report, err := m.Audit(context.Background(), "AI笔记")
	require.NoError(t, err)
	assert.True(t, report.Consistent())
}

func TestAudit_FindsAndRepairsOrphans(t *testing.T) {
	fs, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)
	m := New(fs)
	ctx := context.Background()

	root, _ := fs.EnsureDir(ctx, "", "AI笔记")
	primary, _ := fs.EnsureDir(ctx, root, "学习笔记类")
	secondary, _ := fs.EnsureDir(ctx, primary, "Git")

	// A consistent note.
	require.NoError(t, fs.WriteFile(ctx, secondary, "Git基础.md", []byte("# Git基础\n")))
	require.NoError(t, m.UpdateIndex(ctx, secondary, Entry{Kind: KindFile, Title: "Git基础", Target: "Git基础.md"}, "Git"))
	require.NoError(t, m.UpdateIndex(ctx, primary, Entry{Kind: KindCategory, Title: "Git", Target: "Git"}, "学习笔记类"))

	// A note written without its index update, and a stale entry.
	note := "# 分支\n\n## 核心要点\n分支合并\n\n## 关键词\n- branch\n"
	require.NoError(t, fs.WriteFile(ctx, secondary, "分支.md", []byte(note)))
	require.NoError(t, m.UpdateIndex(ctx, secondary, Entry{Kind: KindFile, Title: "已删除", Target: "已删除.md"}, "Git"))

	report, err := m.Audit(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Indexes)
	assert.Equal(t, 2, report.Notes)
	assert.ElementsMatch(t, []Issue{
		{Kind: IssueOrphan, Dir: secondary, Entry: KindFile, Target: "分支.md"},
		{Kind: IssueDangling, Dir: secondary, Entry: KindFile, Target: "已删除.md", Title: "已删除"},
	}, report.Issues)

	fixed, err := m.Repair(ctx, report)
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)

	idx, err := m.Load(ctx, secondary)
	require.NoError(t, err)
	require.True(t, idx.Has(Entry{Kind: KindFile, Target: "分支.md"}))
	assert.Equal(t, "分支合并", idx.Entries[0].Summary)
	assert.Equal(t, []string{"branch"}, idx.Entries[0].Keywords)
	assert.Equal(t, 3, idx.Header.Count)
}

func TestAudit_MissingIndex(t *testing.T) {
	fs, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)
	m := New(fs)
	ctx := context.Background()

	root, _ := fs.EnsureDir(ctx, "", "AI笔记")
	primary, _ := fs.EnsureDir(ctx, root, "生活记录类")
	secondary, _ := fs.EnsureDir(ctx, primary, "旅行")
	require.NoError(t, fs.WriteFile(ctx, secondary, "海边.md", []byte("# 海边\n")))

	report, err := m.Audit(ctx, root)
	require.NoError(t, err)
	assert.Contains(t, report.Issues, Issue{Kind: IssueMissingIndex, Dir: primary})
	assert.Contains(t, report.Issues, Issue{Kind: IssueMissingIndex, Dir: secondary})
	assert.Contains(t, report.Issues, Issue{Kind: IssueOrphan, Dir: primary, Entry: KindCategory, Target: "旅行"})

	_, err = m.Repair(ctx, report)
	require.NoError(t, err)

	again, err := m.Audit(ctx, root)
	require.NoError(t, err)
	assert.True(t, again.Consistent(), "issues: %v", again.Issues)
}
