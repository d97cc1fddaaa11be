package catalog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notefiler/internal/storage"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func setup(t *testing.T) (*Maintainer, *storage.FS, *fakeClock) {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)
	clock := &fakeClock{t: time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)}
	_, err = fs.EnsureDir(context.Background(), "", "Git")
	require.NoError(t, err)
	return New(fs, WithClock(clock.now)), fs, clock
}

func readIndex(t *testing.T, fs *storage.FS, dir string) string {
	t.Helper()
	data, err := fs.ReadFile(context.Background(), dir, DefaultIndexName)
	require.NoError(t, err)
	require.NotNil(t, data)
	return string(data)
}

func TestUpdateIndex_CreatesIndex(t *testing.T) {
	m, fs, _ := setup(t)
	ctx := context.Background()

	err := m.UpdateIndex(ctx, "Git", Entry{
		Kind: KindFile, Title: "Git基础", Target: "Git基础.md",
		Summary: "学习Git", Keywords: []string{"git", "版本控制"},
	}, "Git")
	require.NoError(t, err)

	want := "---\n" +
		"title: Git目录\n" +
		"created: 2024/3/5 09:00:00\n" +
		"updated: 2024/3/5 09:00:00\n" +
		"count: 1\n" +
		"---\n\n" +
		"# Git目录\n\n" +
		"## 笔记列表\n" +
		"- 📄 [Git基础](./Git基础.md) - 2024/3/5 09:00:00\n" +
		"  - **摘要**: 学习Git\n" +
		"  - **关键词**: git、版本控制\n"
	assert.Equal(t, want, readIndex(t, fs, "Git"))
}

func TestUpdateIndex_NewestFirst(t *testing.T) {
	m, fs, clock := setup(t)
	ctx := context.Background()

	require.NoError(t, m.UpdateIndex(ctx, "Git", Entry{Kind: KindFile, Title: "A", Target: "A.md"}, "Git"))
	clock.advance(time.Minute)
	require.NoError(t, m.UpdateIndex(ctx, "Git", Entry{Kind: KindCategory, Title: "B", Target: "B"}, "Git"))

	content := readIndex(t, fs, "Git")
	assert.Contains(t, content, "count: 2\n")
	assert.Contains(t, content, "created: 2024/3/5 09:00:00\n")
	assert.Contains(t, content, "updated: 2024/3/5 09:01:00\n")
	assert.Less(t, strings.Index(content, "[B]"), strings.Index(content, "[A]"))
	assert.Contains(t, content, "- 📁 [B](./B/目录.md) - 2024/3/5 09:01:00\n")
}

func TestUpdateIndex_DuplicateOnlyTouchesUpdated(t *testing.T) {
	m, fs, clock := setup(t)
	ctx := context.Background()
	e := Entry{Kind: KindFile, Title: "Git基础", Target: "Git基础.md", Summary: "s"}

	require.NoError(t, m.UpdateIndex(ctx, "Git", e, "Git"))
	before := readIndex(t, fs, "Git")

	clock.advance(time.Hour)
	require.NoError(t, m.UpdateIndex(ctx, "Git", e, "Git"))
	after := readIndex(t, fs, "Git")

	assert.Equal(t,
		strings.Replace(before, "updated: 2024/3/5 09:00:00", "updated: 2024/3/5 10:00:00", 1),
		after)
	assert.Equal(t, 1, strings.Count(after, "[Git基础]"))
}

func TestUpdateIndex_SameTargetDifferentTitle(t *testing.T) {
	m, _, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, m.UpdateIndex(ctx, "Git", Entry{Kind: KindFile, Title: "Git:基础", Target: "Git_基础.md"}, "Git"))
	require.NoError(t, m.UpdateIndex(ctx, "Git", Entry{Kind: KindFile, Title: "Git/基础", Target: "Git_基础.md"}, "Git"))
	require.NoError(t, m.UpdateIndex(ctx, "Git", Entry{Kind: KindCategory, Title: "Git_基础", Target: "Git_基础"}, "Git"))

	idx, err := m.Load(ctx, "Git")
	require.NoError(t, err)
	require.Len(t, idx.Entries, 2)
	assert.Equal(t, "Git:基础", idx.Entries[1].Title)
	assert.Equal(t, 2, idx.Header.Count)
}

func TestUpdateIndex_TitleStaysOnOneLine(t *testing.T) {
	m, fs, _ := setup(t)
	ctx := context.Background()
	e := Entry{Kind: KindFile, Title: "Git\n基础 [草稿]", Target: "Git_基础 [草稿].md", Summary: "一\n二", Keywords: []string{"a\nb"}}

	require.NoError(t, m.UpdateIndex(ctx, "Git", e, "Git\n分类"))
	require.NoError(t, m.UpdateIndex(ctx, "Git", e, "Git\n分类"))

	content := readIndex(t, fs, "Git")
	assert.Contains(t, content, "# Git 分类目录\n")
	assert.Contains(t, content, "- 📄 [Git 基础 \\[草稿\\]](<./Git_基础 [草稿].md>) - ")
	assert.Contains(t, content, "  - **摘要**: 一 二\n")
	assert.Contains(t, content, "  - **关键词**: a b\n")

	idx := Parse([]byte(content))
	require.Len(t, idx.Entries, 1)
	assert.Equal(t, "Git 基础 [草稿]", idx.Entries[0].Title)
	assert.Equal(t, 1, idx.Header.Count)
}

func TestUpdateIndex_CountMatchesEntries(t *testing.T) {
	m, fs, _ := setup(t)
	ctx := context.Background()

	titles := []string{"a1", "b2", "a1", "c3", "b2", "d4"}
	for _, title := range titles {
		require.NoError(t, m.UpdateIndex(ctx, "Git", Entry{Kind: KindFile, Title: title, Target: title + ".md"}, "Git"))
		idx := Parse([]byte(readIndex(t, fs, "Git")))
		assert.Equal(t, len(idx.Entries), idx.Header.Count)
		assert.Equal(t, idx.distinct(), idx.Header.Count)
	}
	idx, err := m.Load(ctx, "Git")
	require.NoError(t, err)
	assert.Equal(t, 4, idx.Header.Count)
}

func TestUpdateIndex_HealsDriftedCount(t *testing.T) {
	m, fs, _ := setup(t)
	ctx := context.Background()
	drifted := "---\ntitle: Git目录\ncreated: 2024/1/1 00:00:00\nupdated: 2024/1/1 00:00:00\ncount: 7\n---\n\n# Git目录\n\n## 笔记列表\n- 📄 [Old](./Old.md) - 2024/1/1 00:00:00\n"
	require.NoError(t, fs.WriteFile(ctx, "Git", DefaultIndexName, []byte(drifted)))

	require.NoError(t, m.UpdateIndex(ctx, "Git", Entry{Kind: KindFile, Title: "New", Target: "New.md"}, "Git"))

	idx := Parse([]byte(readIndex(t, fs, "Git")))
	assert.Equal(t, 2, idx.Header.Count)
	assert.Equal(t, "2024/1/1 00:00:00", idx.Header.Created)
}

func TestUpdateIndex_HandEditedWithoutMarker(t *testing.T) {
	m, fs, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, fs.WriteFile(ctx, "Git", DefaultIndexName, []byte("# 手写目录\n\n一些说明")))

	require.NoError(t, m.UpdateIndex(ctx, "Git", Entry{Kind: KindFile, Title: "N", Target: "N.md"}, "Git"))

	content := readIndex(t, fs, "Git")
	assert.Contains(t, content, "# 手写目录\n\n一些说明\n\n## 笔记列表\n- 📄 [N](./N.md)")
	idx := Parse([]byte(content))
	assert.Equal(t, "Git目录", idx.Header.Title)
	assert.Equal(t, 1, idx.Header.Count)
}

func TestParse_Entries(t *testing.T) {
	src := "---\ntitle: 学习笔记类目录\ncreated: a\nupdated: b\ncount: 2\n---\n\n# 学习笔记类目录\n\n## 笔记列表\n" +
		"- 📁 [Git](./Git/目录.md) - t\n" +
		"- 📄 [我的 笔记](<./我的 笔记.md>) - t\n" +
		"  - **摘要**: 总结\n" +
		"  - **关键词**: x、y\n"
	idx := Parse([]byte(src))

	require.Len(t, idx.Entries, 2)
	assert.Equal(t, Entry{Kind: KindCategory, Title: "Git", Target: "Git"}, idx.Entries[0])
	assert.Equal(t, Entry{Kind: KindFile, Title: "我的 笔记", Target: "我的 笔记.md", Summary: "总结", Keywords: []string{"x", "y"}}, idx.Entries[1])
	assert.Equal(t, 2, idx.Header.Count)
	assert.True(t, idx.Has(Entry{Kind: KindCategory, Target: "Git"}))
	assert.False(t, idx.Has(Entry{Kind: KindFile, Target: "Git"}))
	assert.False(t, idx.Has(Entry{Kind: KindCategory, Target: "Gi"}))

	out, err := idx.Bytes()
	require.NoError(t, err)
	assert.Equal(t, idx.Entries, Parse(out).Entries)
}
