package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notefiler/internal/models"
)

var renderedAt = time.Date(2024, 3, 5, 9, 7, 3, 0, time.UTC)

func sample() *models.Classification {
	return &models.Classification{
		PrimaryCategory:   "学习笔记类",
		SecondaryCategory: "Git",
		DisplayName:       "Git基础",
		FormattedContent:  "# Git\n\n- `git init`\n- `git commit`\n",
		Summary:           "学习Git的基本命令",
		Keywords:          []string{"git", "版本控制", "commit"},
	}
}

func TestRender_Layout(t *testing.T) {
	out := Render(sample(), renderedAt)

	want := "# Git基础\n\n" +
		"## 整理后的内容\n# Git\n\n- `git init`\n- `git commit`\n\n" +
		"## 分类信息\n- **一级分类**: 学习笔记类\n- **二级分类**: Git\n\n" +
		"## 核心要点\n学习Git的基本命令\n\n" +
		"## 关键词\n- git\n- 版本控制\n- commit\n\n" +
		"## 存储时间\n2024/3/5 09:07:03"
	assert.Equal(t, want, out)
}

func TestRender_EmptySections(t *testing.T) {
	rec := sample()
	rec.Summary = "  "
	rec.Keywords = []string{" ", ""}
	out := Render(rec, renderedAt)

	assert.Contains(t, out, "## 核心要点\n无\n\n")
	assert.Contains(t, out, "## 关键词\n无\n\n")
}

func TestRender_Deterministic(t *testing.T) {
	assert.Equal(t, Render(sample(), renderedAt), Render(sample(), renderedAt))
}

func TestParse_RoundTrip(t *testing.T) {
	rec := sample()
	doc := Parse([]byte(Render(rec, renderedAt)))

	assert.Equal(t, rec.DisplayName, doc.Title)
	assert.Equal(t, rec.PrimaryCategory, doc.PrimaryCategory)
	assert.Equal(t, rec.SecondaryCategory, doc.SecondaryCategory)
	assert.Equal(t, rec.Summary, doc.Summary)
	assert.Equal(t, rec.Keywords, doc.Keywords)
	assert.Equal(t, FormatTime(renderedAt), doc.StoredAt)
}

func TestParse_RoundTripEmpty(t *testing.T) {
	rec := sample()
	rec.Summary = ""
	rec.Keywords = nil
	doc := Parse([]byte(Render(rec, renderedAt)))

	assert.Empty(t, doc.Summary)
	assert.Empty(t, doc.Keywords)
}

func TestParse_ContentHeadingsIgnored(t *testing.T) {
	rec := sample()
	rec.FormattedContent = "## 关键词\n- 不是关键词\n\n## 步骤\n1. 安装"
	doc := Parse([]byte(Render(rec, renderedAt)))

	assert.Equal(t, rec.Keywords, doc.Keywords)
}

func TestParse_AppendedNoteLastWins(t *testing.T) {
	first := sample()
	second := sample()
	second.Summary = "补充分支操作"
	second.Keywords = []string{"branch"}

	body := Render(first, renderedAt) + "\n\n---\n\n## 更新于 2024/3/6 10:00:00\n\n" + Render(second, renderedAt.Add(time.Hour))
	doc := Parse([]byte(body))

	require.NotNil(t, doc)
	assert.Equal(t, "补充分支操作", doc.Summary)
	assert.Equal(t, []string{"branch"}, doc.Keywords)
	assert.True(t, strings.HasPrefix(body, "# Git基础"))
}

func TestParse_SummaryAndKeywordsVerbatim(t *testing.T) {
	cases := []struct {
		name     string
		summary  string
		keywords []string
	}{
		{"paragraphs", "第一点\n\n第二点", []string{"a"}},
		{"bullet list", "- 要点一\n- 要点二", []string{"b"}},
		{"ordered list", "1. 先学分支", []string{"1. 步骤"}},
		{"none marker", None, []string{None}},
		{"headings", "# 标题\n## 关键词\n---\n\\转义", []string{"# tag", "- dash", "\\back", "> quote"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := sample()
			rec.Summary = tc.summary
			rec.Keywords = tc.keywords
			doc := Parse([]byte(Render(rec, renderedAt)))

			assert.Equal(t, tc.summary, doc.Summary)
			assert.Equal(t, tc.keywords, doc.Keywords)
			assert.Equal(t, rec.PrimaryCategory, doc.PrimaryCategory)
			assert.Equal(t, FormatTime(renderedAt), doc.StoredAt)
		})
	}
}

func TestRender_EscapesMarkdownStructure(t *testing.T) {
	rec := sample()
	rec.Summary = "## 关键词\n正文"
	rec.Keywords = []string{"# tag"}
	out := Render(rec, renderedAt)

	assert.Contains(t, out, "## 核心要点\n\\## 关键词\n正文\n\n")
	assert.Contains(t, out, "## 关键词\n- \\# tag\n")
	assert.Equal(t, 1, strings.Count(out, "\n## 关键词\n"))
}
