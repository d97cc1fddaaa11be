package mcpserver

// NoteFormatContract describes the classification JSON the filer accepts
// and the layout of the files it writes, for LLM consumers that produce
// classifications or read stored notes back.
const NoteFormatContract = `# Note Filer Format Contract

## Classification response

The model answers with one JSON object. Code fences and surrounding prose
are tolerated; the first balanced object is used.

` + "```" + `json
{
  "primaryCategory": "学习笔记类",
  "secondaryCategory": "Git",
  "noteType": "Git基础",
  "formattedContent": "整理后的笔记正文",
  "summary": "一句话要点",
  "keywords": ["git", "版本控制"]
}
` + "```" + `

1. **primaryCategory** and **secondaryCategory** are required and non-empty.
   They become directories below the notes root.
2. **noteType** is the note's display name and file name. Placeholders such
   as "未分类" are replaced by the summary, the first keyword or a default.
3. Notes with the same noteType in the same category are appended to, not
   overwritten.

## Stored note

` + "```" + `markdown
# Git基础

## 整理后的内容
整理后的笔记正文

## 分类信息
- **一级分类**: 学习笔记类
- **二级分类**: Git

## 核心要点
一句话要点

## 关键词
- git
- 版本控制

## 存储时间
2024/3/5 09:00:00
` + "```" + `

Appended renderings are separated by a horizontal rule and an
"## 更新于 <time>" heading.

## Category index

Every category directory holds an index file (default ` + "`" + `目录.md` + "`" + `) with
YAML front matter (title, created, updated, count) and a "## 笔记列表"
section listing sub-categories (📁) and notes (📄), newest first.
`
