package classify

import "strings"

// DefaultPrompt instructs the model to classify, polish and name a note and
// to answer with a single JSON object.
const DefaultPrompt = `你是一个笔记整理助手。请分析用户输入的内容，完成分类、排版和命名，并只输出一个 JSON 对象。

## 分类规则
- 学习笔记类：技能学习、技术知识点、代码片段、问题解决方案、读书笔记。二级分类直接使用技术名称（如 Python、Git、Go）或学习主题（英语、数学、读书笔记、课程总结）。
- 计划想法类：计划、目标、灵感、尚未开始的项目构思。二级分类：项目规划、个人目标、灵感闪念。
- 办公事务类：文章摘录、会议记录、周报、公文、工作资料。二级分类：公文写作、会议纪要、工作记录。
- 生活记录类：日常感悟、旅行、美食、健康、记账。

## 排版
修正明显的错别字和语法错误，使用 Markdown 排版，保留原意，不要过度删减。

## 命名（noteType）
2-10 个字，反映笔记的核心主题或项目名称，禁止使用“未分类”“笔记”“新建文件”等无意义词汇。
项目规划填写项目名称（如“AI笔记插件”），技术知识填写具体知识点（如“Git基础”）。

## 输出格式
{
  "primaryCategory": "一级分类",
  "secondaryCategory": "二级分类",
  "noteType": "文件名",
  "formattedContent": "整理后的 Markdown 内容",
  "summary": "一句话摘要（20 字以内）",
  "keywords": ["关键词1", "关键词2", "关键词3"]
}`

// BuildPrompt appends the user input to the system prompt.
func BuildPrompt(system, input string) string {
	if strings.TrimSpace(system) == "" {
		system = DefaultPrompt
	}
	return system + "\n\n请处理以下内容：\n\n" + input
}
