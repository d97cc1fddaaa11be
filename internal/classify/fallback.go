package classify

import (
	"strings"
	"unicode"

	"github.com/starford/notefiler/internal/models"
	"github.com/starford/notefiler/internal/naming"
)

const (
	simpleSummaryLen = 50
	simpleKeywordMax = 3
	otherCategory    = "其他"
)

type rule struct {
	primary  string
	triggers []string
	// secondary is checked in order; the first matching trigger wins.
	secondary [][2]string
	name      string
}

var keywordRules = []rule{
	{
		primary:  "技术开发类",
		triggers: []string{"python", "javascript", "java", "go", "数据库", "算法", "开发", "编程", "代码", "软件", "前端", "后端", "框架", "库", "api", "工具"},
		secondary: [][2]string{
			{"python", "python"}, {"javascript", "javascript"}, {"js", "javascript"}, {"java", "java"},
			{"go", "go"}, {"数据库", "数据库"}, {"sql", "数据库"}, {"算法", "算法"},
			{"前端", "前端"}, {"后端", "后端"}, {"工具", "工具使用"},
		},
		name: "开发笔记",
	},
	{
		primary:   "公文写作类",
		triggers:  []string{"通知", "报告", "总结", "演讲稿", "会议记录", "公文", "写作", "模板", "范文"},
		secondary: [][2]string{{"通知", "通知"}, {"报告", "报告"}, {"总结", "总结"}, {"会议", "会议记录"}},
		name:      "文档记录",
	},
	{
		primary:   "计划想法类",
		triggers:  []string{"计划", "想法", "规划", "目标", "项目", "产品", "方案", "设计"},
		secondary: [][2]string{{"产品", "产品计划"}, {"项目", "项目规划"}, {"目标", "个人目标"}},
		name:      "计划想法",
	},
	{
		primary:   "学习笔记类",
		triggers:  []string{"学习", "笔记", "课程", "读书", "知识", "数学", "英语", "专业", "考试"},
		secondary: [][2]string{{"数学", "数学"}, {"英语", "英语"}, {"读书", "读书笔记"}, {"课程", "专业课程"}},
		name:      "学习笔记",
	},
	{
		primary:   "生活记录类",
		triggers:  []string{"生活", "感悟", "旅行", "美食", "健康", "日常", "日记", "记录"},
		secondary: [][2]string{{"感悟", "日常感悟"}, {"旅行", "旅行"}, {"美食", "美食"}, {"健康", "健康"}},
		name:      "生活记录",
	},
}

var stopWords = map[string]struct{}{
	"的": {}, "了": {}, "是": {}, "在": {}, "我": {}, "有": {}, "和": {}, "就": {}, "不": {}, "人": {},
	"都": {}, "一": {}, "一个": {}, "上": {}, "也": {}, "很": {}, "到": {}, "说": {}, "要": {}, "去": {},
	"你": {}, "会": {}, "着": {}, "没有": {}, "看": {}, "好": {}, "自己": {}, "这": {},
}

// KeywordFallback classifies by plain keyword matching. It is the degraded
// policy used only when explicitly configured.
type KeywordFallback struct{}

// Classify always returns a record.
func (KeywordFallback) Classify(input string) *models.Classification {
	lower := strings.ToLower(input)

	primary, secondary, name := otherCategory, otherCategory, "临时笔记"
	for _, r := range keywordRules {
		if !containsAny(lower, r.triggers) {
			continue
		}
		primary, name = r.primary, r.name
		for _, s := range r.secondary {
			if strings.Contains(lower, s[0]) {
				secondary = s[1]
				break
			}
		}
		break
	}

	return &models.Classification{
		PrimaryCategory:   primary,
		SecondaryCategory: secondary,
		DisplayName:       name,
		FormattedContent:  input,
		Summary:           SimpleSummary(input),
		Keywords:          SimpleKeywords(input),
	}
}

// SimpleSummary returns the first runes of input, marked when cut.
func SimpleSummary(input string) string {
	cut := naming.Truncate(input, simpleSummaryLen)
	summary := strings.TrimSpace(cut)
	if cut != input {
		summary += "..."
	}
	return summary
}

// SimpleKeywords returns up to three words longer than one rune that are not stop words.
func SimpleKeywords(input string) []string {
	words := strings.FieldsFunc(input, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	out := make([]string, 0, simpleKeywordMax)
	for _, w := range words {
		if len([]rune(w)) <= 1 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		out = append(out, w)
		if len(out) == simpleKeywordMax {
			break
		}
	}
	return out
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
