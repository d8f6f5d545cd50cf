package tokenize

// StopWordsZH are Chinese function words and boilerplate academic terms
// filtered out of CJK segmentation results.
var StopWordsZH = []string{
	"的", "了", "在", "是", "和", "与", "对", "及", "等", "为", "中",
	"上", "下", "有", "无", "不", "也", "又", "被", "或", "将", "把",
	"从", "到", "以", "用", "可", "能", "会", "要", "就", "都", "而",
	"但", "这", "那", "其", "之", "所", "者", "此", "个", "已", "由",
	"于", "则", "并", "且", "如", "进行", "通过", "利用", "采用", "分析",
	"研究", "结果", "表明", "显示", "提出", "提高", "基于", "方法",
	"影响", "变化", "条件", "不同", "情况", "关系", "作用", "具有",
	"相关", "较大", "较小", "明显", "主要", "一定", "同时", "以及",
	"大学", "学院", "学报", "教授", "博士", "硕士", "导师", "作者",
	"北京", "上海", "南京", "中国", "工程", "学位", "论文", "专业",
	"科学", "科学院", "研究所", "研究院", "实验室", "中心",
	"中文", "英文", "翻译", "全文", "摘要", "关键", "参考", "文献",
}

// StopWordsEN are English function words plus academic boilerplate. They
// are not applied during tokenization (Latin extraction keeps everything
// length >= 2 so exact phrases stay searchable) but are used by callers
// that derive keyword statistics.
var StopWordsEN = []string{
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for",
	"of", "with", "by", "from", "as", "is", "was", "are", "were", "be",
	"been", "being", "have", "has", "had", "do", "does", "did", "will",
	"would", "could", "should", "may", "might", "shall", "can", "it",
	"its", "this", "that", "these", "those", "we", "our", "they", "their",
	"he", "she", "his", "her", "not", "no", "than", "more", "also",
	"between", "during", "under", "over", "about", "into", "through",
	"using", "used", "based", "both", "each", "such", "which", "where",
	"when", "how", "what", "who", "whom", "there", "here", "all", "any",
	"some", "most", "very", "well", "while", "however", "although",
	"because", "since", "after", "before", "then", "only", "just",
	"other", "new", "first", "two", "three", "one", "many", "much",
	"high", "low", "large", "small", "long", "short", "different",
	"same", "main", "major", "important", "significant", "total", "per",
	"respectively", "including", "particularly", "especially", "overall",
	"among", "within", "without", "above", "below", "across", "along",
	"further", "still", "even", "thus", "therefore", "hence", "moreover",
	"results", "study", "studies", "research", "paper", "analysis",
	"method", "methods", "data", "found", "showed", "show", "shows",
	"indicate", "indicates", "indicated", "suggest", "suggests",
	"observed", "compared", "effect", "effects", "impact", "impacts",
	"increase", "increased", "decrease", "decreased", "change", "changes",
	"changed", "significantly", "higher", "lower",
	"university", "institute", "department", "college", "school",
	"laboratory", "center", "journal", "proceedings", "press",
	"doi", "http", "https", "www",
	"fig", "figure", "table", "section", "abstract", "keywords",
	"acknowledgement", "acknowledgements", "references", "appendix",
}
