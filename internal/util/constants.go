package util

const TimeFormat = "2006-01-02 15:04:05"

const (
	// 请求题目数量上限
	MaxQuestionsPerRequest = 50
	// VARC 同时请求阅读和语言题时，阅读部分最多 16 题
	VerbalPassageCap = 16
	// 阅读文章每篇默认 4 题
	ReadingChunkSize = 4
)

// 上下文键
const ContextUserKey = "user"
