package usecase

import (
	"fmt"
	"strings"

	"TubeScribe/internal/domain"
)

const (
	keywordSystem = "你是一个视频搜索专家，擅长为主题生成精准的搜索关键词。" +
		"你只返回关键词本身，每行一个，不包含编号或解释。"

	scorerSystem = "你是一个内容评估专家，负责评估视频与主题的相关性。" +
		"你只返回一个数字评分，不包含任何解释。"

	writerSystem = "你是一个专业的中文科普作家，擅长将视频内容整理成结构清晰的文章。" +
		"你只返回文章正文，使用Markdown格式，不包含任何解释或说明。"
)

func keywordPrompt(topic string) string {
	return fmt.Sprintf("请为主题「%s」生成3个适合在视频网站搜索的中文关键词，每行一个：", topic)
}

func scoringPrompt(topic string, c domain.Candidate, scale float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "请评估以下视频与主题「%s」的相关性，给出0到%.0f的评分。\n\n", topic, scale)
	fmt.Fprintf(&b, "标题：%s\n", c.Title)
	if c.Description != "" {
		fmt.Fprintf(&b, "简介：%s\n", c.Description)
	}
	if c.Duration > 0 {
		fmt.Fprintf(&b, "时长：%d秒\n", c.Duration)
	}
	b.WriteString("\n只返回评分数字：")
	return b.String()
}

func outlinePrompt(topic, transcript string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "请为主题「%s」的文章生成一个大纲，包含一个主标题和2-3个小节标题。\n", topic)
	if transcript != "" {
		b.WriteString("\n参考以下视频内容：\n")
		b.WriteString(transcript)
		b.WriteString("\n")
	}
	b.WriteString("\n只返回大纲，每行一个标题：")
	return b.String()
}

func draftPrompt(topic, outline, transcript string, video domain.VideoRef, minWords, maxWords int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "请根据以下素材撰写一篇关于「%s」的中文文章。\n\n", topic)

	if outline != "" {
		b.WriteString("文章大纲：\n")
		b.WriteString(outline)
		b.WriteString("\n\n")
	}

	if transcript != "" {
		b.WriteString("视频内容文字稿：\n")
		b.WriteString(transcript)
		b.WriteString("\n\n")
	} else {
		fmt.Fprintf(&b, "参考视频：%s（%s）\n\n", video.Title, video.URL)
	}

	writeFormatRules(&b, minWords, maxWords)
	b.WriteString("\n直接返回文章，不要包含任何其他内容：")
	return b.String()
}

// baseArticlePrompt requests a simpler topic-introduction article, used
// when the transcript-grounded draft prompt never yields usable text.
func baseArticlePrompt(topic string, video domain.VideoRef, minWords, maxWords int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "请撰写一篇关于「%s」的基础介绍文章。\n\n", topic)
	if video.Title != "" {
		fmt.Fprintf(&b, "可以参考视频《%s》（%s）的主题。\n\n", video.Title, video.URL)
	}
	writeFormatRules(&b, minWords, maxWords)
	b.WriteString("\n直接返回文章，不要包含任何其他内容：")
	return b.String()
}

func writeFormatRules(b *strings.Builder, minWords, maxWords int) {
	b.WriteString("格式要求：\n")
	b.WriteString("1. 有且仅有一个一级标题（# 标题），放在文章最开头\n")
	b.WriteString("2. 有2-3个二级标题（## 小标题），不使用三级及以下标题\n")
	b.WriteString("3. 对关键概念使用加粗（**文字**），全文至少3处\n")
	b.WriteString("4. 段落之间用空行分隔，总段落数不少于10个\n")
	fmt.Fprintf(b, "5. 中文字数在%d到%d之间\n", minWords, maxWords)
}

func lengthCorrectionPrompt(draft string, current, minWords, maxWords int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "以下文章的中文字数为%d，要求在%d到%d之间。\n", current, minWords, maxWords)
	if current < minWords {
		b.WriteString("请在保持结构和观点不变的前提下扩充内容。\n")
	} else {
		b.WriteString("请在保持结构和观点不变的前提下精简内容。\n")
	}
	b.WriteString("\n文章：\n")
	b.WriteString(draft)
	b.WriteString("\n\n直接返回修改后的文章，不要包含任何其他内容：")
	return b.String()
}

// fallbackArticle builds a minimal publishable draft from metadata alone,
// the last resort when even the base-article prompt fails.
func fallbackArticle(topic string, video domain.VideoRef) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", topic)
	fmt.Fprintf(&b, "本文围绕**%s**这一主题展开。\n\n", topic)
	b.WriteString("## 内容概述\n\n")
	if video.Title != "" {
		fmt.Fprintf(&b, "本文参考了视频《%s》的内容。\n\n", video.Title)
	}
	fmt.Fprintf(&b, "关于**%s**的更多细节，可以参考相关视频资料。\n\n", topic)
	b.WriteString("## 总结\n\n")
	fmt.Fprintf(&b, "以上是关于**%s**的简要介绍。\n", topic)
	return b.String()
}
