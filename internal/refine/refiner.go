// Package refine drives invalid article drafts toward validity through
// bounded corrective regeneration passes.
package refine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"TubeScribe/internal/domain"
	"TubeScribe/internal/ports"
	"TubeScribe/internal/validate"
)

// DefaultBudget is the per-bucket attempt limit observed in production.
const DefaultBudget = 3

// Refiner repairs drafts against the validator's rules, heading-structure
// violations first. Heading fixes get their own regeneration passes because
// mixing structural and content instructions in one prompt degrades model
// output.
type Refiner struct {
	generator ports.Generator
	validator *validate.Validator
	budget    int
	logger    *slog.Logger
}

// New wires a refiner. A non-positive budget falls back to DefaultBudget.
func New(generator ports.Generator, validator *validate.Validator, budget int, logger *slog.Logger) *Refiner {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Refiner{
		generator: generator,
		validator: validator,
		budget:    budget,
		logger:    logger,
	}
}

// Refine validates the draft and, while it fails, regenerates it through
// the Generator with targeted corrective instructions. Each bucket gets at
// most the configured number of attempts; unusable Generator outcomes
// consume an attempt and leave the previous draft untouched. The last
// draft is returned regardless of validity, tagged with its final report:
// refinement failure is not a pipeline failure.
func (r *Refiner) Refine(ctx context.Context, draft string) (string, domain.ValidationReport) {
	report, violations := r.validator.Inspect(draft)
	if report.IsValid {
		return draft, report
	}

	draft = r.repairBucket(ctx, draft, validate.CategoryHeading, violations)
	_, violations = r.validator.Inspect(draft)
	draft = r.repairBucket(ctx, draft, validate.CategoryContent, violations)

	final, _ := r.validator.Inspect(draft)
	return draft, final
}

func (r *Refiner) repairBucket(ctx context.Context, draft string, bucket validate.Category, violations []validate.Violation) string {
	pending := filterBucket(violations, bucket)
	if len(pending) == 0 {
		return draft
	}

	for attempt := 1; attempt <= r.budget; attempt++ {
		outcome := r.generator.Complete(ctx, reviewerSystem, bucketPrompt(bucket, pending, draft))
		if !outcome.UsableArticle() {
			r.debug("corrective pass unusable",
				"bucket", bucketName(bucket), "attempt", attempt, "kind", string(outcome.Kind))
			continue
		}

		draft = outcome.Text
		_, remaining := r.validator.Inspect(draft)
		pending = filterBucket(remaining, bucket)
		if len(pending) == 0 {
			r.debug("bucket repaired", "bucket", bucketName(bucket), "attempt", attempt)
			return draft
		}

		r.debug("violations remain after pass",
			"bucket", bucketName(bucket), "attempt", attempt, "remaining", len(pending))
	}

	// Budget exhausted; keep whatever progress the last attempt made.
	return draft
}

func filterBucket(violations []validate.Violation, bucket validate.Category) []string {
	var out []string
	for _, v := range violations {
		if v.Category == bucket {
			out = append(out, v.Reason)
		}
	}
	return out
}

func bucketName(bucket validate.Category) string {
	if bucket == validate.CategoryHeading {
		return "heading"
	}
	return "content"
}

func (r *Refiner) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

const reviewerSystem = "你是一个专业的文章审核专家，擅长按要求修复文章的结构和格式。" +
	"你只返回修改后的完整文章，不包含任何解释或说明。"

func bucketPrompt(bucket validate.Category, reasons []string, draft string) string {
	var b strings.Builder

	if bucket == validate.CategoryHeading {
		b.WriteString("请修复这篇文章的标题结构，要求：\n")
		b.WriteString("1. 必须有且仅有一个一级标题（# 标题），放在文章最开头\n")
		b.WriteString("2. 必须有2-3个二级标题（## 小标题）\n")
		b.WriteString("3. 不允许使用三级及以下标题\n")
		b.WriteString("4. 不要改变文章的主要内容\n")
	} else {
		b.WriteString("请修复这篇文章的格式和篇幅问题，要求：\n")
		b.WriteString("1. 对关键概念使用加粗（**文字**），全文至少3处\n")
		b.WriteString("2. 段落之间必须有空行，总段落数不少于10个\n")
		b.WriteString("3. 中文字数保持在要求的范围内\n")
		b.WriteString("4. 保持原文的结构、观点和文风\n")
	}

	b.WriteString("\n当前存在的问题：\n")
	for _, reason := range reasons {
		fmt.Fprintf(&b, "- %s\n", reason)
	}

	b.WriteString("\n需要修改的文章：\n")
	b.WriteString(draft)
	b.WriteString("\n\n请直接返回修改后的文章，不要包含任何其他内容：")

	return b.String()
}
