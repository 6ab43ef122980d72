package service

import (
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/util"
	"fmt"
	"math"
)

// WeightedMerge 合并两批平均值：(旧数量*旧均值 + 新数量*新均值) / 总数量。
// 总数量为 0 时返回 ok=false，调用方保留原值。
func WeightedMerge(oldCount int, oldAvg float64, newCount int, newAvg float64) (float64, bool) {
	denom := oldCount + newCount
	if denom <= 0 {
		return oldAvg, false
	}
	return (float64(oldCount)*oldAvg + float64(newCount)*newAvg) / float64(denom), true
}

// PushTrend 追加最新值并淘汰最旧的，长度不超过 size
func PushTrend(window []float64, v float64, size int) []float64 {
	window = append(window, v)
	if len(window) > size {
		window = append([]float64(nil), window[len(window)-size:]...)
	}
	return window
}

// FormatMinSec 秒数格式化为 m:ss
func FormatMinSec(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// validateSubmission 三个板块都必须存在，在修改任何统计之前检查
func validateSubmission(sub *model.TestSubmission) error {
	for _, sec := range model.Sections {
		r := sub.Sections.Get(sec)
		if r == nil {
			return fmt.Errorf("%w: missing section %s", util.ErrInvalidSubmission, sec)
		}
		if r.Questions < 0 || r.Correct < 0 || r.Incorrect < 0 || r.Unattempted < 0 {
			return fmt.Errorf("%w: negative counts in section %s", util.ErrInvalidSubmission, sec)
		}
		if r.TimeSpent < 0 || r.TimeSpentCorrect < 0 || r.TimeSpentIncorrect < 0 || r.TimeSpentUnattempted < 0 {
			return fmt.Errorf("%w: negative time in section %s", util.ErrInvalidSubmission, sec)
		}
		for topic, tr := range r.Topics {
			for _, diff := range model.Difficulties {
				for _, o := range model.Outcomes {
					if c := tr.Cell(diff, o); c.Count < 0 || c.TotalTime < 0 {
						return fmt.Errorf("%w: negative %s/%s cell for topic %q in section %s",
							util.ErrInvalidSubmission, diff, o, topic, sec)
					}
				}
			}
		}
	}
	if sub.TotalQuestions < 0 || sub.CorrectAnswers < 0 || sub.OverallTimeSpent < 0 {
		return fmt.Errorf("%w: negative totals", util.ErrInvalidSubmission)
	}
	return nil
}

// foldSubmission 把一次测试结果累加进用户统计，不回读任何历史答题记录
func foldSubmission(d *model.DashboardAnalytics, sub *model.TestSubmission, window int) error {
	if err := validateSubmission(sub); err != nil {
		return err
	}
	ensureStructure(d, window)

	d.TestsTaken++
	d.TestTime += sub.OverallTimeSpent
	d.QuestionsAttempted += sub.TotalQuestions

	d.AvgTimePerQuestionS = 0
	if d.QuestionsAttempted > 0 {
		d.AvgTimePerQuestionS = d.TestTime / float64(d.QuestionsAttempted)
	}
	d.AvgTimePerQuestion = FormatMinSec(d.AvgTimePerQuestionS)

	// 总正确率按测试次数做算术平均，不按题数加权，与板块统计不同，保持与历史数据兼容
	testAccuracy := 0.0
	if sub.TotalQuestions > 0 {
		testAccuracy = float64(sub.CorrectAnswers) * 100 / float64(sub.TotalQuestions)
	}
	d.Accuracy = (float64(d.TestsTaken-1)*d.Accuracy + testAccuracy) / float64(d.TestsTaken)

	for _, sec := range model.Sections {
		r := sub.Sections.Get(sec)
		if r.Questions <= 0 {
			continue
		}
		d.PerformanceTrend[sec] = PushTrend(d.PerformanceTrend[sec], r.Accuracy, window)
		foldSection(d.TotalQuestionsSolved[sec], r)
	}
	return nil
}

func foldSection(t *model.SectionTotals, r *model.SectionResult) {
	prevCorrect, prevIncorrect, prevNA := t.Correct, t.Incorrect, t.Unattempted
	prevTotal := t.Total()
	newTotal := r.Correct + r.Incorrect + r.Unattempted

	t.Correct += r.Correct
	t.Incorrect += r.Incorrect
	t.Unattempted += r.Unattempted

	// TimeSpent 是本次板块总用时，先换算成本批平均再合并
	if newTotal > 0 {
		if avg, ok := WeightedMerge(prevTotal, t.AvgTime, newTotal, r.TimeSpent/float64(newTotal)); ok {
			t.AvgTime = avg
		}
	}
	if avg, ok := WeightedMerge(prevCorrect, t.AvgTimeCorrect, r.Correct, r.TimeSpentCorrect); ok {
		t.AvgTimeCorrect = avg
	}
	if avg, ok := WeightedMerge(prevIncorrect, t.AvgTimeIncorrect, r.Incorrect, r.TimeSpentIncorrect); ok {
		t.AvgTimeIncorrect = avg
	}
	if avg, ok := WeightedMerge(prevNA, t.AvgTimeNA, r.Unattempted, r.TimeSpentUnattempted); ok {
		t.AvgTimeNA = avg
	}

	for topic, tr := range r.Topics {
		b, ok := t.Breakdown[topic]
		if !ok || b == nil {
			b = &model.TopicBreakdown{}
			t.Breakdown[topic] = b
		}
		for _, diff := range model.Difficulties {
			for _, o := range model.Outcomes {
				b.At(diff).At(o).Add(tr.Cell(diff, o))
			}
		}
	}
}

// ensureStructure 旧记录缺失的板块/窗口补齐为零值
func ensureStructure(d *model.DashboardAnalytics, window int) {
	fresh := model.NewDashboardAnalytics(window)
	if d.PerformanceTrend == nil {
		d.PerformanceTrend = fresh.PerformanceTrend
	}
	if d.TotalQuestionsSolved == nil {
		d.TotalQuestionsSolved = fresh.TotalQuestionsSolved
	}
	for _, sec := range model.Sections {
		if _, ok := d.PerformanceTrend[sec]; !ok {
			d.PerformanceTrend[sec] = fresh.PerformanceTrend[sec]
		}
		t, ok := d.TotalQuestionsSolved[sec]
		if !ok || t == nil {
			d.TotalQuestionsSolved[sec] = fresh.TotalQuestionsSolved[sec]
			continue
		}
		if t.Breakdown == nil {
			t.Breakdown = fresh.TotalQuestionsSolved[sec].Breakdown
			continue
		}
		// 存储中为 null 的题型解码为 nil 指针
		for topic, b := range t.Breakdown {
			if b == nil {
				t.Breakdown[topic] = &model.TopicBreakdown{}
			}
		}
	}
}
