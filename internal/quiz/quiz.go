// Package quiz builds, parses and scores the multiple-choice quizzes that close a lesson.
package quiz

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// QuestionCount is how many questions are requested per quiz
const QuestionCount = 5

// OptionCount is the number of answer options every question must have
const OptionCount = 4

// Question is one multiple-choice item as returned by the model
type Question struct {
	Text        string   `json:"q"`
	Options     []string `json:"opts"`
	Answer      int      `json:"ans"`
	Explanation string   `json:"why"`
}

// Quiz is a parsed set of valid questions
type Quiz struct {
	Questions []Question `json:"questions"`
}

// Prompt asks for a quiz on the given lesson in the JSON shape Parse understands
func Prompt(courseName, lessonTitle, lessonDescription string) string {
	return fmt.Sprintf(
		"Generate %d multiple choice questions for: %s - %s (%s)\n"+
			`Return ONLY JSON: {"questions":[{"q":"question","opts":["A)...","B)...","C)...","D)..."],"ans":0,"why":"explanation"}]}`,
		QuestionCount, courseName, lessonTitle, lessonDescription,
	)
}

// Parse extracts a quiz from model output. Code fences and any text around the outermost
// JSON object are ignored. Questions without exactly four options or with an out-of-range
// answer are dropped, and at most QuestionCount questions are kept. Unparseable output or
// no valid questions yields nil without error.
func Parse(raw string) *Quiz {
	text := stripFences(raw)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil
	}

	var parsed Quiz
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return nil
	}

	valid := make([]Question, 0, len(parsed.Questions))
	for _, q := range parsed.Questions {
		if len(q.Options) != OptionCount || q.Answer < 0 || q.Answer >= OptionCount {
			continue
		}
		if strings.TrimSpace(q.Text) == "" {
			continue
		}
		valid = append(valid, q)
	}
	if len(valid) == 0 {
		return nil
	}
	return &Quiz{Questions: valid[:min(len(valid), QuestionCount)]}
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// Result is the outcome of a submitted quiz
type Result struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
	Score   int `json:"score"`
	XP      int `json:"xp"`
}

// Grade compares answers (indexed by question, -1 for unanswered) against the quiz
func (q *Quiz) Grade(answers []int) Result {
	total := len(q.Questions)
	correct := 0
	for i, question := range q.Questions {
		if i < len(answers) && answers[i] == question.Answer {
			correct++
		}
	}
	score := Score(correct, total)
	return Result{Correct: correct, Total: total, Score: score, XP: XPForScore(score)}
}

// Score is the rounded percentage of correct answers
func Score(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// XPForScore awards half the score, plus 25 at 80% or more and another 25 for a perfect score
func XPForScore(score int) int {
	xp := score / 2
	if score >= 80 {
		xp += 25
	}
	if score == 100 {
		xp += 25
	}
	return xp
}
