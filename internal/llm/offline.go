package llm

import (
	"context"
	"fmt"
	"strings"
)

const offlineQuiz = `{"questions":[
{"q":"Which step comes first when solving a new problem?","opts":["A) Guess","B) Read the question carefully","C) Skip it","D) Check the answer key"],"ans":1,"why":"Understanding the question comes before any work."},
{"q":"What is 3 + 4?","opts":["A) 6","B) 7","C) 8","D) 12"],"ans":1,"why":"3 + 4 = 7."},
{"q":"Which of these is a good way to check your work?","opts":["A) Ignore it","B) Erase everything","C) Work the problem backwards","D) Ask for the answer"],"ans":2,"why":"Reversing the steps verifies the result."},
{"q":"What should you do with a mistake?","opts":["A) Learn from it","B) Hide it","C) Repeat it","D) Blame the book"],"ans":0,"why":"Mistakes show what to practise next."},
{"q":"How many sections does a full lesson have?","opts":["A) 2","B) 3","C) 4","D) 5"],"ans":3,"why":"Intro, examples, practice, common mistakes and summary."}
]}`

// OfflineClient returns canned text without network access. It is used for local development and tests.
type OfflineClient struct{}

func NewOfflineClient() *OfflineClient { return &OfflineClient{} }

func (c *OfflineClient) Name() string { return ProviderOffline }

func (c *OfflineClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch {
	case strings.Contains(prompt, "multiple choice questions"):
		return offlineQuiz, nil
	case strings.Contains(prompt, "word title"):
		return "Offline Study Session", nil
	}

	topic := strings.TrimSpace(strings.SplitN(prompt, "\n", 2)[0])
	if len(topic) > 80 {
		topic = topic[:80]
	}
	return fmt.Sprintf("## Offline tutor\n\nThe tutor is running without a model. You asked about:\n\n> %s\n\nWork through the examples in your textbook and come back when a provider is configured.", topic), nil
}
