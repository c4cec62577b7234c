// Package narrator turns a bounded fact context into narrated output via
// a hosted model. The model is instructed to narrate only the facts it is
// given; it never sees raw data.
package narrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// thinkingInstruction is appended to the system prompt when the caller
// asked for an exposed thinking trace.
const thinkingInstruction = "\n\n# Thinking\n\nBefore answering, reason step by step inside " +
	openThinking + "..." + closeThinking + " delimiters, then write the final answer after the closing delimiter."

// Narrator answers questions, summarizes and builds quizzes over fact
// contexts.
type Narrator struct {
	llm     LLMClient
	prompts *Prompts
}

// New builds a narrator from a model client and loaded prompts.
func New(llm LLMClient, prompts *Prompts) *Narrator {
	return &Narrator{llm: llm, prompts: prompts}
}

// Narrate streams a narrated answer over the fact context, splitting
// thinking from answer text when thinking is enabled. Events are emitted
// in protocol order; the caller is responsible for the terminal done or
// error event. Returns the upstream error, if any, without retrying:
// quota was already consumed and a retry would double-charge.
func (n *Narrator) Narrate(ctx context.Context, factsJSON []byte, question string, thinking bool, emit func(Event)) error {
	system := n.prompts.Narrate
	if thinking {
		system += thinkingInstruction
	}
	user := fmt.Sprintf("Fact context:\n%s\n\nReader's question: %s", factsJSON, question)

	splitter := NewSplitter(thinking, emit)
	err := n.llm.Stream(ctx, system, user, splitter.Feed)
	splitter.Close()
	return err
}

// Summarize produces a single-shot narrated summary of a fact context.
func (n *Narrator) Summarize(ctx context.Context, factsJSON []byte) (string, error) {
	user := fmt.Sprintf("Fact context:\n%s", factsJSON)
	out, err := n.llm.Complete(ctx, n.prompts.Summary, user)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// QuizQuestion is one validated multiple-choice question.
type QuizQuestion struct {
	Question    string            `json:"question"`
	Options     map[string]string `json:"options"`
	Correct     string            `json:"correct"`
	Explanation string            `json:"explanation"`
}

// GenerateQuiz asks the model for quiz questions over the fact context
// and validates the shape of what comes back before returning it.
func (n *Narrator) GenerateQuiz(ctx context.Context, factsJSON []byte) ([]QuizQuestion, error) {
	user := fmt.Sprintf("Fact context:\n%s", factsJSON)
	out, err := n.llm.Complete(ctx, n.prompts.Quiz, user)
	if err != nil {
		return nil, err
	}
	return parseQuizResponse(out)
}

// FollowUps suggests up to three follow-up questions based on the
// question and the answer just given. A malformed model response yields
// no suggestions rather than an error: follow-ups are decoration, not
// part of the answer.
func (n *Narrator) FollowUps(ctx context.Context, question, answer string) ([]string, error) {
	user := fmt.Sprintf("Reader's question: %s\n\nAnswer provided:\n%s", question, answer)
	out, err := n.llm.Complete(ctx, n.prompts.FollowUp, user)
	if err != nil {
		return nil, err
	}

	out = strings.TrimSpace(out)
	if strings.HasPrefix(out, "```") {
		lines := strings.Split(out, "\n")
		if len(lines) > 2 {
			out = strings.Join(lines[1:len(lines)-1], "\n")
		}
	}

	var questions []string
	if err := json.Unmarshal([]byte(out), &questions); err != nil {
		return nil, nil
	}
	if len(questions) > 3 {
		questions = questions[:3]
	}
	return questions, nil
}

func parseQuizResponse(response string) ([]QuizQuestion, error) {
	jsonStr := extractJSON(response)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON found in quiz response")
	}

	var parsed struct {
		Questions []QuizQuestion `json:"questions"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse quiz JSON: %w", err)
	}
	if len(parsed.Questions) == 0 {
		return nil, fmt.Errorf("quiz response contained no questions")
	}

	for i, q := range parsed.Questions {
		if q.Question == "" {
			return nil, fmt.Errorf("question %d is empty", i+1)
		}
		if len(q.Options) != 4 {
			return nil, fmt.Errorf("question %d has %d options, want 4", i+1, len(q.Options))
		}
		for _, key := range []string{"A", "B", "C", "D"} {
			if q.Options[key] == "" {
				return nil, fmt.Errorf("question %d is missing option %s", i+1, key)
			}
		}
		if _, ok := q.Options[q.Correct]; !ok {
			return nil, fmt.Errorf("question %d marks %q correct, which is not an option", i+1, q.Correct)
		}
	}
	return parsed.Questions, nil
}

// extractJSON finds and extracts a JSON object from a response that might
// wrap it in markdown.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	if start := strings.Index(response, "```json"); start != -1 {
		start += 7
		if end := strings.Index(response[start:], "```"); end != -1 {
			return strings.TrimSpace(response[start : start+end])
		}
	}
	if start := strings.Index(response, "```"); start != -1 {
		start += 3
		if end := strings.Index(response[start:], "```"); end != -1 {
			content := strings.TrimSpace(response[start : start+end])
			if strings.HasPrefix(content, "{") {
				return content
			}
		}
	}
	if start := strings.Index(response, "{"); start != -1 {
		return extractJSONObject(response, start)
	}
	return ""
}

// extractJSONObject extracts a balanced JSON object starting at the given
// position, handling braces inside strings.
func extractJSONObject(s string, start int) string {
	if start >= len(s) || s[start] != '{' {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
