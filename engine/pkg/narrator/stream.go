package narrator

import "strings"

// Phase is a state of the streaming protocol. Transitions are strictly
// forward: thinking -> answer -> done, or any state -> error. Nothing
// ever re-enters thinking.
type Phase string

const (
	PhaseThinking Phase = "thinking"
	PhaseAnswer   Phase = "answer"
	PhaseDone     Phase = "done"
	PhaseError    Phase = "error"
)

// Event is one message of the streaming protocol, serialized as the SSE
// payload. Text is set for thinking/answer; Remaining and FollowUps ride
// on done; Message on error.
type Event struct {
	Type      Phase    `json:"type"`
	Text      string   `json:"text,omitempty"`
	Remaining *int     `json:"remaining,omitempty"`
	FollowUps []string `json:"follow_ups,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// Delimiters the model is instructed to use around its thinking trace.
// Answer delimiters are stripped if a model emits them, but are not
// required.
const (
	openThinking  = "<thinking>"
	closeThinking = "</thinking>"
	openAnswer    = "<answer>"
	closeAnswer   = "</answer>"
)

// Splitter separates a live token stream into thinking and answer
// phases by delimiter matching. Delimiters may arrive split across token
// boundaries, so the splitter holds back any trailing bytes that could
// still become a delimiter and flushes them on Close. Tokens fed after
// Close are discarded.
type Splitter struct {
	phase   Phase
	pending string
	closed  bool
	emit    func(Event)
}

// NewSplitter creates a splitter. When thinking is disabled the stream
// starts directly in the answer phase.
func NewSplitter(thinking bool, emit func(Event)) *Splitter {
	phase := PhaseAnswer
	if thinking {
		phase = PhaseThinking
	}
	return &Splitter{phase: phase, emit: emit}
}

// Phase returns the current protocol phase.
func (s *Splitter) Phase() Phase {
	return s.phase
}

// Feed consumes one raw token from the model stream.
func (s *Splitter) Feed(token string) {
	if s.closed || token == "" {
		return
	}
	s.pending += token
	s.drain(false)
}

// Close flushes held-back text and seals the splitter.
func (s *Splitter) Close() {
	if s.closed {
		return
	}
	s.drain(true)
	s.closed = true
}

func (s *Splitter) drain(final bool) {
	for {
		delims := s.activeDelimiters()
		idx, delim := earliest(s.pending, delims)
		if idx < 0 {
			break
		}
		s.emitText(s.pending[:idx])
		s.pending = s.pending[idx+len(delim):]
		if delim == closeThinking {
			s.phase = PhaseAnswer
		}
	}

	if final {
		s.emitText(s.pending)
		s.pending = ""
		return
	}

	// Hold back the longest suffix that could still grow into one of the
	// active delimiters; emit everything before it.
	hold := holdback(s.pending, s.activeDelimiters())
	cut := len(s.pending) - hold
	s.emitText(s.pending[:cut])
	s.pending = s.pending[cut:]
}

func (s *Splitter) activeDelimiters() []string {
	if s.phase == PhaseThinking {
		return []string{openThinking, closeThinking}
	}
	return []string{openAnswer, closeAnswer}
}

func (s *Splitter) emitText(text string) {
	if text == "" {
		return
	}
	s.emit(Event{Type: s.phase, Text: text})
}

// earliest finds the first complete occurrence of any delimiter.
func earliest(text string, delims []string) (int, string) {
	best := -1
	var bestDelim string
	for _, d := range delims {
		if i := strings.Index(text, d); i >= 0 && (best < 0 || i < best) {
			best = i
			bestDelim = d
		}
	}
	return best, bestDelim
}

// holdback returns the length of the longest suffix of text that is a
// proper prefix of any delimiter.
func holdback(text string, delims []string) int {
	max := 0
	for _, d := range delims {
		limit := len(d) - 1
		if limit > len(text) {
			limit = len(text)
		}
		for k := limit; k > max; k-- {
			if strings.HasSuffix(text, d[:k]) {
				max = k
				break
			}
		}
	}
	return max
}
