package advisor

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutriadvisor/internal/geminiservice"
)

// scriptedModel replays canned contents in order and records the payloads
// it was called with.
type scriptedModel struct {
	responses []geminiservice.Content
	errs      []error
	payloads  []geminiservice.Payload
}

func (m *scriptedModel) Generate(_ context.Context, _ *zerolog.Logger, p geminiservice.Payload) (*geminiservice.Content, error) {
	m.payloads = append(m.payloads, p)
	i := len(m.payloads) - 1
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i >= len(m.responses) {
		return nil, errors.New("scripted model ran out of responses")
	}
	resp := m.responses[i]
	return &resp, nil
}

type stubSearcher struct {
	result  string
	err     error
	queries []string
}

func (s *stubSearcher) Search(_ context.Context, query string) (string, error) {
	s.queries = append(s.queries, query)
	return s.result, s.err
}

func textContent(text string) geminiservice.Content {
	return geminiservice.Content{Role: "model", Parts: []geminiservice.Part{{Text: text}}}
}

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestKickoffChainsContextAndReturnsFinalOutput(t *testing.T) {
	model := &scriptedModel{responses: []geminiservice.Content{
		textContent("demographics output"),
		textContent("medical output"),
		textContent("final plan"),
	}}
	crew := &Crew{
		Model:    model,
		Searcher: &stubSearcher{},
		Tasks:    BuildTasks(DefaultRoster(), sampleProfile()),
	}

	out, err := crew.Kickoff(context.Background(), testLogger())
	require.NoError(t, err)
	assert.Equal(t, "final plan", out)
	require.Len(t, model.payloads, 3)

	// Task 2 sees task 1's output; task 3 sees both.
	second := model.payloads[1].Contents[0].Parts[0].Text
	assert.Contains(t, second, "demographics output")
	assert.NotContains(t, second, "medical output")

	third := model.payloads[2].Contents[0].Parts[0].Text
	assert.Contains(t, third, "demographics output")
	assert.Contains(t, third, "medical output")
}

func TestKickoffDeclaresSearchToolOnlyForSearchAgents(t *testing.T) {
	model := &scriptedModel{responses: []geminiservice.Content{
		textContent("a"), textContent("b"), textContent("c"),
	}}
	crew := &Crew{
		Model:    model,
		Searcher: &stubSearcher{},
		Tasks:    BuildTasks(DefaultRoster(), sampleProfile()),
	}

	_, err := crew.Kickoff(context.Background(), testLogger())
	require.NoError(t, err)
	require.Len(t, model.payloads, 3)

	assert.NotEmpty(t, model.payloads[0].Tools)
	assert.NotEmpty(t, model.payloads[1].Tools)
	assert.Empty(t, model.payloads[2].Tools)
}

func TestExecuteTaskResolvesSearchToolCalls(t *testing.T) {
	toolCall := geminiservice.Content{
		Role: "model",
		Parts: []geminiservice.Part{{
			FunctionCall: &geminiservice.FunctionCall{
				Name: webSearchToolName,
				Args: map[string]any{"query": "protein needs moderately active adults"},
			},
		}},
	}
	model := &scriptedModel{responses: []geminiservice.Content{
		toolCall,
		textContent("researched output"),
	}}
	searcher := &stubSearcher{result: "1. Protein guidelines\nhttps://example.org\n..."}

	tasks := BuildTasks(DefaultRoster(), sampleProfile())
	crew := &Crew{Model: model, Searcher: searcher}

	out, err := crew.executeTask(context.Background(), testLogger(), tasks[0], map[*Task]string{})
	require.NoError(t, err)
	assert.Equal(t, "researched output", out)

	require.Equal(t, []string{"protein needs moderately active adults"}, searcher.queries)

	// The second call must carry the model's call and the tool's response.
	require.Len(t, model.payloads, 2)
	contents := model.payloads[1].Contents
	require.Len(t, contents, 3)
	require.NotNil(t, contents[1].Parts[0].FunctionCall)
	require.NotNil(t, contents[2].Parts[0].FunctionResponse)
	assert.Equal(t, searcher.result, contents[2].Parts[0].FunctionResponse.Response["results"])
}

func TestKickoffAbortsOnModelError(t *testing.T) {
	boom := errors.New("upstream unavailable")
	model := &scriptedModel{
		responses: []geminiservice.Content{textContent("demographics output")},
		errs:      []error{nil, boom},
	}
	crew := &Crew{
		Model:    model,
		Searcher: &stubSearcher{},
		Tasks:    BuildTasks(DefaultRoster(), sampleProfile()),
	}

	out, err := crew.Kickoff(context.Background(), testLogger())
	assert.Empty(t, out)
	require.ErrorIs(t, err, boom)
	// No third task attempted after the second failed.
	assert.Len(t, model.payloads, 2)
}

func TestExecuteTaskRejectsUnknownTool(t *testing.T) {
	model := &scriptedModel{responses: []geminiservice.Content{{
		Role:  "model",
		Parts: []geminiservice.Part{{FunctionCall: &geminiservice.FunctionCall{Name: "send_email"}}},
	}}}
	tasks := BuildTasks(DefaultRoster(), sampleProfile())
	crew := &Crew{Model: model, Searcher: &stubSearcher{}}

	_, err := crew.executeTask(context.Background(), testLogger(), tasks[0], map[*Task]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send_email")
}

func TestExecuteTaskBoundsToolRounds(t *testing.T) {
	loop := geminiservice.Content{
		Role: "model",
		Parts: []geminiservice.Part{{
			FunctionCall: &geminiservice.FunctionCall{
				Name: webSearchToolName,
				Args: map[string]any{"query": "again"},
			},
		}},
	}
	responses := make([]geminiservice.Content, maxToolRounds)
	for i := range responses {
		responses[i] = loop
	}
	model := &scriptedModel{responses: responses}
	tasks := BuildTasks(DefaultRoster(), sampleProfile())
	crew := &Crew{Model: model, Searcher: &stubSearcher{result: "r"}}

	_, err := crew.executeTask(context.Background(), testLogger(), tasks[0], map[*Task]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool call limit")
}
