package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"nutriadvisor/internal/geminiservice"
	"nutriadvisor/internal/profile"
)

// maxToolRounds bounds how many searches the model may request per task
// before the run is aborted.
const maxToolRounds = 5

const webSearchToolName = "web_search"

// ModelCaller is the capability boundary to the language model. The crew
// never looks past it; everything about how a prompt becomes text is the
// provider's business.
type ModelCaller interface {
	Generate(ctx context.Context, logger *zerolog.Logger, payload geminiservice.Payload) (*geminiservice.Content, error)
}

// Searcher resolves a web_search tool call into readable result text.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Crew executes tasks strictly in declaration order, feeding each task's
// output into the context of the tasks that name it. Only the final task's
// output is returned; any failure aborts the whole run with no partial
// result.
type Crew struct {
	Model    ModelCaller
	Searcher Searcher
	Tasks    []*Task
}

var webSearchTool = geminiservice.Tool{
	FunctionDeclarations: []geminiservice.FunctionDeclaration{{
		Name:        webSearchToolName,
		Description: "Search the web for current, evidence-based information. Returns the top results as text.",
		Parameters: &geminiservice.Schema{
			Type: "OBJECT",
			Properties: map[string]geminiservice.Field{
				"query": {Type: "STRING", Description: "The search query"},
			},
			Required: []string{"query"},
		},
	}},
}

// Kickoff runs the pipeline and returns the final task's text output.
func (c *Crew) Kickoff(ctx context.Context, logger *zerolog.Logger) (string, error) {
	if len(c.Tasks) == 0 {
		return "", fmt.Errorf("no tasks to execute")
	}

	outputs := make(map[*Task]string, len(c.Tasks))

	for i, task := range c.Tasks {
		logger.Info().Msgf("Executing task %d/%d: %s (%s)", i+1, len(c.Tasks), task.Name, task.Agent.Role)

		out, err := c.executeTask(ctx, logger, task, outputs)
		if err != nil {
			return "", fmt.Errorf("task %q failed: %w", task.Name, err)
		}
		outputs[task] = out
	}

	return outputs[c.Tasks[len(c.Tasks)-1]], nil
}

// executeTask drives one task through the model, resolving web_search tool
// calls until the model answers with text.
func (c *Crew) executeTask(ctx context.Context, logger *zerolog.Logger, task *Task, outputs map[*Task]string) (string, error) {
	payload := geminiservice.Payload{
		SystemInstruction: &geminiservice.Content{
			Parts: []geminiservice.Part{{Text: task.Agent.systemInstruction()}},
		},
		Contents: []geminiservice.Content{{
			Role:  "user",
			Parts: []geminiservice.Part{{Text: taskPrompt(task, outputs)}},
		}},
	}
	if task.Agent.Search {
		payload.Tools = []geminiservice.Tool{webSearchTool}
	}

	for round := 0; round < maxToolRounds; round++ {
		content, err := c.Model.Generate(ctx, logger, payload)
		if err != nil {
			return "", err
		}

		call := content.FirstFunctionCall()
		if call == nil {
			return content.Text(), nil
		}

		if call.Name != webSearchToolName {
			return "", fmt.Errorf("model requested unknown tool %q", call.Name)
		}
		query, _ := call.Args["query"].(string)
		if query == "" {
			return "", fmt.Errorf("model requested %s without a query", webSearchToolName)
		}

		logger.Info().Msgf("Task %s: resolving %s(%q)", task.Name, webSearchToolName, query)

		results, err := c.Searcher.Search(ctx, query)
		if err != nil {
			return "", fmt.Errorf("%s failed: %w", webSearchToolName, err)
		}

		// Feed the call and its result back, then ask again.
		payload.Contents = append(payload.Contents,
			*content,
			geminiservice.Content{
				Role: "user",
				Parts: []geminiservice.Part{{
					FunctionResponse: &geminiservice.FunctionResponse{
						Name:     webSearchToolName,
						Response: map[string]any{"results": results},
					},
				}},
			},
		)
	}

	return "", fmt.Errorf("tool call limit reached after %d rounds", maxToolRounds)
}

// taskPrompt renders a task's instruction text plus the outputs of the
// tasks it depends on.
func taskPrompt(task *Task, outputs map[*Task]string) string {
	var b strings.Builder
	b.WriteString(task.Description)

	for _, dep := range task.Context {
		out, ok := outputs[dep]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n\n--- Context from %s (%s) ---\n%s", dep.Name, dep.Agent.Role, out)
	}

	if task.ExpectedOutput != "" {
		fmt.Fprintf(&b, "\n\nExpected output: %s", task.ExpectedOutput)
	}

	return b.String()
}

// Service wires the roster, model client and search client into the
// generator the HTTP layer calls. One Service serves all submissions; each
// call builds a fresh task list, so runs stay independent.
type Service struct {
	Roster   Roster
	Model    ModelCaller
	Searcher Searcher
}

// Generate runs the full three-stage pipeline for one profile and returns
// the plan text.
func (s *Service) Generate(ctx context.Context, logger *zerolog.Logger, p profile.UserProfile) (string, error) {
	crew := &Crew{
		Model:    s.Model,
		Searcher: s.Searcher,
		Tasks:    BuildTasks(s.Roster, p),
	}
	return crew.Kickoff(ctx, logger)
}
