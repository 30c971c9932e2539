package coursechat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"coursechat/src/log"
)

const (
	DefaultMaxTokens  = 800
	DefaultToolRounds = 1
)

// Generator drives the chat model, including the bounded tool-use loop.
// With maxToolRounds rounds at most maxToolRounds+1 model calls happen per
// query: tools are only advertised during the first maxToolRounds calls,
// and a tool request on the final call is returned as plain text.
type Generator struct {
	model         llms.Model
	maxTokens     int
	maxToolRounds int
}

// GeneratorOption configures a Generator
type GeneratorOption func(*Generator)

// WithMaxTokens bounds the model's response length
func WithMaxTokens(n int) GeneratorOption {
	return func(g *Generator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// WithMaxToolRounds sets how many rounds of tool execution are allowed
// before the conversation is forced to a final answer
func WithMaxToolRounds(n int) GeneratorOption {
	return func(g *Generator) {
		if n > 0 {
			g.maxToolRounds = n
		}
	}
}

// NewGenerator creates a Generator over the given chat model
func NewGenerator(model llms.Model, opts ...GeneratorOption) *Generator {
	g := &Generator{
		model:         model,
		maxTokens:     DefaultMaxTokens,
		maxToolRounds: DefaultToolRounds,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate answers one query and returns the sources its tool runs drew
// on. history is the rendered prior conversation ("" for none); tools may
// be nil to disable tool use. Sources are collected locally, so concurrent
// Generate calls never see each other's citations. Model failures are
// returned as *ModelAPIError; tool failures are folded into tool-result
// text and never abort the exchange.
func (g *Generator) Generate(ctx context.Context, query string, history string, tools *ToolManager) (string, []Source, error) {
	system := systemPrompt
	if history != "" {
		system += "\n\nPrevious conversation:\n" + history
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, query),
	}

	var defs []llms.Tool
	if tools != nil {
		defs = tools.Definitions()
	}

	var sources []Source
	for round := 0; ; round++ {
		opts := []llms.CallOption{
			llms.WithTemperature(0),
			llms.WithMaxTokens(g.maxTokens),
		}
		if len(defs) > 0 && round < g.maxToolRounds {
			opts = append(opts, llms.WithTools(defs))
		}

		resp, err := g.model.GenerateContent(ctx, messages, opts...)
		if err != nil {
			return "", nil, classifyModelError(err)
		}
		if len(resp.Choices) == 0 {
			return "", nil, &ModelAPIError{Kind: ModelErrService, Err: fmt.Errorf("model returned no choices")}
		}

		choice := resp.Choices[0]
		if len(choice.ToolCalls) == 0 || round >= g.maxToolRounds {
			return choice.Content, sources, nil
		}

		assistant := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			assistant.Parts = append(assistant.Parts, llms.TextContent{Text: choice.Content})
		}
		for _, call := range choice.ToolCalls {
			assistant.Parts = append(assistant.Parts, call)
		}
		messages = append(messages, assistant)

		for _, call := range choice.ToolCalls {
			result, callSources := g.executeCall(ctx, tools, call)
			sources = append(sources, callSources...)
			messages = append(messages, llms.MessageContent{
				Role:  llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{result},
			})
		}
	}
}

// executeCall runs one requested tool and packages the outcome as a
// tool-result part tagged with the request's call id, alongside the
// sources the tool produced
func (g *Generator) executeCall(ctx context.Context, tools *ToolManager, call llms.ToolCall) (llms.ToolCallResponse, []Source) {
	name := call.FunctionCall.Name

	var args map[string]interface{}
	var callSources []Source
	text := ""
	if err := json.Unmarshal([]byte(call.FunctionCall.Arguments), &args); err != nil {
		text = fmt.Sprintf("tool execution error: invalid arguments for %s: %v", name, err)
	} else {
		result, resultSources, err := tools.Execute(ctx, name, args)
		if err != nil {
			log.Error(err, "tool execution failed", "tool", name)
			text = fmt.Sprintf("tool execution error: %v", err)
		} else {
			text = result
			callSources = resultSources
		}
	}

	return llms.ToolCallResponse{
		ToolCallID: call.ID,
		Name:       name,
		Content:    text,
	}, callSources
}
