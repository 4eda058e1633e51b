package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/randalmurphal/chatkit/provider"
)

// Stream implements provider.Client.
// The request is sent with stream=true and the server-sent events are
// forwarded as chunks until "data: [DONE]" or the body ends.
func (c *Client) Stream(ctx context.Context, req provider.Request) (<-chan provider.StreamChunk, error) {
	body, err := c.buildRequest(req, true)
	if err != nil {
		return nil, provider.NewError(providerName, "stream", err, false)
	}

	resp, err := c.do(ctx, "stream", http.MethodPost, "/chat/completions", body)
	if err != nil {
		return nil, wrapError("stream", err)
	}

	ch := make(chan provider.StreamChunk)
	go c.readStream(ctx, resp.Body, ch)
	return ch, nil
}

// readStream parses SSE lines from body and sends them on ch.
// It always closes both body and ch.
func (c *Client) readStream(ctx context.Context, body io.ReadCloser, ch chan<- provider.StreamChunk) {
	defer close(ch)
	defer body.Close()

	send := func(chunk provider.StreamChunk) bool {
		select {
		case ch <- chunk:
			return true
		case <-ctx.Done():
			return false
		}
	}
	fail := func(err error) {
		send(provider.StreamChunk{Error: provider.NewError(providerName, "stream", err, false)})
	}

	var (
		usage        *provider.TokenUsage
		finishReason string
	)

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			// Comments, event names and blank separators carry nothing we use.
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			send(provider.StreamChunk{Done: true, FinishReason: finishReason, Usage: usage})
			return
		}

		// Mid-stream failures arrive as an error envelope in a data line.
		var env errorEnvelope
		if err := json.Unmarshal([]byte(data), &env); err == nil && env.Error != nil {
			apiErr := parseAPIError(http.StatusOK, []byte(data))
			send(provider.StreamChunk{Error: provider.NewError(providerName, "stream", apiErr, false)})
			return
		}

		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			fail(fmt.Errorf("parse chunk: %w", err))
			return
		}

		if chunk.Usage != nil {
			usage = &provider.TokenUsage{
				InputTokens:  chunk.Usage.PromptTokens,
				OutputTokens: chunk.Usage.CompletionTokens,
				TotalTokens:  chunk.Usage.TotalTokens,
			}
		}
		for _, choice := range chunk.Choices {
			if choice.Index != 0 {
				continue
			}
			if choice.FinishReason != nil {
				finishReason = *choice.FinishReason
			}
			if choice.Delta.Content == "" {
				continue
			}
			if !send(provider.StreamChunk{Content: choice.Delta.Content}) {
				return
			}
		}
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			send(provider.StreamChunk{Error: provider.NewError(providerName, "stream", ctx.Err(), false)})
			return
		}
		fail(fmt.Errorf("read stream: %w", err))
		return
	}

	// Some compatible servers close the body without [DONE].
	send(provider.StreamChunk{Done: true, FinishReason: finishReason, Usage: usage})
}
