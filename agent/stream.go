package agent

import (
	"context"

	"github.com/hupe1980/agentloop/core"
	"golang.org/x/sync/errgroup"
)

// ChunkWriter receives stream chunks forwarded out of a nested run.
type ChunkWriter func(core.StreamChunk)

type chunkWriterKey struct{}

// WithChunkWriter attaches a writer for nested sub-agent chunks to the context.
func WithChunkWriter(ctx context.Context, w ChunkWriter) context.Context {
	return context.WithValue(ctx, chunkWriterKey{}, w)
}

// ChunkWriterFrom extracts the nested-chunk writer, if any.
func ChunkWriterFrom(ctx context.Context) (ChunkWriter, bool) {
	w, ok := ctx.Value(chunkWriterKey{}).(ChunkWriter)
	return w, ok
}

// streamEvent is the internal union flowing from the run producer to the
// translator: either a trace update or a chunk forwarded by a nested run.
type streamEvent struct {
	msg   *core.Message
	chunk *core.StreamChunk
}

// Stream drives the same loop as Run but converts every observed trace update
// into exactly one ordered StreamChunk. The chunk sequence always opens with
// Start and, for completed runs, terminates with Final or Aborted. Nested
// sub-agent chunks pass through re-tagged Inner, without reinterpretation.
// Infrastructure failures arrive on the error channel instead of a terminal
// chunk.
func (a *Agent) Stream(ctx context.Context, messages ...core.Message) (<-chan core.StreamChunk, <-chan error) {
	out := make(chan core.StreamChunk)
	errCh := make(chan error, 1)

	events := make(chan streamEvent)
	rs := core.NewRunState(a.name)

	g, runCtx := errgroup.WithContext(ctx)

	// Producer: the engine run. Trace updates and nested chunks enter the
	// event channel in observation order; the channel closes when the run
	// terminates, after the validator has written its verdict.
	g.Go(func() error {
		defer close(events)

		innerCtx := WithChunkWriter(runCtx, func(chunk core.StreamChunk) {
			events <- streamEvent{chunk: &chunk}
		})

		_, err := a.engine.Execute(innerCtx, rs, a.instructions, core.Trace(messages),
			func(msg core.Message) {
				events <- streamEvent{msg: &msg}
			})

		return err
	})

	// Translator: converts events to chunks, deduplicating tool-call IDs
	// within the run.
	g.Go(func() error {
		emit := func(chunk core.StreamChunk) bool {
			select {
			case out <- chunk:
				return true
			case <-runCtx.Done():
				return false
			}
		}

		drain := func() error {
			for range events {
			}
			return runCtx.Err()
		}

		if !emit(core.NewStreamChunk(core.LevelOuter, core.EventStart, a.name)) {
			return drain()
		}

		seen := map[string]bool{}

		for ev := range events {
			for _, chunk := range a.translate(ev, seen) {
				if !emit(chunk) {
					return drain()
				}
			}
		}

		// An unset final status means the producer failed mid-run; the error
		// channel carries the failure instead of a terminal chunk.
		if rs.FinalStatus == "" {
			return nil
		}

		emit(a.terminalChunk(rs))

		return nil
	})

	go func() {
		if err := g.Wait(); err != nil {
			errCh <- err
		}

		close(errCh)
		close(out)
	}()

	return out, errCh
}

// translate maps one observed event to its chunks. Each distinct tool-call ID
// produces at most one ToolRequest chunk per run.
func (a *Agent) translate(ev streamEvent, seen map[string]bool) []core.StreamChunk {
	if ev.chunk != nil {
		// Forward nested chunks verbatim, re-tagged to the inner level.
		return []core.StreamChunk{ev.chunk.AsInner()}
	}

	msg := *ev.msg

	switch {
	case msg.HasToolCalls():
		var chunks []core.StreamChunk

		for _, tc := range msg.ToolCalls {
			id := tc.EnsureID()
			if seen[id] {
				continue
			}
			seen[id] = true

			chunk := core.NewStreamChunk(core.LevelOuter, core.EventToolRequest, a.name)
			chunk.ToolName = tc.Name
			chunk.ToolCallID = id
			chunk.Payload = tc.Arguments
			chunks = append(chunks, chunk)
		}

		return chunks

	case msg.Role == core.RoleTool:
		chunk := core.NewStreamChunk(core.LevelOuter, core.EventToolResult, a.name)
		chunk.ToolName = msg.ToolName
		chunk.ToolCallID = msg.ToolCallID
		chunk.Payload = msg.Content

		return []core.StreamChunk{chunk}

	default:
		// Plain assistant messages surface through the terminal Final chunk
		// after validation, not per update.
		return nil
	}
}

func (a *Agent) terminalChunk(rs *core.RunState) core.StreamChunk {
	if rs.Aborted {
		chunk := core.NewStreamChunk(core.LevelOuter, core.EventAborted, a.name)
		chunk.Aborted = true
		chunk.AbortionReason = string(rs.AbortionCode)
		chunk.Payload = rs.AbortDescription

		return chunk
	}

	chunk := core.NewStreamChunk(core.LevelOuter, core.EventFinal, a.name)
	chunk.Payload = rs.Output

	return chunk
}
