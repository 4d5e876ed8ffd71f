package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aberthier/conteur/internal/services"
	"github.com/aberthier/conteur/pkg/state"
)

// IllustrationCoordinator runs image generation alongside the story
// without ever blocking narrative progress. Completions are keyed on the
// segment's identity, so a result landing after further turns, or after
// its segment was rolled away, is applied to the right segment or
// discarded.
type IllustrationCoordinator struct {
	llm    services.GenerationService
	logger *slog.Logger
}

func NewIllustrationCoordinator(llm services.GenerationService, logger *slog.Logger) *IllustrationCoordinator {
	return &IllustrationCoordinator{llm: llm, logger: logger}
}

// Begin marks the segment pending and reports whether a generation should
// be launched. An empty prompt means the narrator offered no illustration;
// the segment stays imageless and no call is made.
func (c *IllustrationCoordinator) Begin(sess *state.SessionState, segmentID int64, prompt string) bool {
	if strings.TrimSpace(prompt) == "" {
		sess.MarkNoIllustration(segmentID)
		return false
	}
	sess.BeginIllustration(segmentID, prompt)
	return true
}

// Generate runs the blocking image call. Callers run it off the event
// loop.
func (c *IllustrationCoordinator) Generate(ctx context.Context, prompt string) (string, error) {
	url, err := c.llm.GenerateIllustration(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate illustration: %w", err)
	}
	return url, nil
}

// Complete applies a finished generation to the segment it was requested
// for. A failure flags only that segment; the story is unaffected.
func (c *IllustrationCoordinator) Complete(sess *state.SessionState, segmentID int64, imageURL string, cause error) {
	if cause != nil {
		sess.FailIllustration(segmentID)
		c.logger.Warn("illustration generation failed",
			"session_id", sess.ID,
			"segment_id", segmentID,
			"error", cause)
		return
	}
	sess.ResolveIllustration(segmentID, imageURL)
}

// Retry relaunches a failed or pending-lost illustration from the prompt
// stored on the segment. It reports whether there was anything to retry.
func (c *IllustrationCoordinator) Retry(sess *state.SessionState, segmentID int64) bool {
	seg := sess.Segment(segmentID)
	if seg == nil || seg.ImagePrompt == "" {
		return false
	}
	sess.BeginIllustration(segmentID, seg.ImagePrompt)
	return true
}

// Request composes the full cycle synchronously for callers without an
// event loop.
func (c *IllustrationCoordinator) Request(ctx context.Context, sess *state.SessionState, segmentID int64, prompt string) {
	if !c.Begin(sess, segmentID, prompt) {
		return
	}
	url, err := c.Generate(ctx, prompt)
	c.Complete(sess, segmentID, url, err)
}
