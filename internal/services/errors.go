package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrFatalMetadata         = errors.New("metadata unavailable")
	ErrTranscriptUnavailable = errors.New("transcript unavailable")
	ErrGeneration            = errors.New("highlight generation failed")
	ErrRender                = errors.New("render failed")
	ErrUpload                = errors.New("upload failed")
	ErrLogging               = errors.New("run log failed")
	ErrExternalTool          = errors.New("external tool error")
	ErrNotFound              = errors.New("not found")
	ErrConfiguration         = errors.New("configuration error")
)

// Wrap tags err with marker and prefixes it with the stage and operation it
// failed in. A nil marker defaults to ErrExternalTool.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err must abort a run instead of degrading it.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatalMetadata) || errors.Is(err, ErrConfiguration)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
