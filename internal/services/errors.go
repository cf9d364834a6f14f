package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrParse         = errors.New("parse error")
	ErrCatalogGap    = errors.New("catalog gap")
	ErrTransport     = errors.New("transport error")
	ErrConversion    = errors.New("conversion error")
	ErrTagging       = errors.New("tagging error")
	ErrRetention     = errors.New("retention error")
	ErrExternalTool  = errors.New("external tool error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
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

// IsFatal reports whether err must abort the whole run. Only configuration
// problems are fatal; everything else is recorded against a single item.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// Classify returns a short label for the marker carried by err.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "config"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrCatalogGap):
		return "catalog_gap"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrConversion):
		return "conversion"
	case errors.Is(err, ErrTagging):
		return "tagging"
	case errors.Is(err, ErrRetention):
		return "retention"
	default:
		return "external"
	}
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
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
