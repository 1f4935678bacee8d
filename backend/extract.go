package backend

// ErrorExtractor pulls a human-readable detail out of one known backend
// error shape. Extractors are tried in order; the first match wins. New
// shapes are a certainty, so the chain is configurable per executor.
type ErrorExtractor func(raw map[string]any) (detail string, ok bool)

// extractMessage handles the flat shape {"message": "..."}.
func extractMessage(raw map[string]any) (string, bool) {
	msg, ok := raw["message"].(string)
	return msg, ok && msg != ""
}

// extractNestedDetails handles the nested shape {"error": {"details": "..."}}.
func extractNestedDetails(raw map[string]any) (string, bool) {
	inner, ok := raw["error"].(map[string]any)
	if !ok {
		return "", false
	}
	details, ok := inner["details"].(string)
	return details, ok && details != ""
}

func defaultExtractors() []ErrorExtractor {
	return []ErrorExtractor{extractMessage, extractNestedDetails}
}
