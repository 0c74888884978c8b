package httpapi

import (
	"context"
	"fmt"
	"strings"
)

// CheckOllamaModel verifies that an Ollama server is reachable and has
// model pulled. A model named without a tag matches its ":latest" tag.
func CheckOllamaModel(ctx context.Context, c *Client, model string) error {
	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := c.Get(ctx, "/api/tags", &tags); err != nil {
		return err
	}
	for _, m := range tags.Models {
		if m.Name == model || strings.TrimSuffix(m.Name, ":latest") == model {
			return nil
		}
	}
	return fmt.Errorf("%s: model %q is not pulled (run 'ollama pull %s')", c.provider, model, model)
}
