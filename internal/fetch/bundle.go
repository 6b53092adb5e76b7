package fetch

import (
	"context"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

// FetchBundle GETs bundle source text and checks that it looks like script
// text rather than an HTML page or a binary payload.
func (c *Client) FetchBundle(ctx context.Context, rawURL string) (string, error) {
	body, err := c.get(ctx, rawURL, "")
	if err != nil {
		return "", err
	}
	if err := checkScript(body); err != nil {
		return "", fmt.Errorf("%s: %w", rawURL, err)
	}
	return string(body), nil
}

func checkScript(body []byte) error {
	detected := mimetype.Detect(body)
	if detected.Is("text/html") {
		return fmt.Errorf("%w: got %s", ErrNotScript, detected.String())
	}
	for m := detected; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return nil
		}
	}
	return fmt.Errorf("%w: got %s", ErrNotScript, detected.String())
}
