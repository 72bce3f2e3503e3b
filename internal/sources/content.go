package sources

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"

	"github.com/lumina-study/block-store/internal/httpclient"
	"github.com/lumina-study/block-store/internal/lumina"
)

// findFile requests each candidate name in order and returns the first one
// that exists. A 404 moves on to the next name; any other failure aborts.
func findFile(
	ctx context.Context,
	client httpclient.Client,
	names []string,
	fileURL func(name string) string,
	token string,
) (string, []byte, error) {
	for _, name := range names {
		body, err := client.Get(ctx, fileURL(name), token)
		if err == nil {
			return name, body, nil
		}
		if !httpclient.IsNotFound(err) {
			return "", nil, err
		}
	}
	return "", nil, &NotFoundError{
		Message: fmt.Sprintf("%s not found in repository", strings.Join(names, " or ")),
	}
}

// decodeFileContent checks the content fields of a provider file response
// and returns the decoded bytes.
func decodeFileContent(name string, file gjson.Result) ([]byte, error) {
	if !file.IsObject() {
		return nil, &lumina.ValidationError{Message: name + " is not a file"}
	}

	content := file.Get("content")
	if !content.Exists() || content.Type == gjson.Null || content.Raw == `""` {
		return nil, &lumina.ValidationError{Message: "File has no content"}
	}
	if content.Type != gjson.String {
		return nil, &lumina.ValidationError{Message: "File content is not a string"}
	}

	switch encoding := file.Get("encoding").String(); encoding {
	case "", "base64":
		return decodeBase64(content.String())
	case "text", "utf-8":
		return []byte(content.String()), nil
	default:
		return nil, &lumina.ValidationError{Message: fmt.Sprintf("Unsupported content encoding %q", encoding)}
	}
}

func decodeBase64(s string) ([]byte, error) {
	// Providers wrap base64 content at 60 or 76 columns.
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	data, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	return data, nil
}
