package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
)

const maxExcerpt = 280

// readContent reads a markdown body from path, or from stdin when path is "-".
func readContent(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// excerptOf returns the first paragraph of body without markdown headings,
// cut to maxExcerpt runes.
func excerptOf(body string) string {
	for _, para := range strings.Split(body, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" || strings.HasPrefix(para, "#") {
			continue
		}
		para = strings.Join(strings.Fields(para), " ")
		if utf8.RuneCountInString(para) <= maxExcerpt {
			return para
		}
		runes := []rune(para)
		return strings.TrimSpace(string(runes[:maxExcerpt-1])) + "…"
	}
	return ""
}
