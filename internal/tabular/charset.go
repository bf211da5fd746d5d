package tabular

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

const sniffLen = 1024

// decodeCharset wraps r so that it yields UTF-8. An empty or utf-8 label
// returns r unchanged; "auto" sniffs the leading bytes.
func decodeCharset(r io.Reader, label string) (io.Reader, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	switch label {
	case "", "utf-8", "utf8":
		return r, nil
	case "auto":
		br := bufio.NewReaderSize(r, sniffLen)
		head, err := br.Peek(sniffLen)
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			return nil, err
		}
		enc, name, _ := charset.DetermineEncoding(head, "text/plain")
		if name == "utf-8" {
			return br, nil
		}
		return enc.NewDecoder().Reader(br), nil
	default:
		decoded, err := charset.NewReaderLabel(label, r)
		if err != nil {
			return nil, fmt.Errorf("unknown charset %q: %w", label, err)
		}
		return decoded, nil
	}
}
