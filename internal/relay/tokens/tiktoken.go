package tokens

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// DefaultEncoding is the BPE encoding used when none is configured.
const DefaultEncoding = "cl100k_base"

const (
	KindChars    = "chars"
	KindTiktoken = "tiktoken"
)

var loaderOnce sync.Once

// TiktokenCounter counts BPE tokens with an encoding whose tables are
// embedded in the binary, so no network access is needed.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter loads encoding, DefaultEncoding when empty.
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %q: %w", encoding, err)
	}
	return &TiktokenCounter{enc: enc}, nil
}

// Count implements Counter. Special-token markers in the text are counted as
// ordinary text.
func (c *TiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.enc.EncodeOrdinary(text))
}

// New builds the Counter selected by kind ("chars" or "tiktoken").
func New(kind string, charsPerToken int, encoding string) (Counter, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindChars:
		return CharCounter{CharsPerToken: charsPerToken}, nil
	case KindTiktoken:
		c, err := NewTiktokenCounter(encoding)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown tokenizer %q", kind)
	}
}
