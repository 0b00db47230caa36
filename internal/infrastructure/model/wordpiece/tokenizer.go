package wordpiece

import (
	"fmt"
	"sync"

	"github.com/sugarme/tokenizer"
	wpmodel "github.com/sugarme/tokenizer/model/wordpiece"
	"github.com/sugarme/tokenizer/normalizer"
	"github.com/sugarme/tokenizer/pretokenizer"
	"github.com/sugarme/tokenizer/processor"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

const (
	TokenCLS = "[CLS]"
	TokenSEP = "[SEP]"
	TokenPAD = "[PAD]"
	TokenUNK = "[UNK]"

	DefaultMaxLength = 512
)

type Config struct {
	// MaxLength is the fixed sequence length including [CLS] and [SEP].
	MaxLength int
	Lowercase bool
}

// Tokenizer wraps a BERT WordPiece pipeline that truncates and pads every
// sequence to MaxLength.
type Tokenizer struct {
	mu        sync.Mutex
	tk        *tokenizer.Tokenizer
	maxLength int

	clsID int64
	sepID int64
	padID int64
}

// LoadFile builds a tokenizer from a vocab.txt with one token per line.
func LoadFile(path string, cfg Config) (*Tokenizer, error) {
	if cfg.MaxLength == 0 {
		cfg.MaxLength = DefaultMaxLength
	}
	if cfg.MaxLength < 2 {
		return nil, fmt.Errorf("wordpiece: max length %d leaves no room for special tokens", cfg.MaxLength)
	}

	model, err := wpmodel.NewWordPieceFromFile(path, TokenUNK)
	if err != nil {
		return nil, fmt.Errorf("wordpiece: load vocab %s: %w", path, err)
	}
	tk := tokenizer.NewTokenizer(model)

	ids := make(map[string]int, 4)
	for _, token := range []string{TokenCLS, TokenSEP, TokenPAD, TokenUNK} {
		id, ok := tk.TokenToId(token)
		if !ok {
			return nil, fmt.Errorf("wordpiece: vocabulary has no %s token", token)
		}
		ids[token] = id
	}

	tk.WithNormalizer(normalizer.NewBertNormalizer(true, cfg.Lowercase, true, cfg.Lowercase))
	tk.WithPreTokenizer(pretokenizer.NewBertPreTokenizer())
	tk.AddSpecialTokens([]tokenizer.AddedToken{
		tokenizer.NewAddedToken(TokenCLS, true),
		tokenizer.NewAddedToken(TokenSEP, true),
		tokenizer.NewAddedToken(TokenPAD, true),
		tokenizer.NewAddedToken(TokenUNK, true),
	})
	tk.WithPostProcessor(processor.NewBertProcessing(
		processor.PostToken{Id: ids[TokenSEP], Value: TokenSEP},
		processor.PostToken{Id: ids[TokenCLS], Value: TokenCLS},
	))
	tk.WithTruncation(&tokenizer.TruncationParams{
		MaxLength: cfg.MaxLength,
		Strategy:  tokenizer.LongestFirst,
	})
	tk.WithPadding(&tokenizer.PaddingParams{
		Strategy:  *tokenizer.NewPaddingStrategy(tokenizer.WithFixed(cfg.MaxLength)),
		Direction: tokenizer.Right,
		PadId:     ids[TokenPAD],
		PadToken:  TokenPAD,
	})

	return &Tokenizer{
		tk:        tk,
		maxLength: cfg.MaxLength,
		clsID:     int64(ids[TokenCLS]),
		sepID:     int64(ids[TokenSEP]),
		padID:     int64(ids[TokenPAD]),
	}, nil
}

func (t *Tokenizer) MaxLength() int {
	return t.maxLength
}

// Tokens returns the word pieces for text without special tokens or padding.
func (t *Tokenizer) Tokens(text string) ([]string, error) {
	enc, err := t.encode(text)
	if err != nil {
		return nil, err
	}
	tokens := enc.GetTokens()
	mask := enc.GetAttentionMask()

	var pieces []string
	for i, token := range tokens {
		if mask[i] == 0 || i == 0 {
			continue
		}
		pieces = append(pieces, token)
	}
	if len(pieces) > 0 {
		pieces = pieces[:len(pieces)-1]
	}
	return pieces, nil
}

// Encode builds a fixed-length [CLS] ... [SEP] sequence padded with [PAD].
// Text the pipeline rejects encodes as an empty sequence.
func (t *Tokenizer) Encode(text string) domain.Encoding {
	enc, err := t.encode(text)
	if err != nil {
		enc, err = t.encode("")
	}
	if err != nil {
		return t.fit(nil, nil)
	}
	return t.fit(enc.GetIds(), enc.GetAttentionMask())
}

func (t *Tokenizer) encode(text string) (*tokenizer.Encoding, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	enc, err := t.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("wordpiece: encode: %w", err)
	}
	return enc, nil
}

// fit pins the sequence to maxLength with [SEP] closing the unmasked part.
func (t *Tokenizer) fit(ids, mask []int) domain.Encoding {
	out := domain.Encoding{
		InputIDs:      make([]int64, t.maxLength),
		AttentionMask: make([]int64, t.maxLength),
	}
	n := 0
	for i := range ids {
		if i >= len(mask) || mask[i] == 0 || n == t.maxLength {
			break
		}
		out.InputIDs[n] = int64(ids[i])
		out.AttentionMask[n] = 1
		n++
	}
	switch {
	case n == 0:
		out.InputIDs[0], out.AttentionMask[0] = t.clsID, 1
		out.InputIDs[1], out.AttentionMask[1] = t.sepID, 1
		n = 2
	case out.InputIDs[n-1] != t.sepID:
		if n == t.maxLength {
			n--
		}
		out.InputIDs[n], out.AttentionMask[n] = t.sepID, 1
		n++
	}
	for i := n; i < t.maxLength; i++ {
		out.InputIDs[i] = t.padID
	}
	return out
}
