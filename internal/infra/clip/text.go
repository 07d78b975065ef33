package clip

import (
	"fmt"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

// textEncoder はCLIPテキストエンコーダとトークナイザのラッパー。
// Encoder側のミューテックス保護下で呼ばれる前提で、自身はロックを持たない。
type textEncoder struct {
	tk        *tokenizer.Tokenizer
	sess      *ort.DynamicAdvancedSession
	maxSeqLen int
	dimension int
}

func newTextEncoder(cfg Config) (*textEncoder, error) {
	if cfg.TokenizerPath == "" {
		return nil, fmt.Errorf("tokenizer path is required for text encoding")
	}

	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}

	sess, err := ort.NewDynamicAdvancedSession(
		cfg.TextModelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"text_embeds"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load text model: %w", err)
	}

	return &textEncoder{
		tk:        tk,
		sess:      sess,
		maxSeqLen: cfg.MaxSeqLen,
		dimension: cfg.Dimension,
	}, nil
}

func (t *textEncoder) encode(text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text")
	}

	encoding, err := t.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize text: %w", err)
	}

	ids, mask := t.padTokens(encoding.Ids)

	shape := ort.NewShape(1, int64(t.maxSeqLen))
	idsTensor, err := ort.NewTensor(shape, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	defer idsTensor.Destroy()

	maskTensor, err := ort.NewTensor(shape, mask)
	if err != nil {
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	outputs := []ort.Value{nil}
	if err := t.sess.Run([]ort.Value{idsTensor, maskTensor}, outputs); err != nil {
		return nil, fmt.Errorf("text model inference failed: %w", err)
	}

	outputTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type %T", outputs[0])
	}
	defer outputTensor.Destroy()

	data := outputTensor.GetData()
	if len(data) < t.dimension {
		return nil, fmt.Errorf("unexpected output length %d (want %d)", len(data), t.dimension)
	}

	vector := make([]float32, t.dimension)
	copy(vector, data[:t.dimension])
	return vector, nil
}

// padTokens はトークン列を最大長に合わせて切り詰めまたはパディングし、
// int64のinput_idsとattention_maskを返す
func (t *textEncoder) padTokens(tokenIDs []int) ([]int64, []int64) {
	if len(tokenIDs) > t.maxSeqLen {
		tokenIDs = tokenIDs[:t.maxSeqLen]
	}

	ids := make([]int64, t.maxSeqLen)
	mask := make([]int64, t.maxSeqLen)
	for i, id := range tokenIDs {
		ids[i] = int64(id)
		mask[i] = 1
	}
	return ids, mask
}

func (t *textEncoder) close() {
	if t.sess != nil {
		t.sess.Destroy()
		t.sess = nil
	}
}
