package kserve

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

const (
	DefaultInputIDsName      = "input_ids"
	DefaultAttentionMaskName = "attention_mask"
	DefaultOutputName        = "logits"
)

type Config struct {
	BaseURL string
	Model   string
	Version string
	Timeout time.Duration

	InputIDsName      string
	AttentionMaskName string
	OutputName        string
}

// Client speaks the KServe v2 (Open Inference Protocol) REST API.
type Client struct {
	baseURL    string
	modelPath  string
	cfg        Config
	httpClient *http.Client
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.InputIDsName == "" {
		cfg.InputIDsName = DefaultInputIDsName
	}
	if cfg.AttentionMaskName == "" {
		cfg.AttentionMaskName = DefaultAttentionMaskName
	}
	if cfg.OutputName == "" {
		cfg.OutputName = DefaultOutputName
	}

	modelPath := "/v2/models/" + url.PathEscape(cfg.Model)
	if cfg.Version != "" {
		modelPath += "/versions/" + url.PathEscape(cfg.Version)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		modelPath:  modelPath,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type tensor struct {
	Name     string  `json:"name"`
	Shape    []int64 `json:"shape"`
	Datatype string  `json:"datatype"`
	Data     any     `json:"data"`
}

type outputRequest struct {
	Name string `json:"name"`
}

type inferRequest struct {
	Inputs  []tensor        `json:"inputs"`
	Outputs []outputRequest `json:"outputs"`
}

type outputTensor struct {
	Name     string    `json:"name"`
	Shape    []int64   `json:"shape"`
	Datatype string    `json:"datatype"`
	Data     []float64 `json:"data"`
}

type inferResponse struct {
	ModelName string         `json:"model_name"`
	Outputs   []outputTensor `json:"outputs"`
}

// Ready returns nil when the model server reports the model as ready.
func (c *Client) Ready(ctx context.Context) error {
	return c.get(ctx, c.modelPath+"/ready", "ready")
}

// Infer runs one forward pass and returns the logits of the single sequence.
func (c *Client) Infer(ctx context.Context, encoding domain.Encoding) ([]float32, error) {
	n := int64(encoding.Len())
	if n == 0 || len(encoding.AttentionMask) != encoding.Len() {
		return nil, fmt.Errorf("kserve infer: invalid encoding shape ids=%d mask=%d", encoding.Len(), len(encoding.AttentionMask))
	}

	request := inferRequest{
		Inputs: []tensor{
			{Name: c.cfg.InputIDsName, Shape: []int64{1, n}, Datatype: "INT64", Data: encoding.InputIDs},
			{Name: c.cfg.AttentionMaskName, Shape: []int64{1, n}, Datatype: "INT64", Data: encoding.AttentionMask},
		},
		Outputs: []outputRequest{{Name: c.cfg.OutputName}},
	}

	var response inferResponse
	if err := c.postJSON(ctx, c.modelPath+"/infer", request, &response, "infer"); err != nil {
		return nil, err
	}

	for _, out := range response.Outputs {
		if out.Name != c.cfg.OutputName {
			continue
		}
		if len(out.Data) == 0 {
			return nil, fmt.Errorf("kserve infer: output %q is empty", out.Name)
		}
		logits := make([]float32, len(out.Data))
		for i, v := range out.Data {
			logits[i] = float32(v)
		}
		return logits, nil
	}
	return nil, fmt.Errorf("kserve infer: output %q missing from response", c.cfg.OutputName)
}
