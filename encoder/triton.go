// Copyright 2025 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2025 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package encoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"tbprep/align"

	"github.com/rs/zerolog/log"
)

const (
	dfltOutputName  = "hidden_states"
	dfltTimeoutSecs = 60
	inputIDsName    = "input_ids"
	attnMaskName    = "attention_mask"
)

// Conf configures the contextual embeddings pass
type Conf struct {
	TokenizerFile string `json:"tokenizerFile"`
	TritonURL     string `json:"tritonUrl"`
	Model         string `json:"model"`
	OutputName    string `json:"outputName"`
	TimeoutSecs   int    `json:"timeoutSecs"`
}

type inferInput struct {
	Name     string  `json:"name"`
	Shape    []int   `json:"shape"`
	Datatype string  `json:"datatype"`
	Data     []int64 `json:"data"`
}

type requestedOutput struct {
	Name string `json:"name"`
}

type inferRequest struct {
	Inputs  []inferInput      `json:"inputs"`
	Outputs []requestedOutput `json:"outputs"`
}

type inferOutput struct {
	Name     string    `json:"name"`
	Shape    []int     `json:"shape"`
	Datatype string    `json:"datatype"`
	Data     []float32 `json:"data"`
}

type inferResponse struct {
	ModelName string        `json:"model_name"`
	Outputs   []inferOutput `json:"outputs"`
	Error     string        `json:"error"`
}

// TritonEncoder obtains hidden states of a transformer model served
// by a Triton inference server (KServe v2 HTTP protocol). The model is
// expected to return all the hidden states as a single FP32 output of
// shape [layers, 1, sub-words, dim].
type TritonEncoder struct {
	baseURL    string
	model      string
	outputName string
	client     *http.Client
}

func (te *TritonEncoder) Name() string {
	return te.model
}

func (te *TritonEncoder) inferURL() (string, error) {
	return url.JoinPath(te.baseURL, "v2", "models", te.model, "infer")
}

func (te *TritonEncoder) HiddenStates(ctx context.Context, enc *align.Encoding) ([][][]float32, error) {
	n := len(enc.IDs)
	ids := make([]int64, n)
	mask := make([]int64, n)
	for i, v := range enc.IDs {
		ids[i] = int64(v)
		mask[i] = 1
	}
	req := inferRequest{
		Inputs: []inferInput{
			{Name: inputIDsName, Shape: []int{1, n}, Datatype: "INT64", Data: ids},
			{Name: attnMaskName, Shape: []int{1, n}, Datatype: "INT64", Data: mask},
		},
		Outputs: []requestedOutput{{Name: te.outputName}},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode infer request: %w", err)
	}
	inferURL, err := te.inferURL()
	if err != nil {
		return nil, fmt.Errorf("invalid triton url: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, inferURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create infer request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	t0 := time.Now()
	resp, err := te.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("triton request failed: %w", err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read triton response: %w", err)
	}
	var ans inferResponse
	if err := json.Unmarshal(respBody, &ans); err != nil {
		return nil, fmt.Errorf("failed to decode triton response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("triton returned status %d: %s", resp.StatusCode, ans.Error)
	}
	log.Debug().
		Str("model", te.model).
		Int("numSubwords", n).
		Dur("procTime", time.Since(t0)).
		Msg("obtained hidden states")
	for _, out := range ans.Outputs {
		if out.Name == te.outputName {
			return unflatten(out, n)
		}
	}
	return nil, fmt.Errorf("output %s not found in triton response", te.outputName)
}

func unflatten(out inferOutput, numSubwords int) ([][][]float32, error) {
	if len(out.Shape) != 4 || out.Shape[1] != 1 || out.Shape[2] != numSubwords {
		return nil, fmt.Errorf("unexpected shape %v of output %s", out.Shape, out.Name)
	}
	numLayers, dim := out.Shape[0], out.Shape[3]
	if len(out.Data) != numLayers*numSubwords*dim {
		return nil, fmt.Errorf(
			"output %s has %d values, shape %v expects %d",
			out.Name, len(out.Data), out.Shape, numLayers*numSubwords*dim)
	}
	ans := make([][][]float32, numLayers)
	var pos int
	for l := range ans {
		ans[l] = make([][]float32, numSubwords)
		for i := range ans[l] {
			ans[l][i] = out.Data[pos : pos+dim]
			pos += dim
		}
	}
	return ans, nil
}

func NewTritonEncoder(conf Conf) *TritonEncoder {
	outputName := conf.OutputName
	if outputName == "" {
		outputName = dfltOutputName
	}
	timeout := conf.TimeoutSecs
	if timeout <= 0 {
		timeout = dfltTimeoutSecs
	}
	return &TritonEncoder{
		baseURL:    conf.TritonURL,
		model:      conf.Model,
		outputName: outputName,
		client:     &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}
}
