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
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tbprep/align"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, numLayers, dim int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/models/xlmr/infer", r.URL.Path)
		var req inferRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) || !assert.Len(t, req.Inputs, 2) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "input_ids", req.Inputs[0].Name)
		assert.Equal(t, "attention_mask", req.Inputs[1].Name)
		n := req.Inputs[0].Shape[1]
		data := make([]float32, 0, numLayers*n*dim)
		for l := 0; l < numLayers; l++ {
			for i := 0; i < n; i++ {
				for d := 0; d < dim; d++ {
					data = append(data, float32(l*100+i))
				}
			}
		}
		json.NewEncoder(w).Encode(inferResponse{
			ModelName: "xlmr",
			Outputs: []inferOutput{
				{Name: "hidden_states", Shape: []int{numLayers, 1, n, dim}, Datatype: "FP32", Data: data},
			},
		})
	}))
}

func TestHiddenStates(t *testing.T) {
	srv := newTestServer(t, 3, 2)
	defer srv.Close()
	enc := NewTritonEncoder(Conf{TritonURL: srv.URL, Model: "xlmr"})
	assert.Equal(t, "xlmr", enc.Name())
	hidden, err := enc.HiddenStates(context.Background(), &align.Encoding{IDs: []int{0, 10, 11, 2}})
	require.NoError(t, err)
	require.Len(t, hidden, 3)
	require.Len(t, hidden[0], 4)
	assert.Equal(t, []float32{203, 203}, hidden[2][3])
	assert.Equal(t, []float32{1, 1}, hidden[0][1])
}

func TestHiddenStatesErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "unknown model"}`))
	}))
	defer srv.Close()
	enc := NewTritonEncoder(Conf{TritonURL: srv.URL, Model: "foo"})
	_, err := enc.HiddenStates(context.Background(), &align.Encoding{IDs: []int{0, 2}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown model")
}

func TestUnflattenShapeMismatch(t *testing.T) {
	_, err := unflatten(inferOutput{Name: "x", Shape: []int{2, 1, 3, 2}, Data: make([]float32, 5)}, 3)
	assert.Error(t, err)
	_, err = unflatten(inferOutput{Name: "x", Shape: []int{2, 1, 4, 2}, Data: make([]float32, 16)}, 3)
	assert.Error(t, err)
}
