package exa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizlab/quizd/internal/resilience"
)

func TestSearch(t *testing.T) {
	var gotReq SearchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(SearchResponse{
			Results: []Result{
				{Title: "中国首都", URL: "https://example.com/beijing", Highlights: []string{"首都是北京"}},
			},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.Search(context.Background(), SearchRequest{
		Query:         "首都是？",
		UseAutoprompt: true,
		NumResults:    3,
		Contents:      Contents{Highlights: true},
	})
	require.NoError(t, err)

	assert.Equal(t, "首都是？", gotReq.Query)
	assert.True(t, gotReq.UseAutoprompt)
	assert.Equal(t, 3, gotReq.NumResults)
	assert.True(t, gotReq.Contents.Highlights)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "中国首都", resp.Results[0].Title)
	assert.Equal(t, []string{"首都是北京"}, resp.Results[0].Highlights)
}

func TestSearch_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), SearchRequest{Query: "q"})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestSearch_ClientErrorIsNotTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), SearchRequest{Query: "q"})
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
	assert.Contains(t, err.Error(), "401")
}

func TestExtractContext(t *testing.T) {
	resp := &SearchResponse{
		Results: []Result{
			{Title: "中国首都", Highlights: []string{"首都是北京", "人口超过两千万"}},
			{Title: "", Highlights: nil},
		},
	}

	got := ExtractContext(resp)

	assert.Contains(t, got, "【结果 1】\n标题: 中国首都\n")
	assert.Contains(t, got, "相关内容:\n  - 首都是北京\n  - 人口超过两千万\n")
	assert.Contains(t, got, "【结果 2】\n标题: 无标题\n")
	assert.Contains(t, got, "相关内容: 无高亮内容\n")
}

func TestExtractContext_Empty(t *testing.T) {
	assert.Equal(t, NoResultsContext, ExtractContext(nil))
	assert.Equal(t, NoResultsContext, ExtractContext(&SearchResponse{}))
}

func TestSearchAndExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.UseAutoprompt)
		assert.True(t, req.Contents.Highlights)
		assert.Equal(t, 3, req.NumResults)

		json.NewEncoder(w).Encode(SearchResponse{
			Results: []Result{{Title: "结果", Highlights: []string{"内容"}}},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	got, err := SearchAndExtract(context.Background(), client, "查询", 3)
	require.NoError(t, err)
	assert.Contains(t, got, "【结果 1】")
}
