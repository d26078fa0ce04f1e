package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zhexport/pkg/config"
	"zhexport/pkg/logger"
	"zhexport/pkg/metadata"
	"zhexport/pkg/ratelimit"
	"zhexport/pkg/retry"
	"zhexport/pkg/storage"
	"zhexport/pkg/zhihu"
)

// rewriteTransport redirects every request to the test server
type rewriteTransport struct {
	target string
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	u, err := url.Parse(t.target)
	if err != nil {
		return nil, err
	}
	req.URL.Scheme = u.Scheme
	req.URL.Host = u.Host
	return http.DefaultTransport.RoundTrip(req)
}

// recordingSink captures every progress event
type recordingSink struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (s *recordingSink) Emit(ev ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) stages() []Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Stage
	for _, ev := range s.events {
		out = append(out, ev.Stage)
	}
	return out
}

// recordingNotifier captures notification text
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	cleared  int
}

func (n *recordingNotifier) ShowOrUpdate(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, title+": "+message)
}

func (n *recordingNotifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cleared++
}

func answerEntry(id, title, body string) zhihu.CollectionItem {
	return zhihu.CollectionItem{Content: zhihu.Content{
		Type:     "answer",
		ID:       zhihu.ID(id),
		HTML:     body,
		Question: &zhihu.Question{ID: zhihu.ID("q" + id), Title: title},
		Author:   zhihu.Author{Name: "作者"},
	}}
}

func testExporter(t *testing.T, server *httptest.Server, cfg *config.Config) (*Exporter, *recordingSink, *recordingNotifier, *storage.Manager) {
	t.Helper()

	log := logger.NewTestLogger()
	client := zhihu.NewClient("cookie", 5*time.Second, log,
		zhihu.WithHTTPClient(&http.Client{Transport: rewriteTransport{target: server.URL}}),
		zhihu.WithRetryPolicy(retry.Policy{MaxAttempts: 1, BaseDelay: time.Millisecond, BackoffFactor: 1}),
	)
	paginator := zhihu.NewPaginator(client, &ratelimit.NopPacer{}, 0, log)
	resolver := zhihu.NewResolver(client, log)

	store, err := storage.NewManager(t.TempDir())
	require.NoError(t, err)

	sink := &recordingSink{}
	notifier := &recordingNotifier{}
	exp := New(cfg, paginator, resolver, store, log,
		WithProgressSink(sink),
		WithNotifier(notifier),
		WithPacer(&ratelimit.NopPacer{}),
	)
	return exp, sink, notifier, store
}

func exporterConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Notifications.ClearAfter = 0
	return cfg
}

func TestExportCollectionWritesFilesAndCountsFailures(t *testing.T) {
	// Three items: two resolve fine, the middle one is a deleted answer
	// that 404s. The run must finish with 2 ok / 1 failed and exactly two
	// files written.
	items := []zhihu.CollectionItem{
		answerEntry("1", "第一个问题", "<p>第一个回答</p>"),
		{Content: zhihu.Content{Type: "answer", ID: "2", Question: &zhihu.Question{ID: "q2", Title: "被删除的问题"}}},
		answerEntry("3", "第三个问题", "<p>第三个回答</p>"),
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v4/collections/123":
			json.NewEncoder(w).Encode(zhihu.Collection{ID: "123", Title: "我的收藏", ItemCount: 3})
		case r.URL.Path == "/api/v4/collections/123/items":
			done := true
			json.NewEncoder(w).Encode(zhihu.CollectionItemsResponse{
				Data:   items,
				Paging: zhihu.Paging{IsEnd: &done},
			})
		case r.URL.Path == "/api/v4/answers/2":
			w.WriteHeader(http.StatusNotFound)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	exp, sink, notifier, store := testExporter(t, server, exporterConfig())
	run, err := exp.ExportCollection(context.Background(), "123", 0)

	require.NoError(t, err)
	assert.Equal(t, 3, run.Processed)
	assert.Equal(t, 3, run.Total)
	assert.Equal(t, 2, run.OK)
	assert.Equal(t, 1, run.Failed)
	assert.Equal(t, 2, store.WrittenCount())

	assert.True(t, store.Exists("zhihu_collection_123/第一个问题 - 作者.md"))
	assert.True(t, store.Exists("zhihu_collection_123/第三个问题 - 作者.md"))

	written, err := os.ReadFile(filepath.Join(store.BaseDir(), "zhihu_collection_123", "第一个问题 - 作者.md"))
	require.NoError(t, err)
	content := string(written)
	assert.True(t, strings.HasPrefix(content, "---\n"))
	assert.Contains(t, content, "title: 第一个问题")
	assert.Contains(t, content, "source: https://www.zhihu.com/question/q1/answer/1")
	assert.Contains(t, content, "第一个回答")

	// The folder manifest lists only the successfully exported items.
	manifest, err := metadata.Load(store.BaseDir(), "zhihu_collection_123")
	require.NoError(t, err)
	assert.Equal(t, 2, manifest.ItemCount)
	assert.Equal(t, "第一个问题 - 作者.md", manifest.Items[0].File)
	assert.Equal(t, "answer", manifest.Items[0].Kind)

	// start, one progress per item, done.
	assert.Equal(t, []Stage{StageStart, StageProgress, StageProgress, StageProgress, StageDone}, sink.stages())
	// Single-collection runs notify on every item plus start and done.
	assert.Len(t, notifier.messages, 5)
	assert.Contains(t, notifier.messages[len(notifier.messages)-1], "2 ok, 1 failed")
}

func TestExportCollectionHonorsLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v4/collections/123":
			json.NewEncoder(w).Encode(zhihu.Collection{ID: "123", Title: "收藏"})
		case r.URL.Path == "/api/v4/collections/123/items":
			resp := zhihu.CollectionItemsResponse{}
			for i := 0; i < zhihu.DefaultPageSize; i++ {
				resp.Data = append(resp.Data, answerEntry(fmt.Sprint(i), fmt.Sprintf("问题%d", i), "<p>正文</p>"))
			}
			json.NewEncoder(w).Encode(resp)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	exp, _, _, store := testExporter(t, server, exporterConfig())
	run, err := exp.ExportCollection(context.Background(), "123", 5)

	require.NoError(t, err)
	assert.Equal(t, 5, run.Processed)
	assert.Equal(t, 5, store.WrittenCount())
}

func TestExportAllCollectionsGrowsTotal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		done := true
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/v4/people/someone/collections"):
			json.NewEncoder(w).Encode(zhihu.CollectionListResponse{
				Data: []zhihu.Collection{
					{ID: "11", Title: "收藏夹一"},
					{ID: "22", Title: "收藏夹二"},
				},
				Paging: zhihu.Paging{IsEnd: &done},
			})
		case r.URL.Path == "/api/v4/collections/11/items":
			json.NewEncoder(w).Encode(zhihu.CollectionItemsResponse{
				Data:   []zhihu.CollectionItem{answerEntry("1", "甲", "<p>a</p>"), answerEntry("2", "乙", "<p>b</p>")},
				Paging: zhihu.Paging{IsEnd: &done},
			})
		case r.URL.Path == "/api/v4/collections/22/items":
			json.NewEncoder(w).Encode(zhihu.CollectionItemsResponse{
				Data:   []zhihu.CollectionItem{answerEntry("3", "丙", "<p>c</p>")},
				Paging: zhihu.Paging{IsEnd: &done},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	exp, sink, _, store := testExporter(t, server, exporterConfig())
	run, err := exp.ExportAllCollections(context.Background(), "someone")

	require.NoError(t, err)
	assert.Equal(t, 3, run.Processed)
	assert.Equal(t, 3, run.Total)
	assert.Equal(t, 3, run.OK)
	assert.Equal(t, 3, store.WrittenCount())

	// Files land under per-collection folders keyed by user token.
	assert.True(t, store.Exists("zhihu_someone/收藏夹一_11/甲 - 作者.md"))
	assert.True(t, store.Exists("zhihu_someone/收藏夹二_22/丙 - 作者.md"))

	// The announced total must grow monotonically as collections are
	// discovered, never shrink.
	prev := 0
	for _, ev := range sink.events {
		assert.GreaterOrEqual(t, ev.Total, prev)
		prev = ev.Total
	}
	assert.Equal(t, 2, sink.events[1].Total, "first collection announces its items")
}

func TestExportCollectionCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var served int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		done := true
		switch {
		case r.URL.Path == "/api/v4/collections/123":
			json.NewEncoder(w).Encode(zhihu.Collection{ID: "123", Title: "收藏"})
		case r.URL.Path == "/api/v4/collections/123/items":
			var items []zhihu.CollectionItem
			for i := 0; i < 5; i++ {
				items = append(items, zhihu.CollectionItem{Content: zhihu.Content{
					Type: "answer", ID: zhihu.ID(fmt.Sprint(i)),
					Question: &zhihu.Question{ID: "q", Title: "标题"},
				}})
			}
			json.NewEncoder(w).Encode(zhihu.CollectionItemsResponse{Data: items, Paging: zhihu.Paging{IsEnd: &done}})
		default:
			// Per-item resolution; cancel after the second one.
			served++
			if served == 2 {
				cancel()
			}
			json.NewEncoder(w).Encode(zhihu.Answer{ID: "1", HTML: "<p>x</p>", Question: zhihu.Question{Title: "标题"}})
		}
	}))
	defer server.Close()

	exp, _, _, _ := testExporter(t, server, exporterConfig())
	run, err := exp.ExportCollection(ctx, "123", 0)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, run.Processed, 5, "cancellation stops the loop between items")
}

func TestExportSkipsFilesFromPreviousRuns(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		done := true
		switch {
		case r.URL.Path == "/api/v4/collections/123":
			json.NewEncoder(w).Encode(zhihu.Collection{ID: "123", Title: "收藏"})
		default:
			json.NewEncoder(w).Encode(zhihu.CollectionItemsResponse{
				Data:   []zhihu.CollectionItem{answerEntry("1", "第一个问题", "<p>新的正文</p>")},
				Paging: zhihu.Paging{IsEnd: &done},
			})
		}
	}))
	defer server.Close()

	exp, _, _, store := testExporter(t, server, exporterConfig())

	// Simulate a previous run having already exported this item.
	prior := filepath.Join(store.BaseDir(), "zhihu_collection_123", "第一个问题 - 作者.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(prior), 0755))
	require.NoError(t, os.WriteFile(prior, []byte("earlier export"), 0644))

	run, err := exp.ExportCollection(context.Background(), "123", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, run.OK, "a skipped item still counts as exported")
	assert.Equal(t, 0, store.WrittenCount())

	data, err := os.ReadFile(prior)
	require.NoError(t, err)
	assert.Equal(t, "earlier export", string(data), "existing file left untouched")
}

func TestExportSurvivesPanickingSink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		done := true
		switch {
		case r.URL.Path == "/api/v4/collections/123":
			json.NewEncoder(w).Encode(zhihu.Collection{ID: "123"})
		default:
			json.NewEncoder(w).Encode(zhihu.CollectionItemsResponse{
				Data:   []zhihu.CollectionItem{answerEntry("1", "标题", "<p>x</p>")},
				Paging: zhihu.Paging{IsEnd: &done},
			})
		}
	}))
	defer server.Close()

	exp, _, _, store := testExporter(t, server, exporterConfig())
	exp.progress = panickySink{}

	run, err := exp.ExportCollection(context.Background(), "123", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, run.OK)
	assert.Equal(t, 1, store.WrittenCount())
}

type panickySink struct{}

func (panickySink) Emit(ProgressEvent) { panic("no listener") }
