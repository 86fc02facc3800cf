package crawler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"wbscraper/pkg/config"
	"wbscraper/pkg/logger"
	"wbscraper/pkg/network"
	"wbscraper/pkg/storage"
	"wbscraper/pkg/weibo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWeibo serves a tiny social graph over the Weibo ajax routes
type fakeWeibo struct {
	mu        sync.Mutex
	users     map[int64]int // id -> followers_count
	follows   map[int64][]int64
	timelines map[int64][][]map[string]interface{}
	longText  map[string]string
	forbidden map[int64]bool
	requested []string
}

func newFakeWeibo() *fakeWeibo {
	return &fakeWeibo{
		users:     make(map[int64]int),
		follows:   make(map[int64][]int64),
		timelines: make(map[int64][][]map[string]interface{}),
		longText:  make(map[string]string),
		forbidden: make(map[int64]bool),
	}
}

func (f *fakeWeibo) userDoc(id int64) map[string]interface{} {
	return map[string]interface{}{
		"id":              id,
		"screen_name":     "user" + strconv.FormatInt(id, 10),
		"avatar_hd":       "https://tvax1.sinaimg.cn/" + strconv.FormatInt(id, 10) + ".jpg",
		"followers_count": f.users[id],
	}
}

func (f *fakeWeibo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested = append(f.requested, r.URL.RequestURI())

	q := r.URL.Query()
	uid, _ := strconv.ParseInt(q.Get("uid"), 10, 64)
	page, _ := strconv.Atoi(q.Get("page"))

	var body interface{}
	switch {
	case r.URL.Path == "/ajax/profile/info":
		if _, ok := f.users[uid]; !ok {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		body = map[string]interface{}{"ok": 1, "data": map[string]interface{}{"user": f.userDoc(uid)}}
	case r.URL.Path == "/ajax/friendships/friends":
		if f.forbidden[uid] {
			http.Error(w, "blocked", http.StatusForbidden)
			return
		}
		list := f.follows[uid]
		users := []interface{}{}
		start := (page - 1) * 2
		for i := start; i < start+2 && i < len(list); i++ {
			users = append(users, f.userDoc(list[i]))
		}
		body = map[string]interface{}{"ok": 1, "users": users}
	case r.URL.Path == "/ajax/statuses/mymblog":
		pages := f.timelines[uid]
		list := []map[string]interface{}{}
		if page-1 < len(pages) {
			list = pages[page-1]
		}
		body = map[string]interface{}{"ok": 1, "data": map[string]interface{}{"list": list}}
	case r.URL.Path == "/ajax/statuses/longtext":
		body = map[string]interface{}{"ok": 1, "data": map[string]interface{}{"longTextContent": f.longText[q.Get("id")]}}
	case strings.HasPrefix(r.URL.Path, "/img/"):
		w.Write([]byte("jpeg:" + r.URL.Path))
		return
	default:
		http.NotFound(w, r)
		return
	}
	json.NewEncoder(w).Encode(body)
}

func (f *fakeWeibo) requests(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.requested {
		if strings.HasPrefix(r, prefix) {
			out = append(out, r)
		}
	}
	return out
}

func post(id int64, created string, extra map[string]interface{}) map[string]interface{} {
	p := map[string]interface{}{
		"id":         id,
		"mblogid":    "M" + strconv.FormatInt(id, 10),
		"text_raw":   "post " + strconv.FormatInt(id, 10),
		"created_at": created,
	}
	for k, v := range extra {
		p[k] = v
	}
	return p
}

type testEnv struct {
	fake    *fakeWeibo
	server  *httptest.Server
	cfg     *config.Config
	store   *storage.Manager
	log     *logger.TestLogger
	crawler *Crawler
}

func newTestEnv(t *testing.T, fake *fakeWeibo, mutate func(cfg *config.Config)) *testEnv {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.Weibo.BaseURL = srv.URL
	cfg.Weibo.Timeout = 5 * time.Second
	cfg.Output.BaseDirectory = t.TempDir()
	cfg.RateLimit.PageSleepDuration = time.Second
	if mutate != nil {
		mutate(cfg)
	}

	store, err := storage.NewManager(cfg.Output.BaseDirectory)
	require.NoError(t, err)

	log := logger.NewTestLogger()
	client := weibo.NewClient(&cfg.Weibo, log)
	c := New(cfg, client, store, log).WithSleeper(func(ctx context.Context, d time.Duration) error {
		return ctx.Err()
	})
	return &testEnv{fake: fake, server: srv, cfg: cfg, store: store, log: log, crawler: c}
}

func TestCrawler_Run(t *testing.T) {
	fake := newFakeWeibo()
	fake.users[1] = 100
	fake.users[2] = 5000
	fake.users[3] = 10
	fake.follows[1] = []int64{2, 3}
	fake.follows[2] = []int64{1}
	fake.follows[3] = []int64{1}

	env := newTestEnv(t, fake, func(cfg *config.Config) {
		cfg.UserIDList = []int64{1, 999, 3}
		cfg.UserMblog.IDList = []int64{1}
		cfg.UserMutualFollow.IDList = []int64{1}
		cfg.UserMutualFollow.MinFollower = 1000
	})
	fake.timelines[1] = [][]map[string]interface{}{{
		post(11, "Sat Jun 11 20:01:02 +0800 2022", map[string]interface{}{
			"isLongText": true,
			"pic_ids":    []string{"p1"},
			"pic_infos": map[string]interface{}{
				"p1": map[string]interface{}{"largest": map[string]interface{}{"url": env.server.URL + "/img/p1.jpg"}},
			},
		}),
	}}
	fake.longText["M11"] = "the whole story"

	summary, err := env.crawler.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed 999")
	require.NotEmpty(t, summary.RunID)
	require.Len(t, summary.Seeds, 3)

	first := summary.Seeds[0]
	require.NoError(t, first.Err)
	assert.Equal(t, 1, first.Posts)
	assert.Equal(t, 1, first.Images)
	require.NotNil(t, first.Network)
	assert.Equal(t, network.StoppedByDepthLimit, first.Network.Stop)

	assert.Error(t, summary.Seeds[1].Err)
	assert.NoError(t, summary.Seeds[2].Err)
	assert.Nil(t, summary.Seeds[2].Network)

	base := env.cfg.Output.BaseDirectory
	assert.FileExists(t, filepath.Join(base, "1", storage.UserFile))
	assert.FileExists(t, filepath.Join(base, "3", storage.UserFile))
	assert.NoDirExists(t, filepath.Join(base, "999"))
	assert.NoFileExists(t, filepath.Join(base, "3", storage.SnapshotFile))

	members, err := env.store.LoadSnapshot(1)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, int64(2), members[1].ID)

	mblog, err := os.ReadFile(filepath.Join(base, "1", storage.PostsFile))
	require.NoError(t, err)
	assert.Contains(t, string(mblog), "the whole story")

	img, err := os.ReadFile(filepath.Join(base, "1", storage.ImageDir, "p1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg:/img/p1.jpg", string(img))
}

func TestCrawler_SinceDateCutoff(t *testing.T) {
	fake := newFakeWeibo()
	fake.users[1] = 1

	env := newTestEnv(t, fake, func(cfg *config.Config) {
		cfg.UserIDList = []int64{1}
		cfg.UserMblog.IDList = []int64{1}
		cfg.UserMblog.SinceDate = "2023-01-01"
		cfg.Download.SkipImages = true
	})
	fake.timelines[1] = [][]map[string]interface{}{
		{
			post(1, "Mon Jan 03 10:00:00 +0800 2022", map[string]interface{}{"title": map[string]interface{}{"text": weibo.PinnedTitle}}),
			post(2, "Tue Mar 07 10:00:00 +0800 2023", nil),
		},
		{
			post(3, "Wed Feb 01 10:00:00 +0800 2023", nil),
			post(4, "Sat Dec 31 10:00:00 +0800 2022", nil),
			post(5, "Fri Dec 30 10:00:00 +0800 2022", nil),
		},
		{
			post(6, "Thu Dec 01 10:00:00 +0800 2022", nil),
		},
	}

	summary, err := env.crawler.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Seeds[0].Posts)

	assert.Len(t, fake.requests("/ajax/statuses/mymblog"), 2, "page 3 is never requested")

	data, err := os.ReadFile(filepath.Join(env.cfg.Output.BaseDirectory, "1", storage.PostsFile))
	require.NoError(t, err)
	var saved []weibo.Post
	require.NoError(t, json.Unmarshal(data, &saved))
	require.Len(t, saved, 4)
	assert.True(t, saved[0].IsTop)
	assert.Equal(t, int64(4), saved[3].ID, "the first post past the cutoff is kept")
	assert.NoDirExists(t, filepath.Join(env.cfg.Output.BaseDirectory, "1", storage.ImageDir))
}

func TestCrawler_NetworkFailureKeepsPartialSnapshot(t *testing.T) {
	fake := newFakeWeibo()
	fake.users[1] = 100
	fake.users[2] = 100
	fake.follows[1] = []int64{2, 404}
	fake.follows[2] = []int64{1}
	fake.users[404] = 100
	fake.forbidden[404] = true

	env := newTestEnv(t, fake, func(cfg *config.Config) {
		cfg.UserIDList = []int64{1}
		cfg.UserMutualFollow.IDList = []int64{1}
	})

	summary, err := env.crawler.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discovering network")

	members, loadErr := env.store.LoadSnapshot(1)
	require.NoError(t, loadErr)
	assert.Len(t, members, 2)
	assert.Len(t, summary.Seeds[0].Network.Members, 2)
}

func TestCrawler_GovernorPausesTraversal(t *testing.T) {
	fake := newFakeWeibo()
	fake.users[1] = 100
	fake.users[2] = 100
	fake.follows[1] = []int64{2}
	fake.follows[2] = []int64{1}

	var pauses int
	env := newTestEnv(t, fake, func(cfg *config.Config) {
		cfg.UserIDList = []int64{1}
		cfg.UserMutualFollow.IDList = []int64{1}
		cfg.RateLimit.PageSleepCount = 1
	})
	env.crawler.WithSleeper(func(ctx context.Context, d time.Duration) error {
		pauses++
		return nil
	})

	summary, err := env.crawler.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, summary.Seeds[0].Network.Calls, pauses)
	assert.True(t, env.log.HasMessage("Pausing to respect rate limit"))
}

func TestCrawler_CancelledContext(t *testing.T) {
	fake := newFakeWeibo()
	fake.users[1] = 1
	env := newTestEnv(t, fake, func(cfg *config.Config) {
		cfg.UserIDList = []int64{1, 2}
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := env.crawler.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, summary.Seeds)
}

type recordingObserver struct {
	mu       sync.Mutex
	started  []int64
	finished []int64
	posts    map[int64]int
	admitted []int64
	sizes    []int
	images   int
}

func (o *recordingObserver) SeedStarted(seedID int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, seedID)
}

func (o *recordingObserver) PostsSaved(seedID int64, total int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.posts[seedID] = total
}

func (o *recordingObserver) MemberAdmitted(seedID int64, member network.Member, size int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.admitted = append(o.admitted, member.ID)
	o.sizes = append(o.sizes, size)
}

func (o *recordingObserver) ImageDone(seedID int64, pictureID string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.images++
}

func (o *recordingObserver) SeedFinished(report *SeedReport) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = append(o.finished, report.SeedID)
}

func TestCrawler_Observer(t *testing.T) {
	fake := newFakeWeibo()
	fake.users[1] = 100
	fake.users[2] = 5000
	fake.users[3] = 5000
	fake.follows[1] = []int64{2, 3}
	fake.follows[2] = []int64{1}
	fake.follows[3] = []int64{1}

	env := newTestEnv(t, fake, func(cfg *config.Config) {
		cfg.UserIDList = []int64{1}
		cfg.UserMblog.IDList = []int64{1}
		cfg.UserMutualFollow.IDList = []int64{1}
		cfg.UserMutualFollow.MinFollower = 1000
		cfg.Download.SkipImages = true
	})
	fake.timelines[1] = [][]map[string]interface{}{{
		post(11, "Sat Jun 11 20:01:02 +0800 2022", nil),
		post(12, "Sat Jun 11 21:01:02 +0800 2022", nil),
	}}

	obs := &recordingObserver{posts: make(map[int64]int)}
	_, err := env.crawler.WithObserver(obs).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int64{1}, obs.started)
	assert.Equal(t, []int64{1}, obs.finished)
	assert.Equal(t, 2, obs.posts[1])
	assert.Equal(t, []int64{2, 3}, obs.admitted)
	assert.Equal(t, []int{2, 3}, obs.sizes)
	assert.Zero(t, obs.images)
}
