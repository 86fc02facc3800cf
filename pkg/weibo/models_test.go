package weibo

import (
	"testing"
	"time"

	"wbscraper/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, body string) Document {
	t.Helper()
	doc, err := decodeDocument([]byte(body))
	require.NoError(t, err)
	return doc
}

func TestDocumentAccessors(t *testing.T) {
	doc := mustDecode(t, `{"big":5023414498766812,"str":"77","f":1.5,"name":"x","flag":1,"obj":{"k":"v"},"arr":[{"a":1},2]}`)

	n, err := doc.Int64("big")
	require.NoError(t, err)
	assert.Equal(t, int64(5023414498766812), n)

	n, err = doc.Int64("str")
	require.NoError(t, err)
	assert.Equal(t, int64(77), n)

	_, err = doc.Int64("f")
	assert.True(t, errors.IsUnexpectedShape(err))

	_, err = doc.Int64("missing")
	assert.True(t, errors.IsUnexpectedShape(err))

	assert.Equal(t, 3, doc.OptInt("missing", 3))
	assert.Equal(t, "x", doc.OptString("name", ""))
	assert.Equal(t, "d", doc.OptString("big", "d"))
	assert.True(t, doc.OptBool("flag", false))
	assert.True(t, doc.OptBool("missing", true))

	obj, err := doc.Object("obj")
	require.NoError(t, err)
	assert.Equal(t, "v", obj.OptString("k", ""))

	_, err = doc.Objects("arr")
	assert.True(t, errors.IsUnexpectedShape(err))

	var nilDoc Document
	assert.Nil(t, nilDoc.OptObject("any"))
	assert.Equal(t, "", nilDoc.OptString("any", ""))
}

func TestParseUserProfile(t *testing.T) {
	t.Run("defaults optional fields", func(t *testing.T) {
		p, err := ParseUserProfile(mustDecode(t, `{"id":1,"screen_name":"a","followers_count":"12"}`))
		require.NoError(t, err)
		assert.Equal(t, int64(1), p.ID)
		assert.Equal(t, 12, p.FollowersCount)
		assert.Equal(t, "", p.AvatarHD)
		assert.Equal(t, 0, p.FriendsCount)
	})

	t.Run("requires followers_count", func(t *testing.T) {
		_, err := ParseUserProfile(mustDecode(t, `{"id":1,"screen_name":"a"}`))
		assert.True(t, errors.IsUnexpectedShape(err))
	})

	t.Run("requires screen_name", func(t *testing.T) {
		_, err := ParseUserProfile(mustDecode(t, `{"id":1,"followers_count":3}`))
		assert.True(t, errors.IsUnexpectedShape(err))
	})
}

func TestFollowerPage(t *testing.T) {
	page := &FollowerPage{OK: true, Users: []Document{
		mustDecode(t, `{"id":1,"screen_name":"a","followers_count":1}`),
		mustDecode(t, `{"id":2}`),
	}}

	ids, err := page.IDs()
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	_, err = page.Profiles()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "users[1]")

	var nilPage *FollowerPage
	assert.True(t, nilPage.Exhausted())
}

func TestParsePost(t *testing.T) {
	doc := mustDecode(t, `{
		"id": 4900000000000001,
		"mblogid": "Mx1",
		"text_raw": "raw",
		"text": "<b>raw</b>",
		"title": {"text": "置顶"},
		"region_name": "发布于 北京",
		"created_at": "Sat Jun 11 20:01:02 +0800 2022",
		"isLongText": true,
		"pic_ids": ["p1", "p2"],
		"pic_infos": {
			"p1": {"largest": {"url": "https://wx1.sinaimg.cn/large/p1.jpg"}},
			"p2": {"largest": {"url": "https://wx1.sinaimg.cn/large/p2.jpg"}}
		},
		"url_struct": [{"long_url": "https://example.test/a"}],
		"retweeted_status": {
			"id": 4800000000000002,
			"mblogid": "Mx0",
			"created_at": "Fri Jun 10 08:00:00 +0800 2022"
		}
	}`)

	post, err := ParsePost(doc)
	require.NoError(t, err)

	assert.Equal(t, int64(4900000000000001), post.ID)
	assert.Equal(t, "Mx1", post.MblogID)
	assert.True(t, post.IsTop)
	assert.True(t, post.IsLongText)
	assert.Equal(t, "发布于 北京", post.RegionName)
	assert.Equal(t, time.Date(2022, 6, 11, 12, 1, 2, 0, time.UTC), post.CreatedAt.UTC())
	assert.Equal(t, []string{"p1", "p2"}, post.PictureIDs)
	assert.Equal(t, "https://wx1.sinaimg.cn/large/p2.jpg", post.PictureURLs[1])
	assert.True(t, post.HasArticle)
	assert.Equal(t, []string{"https://example.test/a"}, post.ArticleURLs)

	require.True(t, post.IsRetweet)
	assert.Equal(t, int64(4800000000000002), post.RetweetID)
	assert.False(t, post.Retweet.IsTop)
	assert.Empty(t, post.Retweet.PictureIDs)

	var seen []int64
	post.Walk(func(p *Post) { seen = append(seen, p.ID) })
	assert.Equal(t, []int64{4900000000000001, 4800000000000002}, seen)
}

func TestParsePost_Malformed(t *testing.T) {
	tests := map[string]string{
		"missing id":          `{"mblogid":"a","created_at":"Sat Jun 11 20:01:02 +0800 2022"}`,
		"bad created_at":      `{"id":1,"mblogid":"a","created_at":"yesterday"}`,
		"picture without url": `{"id":1,"mblogid":"a","created_at":"Sat Jun 11 20:01:02 +0800 2022","pic_ids":["p"],"pic_infos":{}}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePost(mustDecode(t, body))
			assert.True(t, errors.IsUnexpectedShape(err))
		})
	}
}
