package weibo

import (
	"time"

	"wbscraper/pkg/errors"
)

// CreatedAtLayout is the layout of a post's created_at field
const CreatedAtLayout = "Mon Jan 02 15:04:05 -0700 2006"

// PinnedTitle marks a pinned post
const PinnedTitle = "置顶"

// UserSummary identifies an account
type UserSummary struct {
	ID         int64  `json:"id"`
	ScreenName string `json:"screen_name"`
	AvatarHD   string `json:"avatar_hd"`
}

// UserProfile is a UserSummary plus the counters and self-description
type UserProfile struct {
	UserSummary
	Description    string `json:"description"`
	Location       string `json:"location"`
	FollowersCount int    `json:"followers_count"`
	FriendsCount   int    `json:"friends_count"`
	StatusesCount  int    `json:"statuses_count"`
}

// ParseUserSummary reads id and screen_name (required) and avatar_hd (default "")
func ParseUserSummary(doc Document) (UserSummary, error) {
	id, err := doc.Int64("id")
	if err != nil {
		return UserSummary{}, err
	}
	name, err := doc.String("screen_name")
	if err != nil {
		return UserSummary{}, err
	}
	return UserSummary{
		ID:         id,
		ScreenName: name,
		AvatarHD:   doc.OptString("avatar_hd", ""),
	}, nil
}

// ParseUserProfile reads a user record. followers_count is required because the
// popularity floor depends on it; description, location, friends_count and
// statuses_count default to their zero values.
func ParseUserProfile(doc Document) (*UserProfile, error) {
	summary, err := ParseUserSummary(doc)
	if err != nil {
		return nil, err
	}
	followers, err := doc.Int("followers_count")
	if err != nil {
		return nil, err
	}
	return &UserProfile{
		UserSummary:    summary,
		Description:    doc.OptString("description", ""),
		Location:       doc.OptString("location", ""),
		FollowersCount: followers,
		FriendsCount:   doc.OptInt("friends_count", 0),
		StatusesCount:  doc.OptInt("statuses_count", 0),
	}, nil
}

// FollowerPage is one page of a paginated user listing
type FollowerPage struct {
	OK    bool
	Users []Document
}

// Exhausted reports whether pagination should stop at this page
func (p *FollowerPage) Exhausted() bool {
	return p == nil || !p.OK || len(p.Users) == 0
}

// IDs returns the id of every listed user in order
func (p *FollowerPage) IDs() ([]int64, error) {
	ids := make([]int64, 0, len(p.Users))
	for i, u := range p.Users {
		id, err := u.Int64("id")
		if err != nil {
			return nil, withIndex(err, i)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Profiles parses every listed user in order. One malformed record fails the whole page.
func (p *FollowerPage) Profiles() ([]*UserProfile, error) {
	out := make([]*UserProfile, 0, len(p.Users))
	for i, u := range p.Users {
		profile, err := ParseUserProfile(u)
		if err != nil {
			return nil, withIndex(err, i)
		}
		out = append(out, profile)
	}
	return out, nil
}

func withIndex(err error, i int) error {
	if e, ok := err.(*errors.Error); ok {
		return errors.UnexpectedShape("users[%d]: %s", i, e.Message)
	}
	return err
}

// Post is one timeline entry
type Post struct {
	ID          int64     `json:"id"`
	MblogID     string    `json:"mblog_id"`
	TextRaw     string    `json:"text_raw"`
	Text        string    `json:"text"`
	Title       string    `json:"title"`
	IsTop       bool      `json:"is_top"`
	RegionName  string    `json:"region_name"`
	CreatedAt   time.Time `json:"created_at"`
	IsLongText  bool      `json:"is_long_text"`
	LongText    string    `json:"long_text,omitempty"`
	HasPicture  bool      `json:"has_picture"`
	PictureIDs  []string  `json:"picture_id_list"`
	PictureURLs []string  `json:"picture_url_list"`
	HasArticle  bool      `json:"has_article"`
	ArticleURLs []string  `json:"article_url_list,omitempty"`
	IsRetweet   bool      `json:"is_retweet"`
	RetweetID   int64     `json:"retweet_id,omitempty"`
	Retweet     *Post     `json:"retweet_mblog,omitempty"`
}

// ParsePost reads a timeline entry.
// Required: id, mblogid, created_at. Defaults: text_raw/text "", title "" (absent title
// object or text), region_name "", isLongText false, no pictures, no articles.
func ParsePost(doc Document) (*Post, error) {
	id, err := doc.Int64("id")
	if err != nil {
		return nil, err
	}
	mblogID, err := doc.String("mblogid")
	if err != nil {
		return nil, err
	}
	rawCreated, err := doc.String("created_at")
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(CreatedAtLayout, rawCreated)
	if err != nil {
		return nil, errors.UnexpectedShape("post %d: bad created_at %q", id, rawCreated)
	}

	post := &Post{
		ID:          id,
		MblogID:     mblogID,
		TextRaw:     doc.OptString("text_raw", ""),
		Text:        doc.OptString("text", ""),
		RegionName:  doc.OptString("region_name", ""),
		CreatedAt:   createdAt,
		IsLongText:  doc.OptBool("isLongText", false),
		PictureIDs:  []string{},
		PictureURLs: []string{},
	}
	if title := doc.OptObject("title"); title != nil {
		post.Title = title.OptString("text", "")
	}
	post.IsTop = post.Title == PinnedTitle

	picInfos := doc.OptObject("pic_infos")
	for _, raw := range doc.OptArray("pic_ids") {
		picID, ok := raw.(string)
		if !ok {
			return nil, errors.UnexpectedShape("post %d: picture id is not a string", id)
		}
		info := picInfos.OptObject(picID)
		largest := info.OptObject("largest")
		picURL, err := largest.String("url")
		if err != nil {
			return nil, errors.UnexpectedShape("post %d: no largest url for picture %s", id, picID)
		}
		post.PictureIDs = append(post.PictureIDs, picID)
		post.PictureURLs = append(post.PictureURLs, picURL)
	}
	post.HasPicture = len(post.PictureIDs) > 0

	if _, ok := doc["url_struct"]; ok {
		post.HasArticle = true
		articles, err := doc.Objects("url_struct")
		if err != nil {
			return nil, err
		}
		post.ArticleURLs = make([]string, 0, len(articles))
		for _, a := range articles {
			post.ArticleURLs = append(post.ArticleURLs, a.OptString("long_url", ""))
		}
	}

	if rt := doc.OptObject("retweeted_status"); rt != nil {
		retweet, err := ParsePost(rt)
		if err != nil {
			return nil, err
		}
		post.IsRetweet = true
		post.RetweetID = retweet.ID
		post.Retweet = retweet
	}

	return post, nil
}

// Walk calls fn for the post and, recursively, for the post it retweets
func (p *Post) Walk(fn func(*Post)) {
	for cur := p; cur != nil; cur = cur.Retweet {
		fn(cur)
	}
}
