package weibo

import (
	"net/url"
	"strconv"
)

const (
	// BaseURL is the default API host
	BaseURL = "https://weibo.com"

	// ProfileEndpoint returns data.user for a uid
	ProfileEndpoint = "/ajax/profile/info"

	// FriendsEndpoint pages through the accounts a uid follows.
	// It is also what the traversal walks as the "followers" of the current user.
	FriendsEndpoint = "/ajax/friendships/friends"

	// PostsEndpoint pages through a uid's own timeline
	PostsEndpoint = "/ajax/statuses/mymblog"

	// LongTextEndpoint expands a truncated post
	LongTextEndpoint = "/ajax/statuses/longtext"
)

func uidParams(id int64) url.Values {
	params := url.Values{}
	params.Set("uid", strconv.FormatInt(id, 10))
	return params
}

func pagedParams(id int64, page int) url.Values {
	params := uidParams(id)
	params.Set("page", strconv.Itoa(page))
	return params
}

// ProfilePageURL is the public profile URL of a user, used in CLI output
func ProfilePageURL(id int64) string {
	return BaseURL + "/u/" + strconv.FormatInt(id, 10)
}
