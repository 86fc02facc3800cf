// Package weibo is a thin client for the Weibo web JSON API.
//
// Every call is a single authenticated GET. Responses are decoded into Document,
// a JSON object with typed accessors; the typed fetchers (FetchUserProfile,
// FetchFollowerPage, FetchPostPage, FetchLongText) turn Documents into model
// structs. Nothing here retries or paces requests, that is the job of the
// ratelimit.Governor owned by the caller.
//
// Errors are *errors.Error values of kind request_failed (network, HTTP status,
// invalid JSON) or unexpected_shape (missing or mistyped required field).
package weibo
