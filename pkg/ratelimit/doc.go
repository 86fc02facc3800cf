// Package ratelimit paces requests to the Weibo API.
//
// Governor is the call-count pacer: one instance is shared by every request of a
// traversal and forces a fixed pause every PageSleepCount calls, starting with the
// very first call. It is never reset mid-traversal.
//
//	gov := ratelimit.NewGovernor(ratelimit.GovernorConfig{
//	    PageSleepCount:    10,
//	    PageSleepDuration: 30 * time.Second,
//	}, log)
//	if err := gov.BeforeCall(ctx); err != nil {
//	    return err
//	}
//
// PerMinute wraps golang.org/x/time/rate behind the Limiter interface. The governor
// uses it as an optional steady ceiling, and the image downloader paces itself with it.
package ratelimit
