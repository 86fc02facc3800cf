package auth

import (
	"fmt"
	"io"
	"strings"
)

// WriteCookieGuide prints how to copy the Weibo cookie out of a logged-in browser
func WriteCookieGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "WEIBO COOKIE")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "1. Log in at https://weibo.com in your browser.")
	fmt.Fprintln(w, "2. Open Developer Tools (F12) and switch to the Network tab.")
	fmt.Fprintln(w, "3. Reload, then click any request to weibo.com/ajax/...")
	fmt.Fprintln(w, "4. Under Request Headers copy the whole value of the Cookie: line.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The value must contain SUB=...; it is stored as given and sent verbatim.")
	fmt.Fprintln(w, "Anyone holding it can act as your account. Do not share it.")
	fmt.Fprintln(w, rule)
}
