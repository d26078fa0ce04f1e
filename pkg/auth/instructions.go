package auth

import "fmt"

// PrintCookieInstructions explains how to capture a Zhihu session cookie
// from a logged-in browser
func PrintCookieInstructions() {
	fmt.Print(`
How to get your Zhihu cookie:

1. Open https://www.zhihu.com in your browser and log in
2. Open Developer Tools (F12 or Cmd+Option+I)
3. Go to the Network tab and reload the page
4. Click any request to www.zhihu.com
5. In Request Headers, find the "Cookie" header
6. Copy its entire value (it should contain z_c0=... and d_c0=...)

Notes:
- The z_c0 cookie is the login token; without it the exporter can only
  see public content and hits much stricter rate limits
- Cookies expire when you log out or change your password; re-run
  'zhexport auth login' if exports start failing with 401 errors
- Your cookie is stored in the system keychain when available, or in an
  encrypted file under your config directory

`)
}
