package dialog

import (
	"net/url"
	"strconv"

	"github.com/go-faster/errors"
)

// RefreshParam is the query parameter carrying the refresh token
const RefreshParam = "_refresh"

// CacheBust sets the refresh token on rawURL. A zero token returns rawURL
// untouched so the first load of a dialog hits the plain route.
func CacheBust(rawURL string, token uint64) (string, error) {
	if token == 0 {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrapf(err, "parse %q", rawURL)
	}
	q := u.Query()
	q.Set(RefreshParam, strconv.FormatUint(token, 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
