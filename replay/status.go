package replay

import "net/http"

func isStatusSuccess(statusCode int) bool {
	// Not mega-robust, but good enough for our use-case.
	return statusCode >= 200 && statusCode < 300
}

func isRedirect(statusCode int) bool {
	switch statusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}
