package services

import "strings"

// MediaURLResolver prefixes stored media paths with the configured public
// base URL. An empty base returns paths unchanged.
type MediaURLResolver struct {
	BaseURL string
}

func NewMediaURLResolver(baseURL string) *MediaURLResolver {
	return &MediaURLResolver{BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/")}
}

func (r *MediaURLResolver) PublicURL(storedPath string) string {
	storedPath = strings.TrimSpace(storedPath)
	if storedPath == "" {
		return ""
	}
	if strings.HasPrefix(storedPath, "http://") || strings.HasPrefix(storedPath, "https://") {
		return storedPath
	}
	if r.BaseURL == "" {
		return storedPath
	}
	return r.BaseURL + "/" + strings.TrimLeft(storedPath, "/")
}
