package book

import (
	"encoding/base64"
	"encoding/json"
)

// PageToken is the data a client echoes back to continue a search.
type PageToken struct {
	Filter Filter      `json:"filter"`
	Page   PageRequest `json:"page"`
}

// EncodePageToken encodes a token to an opaque base64 string.
func EncodePageToken(t PageToken) string {
	jsonBytes, err := json.Marshal(t)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(jsonBytes)
}

// DecodePageToken decodes a string produced by EncodePageToken.
func DecodePageToken(token string) (PageToken, error) {
	if token == "" {
		return PageToken{}, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return PageToken{}, err
	}

	var t PageToken
	if err := json.Unmarshal(decoded, &t); err != nil {
		return PageToken{}, err
	}
	return t, nil
}

// NextPageToken returns the token for the page after p, or "" on the last page.
func NextPageToken(filter Filter, p Page) string {
	if !p.HasNext() {
		return ""
	}
	return EncodePageToken(PageToken{Filter: filter, Page: p.Request.Next()})
}
