package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RespondJSONWithETag sends payload with a strong ETag over its JSON encoding
// and answers 304 when If-None-Match already names it. Clients may keep the
// body but must revalidate.
func RespondJSONWithETag(ctx *gin.Context, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		ctx.JSON(status, payload)
		return
	}

	etag := strongETag(body)

	ctx.Header("ETag", etag)
	ctx.Header("Cache-Control", "private, no-cache")

	if etagMatches(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.Data(status, "application/json; charset=utf-8", body)
}

func strongETag(body []byte) string {
	sum := sha256.Sum256(body)

	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// etagMatches uses weak comparison, as If-None-Match requires.
func etagMatches(header, current string) bool {
	header = strings.TrimSpace(header)
	if header == "" || current == "" {
		return false
	}

	if header == "*" {
		return true
	}

	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == current {
			return true
		}
	}

	return false
}
