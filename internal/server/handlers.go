package server

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/conneroisu/assetpipeline/internal/assets"
	perrors "github.com/conneroisu/assetpipeline/internal/errors"
	"github.com/conneroisu/assetpipeline/internal/version"
)

// handleAsset serves the combined output of kind for the wildcard path. An
// empty path asks for the kind's whole directory.
func (s *AssetServer) handleAsset(kind assets.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := r.PathValue("path")

		out, err := s.builder.Build(r.Context(), kind, target)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		sum := sha256.Sum256([]byte(out))
		w.Header().Set("Content-Type", kind.MediaType()+"; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("ETag", `"`+hex.EncodeToString(sum[:8])+`"`)

		http.ServeContent(w, r, "", time.Time{}, strings.NewReader(out))
	}
}

func statusFor(err error) int {
	switch {
	case perrors.IsNotFound(err):
		return http.StatusNotFound
	case perrors.IsInvalidArgument(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *AssetServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), err, "Asset request failed", "path", r.URL.Path)
		// Compiler output may reveal file system details.
		http.Error(w, http.StatusText(status), status)
		return
	}

	s.logger.Warn(r.Context(), err, "Rejected asset request", "path", r.URL.Path, "status", status)
	http.Error(w, err.Error(), status)
}

func (s *AssetServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	info := version.Get()
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   info.Short(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(health); err != nil {
		s.logger.Error(r.Context(), err, "Failed to encode health response")
	}
}
