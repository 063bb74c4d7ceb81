package handler

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// maxUploadSize は1ファイルあたりの上限（50MB）
const maxUploadSize = 50 << 20

// UploadFile handles POST /api/upload. Files land under
// STORAGE_PATH/<userID>/<filename> and are served back via /api/files/.
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	log.Printf("[POST /api/upload] Request received from %s", r.RemoteAddr)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	userID, err := userIDFromHeader(r)
	if err != nil {
		log.Printf("[POST /api/upload] ❌ Invalid user ID: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		log.Printf("[POST /api/upload] ❌ Bad Request: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		log.Printf("[POST /api/upload] ❌ Bad Request: %v", err)
		writeError(w, http.StatusBadRequest, "No file found")
		return
	}
	defer file.Close()

	// パス区切りを含むファイル名は basename に落とす
	filename := filepath.Base(header.Filename)
	if filename == "." || filename == string(filepath.Separator) {
		log.Printf("[POST /api/upload] ❌ Bad Request: invalid filename %q", header.Filename)
		writeError(w, http.StatusBadRequest, "Invalid filename")
		return
	}

	userDir := filepath.Join(h.Config.StoragePath, userID.String())
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		log.Printf("[POST /api/upload] ❌ Failed to create user directory: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	dstPath := filepath.Join(userDir, filename)
	dst, err := os.Create(dstPath)
	if err != nil {
		log.Printf("[POST /api/upload] ❌ Failed to create file: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	size, err := io.Copy(dst, file)
	dst.Close()
	if err != nil {
		log.Printf("[POST /api/upload] ❌ Failed to write file: %v", err)
		os.Remove(dstPath)
		writeError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	contentType := "application/octet-stream"
	if mtype, err := mimetype.DetectFile(dstPath); err == nil {
		contentType = mtype.String()
	}

	log.Printf("[POST /api/upload] ✅ Stored file %q (%d bytes, %s) for user %s", filename, size, contentType, userID)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"path":         fmt.Sprintf("/api/files/%s/%s", userID, filename),
		"content_type": contentType,
		"size":         size,
	})
}
