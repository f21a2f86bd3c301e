// Package upload manages the image files attached to blog posts. Uploads are
// two-phase: Stage writes the incoming file to disk and hands back a Staged
// handle; the caller either persists the record and keeps the file, or calls
// Discard to remove it. Reclaim deletes a previously committed file once the
// record no longer references it.
package upload

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxImageSize is the upload size limit for a single image.
const MaxImageSize = 5 << 20 // 5MB

// PublicPrefix is the URL path under which staged images are served.
const PublicPrefix = "/uploads/blogs"

var (
	ErrFileTooLarge    = errors.New("image exceeds the 5MB size limit")
	ErrUnsupportedType = errors.New("invalid file type, only JPEG, PNG and GIF are allowed")
)

// extByType maps accepted sniffed content types to file extensions.
var extByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// Manager stages and reclaims blog image files under a single directory.
type Manager struct {
	dir string
}

// NewManager creates a Manager rooted at the blogs subdirectory of uploadDir,
// creating it if needed.
func NewManager(uploadDir string) (*Manager, error) {
	dir := filepath.Join(uploadDir, "blogs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Manager{dir: dir}, nil
}

// Staged is an uploaded file that has been written to disk but whose owning
// record has not yet been persisted.
type Staged struct {
	// Path is the public URL path to store on the record.
	Path string

	diskPath string
}

// Discard removes the staged file. Call it when the record write fails so no
// orphan file is left behind.
func (st *Staged) Discard() error {
	if err := os.Remove(st.diskPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("discard staged image: %w", err)
	}
	return nil
}

// Stage validates and writes an uploaded image to disk. The content type is
// sniffed from the file bytes, not taken from the client headers.
func (m *Manager) Stage(file multipart.File, header *multipart.FileHeader) (*Staged, error) {
	if header.Size > MaxImageSize {
		return nil, ErrFileTooLarge
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read image: %w", err)
	}
	head = head[:n]

	ext, ok := extByType[http.DetectContentType(head)]
	if !ok {
		return nil, ErrUnsupportedType
	}

	name := "blog-" + uuid.Must(uuid.NewV7()).String() + ext
	diskPath := filepath.Join(m.dir, name)

	dst, err := os.Create(diskPath)
	if err != nil {
		return nil, fmt.Errorf("create image file: %w", err)
	}
	defer dst.Close()

	// Re-count the size on disk; header.Size comes from the client.
	written := int64(len(head))
	if _, err := dst.Write(head); err != nil {
		os.Remove(diskPath)
		return nil, fmt.Errorf("write image: %w", err)
	}
	n2, err := io.Copy(dst, io.LimitReader(file, MaxImageSize-written+1))
	if err != nil {
		os.Remove(diskPath)
		return nil, fmt.Errorf("write image: %w", err)
	}
	if written+n2 > MaxImageSize {
		os.Remove(diskPath)
		return nil, ErrFileTooLarge
	}

	return &Staged{
		Path:     path.Join(PublicPrefix, name),
		diskPath: diskPath,
	}, nil
}

// Reclaim deletes the file behind a public image path, typically after the
// owning record was deleted or re-pointed at a replacement image. A missing
// file counts as success; any other failure is returned for the caller to
// log, never to fail the request.
func (m *Manager) Reclaim(publicPath string) error {
	if publicPath == "" {
		return nil
	}
	if !strings.HasPrefix(publicPath, PublicPrefix+"/") {
		return fmt.Errorf("reclaim image: path %q is outside %s", publicPath, PublicPrefix)
	}
	// Base strips any traversal the stored path could carry.
	diskPath := filepath.Join(m.dir, path.Base(publicPath))
	if err := os.Remove(diskPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reclaim image: %w", err)
	}
	return nil
}

// Exists reports whether the file behind a public image path is on disk.
func (m *Manager) Exists(publicPath string) bool {
	if !strings.HasPrefix(publicPath, PublicPrefix+"/") {
		return false
	}
	_, err := os.Stat(filepath.Join(m.dir, path.Base(publicPath)))
	return err == nil
}
