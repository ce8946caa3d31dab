package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	uploadsURLPrefix = "/uploads/"
	maxImageSize     = 5 << 20
)

var allowedImageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// Uploads stores product and storefront images under Root, served at /uploads.
type Uploads struct {
	Root string
}

// Save writes the image into dir and returns its public URL.
func (u Uploads) Save(file *multipart.FileHeader, dir string) (string, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	if extension == "" {
		return "", fmt.Errorf("image file extension is required")
	}
	if _, ok := allowedImageExtensions[extension]; !ok {
		return "", fmt.Errorf("unsupported image type: %s", extension)
	}
	if file.Size > maxImageSize {
		return "", fmt.Errorf("image file too large (max 5MB)")
	}

	filename := primitive.NewObjectID().Hex() + extension
	target := filepath.Join(u.Root, dir)
	if err := os.MkdirAll(target, 0o755); err != nil {
		zap.L().Error("upload dir not created", zap.String("dir", target), zap.Error(err))
		return "", err
	}

	fullPath := filepath.Join(target, filename)
	out, err := os.Create(fullPath)
	if err != nil {
		zap.L().Error("upload file not created", zap.String("path", fullPath), zap.Error(err))
		return "", err
	}
	defer out.Close()

	in, err := file.Open()
	if err != nil {
		return "", err
	}
	defer in.Close()

	if _, err := io.Copy(out, in); err != nil {
		zap.L().Error("upload not written", zap.String("path", fullPath), zap.Error(err))
		return "", err
	}

	zap.L().Debug("upload saved", zap.String("path", fullPath))
	return uploadsURLPrefix + path.Join(filepath.ToSlash(dir), filename), nil
}

// Delete removes a previously saved upload. URLs outside /uploads, or paths
// escaping Root, are refused.
func (u Uploads) Delete(url string) error {
	trimmed := strings.TrimSpace(url)
	if trimmed == "" {
		return nil
	}
	cleaned := path.Clean("/" + strings.TrimPrefix(trimmed, "/"))
	if !strings.HasPrefix(cleaned, uploadsURLPrefix) {
		return fmt.Errorf("refusing to delete non-upload path: %s", url)
	}

	cleanRel := strings.TrimPrefix(cleaned, uploadsURLPrefix)
	cleanBase, err := filepath.Abs(u.Root)
	if err != nil {
		return err
	}
	cleanTarget := filepath.Clean(filepath.Join(cleanBase, filepath.FromSlash(cleanRel)))
	if cleanTarget == cleanBase || !strings.HasPrefix(cleanTarget, cleanBase+string(os.PathSeparator)) {
		return fmt.Errorf("refusing to delete path outside upload root: %s", url)
	}

	if err := os.Remove(cleanTarget); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
