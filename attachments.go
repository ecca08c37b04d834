package main

import (
	"context"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Bijush/Avoter/models"
)

// acceptedExtensions lists the upload types the record form accepts.
// Anything else is skipped without failing the submission.
var acceptedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

func acceptedFile(name string) bool {
	return acceptedExtensions[strings.ToLower(filepath.Ext(name))]
}

// saveAttachments stores every accepted uploaded file under the record's
// prefix and returns their public addresses in upload order. Files with an
// unaccepted extension are skipped silently; a storage failure aborts.
func (s *server) saveAttachments(c *gin.Context, recordID string) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil, nil // not a multipart submission
	}
	var addrs []string
	for _, fh := range form.File["attachments"] {
		if !acceptedFile(fh.Filename) {
			s.log.Info("skipping attachment with unaccepted type",
				zap.String("record", recordID), zap.String("filename", fh.Filename))
			continue
		}
		addr, err := s.blobs.Save(recordID, fh)
		if err != nil {
			s.log.Error("storing attachment failed",
				zap.String("record", recordID), zap.String("filename", fh.Filename), zap.Error(err))
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// appendMissing appends the addresses not already present in the list.
// Re-uploading a filename the record already has overwrites the single
// stored blob, so its address must not be listed twice.
func appendMissing(list []string, addrs []string) []string {
	for _, addr := range addrs {
		if !slices.Contains(list, addr) {
			list = append(list, addr)
		}
	}
	return list
}

// removeAttachment deletes one stored blob and persists the record's
// attachment list with every address ending in filename dropped.
func (s *server) removeAttachment(ctx context.Context, rec models.Record, filename string) error {
	if err := s.blobs.Remove(rec.ID, filename); err != nil {
		return err
	}
	kept := make([]string, 0, len(rec.Attachments))
	for _, addr := range rec.Attachments {
		if strings.HasSuffix(addr, filename) {
			continue
		}
		kept = append(kept, addr)
	}
	return s.store.SetAttachments(ctx, rec.ID, kept)
}
