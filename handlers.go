package main

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"path"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Bijush/Avoter/models"
	"github.com/Bijush/Avoter/pkg/blob"
	"github.com/Bijush/Avoter/store"
)

// maxUploadBytes caps the in-memory portion of multipart parsing.
const maxUploadBytes = 32 << 20

// server carries the injected dependencies for all request handlers.
type server struct {
	store store.RecordStore
	blobs *blob.Store
	log   *zap.Logger
	coll  *collate.Collator
}

func newServer(st store.RecordStore, blobs *blob.Store, logger *zap.Logger) *server {
	return &server{
		store: st,
		blobs: blobs,
		log:   logger,
		coll:  collate.New(language.Und, collate.IgnoreCase),
	}
}

// newRouter builds the engine with templates, static blob serving and the
// route table.
func newRouter(srv *server, uploadBase string) *gin.Engine {
	r := gin.Default()
	r.SetFuncMap(template.FuncMap{"base": path.Base})
	r.LoadHTMLGlob("templates/*.html")
	r.Static(publicFilesPrefix, uploadBase)
	srv.setupRoutes(r)
	return r
}

func (s *server) setupRoutes(r *gin.Engine) {
	r.GET("/", s.indexHandler)
	r.GET("/add", s.addFormHandler)
	r.POST("/add", s.createHandler)
	r.GET("/edit/:id", s.editFormHandler)
	r.POST("/edit/:id", s.updateHandler)
	r.POST("/delete/:id", s.deleteHandler)
	r.POST("/delete_pdf/:id/:filename", s.deleteAttachmentHandler)
	r.POST("/update_remark", s.updateRemarkHandler)
	r.GET("/test_connection", s.testConnectionHandler)
}

// postedForm returns the submitted values for both urlencoded and multipart
// bodies. Reconciliation is driven by key presence, so handlers work on the
// raw value map rather than struct binding.
func postedForm(c *gin.Context) url.Values {
	_ = c.Request.ParseMultipartForm(maxUploadBytes)
	return c.Request.PostForm
}

// indexHandler lists all records sorted by holder name, case-insensitively.
// A failing read renders an empty list instead of an error page.
func (s *server) indexHandler(c *gin.Context) {
	recs, err := s.store.List(c.Request.Context())
	if err != nil {
		s.log.Warn("listing records failed; rendering empty list", zap.Error(err))
		recs = nil
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return s.coll.CompareString(recs[i].Name, recs[j].Name) < 0
	})
	c.HTML(http.StatusOK, "index.html", gin.H{
		"records": recs,
		"now":     time.Now().UTC(),
	})
}

func (s *server) addFormHandler(c *gin.Context) {
	c.HTML(http.StatusOK, "form.html", gin.H{
		"action": "Add",
		"rec":    nil,
		"now":    time.Now().UTC(),
	})
}

func (s *server) createHandler(c *gin.Context) {
	rec := models.Reconcile(models.Defaults(), postedForm(c))
	rec.ID = uuid.NewString()
	now := time.Now().Format(models.TimeLayout)
	rec.CreatedAt = now
	rec.UpdatedAt = now

	addrs, err := s.saveAttachments(c, rec.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "attachment upload failed"})
		return
	}
	rec.Attachments = addrs

	if err := s.store.Create(c.Request.Context(), rec); err != nil {
		s.log.Error("create record failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (s *server) editFormHandler(c *gin.Context) {
	rec, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.String(http.StatusNotFound, "Record not found")
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read failed"})
		return
	}
	c.HTML(http.StatusOK, "form.html", gin.H{
		"action": "Edit",
		"rec":    rec,
		"now":    time.Now().UTC(),
	})
}

// updateHandler reconciles the submitted form over the stored record, so
// fields absent from the form keep their previous values.
func (s *server) updateHandler(c *gin.Context) {
	id := c.Param("id")
	existing, err := s.store.Get(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.String(http.StatusNotFound, "Record not found")
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read failed"})
		return
	}

	rec := models.Reconcile(existing, postedForm(c))
	rec.UpdatedAt = time.Now().Format(models.TimeLayout)

	addrs, err := s.saveAttachments(c, rec.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "attachment upload failed"})
		return
	}
	rec.Attachments = appendMissing(rec.Attachments, addrs)

	if err := s.store.Update(c.Request.Context(), rec); err != nil {
		s.log.Error("update record failed", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// deleteHandler removes the record and every blob stored under its prefix.
// An unknown identifier is a no-op.
func (s *server) deleteHandler(c *gin.Context) {
	id := c.Param("id")
	if err := s.blobs.RemoveAll(id); err != nil {
		s.log.Warn("removing attachment blobs failed", zap.String("id", id), zap.Error(err))
	}
	if err := s.store.Delete(c.Request.Context(), id); err != nil {
		s.log.Error("delete record failed", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// deleteAttachmentHandler removes one stored blob and drops its address
// from the record's list, keeping the two in sync.
func (s *server) deleteAttachmentHandler(c *gin.Context) {
	id := c.Param("id")
	filename := c.Param("filename")

	rec, err := s.store.Get(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.Redirect(http.StatusFound, "/edit/"+id)
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read failed"})
		return
	}
	if err := s.removeAttachment(c.Request.Context(), rec, filename); err != nil {
		s.log.Error("remove attachment failed",
			zap.String("id", id), zap.String("filename", filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "remove failed"})
		return
	}
	c.Redirect(http.StatusFound, "/edit/"+id)
}

// updateRemarkHandler updates only the remark of one record and answers
// with an empty 204. Other fields are untouched.
func (s *server) updateRemarkHandler(c *gin.Context) {
	form := postedForm(c)
	if _, ok := form["id"]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id missing"})
		return
	}
	id := form.Get("id")
	remark := form.Get("remark")
	if err := s.store.UpdateRemark(c.Request.Context(), id, remark); err != nil {
		s.log.Error("update remark failed", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

// testConnectionHandler probes the backing store.
func (s *server) testConnectionHandler(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"backend": s.store.Name(),
	})
}
