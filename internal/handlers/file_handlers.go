package handlers

import (
	"encoding/json"
	"path/filepath"
	"strconv"

	"github.com/fathima-sithara/files-service/internal/middleware"
	"github.com/fathima-sithara/files-service/internal/models"
	"github.com/fathima-sithara/files-service/internal/queue"
	"github.com/fathima-sithara/files-service/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type createFileReq struct {
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	ParentID json.RawMessage `json:"parentId"`
	IsPublic bool            `json:"isPublic"`
	Data     string          `json:"data"`
}

// parentFromBody accepts a missing value, null, 0, "0" or a hex id. Anything
// else becomes a folder id no document can have, so the parent lookup
// reports it as not found after the other fields were validated.
func parentFromBody(raw json.RawMessage) models.ParentID {
	if len(raw) == 0 {
		return models.Root()
	}
	var p models.ParentID
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.Folder(primitive.NilObjectID)
	}
	return p
}

// POST /files
func (h *Handler) CreateFile(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	var req createFileReq
	if err := parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}
	ctx := c.UserContext()
	parent := parentFromBody(req.ParentID)

	var (
		f   *models.File
		err error
	)
	switch kind := models.FileType(req.Type); kind {
	case models.FileTypeFolder:
		f, err = h.files.CreateFolder(ctx, user.ID, req.Name, parent, req.IsPublic)
	case models.FileTypeFile, models.FileTypeImage:
		f, err = h.files.CreateFile(ctx, user.ID, req.Name, kind, parent, req.IsPublic, req.Data)
	default:
		if req.Name == "" {
			err = services.ErrMissingName
		} else {
			err = services.ErrMissingType
		}
	}
	if err != nil {
		return h.fail(c, err)
	}

	if f.Type == models.FileTypeImage {
		payload := models.ThumbnailJob{FileID: f.ID.Hex(), UserID: user.ID.Hex()}
		if _, err := h.thumbs.Enqueue(ctx, queue.KindThumbnail, payload); err != nil {
			h.logger.Error("enqueue thumbnail job", zap.String("file_id", payload.FileID), zap.Error(err))
		}
	}
	return c.Status(fiber.StatusCreated).JSON(f)
}

// GET /files/:id
func (h *Handler) GetFile(c *fiber.Ctx) error {
	f, err := h.files.GetByID(c.UserContext(), c.Params("id"), middleware.CurrentUser(c).ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(f)
}

// GET /files?parentId=&page=
func (h *Handler) ListFiles(c *fiber.Ctx) error {
	parent, err := models.ParseParentID(c.Query("parentId"))
	if err != nil {
		// no folder can have that id
		return c.JSON([]*models.File{})
	}
	page, err := strconv.Atoi(c.Query("page", "0"))
	if err != nil || page < 0 {
		page = 0
	}
	files, err := h.files.ListChildren(c.UserContext(), middleware.CurrentUser(c).ID, parent, page)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(files)
}

// PUT /files/:id/publish
func (h *Handler) Publish(c *fiber.Ctx) error {
	f, err := h.pub.Publish(c.UserContext(), c.Params("id"), middleware.CurrentUser(c).ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(f)
}

// PUT /files/:id/unpublish
func (h *Handler) Unpublish(c *fiber.Ctx) error {
	f, err := h.pub.Unpublish(c.UserContext(), c.Params("id"), middleware.CurrentUser(c).ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(f)
}

// GET /files/:id/data?size=
func (h *Handler) FileData(c *fiber.Ctx) error {
	size := 0
	if s := c.Query("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return h.fail(c, services.ErrNotFound)
		}
		size = n
	}
	viewer := primitive.NilObjectID
	if u := middleware.CurrentUser(c); u != nil {
		viewer = u.ID
	}
	f, data, err := h.files.ReadData(c.UserContext(), c.Params("id"), viewer, size)
	if err != nil {
		return h.fail(c, err)
	}
	if ext := filepath.Ext(f.Name); ext != "" {
		c.Type(ext)
	} else {
		c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	}
	return c.Send(data)
}
