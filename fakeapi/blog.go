package fakeapi

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
)

// Blogs answer inside a "result" wrapper and keep image paths relative to the
// API host.
func (s *Server) listBlogs(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(fiber.Map{"result": s.rows("blog")})
}

func (s *Server) getBlog(c *fiber.Ctx) error {
	row, ok := s.Row("blog", c.QueryInt("BlogID"))
	if !ok {
		return notFound(c, "Blog")
	}
	return c.JSON(fiber.Map{"data": row})
}

func blogRow(form *multipart.Form) fiber.Map {
	value := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return text(v[0])
		}
		return ""
	}
	return fiber.Map{
		"blogCategoryId": number(value("BlogCategoryID")),
		"productId":      number(value("ProductID")),
		"name":           value("Name"),
		"description":    value("Description"),
		"statusId":       number(value("StatusID")),
		"createdBy":      number(value("CreatedBy")),
	}
}

// store keeps uploaded images and returns their server paths. Caller holds mu.
func (s *Server) store(files []*multipart.FileHeader) ([]string, error) {
	paths := make([]string, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("%d%s", len(s.uploads)+1, filepath.Ext(fh.Filename))
		s.uploads[name] = data
		paths = append(paths, "/uploads/"+name)
	}
	return paths, nil
}

func (s *Server) createBlog(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "Expected multipart form")
	}
	row := blogRow(form)
	if row["name"] == "" {
		return badRequest(c, "Name is required")
	}
	if len(form.File["Images"]) == 0 {
		return badRequest(c, "At least one image is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	images, err := s.store(form.File["Images"])
	if err != nil {
		return badRequest(c, err.Error())
	}
	row["images"] = images
	id := s.insert("blog", row)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"blogId": id})
}

// updateBlog keeps the stored images and appends any new uploads.
func (s *Server) updateBlog(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "Expected multipart form")
	}
	var id int
	if v := form.Value["BlogID"]; len(v) > 0 {
		id = number(v[0])
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.tables["blog"][id]
	if !ok {
		return notFound(c, "Blog")
	}
	added, err := s.store(form.File["Images"])
	if err != nil {
		return badRequest(c, err.Error())
	}
	row := blogRow(form)
	row["blogId"] = id
	kept, _ := old["images"].([]string)
	row["images"] = append(append([]string(nil), kept...), added...)
	s.tables["blog"][id] = row
	return c.JSON(fiber.Map{"message": "Blog updated"})
}

func (s *Server) deleteBlog(c *fiber.Ctx) error {
	id := c.QueryInt("BlogID")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables["blog"][id]; !ok {
		return notFound(c, "Blog")
	}
	delete(s.tables["blog"], id)
	return c.SendStatus(fiber.StatusOK)
}

func (s *Server) upload(c *fiber.Ctx) error {
	s.mu.Lock()
	data, ok := s.uploads[c.Params("name")]
	s.mu.Unlock()
	if !ok {
		return c.SendStatus(fiber.StatusNotFound)
	}
	c.Set(fiber.HeaderContentType, http.DetectContentType(data))
	return c.Send(data)
}
