package fakeapi

import (
	"github.com/gofiber/fiber/v2"
)

// Categories answer as a bare camelCase array.
func (s *Server) listCategories(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(s.rows("category"))
}

func (s *Server) getCategory(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return badRequest(c, "Invalid id")
	}
	row, ok := s.Row("category", id)
	if !ok {
		return notFound(c, "Category")
	}
	return c.JSON(fiber.Map{"data": row})
}

func categoryRow(body fiber.Map) fiber.Map {
	return fiber.Map{
		"categoryName":        text(body["categoryName"]),
		"categoryDescription": text(body["categoryDescription"]),
		"statusId":            number(body["statusId"]),
		"createdDate":         text(body["createdDate"]),
		"createdBy":           number(body["createdBy"]),
	}
}

func (s *Server) createCategory(c *fiber.Ctx) error {
	var body fiber.Map
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if text(body["categoryName"]) == "" {
		return badRequest(c, "Category name is required")
	}
	id := s.Seed("category", categoryRow(body))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"categoryId": id})
}

func (s *Server) updateCategory(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return badRequest(c, "Invalid id")
	}
	var body fiber.Map
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables["category"][id]; !ok {
		return notFound(c, "Category")
	}
	row := categoryRow(body)
	row["categoryId"] = id
	s.tables["category"][id] = row
	return c.SendString("Updated")
}

func (s *Server) deleteCategory(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return badRequest(c, "Invalid id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables["category"][id]; !ok {
		return notFound(c, "Category")
	}
	delete(s.tables["category"], id)
	return c.SendStatus(fiber.StatusNoContent)
}

// Blog categories answer with PascalCase keys inside a "data" wrapper.
func (s *Server) listBlogCategories(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(fiber.Map{"data": s.rows("blogCategory")})
}

func (s *Server) getBlogCategory(c *fiber.Ctx) error {
	row, ok := s.Row("blogCategory", c.QueryInt("BlogCategoryID"))
	if !ok {
		return notFound(c, "Blog category")
	}
	return c.JSON(row)
}

func blogCategoryRow(body fiber.Map) fiber.Map {
	return fiber.Map{
		"CategoryName":        text(body["categoryName"]),
		"CategoryDescription": text(body["categoryDescription"]),
		"CategoryTypeID":      number(body["categoryTypeID"]),
	}
}

func (s *Server) createBlogCategory(c *fiber.Ctx) error {
	var body fiber.Map
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if text(body["categoryName"]) == "" {
		return badRequest(c, "CategoryName is required")
	}
	id := s.Seed("blogCategory", blogCategoryRow(body))
	return c.JSON(fiber.Map{"result": fiber.Map{"BlogCategoryID": id}})
}

func (s *Server) updateBlogCategory(c *fiber.Ctx) error {
	var body fiber.Map
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}
	id := number(body["categoryId"])
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables["blogCategory"][id]; !ok {
		return notFound(c, "Blog category")
	}
	row := blogCategoryRow(body)
	row["BlogCategoryID"] = id
	s.tables["blogCategory"][id] = row
	return c.JSON(fiber.Map{"message": "Updated"})
}

func (s *Server) deleteBlogCategory(c *fiber.Ctx) error {
	id := c.QueryInt("BlogCategoryID")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables["blogCategory"][id]; !ok {
		return notFound(c, "Blog category")
	}
	delete(s.tables["blogCategory"], id)
	return c.JSON(fiber.Map{"message": "Deleted"})
}
