// Package fakeapi is an in-memory stand-in for the shop's REST API. It serves
// the category, blog category and blog routes with the same quirks as the real
// server: mixed casing, wrapped and bare list bodies, and PUT routes with odd
// names. The demo mode and the resource tests run against it.
package fakeapi

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
)

type failure struct {
	status  int
	message string
}

// Server holds the tables and any injected failures.
type Server struct {
	mu       sync.Mutex
	next     map[string]int
	tables   map[string]map[int]fiber.Map
	uploads  map[string][]byte
	failures map[string]failure
	calls    []string
}

func New() *Server {
	return &Server{
		next:     map[string]int{},
		tables:   map[string]map[int]fiber.Map{"category": {}, "blogCategory": {}, "blog": {}},
		uploads:  map[string][]byte{},
		failures: map[string]failure{},
	}
}

// Fail makes every request to "METHOD /path" answer with status and a
// {"message": msg} body until Recover is called.
func (s *Server) Fail(method, path string, status int, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, message: msg}
}

func (s *Server) Recover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]failure{}
}

// Calls returns "METHOD /path" for every request served so far.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// Seed inserts a row and returns its id.
func (s *Server) Seed(table string, row fiber.Map) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(table, row)
}

// Row returns a copy of a stored row.
func (s *Server) Row(table string, id int) (fiber.Map, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.tables[table][id]
	if !ok {
		return nil, false
	}
	return clone(row), true
}

func (s *Server) insert(table string, row fiber.Map) int {
	s.next[table]++
	id := s.next[table]
	row = clone(row)
	row[idKeys[table]] = id
	s.tables[table][id] = row
	return id
}

var idKeys = map[string]string{
	"category":     "categoryId",
	"blogCategory": "BlogCategoryID",
	"blog":         "blogId",
}

func clone(m fiber.Map) fiber.Map {
	out := make(fiber.Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *Server) rows(table string) []fiber.Map {
	ids := make([]int, 0, len(s.tables[table]))
	for id := range s.tables[table] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]fiber.Map, 0, len(ids))
	for _, id := range ids {
		out = append(out, clone(s.tables[table][id]))
	}
	return out
}

// Register mounts the API routes on r.
func (s *Server) Register(r fiber.Router) {
	category := r.Group("/api/Category", s.record)
	category.Get("/GetAll_Category", s.listCategories)
	category.Get("/GetCategoryById/:id", s.getCategory)
	category.Post("/", s.createCategory)
	category.Put("/GetCategoryById/:id", s.updateCategory)
	category.Put("/DeleteCategoryById/:id", s.deleteCategory)

	blog := r.Group("/api/Blog", s.record)
	blog.Get("/GetAllCategory_Blogs", s.listBlogCategories)
	blog.Get("/Get_BlogCategoryByID", s.getBlogCategory)
	blog.Post("/Create_BlogCategory", s.createBlogCategory)
	blog.Put("/Update_BlogCategory", s.updateBlogCategory)
	blog.Delete("/Delete_BlogCategory", s.deleteBlogCategory)

	blog.Get("/blogs", s.listBlogs)
	blog.Get("/GetBlogById", s.getBlog)
	blog.Post("/CreateBlog", s.createBlog)
	blog.Put("/UpdateBlog", s.updateBlog)
	blog.Delete("/DeleteBlogById", s.deleteBlog)

	r.Get("/uploads/:name", s.upload)
}

// App returns a standalone Fiber app serving the API.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	s.Register(app)
	return app
}

// Listen serves the API on ln until the returned stop func is called.
func (s *Server) Listen(ln net.Listener) (stop func() error) {
	app := s.App()
	go func() { _ = app.Listener(ln) }()
	return app.Shutdown
}

func (s *Server) record(c *fiber.Ctx) error {
	key := c.Method() + " " + c.Path()
	s.mu.Lock()
	s.calls = append(s.calls, key)
	f, failing := s.failures[key]
	s.mu.Unlock()
	if failing {
		return c.Status(f.status).JSON(fiber.Map{"message": f.message})
	}
	return c.Next()
}

func notFound(c *fiber.Ctx, what string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": what + " not found"})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": msg})
}

func number(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(t))
		return n
	default:
		return 0
	}
}

func text(v any) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
