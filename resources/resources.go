// Package resources declares the admin screens: one crud.Resource per entity
// with its endpoints, fields, rules and row projection.
package resources

import (
	"time"

	"babyshop/crud"
	"babyshop/gateway"
)

// Screen names as used in URLs.
const (
	Categories     = "categories"
	BlogCategories = "blog-categories"
	Blogs          = "blogs"
	Team           = "team"
	Products       = "products"
)

// Names lists every screen in sidebar order.
var Names = []string{Categories, BlogCategories, Blogs, Products, Team}

// now is stubbed in tests.
var now = time.Now

func isoNow() string {
	return now().UTC().Format("2006-01-02T15:04:05.000Z")
}

// Deps are the backends a dashboard is built on.
type Deps struct {
	API      *gateway.Client
	Team     crud.Backend
	Products crud.Backend
	PageSize int
	// BlogPageSize is the page size of the blog post list.
	BlogPageSize int
}

// Build returns every resource keyed by name. Screens whose backend is missing
// are left out.
func Build(d Deps) map[string]*crud.Resource {
	out := map[string]*crud.Resource{}
	if d.API != nil {
		blogCategories := BlogCategory(d.API, d.PageSize)
		out[Categories] = Category(d.API, d.PageSize)
		out[BlogCategories] = blogCategories
		out[Blogs] = BlogPost(d.API, d.BlogPageSize, CategoryOptions(blogCategories.Backend))
	}
	if d.Team != nil {
		out[Team] = TeamMember(d.Team, d.PageSize)
	}
	if d.Products != nil {
		out[Products] = Product(d.Products, d.PageSize)
	}
	return out
}
